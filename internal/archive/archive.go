// Package archive unpacks zip bundles into a destination directory.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"

	"github.com/adamancini/updsync/internal/logging"
)

// ErrUnsafePath is returned when an entry would be written outside the destination.
var ErrUnsafePath = errors.New("entry escapes destination")

// Progress is reported after every entry, skipped ones included.
type Progress struct {
	Percent int `json:"percent"`
	Current int `json:"current"`
	Total   int `json:"total"`
}

// Filter maps an entry name to its destination-relative path. Returning false
// skips the entry.
type Filter func(name string) (string, bool)

// KeepAll writes every entry under its own name.
func KeepAll(name string) (string, bool) { return name, true }

// SubtreeFilter strips a leading root/ folder when present and keeps only
// entries below subtree/, rebased onto the destination.
// "MaaResource-main/resource/x.json" becomes "x.json". The subtree directory
// entry itself is skipped.
func SubtreeFilter(root, subtree string) Filter {
	rootPrefix := strings.Trim(root, "/") + "/"
	subtreePrefix := strings.Trim(subtree, "/") + "/"
	return func(name string) (string, bool) {
		rel, ok := strings.CutPrefix(strings.TrimPrefix(name, rootPrefix), subtreePrefix)
		if !ok || rel == "" {
			return "", false
		}
		return rel, true
	}
}

// Extract unpacks the zip at src into dest. The first I/O error aborts;
// entries already written remain.
func Extract(ctx context.Context, src, dest string, filter Filter, onProgress func(Progress)) error {
	log := logging.FromContext(ctx)
	if filter == nil {
		filter = KeepAll
	}
	if onProgress == nil {
		onProgress = func(Progress) {}
	}

	r, err := zip.OpenReader(src)
	if err != nil {
		return fmt.Errorf("failed to open archive %q: %w", src, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}

	total := len(r.File)
	written := 0
	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return err
		}

		if rel, ok := filter(f.Name); ok {
			target, err := safeJoin(dest, rel)
			if err != nil {
				return err
			}
			if err := extractEntry(f, target); err != nil {
				return fmt.Errorf("failed to extract %q: %w", f.Name, err)
			}
			written++
		}

		onProgress(Progress{Percent: (i + 1) * 100 / total, Current: i + 1, Total: total})
	}

	log.Debug().Str("archive", src).Str("dest", dest).Int("entries", total).Int("written", written).Msg("archive extracted")
	return nil
}

// safeJoin rejects absolute names and any ".." component.
func safeJoin(dest, rel string) (string, error) {
	slashed := filepath.ToSlash(rel)
	if path.IsAbs(slashed) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrUnsafePath, rel)
		}
	}
	return filepath.Join(dest, filepath.FromSlash(slashed)), nil
}

func extractEntry(f *zip.File, target string) error {
	if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
		return os.MkdirAll(target, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	in, err := f.Open()
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

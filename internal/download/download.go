// Package download streams a remote artifact into a uniquely named scratch
// file while reporting throttled progress.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/adamancini/updsync/internal/logging"
)

// Chunk sizes used by the two tracks.
const (
	ResourceChunkSize = 16 << 10
	AppChunkSize      = 2 << 20
)

// DefaultInterval is the minimum time between two progress reports.
const DefaultInterval = 300 * time.Millisecond

var (
	// ErrTruncated is returned when the body ends before the advertised length.
	ErrTruncated = errors.New("download truncated")
	// ErrChecksum is returned when the downloaded file does not match the expected digest.
	ErrChecksum = errors.New("checksum mismatch")
)

// StatusError is returned for a non-success HTTP status.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status: %d", e.Code)
}

// Doer is the HTTP transport. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Progress is a snapshot of a running download.
// Percent is 0 and Total is 0 when the size is unknown.
type Progress struct {
	Percent    int    `json:"percent"`
	Speed      string `json:"speed"`
	Downloaded int64  `json:"downloaded"`
	Total      int64  `json:"total"`
}

// Target describes where and how a download is written.
type Target struct {
	Dir       string // scratch directory, created if missing
	Prefix    string // file name prefix
	Ext       string // file name extension including the dot
	ChunkSize int    // read size, ResourceChunkSize when zero
	SHA256    string // expected hex digest, unchecked when empty
}

// File is a completely downloaded artifact.
type File struct {
	Path   string
	Size   int64
	SHA256 string
}

// Downloader fetches URLs into scratch files.
type Downloader struct {
	client   Doer
	interval time.Duration
	now      func() time.Time
}

// New creates a Downloader using client.
func New(client Doer) *Downloader {
	return &Downloader{
		client:   client,
		interval: DefaultInterval,
		now:      time.Now,
	}
}

// WithClock replaces the clock used for throttling and speed.
func (d *Downloader) WithClock(now func() time.Time) *Downloader {
	d.now = now
	return d
}

// WithInterval sets the minimum time between progress reports.
func (d *Downloader) WithInterval(interval time.Duration) *Downloader {
	d.interval = interval
	return d
}

// Fetch downloads url into a new file under target.Dir. onProgress may be nil.
// On failure after the file was created the partial file is left in place and
// no File is returned.
func (d *Downloader) Fetch(ctx context.Context, url string, target Target, onProgress func(Progress)) (file *File, err error) {
	log := logging.FromContext(ctx)
	if onProgress == nil {
		onProgress = func(Progress) {}
	}
	chunk := target.ChunkSize
	if chunk <= 0 {
		chunk = ResourceChunkSize
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform HTTP request: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("error closing response body")
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode}
	}

	if err := os.MkdirAll(target.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory: %w", err)
	}
	path := filepath.Join(target.Dir, fmt.Sprintf("%s-%s%s", target.Prefix, uuid.NewString(), target.Ext))
	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination file %q: %w", path, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			file, err = nil, fmt.Errorf("failed to close %q: %w", path, cerr)
		}
	}()

	total := resp.ContentLength
	if total < 0 {
		total = 0
	}
	log.Debug().Str("url", url).Str("file", path).Int64("total", total).Msg("starting download")

	hasher := sha256.New()
	downloaded, err := d.copy(ctx, out, hasher, resp.Body, chunk, total, onProgress)
	if err != nil {
		return nil, err
	}
	if total > 0 && downloaded != total {
		return nil, fmt.Errorf("%w: got %d of %d bytes", ErrTruncated, downloaded, total)
	}

	sum := hex.EncodeToString(hasher.Sum(nil))
	if target.SHA256 != "" && !strings.EqualFold(sum, target.SHA256) {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrChecksum, target.SHA256, sum)
	}

	log.Info().Str("file", path).Int64("size", downloaded).Msg("download complete")
	return &File{Path: path, Size: downloaded, SHA256: sum}, nil
}

// copy streams src into dst in chunk-sized reads, reporting progress at most
// once per interval and once more at the end.
func (d *Downloader) copy(ctx context.Context, dst io.Writer, h hash.Hash, src io.Reader, chunk int, total int64, onProgress func(Progress)) (int64, error) {
	buf := make([]byte, chunk)
	var downloaded int64

	lastEmit := d.now()
	lastBytes := int64(0)

	for {
		if err := ctx.Err(); err != nil {
			return downloaded, err
		}

		n, rerr := src.Read(buf)
		if n > 0 {
			if _, err := dst.Write(buf[:n]); err != nil {
				return downloaded, fmt.Errorf("failed to write file: %w", err)
			}
			h.Write(buf[:n])
			downloaded += int64(n)

			now := d.now()
			if elapsed := now.Sub(lastEmit); elapsed >= d.interval {
				onProgress(progress(downloaded, total, downloaded-lastBytes, elapsed))
				lastEmit, lastBytes = now, downloaded
			}
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			return downloaded, fmt.Errorf("failed to read body: %w", rerr)
		}
	}

	if total > 0 && downloaded != total {
		return downloaded, nil
	}
	onProgress(progress(downloaded, total, downloaded-lastBytes, d.now().Sub(lastEmit)))
	return downloaded, nil
}

func progress(downloaded, total, delta int64, elapsed time.Duration) Progress {
	p := Progress{
		Downloaded: downloaded,
		Total:      total,
		Speed:      FormatSpeed(0),
	}
	if total > 0 {
		p.Percent = int(downloaded * 100 / total)
		if p.Percent > 100 {
			p.Percent = 100
		}
	}
	if elapsed > 0 {
		p.Speed = FormatSpeed(float64(delta) / elapsed.Seconds())
	}
	return p
}

// FormatSpeed renders a byte rate as "N B/s", "N.N KB/s" or "N.N MB/s".
func FormatSpeed(bytesPerSec float64) string {
	switch {
	case bytesPerSec < 1024:
		return fmt.Sprintf("%d B/s", int64(bytesPerSec))
	case bytesPerSec < 1024*1024:
		return fmt.Sprintf("%.1f KB/s", bytesPerSec/1024)
	default:
		return fmt.Sprintf("%.1f MB/s", bytesPerSec/(1024*1024))
	}
}

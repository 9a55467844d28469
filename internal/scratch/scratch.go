// Package scratch manages the directory holding downloaded artifacts.
package scratch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry describes one downloaded file in the scratch directory.
type Entry struct {
	Name      string    `json:"name" yaml:"name"`
	Prefix    string    `json:"prefix" yaml:"prefix"`
	Path      string    `json:"path" yaml:"path"`
	Size      int64     `json:"size" yaml:"size"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Manager handles scratch directory bookkeeping.
type Manager struct {
	dir string
}

// NewManager creates a manager for dir.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir}
}

// DefaultDir returns $XDG_CACHE_HOME/updsync/scratch, or ~/.cache/updsync/scratch.
func DefaultDir() (string, error) {
	cacheDir := os.Getenv("XDG_CACHE_HOME")
	if cacheDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to determine home directory: %w", err)
		}
		cacheDir = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheDir, "updsync", "scratch"), nil
}

// Dir returns the scratch directory path.
func (m *Manager) Dir() string {
	return m.dir
}

// List returns downloaded files sorted by modification time (newest first).
// Files not named {prefix}-{uuid}{ext} are ignored.
func (m *Manager) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(m.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Entry{}, nil
		}
		return nil, fmt.Errorf("failed to read scratch directory: %w", err)
	}

	entries := []Entry{}
	for _, de := range dirEntries {
		if de.IsDir() {
			continue
		}
		prefix, ok := ParseName(de.Name())
		if !ok {
			continue
		}
		info, err := de.Info()
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			Name:      de.Name(),
			Prefix:    prefix,
			Path:      filepath.Join(m.dir, de.Name()),
			Size:      info.Size(),
			UpdatedAt: info.ModTime(),
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].UpdatedAt.After(entries[j].UpdatedAt)
	})
	return entries, nil
}

// Delete removes a downloaded file by name.
func (m *Manager) Delete(name string) error {
	if name != filepath.Base(name) {
		return fmt.Errorf("invalid scratch file name: %s", name)
	}
	path := filepath.Join(m.dir, name)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("scratch file not found: %s", name)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to delete scratch file: %w", err)
	}
	return nil
}

// ParseName returns the prefix of a scratch file name. It reports false for
// names that were not produced by the downloader.
func ParseName(name string) (string, bool) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	// "-" plus a 36 character UUID, after a non-empty prefix.
	if len(stem) < 38 || stem[len(stem)-37] != '-' {
		return "", false
	}
	if _, err := uuid.Parse(stem[len(stem)-36:]); err != nil {
		return "", false
	}
	return stem[:len(stem)-37], true
}

package scratch

import (
	"fmt"
	"strings"
)

// DefaultKeepCount is the default number of downloads to retain per prefix.
const DefaultKeepCount = 1

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []Entry `json:"deleted" yaml:"deleted"`
	Kept    int     `json:"kept" yaml:"kept"`
}

// Prune removes old downloads, keeping only the most recent keep files per prefix.
func (m *Manager) Prune(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	entries, err := m.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{}
	seen := make(map[string]int)

	// Entries are already sorted newest first
	for _, e := range entries {
		seen[e.Prefix]++
		if seen[e.Prefix] <= keep {
			result.Kept++
			continue
		}
		if err := m.Delete(e.Name); err != nil {
			return nil, fmt.Errorf("failed to delete %s: %w", e.Name, err)
		}
		result.Deleted = append(result.Deleted, e)
	}

	return result, nil
}

func (r *PruneResult) String() string {
	if len(r.Deleted) == 0 {
		return fmt.Sprintf("Nothing to remove (%d kept)", r.Kept)
	}
	var b strings.Builder
	for _, e := range r.Deleted {
		fmt.Fprintf(&b, "Removed %s\n", e.Name)
	}
	fmt.Fprintf(&b, "Removed %d file(s), kept %d", len(r.Deleted), r.Kept)
	return b.String()
}

// Package output handles formatting output in different formats.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/update"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer handles output in the specified format.
type Writer struct {
	format Format
	w      io.Writer
}

// NewWriter creates a new output writer.
func NewWriter(w io.Writer, format Format) *Writer {
	return &Writer{format: format, w: w}
}

// Write outputs the given value in the configured format.
func (w *Writer) Write(v any) error {
	switch w.format {
	case FormatJSON:
		enc := json.NewEncoder(w.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w.w)
		enc.SetIndent(2)
		return enc.Encode(v)
	default:
		// Text format - assume v implements fmt.Stringer or use default
		if s, ok := v.(fmt.Stringer); ok {
			_, err := fmt.Fprintln(w.w, s.String())
			return err
		}
		_, err := fmt.Fprintf(w.w, "%+v\n", v)
		return err
	}
}

// ParseFormat parses a format string into a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// TrackStatus is the serializable view of one track's state.
type TrackStatus struct {
	Track          string `json:"track" yaml:"track"`
	State          string `json:"state" yaml:"state"`
	Message        string `json:"message" yaml:"message"`
	CurrentVersion string `json:"current_version,omitempty" yaml:"current_version,omitempty"`
	LatestVersion  string `json:"latest_version,omitempty" yaml:"latest_version,omitempty"`
	Provider       string `json:"provider,omitempty" yaml:"provider,omitempty"`
	DownloadURL    string `json:"download_url,omitempty" yaml:"download_url,omitempty"`
	ReleaseNote    string `json:"release_note,omitempty" yaml:"release_note,omitempty"`
	Artifact       string `json:"artifact,omitempty" yaml:"artifact,omitempty"`
	Error          string `json:"error,omitempty" yaml:"error,omitempty"`
}

// NewTrackStatus converts a State into a TrackStatus.
func NewTrackStatus(track types.Track, current string, st update.State) TrackStatus {
	ts := TrackStatus{
		Track:          track.String(),
		State:          st.Kind().String(),
		Message:        update.Describe(st),
		CurrentVersion: current,
	}
	switch s := st.(type) {
	case update.Available:
		ts.LatestVersion = s.Info.Version
		ts.Provider = s.Provider.String()
		ts.DownloadURL = s.Info.DownloadURL
		ts.ReleaseNote = s.Info.ReleaseNote
	case update.Success:
		ts.LatestVersion = s.Version
		ts.Artifact = s.Artifact
	case update.Failed:
		if s.Err != nil {
			ts.Error = s.Err.Error()
		}
	}
	return ts
}

// Report is the result of a command across tracks.
type Report struct {
	Tracks []TrackStatus `json:"tracks" yaml:"tracks"`
}

// String renders one line per track.
func (r Report) String() string {
	var b strings.Builder
	for i, ts := range r.Tracks {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%-9s %s", ts.Track+":", ts.Message)
	}
	return b.String()
}

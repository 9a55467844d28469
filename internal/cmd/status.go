package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/updsync/internal/scratch"
	"github.com/adamancini/updsync/internal/types"
)

// StatusReport summarizes the local installation without contacting providers.
type StatusReport struct {
	ConfigFile    string        `json:"config_file,omitempty" yaml:"config_file,omitempty"`
	Provider      string        `json:"provider" yaml:"provider"`
	CDKConfigured bool          `json:"cdk_configured" yaml:"cdk_configured"`
	Tracks        []TrackInfo   `json:"tracks" yaml:"tracks"`
	Scratch       ScratchReport `json:"scratch" yaml:"scratch"`
}

// TrackInfo is the installed version and install target of one track.
type TrackInfo struct {
	Track          string `json:"track" yaml:"track"`
	CurrentVersion string `json:"current_version" yaml:"current_version"`
	Target         string `json:"target,omitempty" yaml:"target,omitempty"`
}

// ScratchReport describes the download directory.
type ScratchReport struct {
	Dir   string `json:"dir" yaml:"dir"`
	Files int    `json:"files" yaml:"files"`
	Bytes int64  `json:"bytes" yaml:"bytes"`
}

func (r StatusReport) String() string {
	var b strings.Builder
	config := r.ConfigFile
	if config == "" {
		config = "(defaults)"
	}
	fmt.Fprintf(&b, "Config:   %s\n", config)
	fmt.Fprintf(&b, "Provider: %s", r.Provider)
	if r.CDKConfigured {
		b.WriteString(" (CDK set)")
	}
	b.WriteString("\n")
	for _, t := range r.Tracks {
		v := t.CurrentVersion
		if v == "" {
			v = "unknown"
		}
		fmt.Fprintf(&b, "%-9s %s", t.Track+":", v)
		if t.Target != "" {
			fmt.Fprintf(&b, " -> %s", t.Target)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Scratch:  %s (%d files, %d bytes)", r.Scratch.Dir, r.Scratch.Files, r.Scratch.Bytes)
	return b.String()
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show installed versions and scratch usage",
		Long:  `Status shows the installed app and resource versions and the downloads kept in the scratch directory. No provider is contacted.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ctx, err := newSession(cmd)
			if err != nil {
				return err
			}

			tracks := types.AllTracks()
			current := currentVersions(ctx, s.cfg, tracks)
			report := StatusReport{
				ConfigFile:    s.configFile,
				Provider:      s.cfg.Provider,
				CDKConfigured: (&trackOptions{}).cdkFor(s.cfg) != "",
				Scratch:       ScratchReport{Dir: s.cfg.ScratchDir},
			}
			for _, t := range tracks {
				info := TrackInfo{Track: t.String(), CurrentVersion: current[t]}
				switch t {
				case types.TrackApp:
					info.Target = s.cfg.App.InstallPath
					if info.Target == "" {
						info.Target = s.cfg.App.InstallCommand
					}
				case types.TrackResource:
					info.Target = s.cfg.Resource.Dir
				}
				report.Tracks = append(report.Tracks, info)
			}

			entries, err := scratch.NewManager(s.cfg.ScratchDir).List()
			if err != nil {
				return fmt.Errorf("failed to list scratch directory: %w", err)
			}
			for _, e := range entries {
				report.Scratch.Files++
				report.Scratch.Bytes += e.Size
			}

			return s.out.Write(report)
		},
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/updsync/internal/logging"
	"github.com/adamancini/updsync/internal/scratch"
)

func newCleanCmd() *cobra.Command {
	var (
		keep int
		all  bool
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove old downloads from the scratch directory",
		Long: `Clean deletes downloaded artifacts, keeping the newest --keep files of each
kind. Partial downloads left by interrupted updates are removed the same way.

Examples:
  updsync clean             # Keep the newest download of each kind
  updsync clean --keep 3
  updsync clean --all       # Remove every download`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, ctx, err := newSession(cmd)
			if err != nil {
				return err
			}
			if all {
				keep = 0
			}

			result, err := scratch.NewManager(s.cfg.ScratchDir).Prune(keep)
			if err != nil {
				return fmt.Errorf("failed to clean scratch directory: %w", err)
			}
			logging.FromContext(ctx).Debug().Int("deleted", len(result.Deleted)).Int("kept", result.Kept).Msg("scratch pruned")
			return s.out.Write(result)
		},
	}

	cmd.Flags().IntVar(&keep, "keep", scratch.DefaultKeepCount, "Number of downloads to keep per kind")
	cmd.Flags().BoolVar(&all, "all", false, "Remove every download")

	return cmd
}

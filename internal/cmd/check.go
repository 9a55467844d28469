package cmd

import (
	"github.com/spf13/cobra"

	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/update"
)

func newCheckCmd() *cobra.Command {
	var opts trackOptions

	cmd := &cobra.Command{
		Use:   "check [app|resource|all]",
		Short: "Check for available updates",
		Long: `Check asks the configured provider whether a newer app or resource version
exists. Nothing is downloaded.

The app version is taken from app.current_version in the config file. The
resource version is read from version.json in the resource directory.

Examples:
  updsync check                       # Check both tracks
  updsync check app                   # Check the app only
  updsync check --provider mirrorchyan
  updsync check -o json`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: trackArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, trackArg(args), opts)
		},
	}
	opts.register(cmd)

	return cmd
}

func runCheck(cmd *cobra.Command, arg string, opts trackOptions) error {
	tracks, err := types.ParseTracks(arg)
	if err != nil {
		return err
	}
	s, ctx, err := newSession(cmd)
	if err != nil {
		return err
	}
	p, err := opts.providerFor(s.cfg)
	if err != nil {
		return err
	}
	svc, err := s.service()
	if err != nil {
		return err
	}

	cdk := opts.cdkFor(s.cfg)
	current := currentVersions(ctx, s.cfg, tracks)
	reqs := make(map[types.Track]update.CheckRequest, len(tracks))
	for _, t := range tracks {
		reqs[t] = update.CheckRequest{Provider: p, CurrentVersion: current[t], CDK: cdk}
	}

	states, err := svc.CheckAll(ctx, reqs)
	s.flushMetrics(ctx)
	if err != nil {
		return err
	}
	if err := s.out.Write(newReport(tracks, current, states)); err != nil {
		return err
	}
	return failedError(tracks, states)
}

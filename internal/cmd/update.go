package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/adamancini/updsync/internal/interactive"
	"github.com/adamancini/updsync/internal/logging"
	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/update"
)

var (
	errNeedsConfirmation = errors.New("updates available; rerun with --yes to install without prompting")
	errAborted           = errors.New("update aborted")
)

func newUpdateCmd() *cobra.Command {
	var (
		opts trackOptions
		yes  bool
	)

	cmd := &cobra.Command{
		Use:   "update [app|resource|all]",
		Short: "Download and install available updates",
		Long: `Update checks each track, asks for confirmation, then downloads and installs
what is newer.

The app package is copied to app.install_path or passed to app.install_command.
Resource archives are extracted into resource.dir.

MirrorChyan only hands out download links for a valid CDK. Pass it with --cdk,
$UPDSYNC_CDK or the cdk config key; interactive runs prompt for it.

Examples:
  updsync update                      # Prompt for each available update
  updsync update resource --yes       # Update resources without prompting
  updsync update --provider mirrorchyan --cdk XXXX`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: trackArgs(),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, trackArg(args), opts, yes)
		},
	}
	opts.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Install every available update without prompting")

	return cmd
}

func runUpdate(cmd *cobra.Command, arg string, opts trackOptions, yes bool) error {
	tracks, err := types.ParseTracks(arg)
	if err != nil {
		return err
	}
	s, ctx, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.flushMetrics(ctx)

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
	checkReqs := make(map[types.Track]update.CheckRequest, len(tracks))
	for _, t := range tracks {
		checkReqs[t] = update.CheckRequest{Provider: p, CurrentVersion: current[t], CDK: cdk}
	}
	states, err := svc.CheckAll(ctx, checkReqs)
	if err != nil {
		return err
	}

	approved, cdk, err := approve(cmd, p, cdk, candidates(tracks, states), yes)
	if err != nil {
		return err
	}

	confirmReqs := make(map[types.Track]update.ConfirmRequest, len(approved))
	for _, t := range tracks {
		if approved[t] {
			confirmReqs[t] = update.ConfirmRequest{Provider: p, CurrentVersion: current[t], CDK: cdk}
		}
	}
	if len(confirmReqs) > 0 {
		confirmed, err := svc.ConfirmAll(ctx, confirmReqs)
		if err != nil {
			return err
		}
		for t, st := range confirmed {
			states[t] = st
		}
	}
	logSkipped(ctx, tracks, states, approved)

	if err := s.out.Write(newReport(tracks, current, states)); err != nil {
		return err
	}
	return failedError(tracks, states)
}

// candidates lists the tracks waiting in Available, in track order.
func candidates(tracks []types.Track, states map[types.Track]update.State) []interactive.Candidate {
	var list []interactive.Candidate
	for _, t := range tracks {
		if av, ok := states[t].(update.Available); ok {
			list = append(list, interactive.Candidate{
				Track:       t,
				Version:     av.Info.Version,
				Provider:    av.Provider,
				ReleaseNote: av.Info.ReleaseNote,
			})
		}
	}
	return list
}

// approve decides which candidates to download. Without --yes it prompts,
// and asks for a CDK when the gated provider has none.
func approve(cmd *cobra.Command, p types.Provider, cdk string, list []interactive.Candidate, yes bool) (map[types.Track]bool, string, error) {
	approved := make(map[types.Track]bool, len(list))
	if len(list) == 0 {
		return approved, cdk, nil
	}
	if yes {
		for _, c := range list {
			approved[c.Track] = true
		}
		return approved, cdk, nil
	}
	if !interactive.IsTerminal() {
		return nil, "", errNeedsConfirmation
	}

	prompter := interactive.NewPrompterWithIO(cmd.InOrStdin(), cmd.ErrOrStderr())
	approved, ok := prompter.Confirm(list)
	if !ok {
		return nil, "", errAborted
	}
	if cdk == "" && p.IsMirrorChyan() && anyApproved(approved) {
		secret, err := prompter.ReadSecret("MirrorChyan CDK")
		if err != nil {
			return nil, "", err
		}
		cdk = secret
	}
	return approved, cdk, nil
}

func anyApproved(approved map[types.Track]bool) bool {
	for _, ok := range approved {
		if ok {
			return true
		}
	}
	return false
}

func logSkipped(ctx context.Context, tracks []types.Track, states map[types.Track]update.State, approved map[types.Track]bool) {
	log := logging.FromContext(ctx)
	for _, t := range tracks {
		if _, ok := states[t].(update.Available); ok && !approved[t] {
			log.Info().Str("track", t.String()).Msg("update skipped")
		}
	}
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adamancini/updsync/internal/archive"
	"github.com/adamancini/updsync/internal/config"
	"github.com/adamancini/updsync/internal/download"
	"github.com/adamancini/updsync/internal/logging"
	"github.com/adamancini/updsync/internal/metrics"
	"github.com/adamancini/updsync/internal/output"
	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/update"
	"github.com/adamancini/updsync/internal/version"
	"github.com/adamancini/updsync/internal/workpool"
)

// EnvCDK names the environment variable holding the MirrorChyan CDK.
const EnvCDK = "UPDSYNC_CDK"

// Scratch file naming per track.
const (
	appPrefix      = "app"
	appExt         = ".apk"
	resourcePrefix = "MaaResource"
	resourceExt    = ".zip"
	resourceSubdir = "resource"
)

// session holds what a command needs, built from the loaded config.
type session struct {
	cfg        *config.Config
	configFile string
	log        zerolog.Logger
	out        *output.Writer
	errOut     io.Writer
	metrics    *metrics.Metrics
	client     *http.Client
}

// newSession loads the config, builds the logger and returns a context
// carrying it.
func newSession(cmd *cobra.Command) (*session, context.Context, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, nil, err
	}

	cfg, path, err := loadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}

	log := logging.New(logConfig(cfg))
	ctx := logging.WithComponent(logging.WithContext(cmd.Context(), log), "cli")
	if path != "" {
		log.Debug().Str("file", path).Msg("loaded config")
	} else {
		log.Debug().Msg("no config file found, using defaults")
	}

	return &session{
		cfg:        cfg,
		configFile: path,
		log:        log,
		out:        output.NewWriter(cmd.OutOrStdout(), format),
		errOut:     cmd.ErrOrStderr(),
		metrics:    metrics.New(),
		client:     &http.Client{Timeout: cfg.Timeout()},
	}, ctx, nil
}

// loadConfig loads the config file. Without an explicit path a missing file
// means defaults.
func loadConfig(explicit string) (*config.Config, string, error) {
	path, err := config.Find(explicit)
	if err != nil {
		if explicit != "" {
			return nil, "", err
		}
		return config.Default(), "", nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	return cfg, path, nil
}

func logConfig(cfg *config.Config) logging.Config {
	lc := logging.DefaultConfig()
	lc.Level = cfg.Log.Level
	lc.JSON = cfg.Log.JSON
	lc.File = cfg.Log.File
	if cfg.Log.MaxSizeMB > 0 {
		lc.MaxSizeMB = cfg.Log.MaxSizeMB
	}
	if cfg.Log.MaxBackups > 0 {
		lc.MaxBackups = cfg.Log.MaxBackups
	}
	lc.MaxAgeDays = cfg.Log.MaxAgeDays

	if verbose {
		lc.Level = "debug"
	}
	lc.Quiet = quiet
	if logFile != "" {
		lc.File = logFile
	}
	return lc
}

// service wires resolvers, pipelines and hooks for both tracks.
func (s *session) service() (*update.Service, error) {
	hooks := []update.Hook{s.metrics.Hook()}
	if !quiet && outputFormat == string(output.FormatText) {
		hooks = append(hooks, progressHook(s.errOut))
	}
	return buildService(s.cfg, s.client, hooks...)
}

func buildService(cfg *config.Config, client provider.Doer, hooks ...update.Hook) (*update.Service, error) {
	installer, err := appInstaller(cfg)
	if err != nil {
		return nil, err
	}

	owner, repo, _ := strings.Cut(cfg.GitHub.AppRepo, "/")
	platform := provider.ResolvePlatform(cfg.MirrorChyan.OS, cfg.MirrorChyan.Arch)
	mirror := func(resourceID string, compare version.Comparator) *provider.MirrorResolver {
		return provider.NewMirrorResolver(client, provider.MirrorConfig{
			BaseURL:    cfg.MirrorChyan.BaseURL,
			ResourceID: resourceID,
			UserAgent:  cfg.MirrorChyan.UserAgent,
			Platform:   platform,
			Channel:    cfg.MirrorChyan.Channel,
			Compare:    compare,
		})
	}
	resourceMirror := mirror(cfg.MirrorChyan.ResourceID, version.CompareTimestamp)

	downloader := download.New(client)
	opts := []update.Option{update.WithPool(workpool.New(cfg.Workers))}
	for _, h := range hooks {
		opts = append(opts, update.WithHook(h))
	}

	app := update.New(update.Pipeline{
		Track: types.TrackApp,
		Resolvers: map[types.Provider]provider.Resolver{
			types.ProviderGitHub: provider.NewGitHubResolver(client, owner, repo, version.CompareSemantic).
				WithBaseURL(cfg.GitHub.APIURL).
				WithAssetSuffix(cfg.GitHub.AssetSuffix),
			types.ProviderMirrorChyan: mirror(cfg.MirrorChyan.AppResourceID, version.CompareSemantic),
		},
		Target: download.Target{
			Dir:       cfg.ScratchDir,
			Prefix:    appPrefix,
			Ext:       appExt,
			ChunkSize: download.AppChunkSize,
		},
		Finalizer: update.InstallStep{Installer: installer},
	}, downloader, opts...)

	resource := update.New(update.Pipeline{
		Track: types.TrackResource,
		Resolvers: map[types.Provider]provider.Resolver{
			types.ProviderGitHub:      provider.NewArchiveResolver(resourceMirror, cfg.GitHub.ResourceArchiveURL),
			types.ProviderMirrorChyan: resourceMirror,
		},
		Target: download.Target{
			Dir:       cfg.ScratchDir,
			Prefix:    resourcePrefix,
			Ext:       resourceExt,
			ChunkSize: download.ResourceChunkSize,
		},
		Finalizer: update.ExtractStep{
			Dest:   cfg.Resource.Dir,
			Filter: archive.SubtreeFilter(cfg.GitHub.ResourceRoot, resourceSubdir),
		},
	}, downloader, opts...)

	return update.NewService(app, resource), nil
}

// appInstaller returns the configured installer, or nil to keep the download.
func appInstaller(cfg *config.Config) (update.Installer, error) {
	switch {
	case cfg.App.InstallCommand != "":
		installer, err := update.NewCommandInstaller(cfg.App.InstallCommand)
		if err != nil {
			return nil, fmt.Errorf("invalid app.install_command: %w", err)
		}
		return installer, nil
	case cfg.App.InstallPath != "":
		return update.NewFileInstaller(cfg.App.InstallPath), nil
	default:
		return nil, nil
	}
}

// currentVersions returns the installed version of each track.
func currentVersions(ctx context.Context, cfg *config.Config, tracks []types.Track) map[types.Track]string {
	versions := make(map[types.Track]string, len(tracks))
	for _, t := range tracks {
		switch t {
		case types.TrackApp:
			versions[t] = cfg.App.CurrentVersion
		case types.TrackResource:
			versions[t] = update.ReadResourceVersion(ctx, cfg.Resource.Dir)
		}
	}
	return versions
}

// flushMetrics writes the metrics textfile when --metrics-file is set.
func (s *session) flushMetrics(ctx context.Context) {
	if metricsFile == "" {
		return
	}
	if err := s.metrics.WriteTextfile(metricsFile); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("file", metricsFile).Msg("failed to write metrics")
	}
}

// progressHook prints download and extraction progress.
func progressHook(w io.Writer) update.Hook {
	return func(track types.Track, st update.State) {
		switch st.(type) {
		case update.Downloading, update.Extracting:
			_, _ = fmt.Fprintf(w, "%s: %s\n", track, update.Describe(st))
		}
	}
}

// newReport builds the output report in track order.
func newReport(tracks []types.Track, current map[types.Track]string, states map[types.Track]update.State) output.Report {
	var r output.Report
	for _, t := range tracks {
		st, ok := states[t]
		if !ok || st == nil {
			continue
		}
		r.Tracks = append(r.Tracks, output.NewTrackStatus(t, current[t], st))
	}
	return r
}

// failedError returns an error naming the tracks that ended in Failed.
func failedError(tracks []types.Track, states map[types.Track]update.State) error {
	var failed []string
	for _, t := range tracks {
		if _, ok := states[t].(update.Failed); ok {
			failed = append(failed, t.String())
		}
	}
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("update failed for %s", strings.Join(failed, ", "))
}

// trackOptions are the flags shared by check and update.
type trackOptions struct {
	provider string
	cdk      string
}

func (o *trackOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.provider, "provider", "", "Override the configured provider: github, mirrorchyan")
	cmd.Flags().StringVar(&o.cdk, "cdk", "", "MirrorChyan CDK (default $"+EnvCDK+", then the config file)")
	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, p := range types.AllProviders() {
			names = append(names, p.String())
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
}

// providerFor returns the flag override or the configured provider.
func (o *trackOptions) providerFor(cfg *config.Config) (types.Provider, error) {
	if o.provider == "" {
		return cfg.ProviderType(), nil
	}
	return types.ParseProvider(o.provider)
}

// cdkFor returns the CDK from the flag, the environment or the config, in
// that order.
func (o *trackOptions) cdkFor(cfg *config.Config) string {
	if o.cdk != "" {
		return o.cdk
	}
	if env := os.Getenv(EnvCDK); env != "" {
		return env
	}
	return cfg.CDK
}

package update

import (
	"context"
	"os"

	"github.com/adamancini/updsync/internal/archive"
	"github.com/adamancini/updsync/internal/download"
	"github.com/adamancini/updsync/internal/logging"
	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/types"
)

// Pipeline describes one update track: where to look, where to download and
// what to do with the downloaded file.
type Pipeline struct {
	Track     types.Track
	Resolvers map[types.Provider]provider.Resolver
	Target    download.Target
	Finalizer Finalizer
}

// Finalizer turns a downloaded file into the track's artifact. It reports
// intermediate states through report and returns the artifact path.
type Finalizer interface {
	Finalize(ctx context.Context, file *download.File, report func(State)) (string, provider.UpdateError)
}

// InstallStep hands the downloaded app to an Installer. The downloaded file is
// kept and becomes the artifact. A nil Installer only keeps the file.
type InstallStep struct {
	Installer Installer
}

// Finalize implements Finalizer.
func (s InstallStep) Finalize(ctx context.Context, file *download.File, report func(State)) (string, provider.UpdateError) {
	report(Installing{})
	if s.Installer == nil {
		return file.Path, nil
	}
	if err := s.Installer.Install(ctx, file.Path); err != nil {
		return "", provider.InstallError{Cause: err}
	}
	return file.Path, nil
}

// ExtractStep unpacks a downloaded resource archive into Dest and deletes the
// archive afterwards, whether extraction succeeded or not. Extraction
// overwrites files in place.
type ExtractStep struct {
	Dest   string
	Filter archive.Filter
}

// Finalize implements Finalizer.
func (s ExtractStep) Finalize(ctx context.Context, file *download.File, report func(State)) (string, provider.UpdateError) {
	defer func() {
		if err := os.Remove(file.Path); err != nil && !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn().Err(err).Str("file", file.Path).Msg("failed to remove downloaded archive")
		}
	}()

	report(Extracting{})
	err := archive.Extract(ctx, file.Path, s.Dest, s.Filter, func(p archive.Progress) {
		report(Extracting{Progress: p})
	})
	if err != nil {
		return "", provider.ExtractionError{Cause: err}
	}
	return s.Dest, nil
}

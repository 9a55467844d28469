package provider

import (
	"context"
)

// Defaults for the resource bundle published as a branch archive.
const (
	DefaultResourceArchiveURL  = "https://github.com/MaaAssistantArknights/MaaResource/archive/refs/heads/main.zip"
	DefaultResourceArchiveRoot = "MaaResource-main"
)

// ArchiveResolver learns the remote version from a version source and points
// the download at a fixed archive URL. It serves sources that publish a
// rolling archive rather than versioned releases.
type ArchiveResolver struct {
	source Resolver
	url    string
}

// NewArchiveResolver creates an ArchiveResolver. The source is queried without
// a CDK.
func NewArchiveResolver(source Resolver, archiveURL string) *ArchiveResolver {
	if archiveURL == "" {
		archiveURL = DefaultResourceArchiveURL
	}
	return &ArchiveResolver{source: source, url: archiveURL}
}

// RequiresEntitlement is always false: the archive is public.
func (r *ArchiveResolver) RequiresEntitlement() bool { return false }

// Resolve asks the source for the remote version and substitutes the archive URL.
func (r *ArchiveResolver) Resolve(ctx context.Context, req Request) Result {
	res := r.source.Resolve(ctx, Request{CurrentVersion: req.CurrentVersion})
	available, ok := res.(UpdateAvailable)
	if !ok {
		return res
	}
	return UpdateAvailable{
		Version:     available.Version,
		DownloadURL: r.url,
		ReleaseNote: available.ReleaseNote,
	}
}

package update

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/adamancini/updsync/internal/download"
	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/workpool"
)

func TestServiceCheckAll(t *testing.T) {
	appResolver := &mockResolver{}
	appResolver.On("Resolve", mock.Anything, mock.Anything).Return(provider.UpdateAvailable{Version: "2.0.0", DownloadURL: "https://x/app.apk"})
	resResolver := &mockResolver{}
	resResolver.On("Resolve", mock.Anything, mock.Anything).Return(provider.NoUpdate{CurrentVersion: "2024-05-02 10:00:00.000"})

	pool := workpool.New(1)
	d := download.New(http.DefaultClient)
	app := New(appPipeline(t, map[types.Provider]provider.Resolver{types.ProviderGitHub: appResolver}, nil), d, WithPool(pool))
	res := New(Pipeline{
		Track:     types.TrackResource,
		Resolvers: map[types.Provider]provider.Resolver{types.ProviderGitHub: resResolver},
		Finalizer: ExtractStep{Dest: t.TempDir()},
	}, d, WithPool(pool))
	svc := NewService(app, res)

	states, err := svc.CheckAll(context.Background(), map[types.Track]CheckRequest{
		types.TrackApp:      {Provider: types.ProviderGitHub, CurrentVersion: "1.0.0"},
		types.TrackResource: {Provider: types.ProviderGitHub, CurrentVersion: "2024-05-02 10:00:00.000"},
	})
	require.NoError(t, err)
	assert.Equal(t, StateAvailable, states[types.TrackApp].Kind())
	assert.Equal(t, StateNoUpdate, states[types.TrackResource].Kind())

	o, err := svc.Track(types.TrackResource)
	require.NoError(t, err)
	assert.Same(t, res, o)
	_, err = svc.Track(types.Track("bogus"))
	assert.Error(t, err)
}

func TestServiceConfirmAllReportsGuardErrors(t *testing.T) {
	resolver := &mockResolver{}
	resolver.On("Resolve", mock.Anything, mock.Anything).Return(provider.NoUpdate{CurrentVersion: "1.0.0"})

	d := download.New(http.DefaultClient)
	svc := NewService(
		New(appPipeline(t, map[types.Provider]provider.Resolver{types.ProviderGitHub: resolver}, nil), d),
		New(Pipeline{Track: types.TrackResource, Finalizer: ExtractStep{Dest: t.TempDir()}}, d),
	)

	states, err := svc.ConfirmAll(context.Background(), map[types.Track]ConfirmRequest{
		types.TrackApp: {Provider: types.ProviderGitHub},
	})
	assert.ErrorIs(t, err, ErrNotAvailable)
	assert.Equal(t, Idle{}, states[types.TrackApp])
}

func TestServiceCheckAllUnknownTrackStartsNothing(t *testing.T) {
	resolver := &mockResolver{}

	d := download.New(http.DefaultClient)
	app := New(appPipeline(t, map[types.Provider]provider.Resolver{types.ProviderGitHub: resolver}, nil), d)
	svc := NewService(app, New(Pipeline{Track: types.TrackResource, Finalizer: ExtractStep{Dest: t.TempDir()}}, d))

	for i := 0; i < 20; i++ {
		states, err := svc.CheckAll(context.Background(), map[types.Track]CheckRequest{
			types.TrackApp:       {Provider: types.ProviderGitHub, CurrentVersion: "1.0.0"},
			types.Track("bogus"): {Provider: types.ProviderGitHub},
		})
		require.Error(t, err)
		assert.Nil(t, states)
	}
	assert.Equal(t, Idle{}, app.State())
	resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
}

func TestReadResourceVersion(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	assert.Equal(t, "", ReadResourceVersion(ctx, dir), "missing file")

	require.NoError(t, os.WriteFile(filepath.Join(dir, VersionFile), []byte(`{"last_updated":"2024-05-02 10:00:00.000","activity":{}}`), 0o644))
	assert.Equal(t, "2024-05-02 10:00:00.000", ReadResourceVersion(ctx, dir))

	require.NoError(t, os.WriteFile(filepath.Join(dir, VersionFile), []byte(`not json`), 0o644))
	assert.Equal(t, "", ReadResourceVersion(ctx, dir), "unreadable file")
}

func TestStoreSubscribeCancel(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	assert.Equal(t, Idle{}, <-ch)

	s.Set(Checking{Message: "a"})
	s.Set(Installing{})
	assert.Equal(t, Installing{}, <-ch)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	// Setting after cancel must not panic.
	s.Set(Idle{})
	assert.Equal(t, Idle{}, s.Get())
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{Idle{}, "idle"},
		{Checking{Message: "checking for updates"}, "checking for updates"},
		{NoUpdate{CurrentVersion: "1.0.0"}, "up to date (1.0.0)"},
		{Available{Info: provider.UpdateAvailable{Version: "2.0.0"}, Provider: types.ProviderGitHub}, "version 2.0.0 available from github"},
		{Downloading{Progress: download.Progress{Percent: 40, Speed: "1.0 MB/s", Total: 10}}, "downloading 40% (1.0 MB/s)"},
		{Extracting{}, "extracting 0/0"},
		{Installing{}, "installing"},
		{Success{Artifact: "/tmp/a.apk", Version: "2.0.0"}, "updated to 2.0.0: /tmp/a.apk"},
		{Failed{Err: provider.BusinessError{Kind: provider.KeyExpired}}, "failed: CDK expired"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Describe(tt.state))
	}
	assert.True(t, StateDownloading.Busy())
	assert.False(t, StateFailed.Busy())
	assert.Equal(t, "no-update", StateNoUpdate.String())
}

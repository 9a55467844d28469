package update

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/sync/errgroup"

	"github.com/adamancini/updsync/internal/logging"
	"github.com/adamancini/updsync/internal/types"
)

// VersionFile is the file inside the resource directory carrying its version.
const VersionFile = "version.json"

// Service holds the independent app and resource orchestrators.
type Service struct {
	App      *Orchestrator
	Resource *Orchestrator
}

// NewService creates a Service.
func NewService(app, resource *Orchestrator) *Service {
	return &Service{App: app, Resource: resource}
}

// Track returns the orchestrator for t.
func (s *Service) Track(t types.Track) (*Orchestrator, error) {
	switch t {
	case types.TrackApp:
		return s.App, nil
	case types.TrackResource:
		return s.Resource, nil
	default:
		return nil, fmt.Errorf("unknown track: %s", t)
	}
}

// CheckAll runs Check on every requested track concurrently and returns the
// resulting states. Guard errors are returned for the first failing track.
func (s *Service) CheckAll(ctx context.Context, reqs map[types.Track]CheckRequest) (map[types.Track]State, error) {
	return s.runAll(ctx, reqs, func(ctx context.Context, o *Orchestrator, req CheckRequest) (State, error) {
		return o.Check(ctx, req)
	})
}

// ConfirmAll runs Confirm on every requested track concurrently.
func (s *Service) ConfirmAll(ctx context.Context, reqs map[types.Track]ConfirmRequest) (map[types.Track]State, error) {
	checkReqs := make(map[types.Track]CheckRequest, len(reqs))
	for t, r := range reqs {
		checkReqs[t] = CheckRequest(r)
	}
	return s.runAll(ctx, checkReqs, func(ctx context.Context, o *Orchestrator, req CheckRequest) (State, error) {
		return o.Confirm(ctx, ConfirmRequest(req))
	})
}

func (s *Service) runAll(ctx context.Context, reqs map[types.Track]CheckRequest,
	op func(context.Context, *Orchestrator, CheckRequest) (State, error)) (map[types.Track]State, error) {
	var mu sync.Mutex
	states := make(map[types.Track]State, len(reqs))

	// Resolve every track first so an unknown one starts no work.
	orchestrators := make(map[types.Track]*Orchestrator, len(reqs))
	for track := range reqs {
		o, err := s.Track(track)
		if err != nil {
			return nil, err
		}
		orchestrators[track] = o
	}

	// Tracks are independent: one failing must not cancel the other.
	var g errgroup.Group
	for track, req := range reqs {
		track, req := track, req
		o := orchestrators[track]
		g.Go(func() error {
			st, err := op(ctx, o, req)
			mu.Lock()
			states[track] = st
			mu.Unlock()
			if err != nil {
				return fmt.Errorf("%s: %w", track, err)
			}
			return nil
		})
	}
	err := g.Wait()
	return states, err
}

type versionInfo struct {
	LastUpdated string `json:"last_updated"`
}

// ReadResourceVersion returns last_updated from dir/version.json, or "" when
// the file is missing or unreadable.
func ReadResourceVersion(ctx context.Context, dir string) string {
	path := filepath.Join(dir, VersionFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.FromContext(ctx).Warn().Err(err).Str("file", path).Msg("failed to read resource version")
		}
		return ""
	}
	var info versionInfo
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(data, &info); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Str("file", path).Msg("failed to parse resource version")
		return ""
	}
	return info.LastUpdated
}

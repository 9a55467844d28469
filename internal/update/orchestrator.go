package update

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/adamancini/updsync/internal/download"
	"github.com/adamancini/updsync/internal/logging"
	"github.com/adamancini/updsync/internal/provider"
	"github.com/adamancini/updsync/internal/types"
	"github.com/adamancini/updsync/internal/workpool"
)

// Guard errors. They are returned without touching the state.
var (
	ErrBusy            = errors.New("an update operation is already running")
	ErrNotReset        = errors.New("update finished, reset before checking again")
	ErrNotAvailable    = errors.New("no update is waiting for confirmation")
	ErrUnknownProvider = errors.New("no resolver configured for provider")
)

// CheckRequest starts a check.
type CheckRequest struct {
	Provider       types.Provider
	CurrentVersion string
	CDK            string
}

// ConfirmRequest confirms the download of an available update.
type ConfirmRequest struct {
	Provider       types.Provider
	CurrentVersion string
	CDK            string
}

// Hook observes every state transition of an orchestrator.
type Hook func(track types.Track, st State)

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithHook registers a transition observer.
func WithHook(h Hook) Option {
	return func(o *Orchestrator) { o.hooks = append(o.hooks, h) }
}

// WithPool shares a work pool between orchestrators.
func WithPool(p *workpool.Pool) Option {
	return func(o *Orchestrator) { o.pool = p }
}

// Orchestrator runs the update state machine of one track. Operations are
// serialized; a concurrent call gets ErrBusy.
type Orchestrator struct {
	pipeline   Pipeline
	downloader *download.Downloader
	pool       *workpool.Pool
	store      *Store
	hooks      []Hook
	mu         sync.Mutex
}

// New creates an orchestrator in the Idle state.
func New(p Pipeline, d *download.Downloader, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		pipeline:   p,
		downloader: d,
		store:      NewStore(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.pool == nil {
		o.pool = workpool.New(workpool.DefaultSize)
	}
	return o
}

// Track returns the track this orchestrator serves.
func (o *Orchestrator) Track() types.Track { return o.pipeline.Track }

// State returns the current state.
func (o *Orchestrator) State() State { return o.store.Get() }

// Subscribe returns conflated state updates. See Store.Subscribe.
func (o *Orchestrator) Subscribe() (<-chan State, func()) { return o.store.Subscribe() }

// Reset returns to Idle from any state that is not busy.
func (o *Orchestrator) Reset(ctx context.Context) error {
	if !o.mu.TryLock() {
		return ErrBusy
	}
	defer o.mu.Unlock()
	o.set(ctx, Idle{})
	return nil
}

// Check asks the provider for a newer version. It is allowed from Idle,
// NoUpdate, Available and Failed and ends in NoUpdate, Available or Failed.
func (o *Orchestrator) Check(ctx context.Context, req CheckRequest) (State, error) {
	if !o.mu.TryLock() {
		return o.State(), ErrBusy
	}
	defer o.mu.Unlock()

	switch o.State().(type) {
	case Success:
		return o.State(), ErrNotReset
	case Idle, NoUpdate, Available, Failed:
	default:
		return o.State(), ErrBusy
	}

	resolver, err := o.resolver(req.Provider)
	if err != nil {
		return o.State(), err
	}

	ctx = o.logContext(ctx)
	o.set(ctx, Checking{Message: "checking for updates"})

	res := resolver.Resolve(ctx, provider.Request{CurrentVersion: req.CurrentVersion, CDK: req.CDK})
	switch r := res.(type) {
	case provider.UpdateAvailable:
		o.set(ctx, Available{Info: r, Provider: req.Provider})
	case provider.NoUpdate:
		o.set(ctx, NoUpdate{CurrentVersion: r.CurrentVersion})
	case provider.CheckError:
		o.set(ctx, Failed{Err: provider.FromCheckError(r)})
	default:
		o.set(ctx, Failed{Err: provider.UnknownError{Code: -1, Detail: fmt.Sprintf("unexpected result %T", res)}})
	}
	return o.State(), nil
}

// Confirm downloads and finalizes the update held by the Available state.
// The gated provider, a provider change or a missing URL cause a second
// resolution with the CDK first.
func (o *Orchestrator) Confirm(ctx context.Context, req ConfirmRequest) (State, error) {
	if !o.mu.TryLock() {
		return o.State(), ErrBusy
	}
	defer o.mu.Unlock()

	current, ok := o.State().(Available)
	if !ok {
		return o.State(), ErrNotAvailable
	}
	resolver, err := o.resolver(req.Provider)
	if err != nil {
		return o.State(), err
	}

	ctx = o.logContext(ctx)
	info := current.Info

	if resolver.RequiresEntitlement() || req.Provider != current.Provider || info.DownloadURL == "" {
		o.set(ctx, Checking{Message: "fetching download link"})
		res := resolver.Resolve(ctx, provider.Request{CurrentVersion: req.CurrentVersion, CDK: req.CDK})
		switch r := res.(type) {
		case provider.NoUpdate:
			o.set(ctx, NoUpdate{CurrentVersion: r.CurrentVersion})
			return o.State(), nil
		case provider.CheckError:
			o.set(ctx, Failed{Err: provider.FromCheckError(r)})
			return o.State(), nil
		case provider.UpdateAvailable:
			if r.DownloadURL == "" {
				o.set(ctx, Failed{Err: provider.EntitlementRequired{}})
				return o.State(), nil
			}
			info = r
		default:
			o.set(ctx, Failed{Err: provider.UnknownError{Code: -1, Detail: fmt.Sprintf("unexpected result %T", res)}})
			return o.State(), nil
		}
	}

	o.set(ctx, Downloading{})
	target := o.pipeline.Target
	target.SHA256 = info.SHA256

	file, err := workpool.Run(ctx, o.pool, func(ctx context.Context) (*download.File, error) {
		return o.downloader.Fetch(ctx, info.DownloadURL, target, func(p download.Progress) {
			o.set(ctx, Downloading{Progress: p})
		})
	})
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Str("url", info.DownloadURL).Msg("download failed")
		o.set(ctx, Failed{Err: downloadError(err)})
		return o.State(), nil
	}

	var artifact string
	var ferr provider.UpdateError
	perr := o.pool.Do(ctx, func(ctx context.Context) error {
		artifact, ferr = o.pipeline.Finalizer.Finalize(ctx, file, func(st State) { o.set(ctx, st) })
		return nil
	})
	if perr != nil {
		ferr = provider.NetworkError{Detail: perr.Error(), Cause: perr}
	}
	if ferr != nil {
		logging.FromContext(ctx).Error().Err(ferr).Msg("finalize failed")
		o.set(ctx, Failed{Err: ferr})
		return o.State(), nil
	}

	o.set(ctx, Success{Artifact: artifact, Version: info.Version})
	return o.State(), nil
}

func (o *Orchestrator) resolver(p types.Provider) (provider.Resolver, error) {
	r, ok := o.pipeline.Resolvers[p]
	if !ok || r == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, p)
	}
	return r, nil
}

func (o *Orchestrator) logContext(ctx context.Context) context.Context {
	return logging.WithTrack(logging.WithComponent(ctx, "orchestrator"), o.pipeline.Track.String())
}

func (o *Orchestrator) set(ctx context.Context, st State) {
	prev := o.store.Get()
	o.store.Set(st)
	if prev.Kind() != st.Kind() {
		logging.FromContext(ctx).Debug().Str("from", prev.Kind().String()).Str("to", st.Kind().String()).Msg("state transition")
	}
	for _, h := range o.hooks {
		h(o.pipeline.Track, st)
	}
}

// downloadError maps a downloader failure to an UpdateError.
func downloadError(err error) provider.UpdateError {
	var statusErr *download.StatusError
	switch {
	case errors.As(err, &statusErr):
		return provider.UnknownError{Code: statusErr.Code, Detail: "download failed", Cause: err}
	case errors.Is(err, download.ErrChecksum):
		return provider.UnknownError{Code: -1, Detail: "downloaded file failed checksum verification", Cause: err}
	default:
		return provider.NetworkError{Detail: err.Error(), Cause: err}
	}
}

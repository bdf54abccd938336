package view

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// DefaultSettleDelay is how long the host page is given to finish its
// first render before the initial pass.
const DefaultSettleDelay = 3 * time.Second

// ActivateFunc runs when the user activates a mounted control.
// Mounters call it on its own goroutine with a context that outlives the view.
type ActivateFunc func(ctx context.Context)

// Control is a mounted trigger control.
type Control interface {
	// ID is the unique marker of the control.
	ID() string
	// Unmount removes the control and detaches its activation.
	Unmount(ctx context.Context) error
}

// Mounter renders trigger controls on the host page.
type Mounter interface {
	Mount(ctx context.Context, label string, activate ActivateFunc) (Control, error)
}

// Binder returns the activation for a state. It is only called for
// KindSingle and KindList.
type Binder func(state State) ActivateFunc

// Feed is a subscription to the host page's location and subtree changes.
// Every notification carries the location at the time of the change;
// consecutive notifications may repeat the same location.
type Feed interface {
	Current() string
	Changes() <-chan string
}

// Options configures a Synchronizer.
type Options struct {
	// SettleDelay is waited once before the first pass.
	SettleDelay time.Duration
	Logger      *slog.Logger
}

// Synchronizer keeps at most one control mounted, matching the current view.
// It is the only writer of the mounted-control handle.
type Synchronizer struct {
	mounter Mounter
	bind    Binder
	settle  time.Duration
	logger  *slog.Logger

	mu       sync.Mutex
	current  Control
	state    State
	location string
	passes   int
}

// NewSynchronizer creates a synchronizer mounting through m.
func NewSynchronizer(m Mounter, bind Binder, opts Options) *Synchronizer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{
		mounter: m,
		bind:    bind,
		settle:  opts.SettleDelay,
		logger:  logger,
	}
}

// Run waits for the settle delay, performs one pass for the current
// location and then one pass per location change until ctx is done or the
// feed closes. The mounted control is removed on return.
func (s *Synchronizer) Run(ctx context.Context, feed Feed) error {
	defer s.unmountOnExit(ctx)

	if s.settle > 0 {
		timer := time.NewTimer(s.settle)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if err := s.Sync(ctx, feed.Current()); err != nil {
		s.logger.Error("initial sync failed", "error", err)
	}

	changes := feed.Changes()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case loc, ok := <-changes:
			if !ok {
				return nil
			}
			if loc == s.Location() {
				continue
			}
			s.logger.Debug("location changed", "location", loc)
			if err := s.Sync(ctx, loc); err != nil {
				s.logger.Error("sync failed", "location", loc, "error", err)
			}
		}
	}
}

// Sync performs one pass: classify location, unmount whatever is mounted,
// then mount the control for the new state. Re-entering the same state
// still remounts so no binding outlives its conversation id.
func (s *Synchronizer) Sync(ctx context.Context, location string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.location = location
	s.passes++

	if s.current != nil {
		if err := s.current.Unmount(ctx); err != nil {
			s.logger.Warn("unmount failed", "control", s.current.ID(), "error", err)
		}
		s.current = nil
	}

	state := Classify(location)
	s.state = state
	if state.Kind == KindOther {
		return nil
	}

	ctl, err := s.mounter.Mount(ctx, state.Label(), s.bind(state))
	if err != nil {
		return fmt.Errorf("mount %s: %w", state, err)
	}
	s.current = ctl
	s.logger.Debug("control mounted", "control", ctl.ID(), "state", state.String())
	return nil
}

// Mounted returns the mounted control (nil if none) and the current state.
func (s *Synchronizer) Mounted() (Control, State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, s.state
}

// Location returns the location of the last pass.
func (s *Synchronizer) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.location
}

// Passes returns how many passes ran.
func (s *Synchronizer) Passes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.passes
}

func (s *Synchronizer) unmountOnExit(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return
	}
	if err := s.current.Unmount(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("unmount on exit failed", "control", s.current.ID(), "error", err)
	}
	s.current = nil
}

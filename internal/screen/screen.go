// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package screen

import (
	"context"
	"sync"

	xglog "github.com/ManuGH/reelgen/internal/log"
	"github.com/ManuGH/reelgen/internal/media"
	"github.com/ManuGH/reelgen/internal/metrics"
	"github.com/ManuGH/reelgen/internal/telemetry"
	"github.com/rs/zerolog"
)

// outcome is what a submission produced: the media it now owns and how to show it.
type outcome struct {
	media []*media.DecodedMedia
	fill  func(*View)
}

type runFunc func(ctx context.Context) (outcome, error)

// core is the state machine shared by all screens. Every field below mu is
// guarded by it; the network call runs without holding it.
type core struct {
	name      string
	presenter Presenter
	logger    zerolog.Logger

	mu     sync.Mutex
	state  State
	seq    uint64
	closed bool
	cancel context.CancelFunc
	live   []*media.DecodedMedia
	view   View
}

func newCore(name string, p Presenter) *core {
	if p == nil {
		p = PresenterFunc(func(View) {})
	}
	c := &core{
		name:      name,
		presenter: p,
		logger:    xglog.WithComponent("screen").With().Str(xglog.FieldScreen, name).Logger(),
		view:      View{Screen: name, State: StateIdle},
	}
	metrics.SetScreenState(name, StateIdle.String())
	return c
}

// Name returns the screen name.
func (c *core) Name() string { return c.name }

// State returns the current state.
func (c *core) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a copy of the current view.
func (c *core) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view.clone()
}

// Live returns how many decoded media the screen currently owns.
func (c *core) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// guardLocked rejects submissions while closed or pending.
func (c *core) guardLocked() error {
	if c.closed {
		return ErrClosed
	}
	if c.state == StateSubmitting {
		metrics.IncSubmission(c.name, "busy")
		return ErrBusy
	}
	return nil
}

// reject fails a submission that never reaches the network.
func (c *core) reject(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g := c.guardLocked(); g != nil {
		return g
	}
	c.releaseLocked()
	c.seq++
	c.transitionLocked(StateFailure, View{Error: Message(err)})
	metrics.IncSubmission(c.name, "validation")
	return err
}

// start moves to Submitting synchronously and runs the submission in the
// background. The returned channel yields exactly one result.
func (c *core) start(ctx context.Context, run runFunc) (<-chan error, error) {
	c.mu.Lock()
	if g := c.guardLocked(); g != nil {
		c.mu.Unlock()
		return nil, g
	}
	c.releaseLocked()
	c.seq++
	seq := c.seq
	reqCtx, cancel := context.WithCancel(xglog.ContextWithScreen(ctx, c.name))
	c.cancel = cancel
	c.transitionLocked(StateSubmitting, View{})
	c.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		spanCtx, span := telemetry.StartSpan(reqCtx, "reelgen.screen.submit", telemetry.ScreenAttributes(c.name, seq)...)
		out, err := run(spanCtx)
		err = c.complete(seq, out, err)
		telemetry.EndSpan(span, err, c.State().String())
		done <- err
	}()
	return done, nil
}

// complete applies a finished submission unless a newer one superseded it.
func (c *core) complete(seq uint64, out outcome, err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || seq != c.seq {
		media.ReleaseAll(out.media...)
		metrics.IncStaleDrop(c.name)
		metrics.IncSubmission(c.name, "stale")
		c.logger.Debug().
			Str(xglog.FieldEvent, "screen.stale_dropped").
			Uint64(xglog.FieldSeq, seq).
			Int("released", len(out.media)).
			Msg("dropped superseded response")
		return ErrSuperseded
	}

	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}

	if err != nil {
		media.ReleaseAll(out.media...)
		c.transitionLocked(StateFailure, View{Error: Message(err)})
		metrics.IncSubmission(c.name, "failure")
		c.logger.Warn().
			Err(err).
			Str(xglog.FieldEvent, "screen.failed").
			Uint64(xglog.FieldSeq, seq).
			Msg("submission failed")
		return err
	}

	c.live = out.media
	var v View
	if out.fill != nil {
		out.fill(&v)
	}
	c.transitionLocked(StateSuccess, v)
	metrics.IncSubmission(c.name, "success")
	return nil
}

// Cancel abandons a pending submission and returns to Idle. Its late result,
// if any, is dropped and released. It reports whether anything was pending.
func (c *core) Cancel() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateSubmitting {
		return false
	}
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.transitionLocked(StateIdle, View{})
	return true
}

// Reset releases the current result and returns to Idle.
func (c *core) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if g := c.guardLocked(); g != nil {
		return g
	}
	c.releaseLocked()
	c.transitionLocked(StateIdle, View{})
	return nil
}

// Close cancels any pending submission and releases all media.
// Further submissions fail with ErrClosed.
func (c *core) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.seq++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	c.releaseLocked()
	c.transitionLocked(StateIdle, View{})
	return nil
}

func (c *core) releaseLocked() {
	if len(c.live) == 0 {
		return
	}
	media.ReleaseAll(c.live...)
	c.logger.Debug().
		Str(xglog.FieldEvent, "screen.media_released").
		Int("released", len(c.live)).
		Msg("released previous media")
	c.live = nil
}

func (c *core) transitionLocked(to State, v View) {
	from := c.state
	c.state = to
	v.Screen = c.name
	v.State = to
	v.Seq = c.seq
	c.view = v

	metrics.SetScreenState(c.name, to.String())
	c.logger.Debug().
		Str(xglog.FieldEvent, "screen.transition").
		Str(xglog.FieldOldState, from.String()).
		Str(xglog.FieldNewState, to.String()).
		Uint64(xglog.FieldSeq, c.seq).
		Msg("screen state changed")

	c.presenter.Present(v.clone())
}

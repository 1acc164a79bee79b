// Package refresh implements the debounced live-refresh loop that keeps
// computed actions current as a node's channels, forwards, and payments
// change. It is ambient infrastructure around the actions engine, not the
// engine itself: internal/actions.Engine.Get stays synchronous and free of
// channels or goroutines, and this package is the only place a snapshot
// refresh is ever triggered by an external event rather than a direct call.
package refresh

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/snapshot"
)

// Config wires a Scheduler to its collaborators. OnActions is called with
// the freshly computed action list after every successful refresh;
// OnError is called with fetch or computation errors so the caller can log
// or surface them without the scheduler itself picking a presentation.
type Config struct {
	Source        snapshot.Source
	Engine        *actions.Engine
	Days          uint32
	DebounceDelay time.Duration
	BackoffDelay  time.Duration
	OnActions     func([]actions.Action)
	OnError       func(error)
}

const (
	defaultDebounceDelay = 5 * time.Second
	defaultBackoffDelay  = 10 * time.Second
)

// Scheduler owns a single goroutine that coalesces bursts of subscription
// events into one refresh, the same single-goroutine/busy-flag shape
// carlaKC-loop's liquidity manager and the teacher's forwarding-collector
// ticker loop both use, merged into one debounced loop.
type Scheduler struct {
	cfg   Config
	dirty chan struct{}
	busy  int32
}

// New constructs a Scheduler, filling in default delays when the caller
// leaves them at zero.
func New(cfg Config) *Scheduler {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = defaultDebounceDelay
	}
	if cfg.BackoffDelay <= 0 {
		cfg.BackoffDelay = defaultBackoffDelay
	}
	return &Scheduler{
		cfg:   cfg,
		dirty: make(chan struct{}, 1),
	}
}

// Run subscribes to the source's change notifications and runs the
// debounce loop until ctx is cancelled. It performs one refresh immediately
// on entry, mirroring forwarding-collector's "collect initial data" step
// before entering its ticker loop.
func (s *Scheduler) Run(ctx context.Context) error {
	channels, err := s.cfg.Source.SubscribeChannels(ctx)
	if err != nil {
		return err
	}
	forwards, err := s.cfg.Source.SubscribeForwards(ctx)
	if err != nil {
		return err
	}
	payments, err := s.cfg.Source.SubscribePayments(ctx)
	if err != nil {
		return err
	}

	go s.fanIn(ctx, channels, forwards, payments)

	s.refreshOnce(ctx)

	timer := time.NewTimer(s.cfg.DebounceDelay)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-s.dirty:
			if atomic.CompareAndSwapInt32(&s.busy, 0, 1) {
				timer.Reset(s.cfg.DebounceDelay)
			}
		case <-timer.C:
			s.refreshOnce(ctx)
			atomic.StoreInt32(&s.busy, 0)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fanIn merges the three subscription channels into the single dirty
// signal the debounce loop watches. A full dirty channel means a refresh
// is already pending, so additional signals are dropped rather than
// queued.
func (s *Scheduler) fanIn(ctx context.Context, sources ...<-chan struct{}) {
	for _, ch := range sources {
		ch := ch
		go func() {
			for {
				select {
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case s.dirty <- struct{}{}:
					default:
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}
}

func (s *Scheduler) refreshOnce(ctx context.Context) {
	snap, err := s.cfg.Source.Snapshot(ctx, s.cfg.Days)
	if err != nil {
		s.reportError(ctx, err)
		return
	}

	acts, err := s.cfg.Engine.Get(snap, time.Now().UTC())
	if err != nil {
		s.reportError(ctx, err)
		return
	}

	if s.cfg.OnActions != nil {
		s.cfg.OnActions(acts)
	}
}

// reportError notifies the caller and pauses for the backoff delay before
// returning, so a misbehaving source can't spin the debounce loop.
func (s *Scheduler) reportError(ctx context.Context, err error) {
	if s.cfg.OnError != nil {
		s.cfg.OnError(err)
	} else {
		log.Printf("refresh: %v", err)
	}

	select {
	case <-time.After(s.cfg.BackoffDelay):
	case <-ctx.Done():
	}
}

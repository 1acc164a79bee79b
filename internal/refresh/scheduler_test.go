package refresh

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/snapshot"
)

type fakeSource struct {
	mu        sync.Mutex
	snapCalls int
}

func (f *fakeSource) Channels(ctx context.Context) ([]snapshot.ChannelProperties, error) {
	return nil, nil
}
func (f *fakeSource) Forwards(ctx context.Context, after, before time.Time) ([]snapshot.ForwardEvent, error) {
	return nil, nil
}
func (f *fakeSource) Payments(ctx context.Context, after, before time.Time) ([]snapshot.PaymentEvent, error) {
	return nil, nil
}
func (f *fakeSource) Snapshot(ctx context.Context, days uint32) (*snapshot.NodeSnapshot, error) {
	f.mu.Lock()
	f.snapCalls++
	f.mu.Unlock()
	return &snapshot.NodeSnapshot{Days: days, TakenAt: time.Now().UTC()}, nil
}
func (f *fakeSource) SubscribeChannels(ctx context.Context) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}
func (f *fakeSource) SubscribeForwards(ctx context.Context) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}
func (f *fakeSource) SubscribePayments(ctx context.Context) (<-chan struct{}, error) {
	return make(chan struct{}), nil
}
func (f *fakeSource) PruneFailedPayments(ctx context.Context, olderThan time.Duration) error {
	return nil
}

func (f *fakeSource) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapCalls
}

func TestSchedulerRefreshesImmediatelyOnRun(t *testing.T) {
	eng, err := actions.New(actionsconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := &fakeSource{}
	var gotActions int
	sched := New(Config{
		Source:        src,
		Engine:        eng,
		Days:          30,
		DebounceDelay: 20 * time.Millisecond,
		OnActions: func(a []actions.Action) {
			gotActions++
		},
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = sched.Run(ctx)

	if src.calls() < 1 {
		t.Fatalf("expected at least one Snapshot call on entry, got %d", src.calls())
	}
	if gotActions < 1 {
		t.Fatalf("expected OnActions to be called at least once, got %d", gotActions)
	}
}

func TestSchedulerCoalescesBurstsOfDirtySignals(t *testing.T) {
	eng, err := actions.New(actionsconfig.Default())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	src := &fakeSource{}
	sched := New(Config{
		Source:        src,
		Engine:        eng,
		Days:          30,
		DebounceDelay: 30 * time.Millisecond,
	})

	for i := 0; i < 5; i++ {
		select {
		case sched.dirty <- struct{}{}:
		default:
		}
	}

	if len(sched.dirty) > 1 {
		t.Fatalf("dirty channel should collapse bursts to at most 1 pending signal, got %d", len(sched.dirty))
	}
}

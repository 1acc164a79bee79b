package timeline

import (
	"testing"
	"time"

	"github.com/lnoperator/advisor/internal/snapshot"
)

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertEqual(t *testing.T, got, want interface{}) {
	t.Helper()
	if got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestBuildLatestFirstAndBalanceReconstruction(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	snap := &snapshot.NodeSnapshot{
		Channels: []snapshot.ChannelProperties{
			{ID: "a", Capacity: 1_000_000, LocalBalance: 600_000},
			{ID: "b", Capacity: 1_000_000, LocalBalance: 400_000},
		},
		Forwards: []snapshot.ForwardEvent{
			{CreatedAt: base, Tokens: 100_000, Fee: 100, IncomingChannel: "b", OutgoingChannel: "a"},
			{CreatedAt: base.Add(time.Hour), Tokens: 50_000, Fee: 50, IncomingChannel: "a", OutgoingChannel: "b"},
		},
	}

	history, err := Build(snap)
	assertNoError(t, err)

	aHist := history["a"]
	if len(aHist) != 2 {
		t.Fatalf("expected 2 events for channel a, got %d", len(aHist))
	}
	// latest-first: the InForward (at base+1h) must come before the OutForward (at base).
	if aHist[0].Time().Before(aHist[1].Time()) {
		t.Fatalf("history for channel a is not latest-first")
	}
	assertEqual(t, aHist[0].Balance(), int64(600_000))

	// walking newest-to-oldest and subtracting amount recovers prior balance
	balance := aHist[0].Balance()
	for _, c := range aHist {
		assertEqual(t, c.Balance(), balance)
		balance -= c.Amount()
	}
}

func TestBuildRejectsUnknownChannel(t *testing.T) {
	snap := &snapshot.NodeSnapshot{
		Channels: []snapshot.ChannelProperties{{ID: "a", Capacity: 1_000_000, LocalBalance: 500_000}},
		Forwards: []snapshot.ForwardEvent{
			{CreatedAt: time.Now(), Tokens: 1000, IncomingChannel: "ghost", OutgoingChannel: "a"},
		},
	}
	_, err := Build(snap)
	if err == nil {
		t.Fatalf("expected SnapshotInvariantError for unknown channel reference")
	}
}

func TestBuildRebalanceSplitsAcrossChannels(t *testing.T) {
	now := time.Now().UTC()
	snap := &snapshot.NodeSnapshot{
		Channels: []snapshot.ChannelProperties{
			{ID: "out", Capacity: 1_000_000, LocalBalance: 400_000},
			{ID: "in", Capacity: 1_000_000, LocalBalance: 600_000},
		},
		Payments: []snapshot.PaymentEvent{
			{CreatedAt: now, Tokens: 100_000, Fee: 10, IsRebalance: true, OutChannel: "out", InChannel: "in"},
		},
	}

	history, err := Build(snap)
	assertNoError(t, err)

	if len(history["out"]) != 1 {
		t.Fatalf("expected 1 event on out channel")
	}
	if _, ok := history["out"][0].(snapshot.OutRebalance); !ok {
		t.Fatalf("expected OutRebalance on out channel, got %T", history["out"][0])
	}
	if _, ok := history["in"][0].(snapshot.InRebalance); !ok {
		t.Fatalf("expected InRebalance on in channel, got %T", history["in"][0])
	}
}

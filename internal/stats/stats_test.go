package stats

import (
	"testing"
	"time"

	"github.com/lnoperator/advisor/internal/snapshot"
)

func TestBuildAggregatesForwardSummaries(t *testing.T) {
	now := time.Now()
	props := snapshot.ChannelProperties{ID: "a", Capacity: 1_000_000, LocalBalance: 500_000}
	snap := &snapshot.NodeSnapshot{Days: 30, Channels: []snapshot.ChannelProperties{props}}
	history := map[string][]snapshot.Change{
		"a": {
			snapshot.OutForward{At: now, Tokens: 50_000, Bal: 500_000},
			snapshot.InForward{At: now.Add(-time.Hour), Tokens: -30_000, Bal: 450_000},
			snapshot.OutForward{At: now.Add(-2 * time.Hour), Tokens: 20_000, Bal: 480_000},
		},
	}

	got := Build(snap, history)
	cs := got.Channels["a"]

	if cs.OutForwards.Count != 2 {
		t.Fatalf("expected 2 out forwards, got %d", cs.OutForwards.Count)
	}
	if cs.OutForwards.TotalTokens != 70_000 {
		t.Fatalf("expected total out tokens 70000, got %d", cs.OutForwards.TotalTokens)
	}
	if cs.OutForwards.MaxTokens != 50_000 {
		t.Fatalf("expected max out tokens 50000, got %d", cs.OutForwards.MaxTokens)
	}
	if cs.InForwards.Count != 1 || cs.InForwards.TotalTokens != 30_000 {
		t.Fatalf("unexpected in forward summary: %+v", cs.InForwards)
	}
}

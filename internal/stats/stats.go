// Package stats aggregates a channel's Change history into the totals the
// actions engine reasons over, grounded on the per-channel aggregation
// optimizer.go performs (forwarding counts, totals, and a max single
// forward) before it categorizes a channel.
package stats

import (
	"github.com/lnoperator/advisor/internal/snapshot"
)

// ForwardSummary aggregates one direction of forwarding activity over the
// window.
type ForwardSummary struct {
	Count       int
	TotalTokens int64
	MaxTokens   int64
}

// ChannelStats is the per-channel view the actions engine consumes.
type ChannelStats struct {
	InForwards  ForwardSummary
	OutForwards ForwardSummary
	History     []snapshot.Change // latest-first
	Properties  snapshot.ChannelProperties
}

// NodeStats is the aggregate over every channel in a snapshot.
type NodeStats struct {
	Days     uint32
	Channels map[string]ChannelStats // keyed by ChannelProperties.ID
}

// Build derives NodeStats from a snapshot and its pre-built per-channel
// history (see internal/timeline.Build). The result is a map, so it keeps
// no channel order; callers that need a deterministic emission order must
// supply one themselves (internal/actions uses the order of snap.Channels).
func Build(snap *snapshot.NodeSnapshot, history map[string][]snapshot.Change) NodeStats {
	channels := make(map[string]ChannelStats, len(snap.Channels))
	for _, props := range snap.Channels {
		channels[props.ID] = ChannelStats{
			InForwards:  summarize(history[props.ID], isInForward),
			OutForwards: summarize(history[props.ID], isOutForward),
			History:     history[props.ID],
			Properties:  props,
		}
	}
	return NodeStats{Days: snap.Days, Channels: channels}
}

func isInForward(c snapshot.Change) (int64, bool) {
	f, ok := c.(snapshot.InForward)
	if !ok {
		return 0, false
	}
	return -f.Tokens, true // stored negative; summary totals are reported positive
}

func isOutForward(c snapshot.Change) (int64, bool) {
	f, ok := c.(snapshot.OutForward)
	if !ok {
		return 0, false
	}
	return f.Tokens, true
}

func summarize(history []snapshot.Change, match func(snapshot.Change) (int64, bool)) ForwardSummary {
	var s ForwardSummary
	for _, c := range history {
		tokens, ok := match(c)
		if !ok {
			continue
		}
		s.Count++
		s.TotalTokens += tokens
		if tokens > s.MaxTokens {
			s.MaxTokens = tokens
		}
	}
	return s
}

package actions

import (
	"sort"
	"time"

	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/snapshot"
	"github.com/lnoperator/advisor/internal/stats"
	"github.com/lnoperator/advisor/internal/timeline"
)

// Engine computes balance and fee Actions from a NodeSnapshot. It holds no
// mutable state beyond its validated configuration; Get is pure and
// synchronous and never performs I/O or blocks.
type Engine struct {
	cfg actionsconfig.ActionsConfig
}

// New validates cfg and returns an Engine, or the ConfigError Validate
// produced. Validation happens once, at construction, never per snapshot.
func New(cfg actionsconfig.ActionsConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Get derives the complete, priority-filtered Action stream for snap as of
// now: every channel's balance action, then the node-level aggregate, then
// every channel's fee action, each in the channel order snap.Channels was
// given in. It returns a SnapshotInvariantError if the snapshot's history
// is internally inconsistent, or a ComputationError if the fee decision
// tree reaches an impossible state.
func (e *Engine) Get(snap *snapshot.NodeSnapshot, now time.Time) ([]Action, error) {
	history, err := timeline.Build(snap)
	if err != nil {
		return nil, err
	}
	nodeStats := stats.Build(snap, history)

	order := make([]string, len(snap.Channels))
	for i, ch := range snap.Channels {
		order[i] = ch.ID
	}

	targets := make(map[string]channelTarget, len(order))
	for _, id := range order {
		targets[id] = computeChannelBalance(nodeStats.Channels[id], e.cfg)
	}

	var out []Action
	for _, id := range order {
		if a := targets[id].action; !a.IsNoop() {
			out = append(out, a)
		}
	}

	node := nodeBalanceAction(targets, order, e.cfg)
	if !node.IsNoop() {
		out = append(out, node)
	}

	for _, id := range order {
		action, err := computeFeeAction(id, nodeStats, targets, e.cfg, now)
		if err != nil {
			return nil, err
		}
		if action != nil && !action.IsNoop() {
			out = append(out, *action)
		}
	}

	return out, nil
}

// SortedChannelIDs is a small helper for callers (e.g. the CLI/HTTP
// surfaces) that want a deterministic channel ordering independent of a
// particular NodeSnapshot's slice order, e.g. when rendering a table from
// stats.NodeStats alone.
func SortedChannelIDs(ns stats.NodeStats) []string {
	ids := make([]string, 0, len(ns.Channels))
	for id := range ns.Channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

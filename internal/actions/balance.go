package actions

import (
	"fmt"

	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/stats"
)

// channelTarget is the target local balance for a channel computed per the
// per-channel balance target algorithm, kept alongside the Action so fee
// logic (which needs the target to compute currentDistance) doesn't
// recompute it.
type channelTarget struct {
	target int64
	action Action
}

// computeChannelBalance implements the eight-step per-channel balance
// target algorithm: fall back to 50% capacity when forward history is thin,
// otherwise derive an optimal split from observed in/out flow and clamp it
// into the headroom and floor/ceiling bounds the largest historical
// forwards and the configured balance fraction impose.
func computeChannelBalance(cs stats.ChannelStats, cfg actionsconfig.ActionsConfig) channelTarget {
	capacity := cs.Properties.Capacity
	inSum := cs.InForwards.TotalTokens
	outSum := cs.OutForwards.TotalTokens
	n := cs.InForwards.Count + cs.OutForwards.Count

	var target int64
	var reason string

	switch {
	case n < cfg.MinChannelForwards || inSum+outSum == 0:
		target = round(0.5 * float64(capacity))
		reason = fmt.Sprintf("only %d tracked forward(s), below the configured minimum of %d; defaulting to 50%% of capacity", n, cfg.MinChannelForwards)

	default:
		optimal := round(float64(outSum) / float64(inSum+outSum) * float64(capacity))
		minForwardBal := round(float64(cs.OutForwards.MaxTokens) * (1 + cfg.LargestForwardMarginFraction))
		maxForwardBal := capacity - round(float64(cs.InForwards.MaxTokens)*(1+cfg.LargestForwardMarginFraction))

		if minForwardBal > maxForwardBal {
			target = round(0.5 * float64(capacity))
			reason = "the largest historical in- and out-forwards require conflicting headroom; consider increasing channel capacity"
		} else {
			minBal := round(cfg.MinChannelBalanceFraction * float64(capacity))
			maxBal := capacity - minBal

			switch {
			case optimal < minBal:
				target = minBal
				reason = fmt.Sprintf("optimal balance %d is below the %d floor, clamped up", optimal, minBal)
			case optimal > maxBal:
				target = maxBal
				reason = fmt.Sprintf("optimal balance %d is above the %d ceiling, clamped down", optimal, maxBal)
			case optimal < minForwardBal:
				target = minForwardBal
				reason = fmt.Sprintf("optimal balance %d is below the headroom required for the largest historical outbound forward, clamped up", optimal)
			case optimal > maxForwardBal:
				target = maxForwardBal
				reason = fmt.Sprintf("optimal balance %d is above the headroom required for the largest historical inbound forward, clamped down", optimal)
			default:
				target = optimal
				reason = "balance target derived from observed inbound/outbound forward flow"
			}
		}
	}

	d := Distance(cs.Properties.LocalBalance, target, capacity)
	p := Priority(1, d, cfg.MinRebalanceDistance)

	id := cs.Properties.ID
	return channelTarget{
		target: target,
		action: Action{
			Entity:   "channel",
			ID:       &id,
			Alias:    strPtr(cs.Properties.PartnerAlias),
			Priority: p,
			Variable: "balance",
			Actual:   cs.Properties.LocalBalance,
			Target:   target,
			Max:      capacity,
			Reason:   reason,
		},
	}
}

// nodeBalanceAction aggregates every channel's actual and target balances
// into a single node-level recommendation, weighted to sort ahead of
// per-channel actions at the same distance band (base priority 4).
func nodeBalanceAction(targets map[string]channelTarget, order []string, cfg actionsconfig.ActionsConfig) Action {
	var actual, target, max int64
	for _, id := range order {
		t := targets[id]
		actual += t.action.Actual
		target += t.target
		max += t.action.Max
	}
	d := Distance(actual, target, max)
	p := Priority(4, d, cfg.MinRebalanceDistance)
	return Action{
		Entity:   "node",
		Priority: p,
		Variable: "balance",
		Actual:   actual,
		Target:   target,
		Max:      max,
		Reason:   "Sum of target balances of all channels.",
	}
}

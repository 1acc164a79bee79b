package actions

import (
	"math"
	"time"

	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/snapshot"
	"github.com/lnoperator/advisor/internal/stats"
)

const (
	dayMillis      = 86_400_000
	recentWindowMs = 5 * 60 * 1000
	minIncreaseRate = 30
	msatPerSat      = 1000 // fees and base fees are in msat, amounts in sats
)

// computeFeeAction runs the fee decision tree (below/above-bounds
// increases, rebalanced or forward-anchored decreases, the no-history
// fallback) for a single channel and returns at most one Action.
func computeFeeAction(channelID string, ns stats.NodeStats, targets map[string]channelTarget, cfg actionsconfig.ActionsConfig, now time.Time) (*Action, error) {
	cs := ns.Channels[channelID]
	target := targets[channelID].target
	capacity := cs.Properties.Capacity
	currentDistance := Distance(cs.Properties.LocalBalance, target, capacity)
	belowBounds := currentDistance <= -cfg.MinFeeIncreaseDistance

	lastOut, hasLastOut := lastOutForward(cs.History)
	lastRate, haveRate := lastOutFeeRate(cs.History, capacity, cs.Properties.BaseFee, cfg.MinOutFeeForwardFraction)

	if hasLastOut && haveRate {
		return computeFeeActionWithHistory(cs, ns, targets, cfg, now, channelID, target, currentDistance, belowBounds, lastOut, lastRate)
	}
	return computeFeeActionWithoutHistory(cs, cfg, now, belowBounds)
}

// Case B: no outbound forward at all, or its fee rate could not be
// computed. Only act once the channel has been open long enough for its
// silence to be meaningful.
func computeFeeActionWithoutHistory(cs stats.ChannelStats, cfg actionsconfig.ActionsConfig, now time.Time, belowBounds bool) (*Action, error) {
	minAge := time.Duration(cfg.Days) * 24 * time.Hour
	if now.Sub(cs.Properties.OpenedAt) < minAge {
		return nil, nil
	}
	var newRate int64
	reason := "no usable outbound forward history"
	if belowBounds {
		newRate = cfg.MaxFeeRate
		reason += "; channel is below its balance bounds, raising to the configured maximum"
	} else {
		newRate = 0
		reason += "; channel is not below its balance bounds, clearing the fee rate"
	}
	if newRate == cs.Properties.FeeRate {
		return nil, nil
	}
	return feeAction(cs, newRate, cfg, reason), nil
}

// Case A: a usable last-outbound fee rate exists.
func computeFeeActionWithHistory(cs stats.ChannelStats, ns stats.NodeStats, targets map[string]channelTarget, cfg actionsconfig.ActionsConfig, now time.Time, channelID string, target int64, currentDistance float64, belowBounds bool, lastOut snapshot.OutForward, lastRate int64) (*Action, error) {
	capacity := cs.Properties.Capacity

	if belowBounds {
		rate, err := maximumIncreaseFeeAction(cs.History, capacity, cs.Properties.BaseFee, cfg, now, target)
		if err != nil {
			return nil, err
		}
		if rate > cs.Properties.FeeRate {
			return feeAction(cs, rate, cfg, "channel is below its balance bounds; raising fee rate toward the historical forward that best explains the imbalance"), nil
		}
		return nil, nil
	}

	notBelowStart, sliceStart := notBelowBoundsStart(cs.History, capacity, target, cfg.MinFeeIncreaseDistance)

	var decreaseTarget int64
	var attempted bool
	var decreaseReason string

	if notBelowStart.After(lastOut.At) {
		historySlice := cs.History[sliceStart:]
		reconstructedRate, err := maximumIncreaseFeeAction(historySlice, capacity, cs.Properties.BaseFee, cfg, notBelowStart, target)
		if err != nil {
			return nil, err
		}
		elapsed := float64(now.Sub(notBelowStart).Milliseconds())
		decreaseTarget, attempted = feeDecrease(float64(reconstructedRate), elapsed, cfg, cs)
		decreaseReason = "decreasing from the fee rate reconstructed at the moment the channel last exited its below-bounds zone"
	} else {
		elapsed := float64(now.Sub(lastOut.At).Milliseconds())
		decreaseTarget, attempted = feeDecrease(float64(lastRate), elapsed, cfg, cs)
		decreaseReason = "decreasing from the last outbound forward's fee rate"
	}

	if attempted {
		if decreaseTarget < cs.Properties.FeeRate {
			return feeAction(cs, decreaseTarget, cfg, decreaseReason), nil
		}
		return nil, nil
	}

	if currentDistance <= -cfg.MinRebalanceDistance {
		rate, applies := aboveBoundsInflowFeeIncrease(channelID, ns, targets, cfg, lastRate, currentDistance)
		if applies && rate > cs.Properties.FeeRate {
			return feeAction(cs, rate, cfg, "raising fee rate: a disproportionate share of this channel's outflow traces back to an above-bounds inbound channel"), nil
		}
	}
	return nil, nil
}

func feeAction(cs stats.ChannelStats, newRate int64, cfg actionsconfig.ActionsConfig, reason string) *Action {
	id := cs.Properties.ID
	return &Action{
		Entity:   "channel",
		ID:       &id,
		Alias:    strPtr(cs.Properties.PartnerAlias),
		Priority: 1,
		Variable: "feeRate",
		Actual:   cs.Properties.FeeRate,
		Target:   newRate,
		Max:      cfg.MaxFeeRate,
		Reason:   reason,
	}
}

func lastOutForward(history []snapshot.Change) (snapshot.OutForward, bool) {
	for _, c := range history {
		if f, ok := c.(snapshot.OutForward); ok {
			return f, true
		}
	}
	return snapshot.OutForward{}, false
}

// lastOutFeeRate walks history latest-first, accumulating OutForward
// amounts until the running total reaches minOutFeeForwardFraction *
// capacity (inclusive: the forward that reaches the threshold is
// included), then derives the implied ppm rate net of base fee, converting
// the msat fees to sats before dividing by the sat amounts.
func lastOutFeeRate(history []snapshot.Change, capacity, baseFee int64, minOutFeeForwardFraction float64) (int64, bool) {
	minAmount := minOutFeeForwardFraction * float64(capacity)

	var total, totalFee, n int64
	for _, c := range history {
		f, ok := c.(snapshot.OutForward)
		if !ok {
			continue
		}
		total += f.Tokens
		totalFee += f.TokensFee
		n++
		if float64(total) >= minAmount {
			break
		}
	}
	if n == 0 || float64(total) < minAmount || total == 0 {
		return 0, false
	}
	rate := round((float64(totalFee) - float64(n)*float64(baseFee)) / msatPerSat / float64(total) * 1_000_000)
	return rate, true
}

// maximumIncreaseFeeAction collects every OutForward in the below-bounds
// prefix of history (latest-first, stopping at the first event no longer
// below bounds) and returns the maximum candidate fee rate among them, per
// §4.4.3's per-candidate formula. It is a ComputationError to call this
// with a history whose below-bounds prefix contains no OutForward.
func maximumIncreaseFeeAction(history []snapshot.Change, capacity, baseFee int64, cfg actionsconfig.ActionsConfig, evalTime time.Time, target int64) (int64, error) {
	var prefix []snapshot.Change
	for _, c := range history {
		d := Distance(c.Balance(), target, capacity)
		if d > -cfg.MinFeeIncreaseDistance {
			break
		}
		prefix = append(prefix, c)
	}
	if len(prefix) == 0 {
		return 0, &ComputationError{Reason: "maximum-increase fee action found no below-bounds history"}
	}

	rawFraction := math.Abs(Distance(prefix[0].Balance(), target, capacity)) - cfg.MinFeeIncreaseDistance

	var best int64
	var found bool
	for _, c := range prefix {
		f, ok := c.(snapshot.OutForward)
		if !ok || f.Tokens == 0 {
			continue
		}
		fRate := float64(f.TokensFee-baseFee) / msatPerSat / float64(f.Tokens) * 1_000_000
		elapsedMs := float64(evalTime.Sub(f.At).Milliseconds())

		var addFraction float64
		if elapsedMs < recentWindowMs {
			addFraction = rawFraction
		} else {
			elapsedDays := elapsedMs / dayMillis
			addFraction = rawFraction * (elapsedDays * cfg.FeeIncreaseMultiplier) / float64(cfg.Days)
		}

		newRate := clampI64(round(fRate*(1+addFraction)), minIncreaseRate, cfg.MaxFeeRate)
		if !found || newRate > best {
			best = newRate
			found = true
		}
	}
	if !found {
		return 0, &ComputationError{Reason: "maximum-increase fee action found no below-bounds outbound forward to anchor on"}
	}
	return best, nil
}

// notBelowBoundsStart walks history latest-first and returns the time of
// the oldest event in the leading run that is not below bounds, along with
// the count of events in that run (the index at which the below-bounds
// suffix of history begins).
func notBelowBoundsStart(history []snapshot.Change, capacity, target int64, minFeeIncreaseDistance float64) (time.Time, int) {
	var notBelowStart time.Time
	idx := 0
	for _, c := range history {
		d := Distance(c.Balance(), target, capacity)
		if d > -minFeeIncreaseDistance {
			notBelowStart = c.Time()
			idx++
			continue
		}
		break
	}
	return notBelowStart, idx
}

// aboveBoundsInflowFeeIncrease inspects every channel that feeds this
// channel's outbound forwards, looking for one that is itself above
// bounds and whose inflow contribution into this channel dominates this
// channel's recent outflow.
func aboveBoundsInflowFeeIncrease(channelID string, ns stats.NodeStats, targets map[string]channelTarget, cfg actionsconfig.ActionsConfig, lastOutRate int64, currentDistance float64) (int64, bool) {
	cs := ns.Channels[channelID]

	seen := make(map[string]bool)
	var candidates []string
	for _, c := range cs.History {
		f, ok := c.(snapshot.OutForward)
		if !ok || f.InChannel == "" || seen[f.InChannel] {
			continue
		}
		seen[f.InChannel] = true
		candidates = append(candidates, f.InChannel)
	}

	type inflow struct {
		tokens   int64
		distance float64
		earliest time.Time
	}
	var infos []inflow
	var minEarliest time.Time
	haveEarliest := false

	for _, xID := range candidates {
		xCS, ok := ns.Channels[xID]
		if !ok {
			continue
		}
		xTarget, ok := targets[xID]
		if !ok {
			continue
		}
		xDistance := Distance(xCS.Properties.LocalBalance, xTarget.target, xCS.Properties.Capacity)
		if xDistance < cfg.MinFeeIncreaseDistance {
			continue
		}

		var tokens int64
		var earliest time.Time
		found := false
		for _, c := range xCS.History {
			f, ok := c.(snapshot.InForward)
			if !ok || f.OutChannel != channelID {
				continue
			}
			d := Distance(f.Balance(), xTarget.target, xCS.Properties.Capacity)
			if d < cfg.MinFeeIncreaseDistance {
				break
			}
			tokens += absI64(f.Tokens)
			if !found || f.At.Before(earliest) {
				earliest = f.At
			}
			found = true
		}
		if !found {
			continue
		}
		infos = append(infos, inflow{tokens: tokens, distance: xDistance, earliest: earliest})
		if !haveEarliest || earliest.Before(minEarliest) {
			minEarliest = earliest
			haveEarliest = true
		}
	}
	if len(infos) == 0 {
		return 0, false
	}

	var totalOutflow int64
	for _, c := range cs.History {
		f, ok := c.(snapshot.OutForward)
		if !ok || f.At.Before(minEarliest) {
			continue
		}
		totalOutflow += absI64(f.Tokens)
	}
	if totalOutflow == 0 {
		return 0, false
	}

	var weighted float64
	for _, info := range infos {
		weighted += float64(info.tokens) * info.distance
	}
	fraction := weighted / float64(totalOutflow)
	if fraction <= cfg.MinFeeIncreaseDistance {
		return 0, false
	}

	increaseFraction := (fraction - cfg.MinFeeIncreaseDistance) * math.Abs(currentDistance)
	newRate := minI64(round(float64(lastOutRate)*(1+increaseFraction)), cfg.MaxFeeRate)
	return newRate, true
}

// feeDecrease implements §4.4.5: a time-decayed decrease off a base rate,
// floored by minFeeRateFloor. attempted is true whenever elapsedDays > 0,
// regardless of whether the resulting target actually undercuts the
// current fee rate — callers must stop trying an above-bounds increase
// whenever attempted is true.
func feeDecrease(rate, elapsedMs float64, cfg actionsconfig.ActionsConfig, cs stats.ChannelStats) (int64, bool) {
	elapsedDays := elapsedMs/dayMillis - cfg.FeeDecreaseWaitDays
	if elapsedDays <= 0 {
		return 0, false
	}
	decreaseFraction := elapsedDays / (float64(cfg.Days) - cfg.FeeDecreaseWaitDays)
	candidate := round(rate * (1 - decreaseFraction))
	floor := minFeeRateFloor(cs, cfg)
	return maxI64(floor, candidate), true
}

// minFeeRateFloor derives the floor under a fee decrease from the channel's
// recent inbound rebalance cost, unless the channel's own inflow share is
// high enough that rebalance cost is no longer a meaningful signal.
func minFeeRateFloor(cs stats.ChannelStats, cfg actionsconfig.ActionsConfig) int64 {
	var rebalances []snapshot.InRebalance
	for _, c := range cs.History {
		if r, ok := c.(snapshot.InRebalance); ok {
			rebalances = append(rebalances, r)
			if len(rebalances) == 3 {
				break
			}
		}
	}
	if len(rebalances) < 1 {
		return 0
	}

	var sum int64
	for _, r := range rebalances {
		if r.Tokens == 0 {
			continue
		}
		// InRebalance amounts are stored negative; the rate uses their size.
		sum += round(float64(r.TokensFee) / msatPerSat / float64(absI64(r.Tokens)) * 1_000_000)
	}
	rebalanceRate := float64(sum) / float64(len(rebalances))

	inSum := float64(cs.InForwards.TotalTokens)
	outSum := float64(cs.OutForwards.TotalTokens)
	inflowFraction := inSum / (inSum + outSum)
	if math.IsNaN(inflowFraction) || math.IsInf(inflowFraction, 0) || inflowFraction > cfg.MinInflowFraction {
		return 0
	}

	var partnerRate int64
	if cs.Properties.PartnerFeeRate != nil {
		partnerRate = *cs.Properties.PartnerFeeRate
	}
	return maxI64(round(rebalanceRate), partnerRate)
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

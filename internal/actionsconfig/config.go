// Package actionsconfig validates the tunables the actions engine is
// parameterized by, in the same default-fill-then-validate style as the
// teacher's flag-parsed configuration (see preflightChecks in the
// regolancer reference).
package actionsconfig

import "fmt"

// ActionsConfig holds every tunable the actions engine consults. All
// fields are required; Validate reports the first invariant violation it
// finds.
type ActionsConfig struct {
	// MinChannelForwards is the number of forwards needed on a channel
	// before flow history is trusted to predict a balance target.
	MinChannelForwards int

	// MinOutFeeForwardFraction is the capacity fraction that must be
	// covered by recent outbound forwards before a last-outbound fee rate
	// is considered reliable.
	MinOutFeeForwardFraction float64

	// MinChannelBalanceFraction bounds the balance floor/ceiling as a
	// fraction of capacity.
	MinChannelBalanceFraction float64

	// MinRebalanceDistance is the minimum |distance| required to emit a
	// balance or rebalance action.
	MinRebalanceDistance float64

	// LargestForwardMarginFraction adds headroom above historical maxima
	// when computing balance bounds.
	LargestForwardMarginFraction float64

	// MinFeeIncreaseDistance is the |distance| threshold past which a
	// channel is considered below or above bounds.
	MinFeeIncreaseDistance float64

	// FeeIncreaseMultiplier scales how aggressively older below-bounds
	// forwards push up the proposed fee rate.
	FeeIncreaseMultiplier float64

	// FeeDecreaseWaitDays is the number of idle days before a fee
	// decrease is considered at all.
	FeeDecreaseWaitDays float64

	// MinInflowFraction is the inflow share above which recent rebalance
	// cost is ignored when flooring a fee decrease.
	MinInflowFraction float64

	// MaxFeeRate is the absolute cap on any proposed fee rate, in ppm.
	MaxFeeRate int64

	// Days is the width of the rolling window statistics are computed
	// over.
	Days uint32
}

// ConfigError reports an invalid ActionsConfig. Construction must fail
// fast; the engine never runs against an unvalidated config.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("actions config: %s: %s", e.Field, e.Reason)
}

// Validate checks every documented bound and cross-field invariant,
// returning the first violation found.
func (c ActionsConfig) Validate() error {
	if c.MinChannelForwards < 0 {
		return &ConfigError{"MinChannelForwards", "must be >= 0"}
	}
	if c.MinOutFeeForwardFraction < 0 || c.MinOutFeeForwardFraction > 1 {
		return &ConfigError{"MinOutFeeForwardFraction", "must be in [0, 1]"}
	}
	if c.MinChannelBalanceFraction <= 0 || c.MinChannelBalanceFraction >= 0.5 {
		return &ConfigError{"MinChannelBalanceFraction", "must be in (0, 0.5)"}
	}
	if c.MinRebalanceDistance <= 0 || c.MinRebalanceDistance > 1 {
		return &ConfigError{"MinRebalanceDistance", "must be in (0, 1]"}
	}
	if c.LargestForwardMarginFraction < 0 {
		return &ConfigError{"LargestForwardMarginFraction", "must be >= 0"}
	}
	if c.MinFeeIncreaseDistance <= c.MinRebalanceDistance || c.MinFeeIncreaseDistance > 1 {
		return &ConfigError{"MinFeeIncreaseDistance", "must be in (MinRebalanceDistance, 1]"}
	}
	if c.FeeIncreaseMultiplier < 1 {
		return &ConfigError{"FeeIncreaseMultiplier", "must be >= 1"}
	}
	if c.FeeDecreaseWaitDays < 0 || c.FeeDecreaseWaitDays >= float64(c.Days) {
		return &ConfigError{"FeeDecreaseWaitDays", "must be in [0, Days)"}
	}
	if c.MinInflowFraction < 0 || c.MinInflowFraction > 1 {
		return &ConfigError{"MinInflowFraction", "must be in [0, 1]"}
	}
	if c.MaxFeeRate <= 0 {
		return &ConfigError{"MaxFeeRate", "must be > 0"}
	}
	return nil
}

// Default returns the reference CLI's documented defaults.
func Default() ActionsConfig {
	return ActionsConfig{
		MinChannelForwards:           20,
		MinOutFeeForwardFraction:     0.01,
		MinChannelBalanceFraction:    0.25,
		MinRebalanceDistance:         0.05,
		LargestForwardMarginFraction: 0.1,
		MinFeeIncreaseDistance:       0.3,
		FeeIncreaseMultiplier:        3,
		FeeDecreaseWaitDays:          4,
		MinInflowFraction:            0.3,
		MaxFeeRate:                   2500,
		Days:                         30,
	}
}

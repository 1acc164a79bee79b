package actionsconfig

import "testing"

func TestDefaultConfigValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestValidateRejectsFeeIncreaseDistanceNotGreater(t *testing.T) {
	c := Default()
	c.MinFeeIncreaseDistance = c.MinRebalanceDistance
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when MinFeeIncreaseDistance == MinRebalanceDistance")
	}
}

func TestValidateRejectsFeeDecreaseWaitDaysAtOrAboveDays(t *testing.T) {
	c := Default()
	c.FeeDecreaseWaitDays = float64(c.Days)
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error when FeeDecreaseWaitDays >= Days")
	}
}

func TestValidateRejectsZeroMaxFeeRate(t *testing.T) {
	c := Default()
	c.MaxFeeRate = 0
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for non-positive MaxFeeRate")
	}
}

func TestValidateRejectsOutOfRangeBalanceFraction(t *testing.T) {
	c := Default()
	c.MinChannelBalanceFraction = 0.5
	if err := c.Validate(); err == nil {
		t.Fatalf("expected error for MinChannelBalanceFraction == 0.5")
	}
}

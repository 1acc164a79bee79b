package lndsource

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"
)

// PruneFailedPayments deletes failed payments older than olderThan, keeping
// lnd's payment database from accumulating permanently-failed attempts that
// would otherwise inflate every future ListPayments call.
func (c *Client) PruneFailedPayments(ctx context.Context, olderThan time.Duration) error {
	cutoff := time.Now().UTC().Add(-olderThan)

	resp, err := c.lightning.ListPayments(ctx, &lnrpc.ListPaymentsRequest{
		IncludeIncomplete: true,
	})
	if err != nil {
		return fmt.Errorf("listing payments for pruning: %w", err)
	}

	for _, p := range resp.Payments {
		if p.Status != lnrpc.Payment_FAILED {
			continue
		}
		if time.Unix(0, p.CreationTimeNs).UTC().After(cutoff) {
			continue
		}
		hash, err := hex.DecodeString(p.PaymentHash)
		if err != nil {
			continue
		}
		if _, err := c.lightning.DeletePayment(ctx, &lnrpc.DeletePaymentRequest{
			PaymentHash: hash,
		}); err != nil {
			return fmt.Errorf("deleting failed payment %s: %w", p.PaymentHash, err)
		}
	}
	return nil
}

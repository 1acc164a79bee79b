package lndsource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lnoperator/advisor/internal/snapshot"
)

// Snapshot assembles a full NodeSnapshot over the trailing window of days,
// fetching channels, forwards, and payments concurrently since none of the
// three RPC calls depends on another's result.
func (c *Client) Snapshot(ctx context.Context, days uint32) (*snapshot.NodeSnapshot, error) {
	now := time.Now().UTC()
	after := now.AddDate(0, 0, -int(days))

	var (
		wg       sync.WaitGroup
		channels []snapshot.ChannelProperties
		forwards []snapshot.ForwardEvent
		payments []snapshot.PaymentEvent
		chanErr, fwdErr, payErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		channels, chanErr = c.Channels(ctx)
	}()
	go func() {
		defer wg.Done()
		forwards, fwdErr = c.Forwards(ctx, after, now)
	}()
	go func() {
		defer wg.Done()
		payments, payErr = c.Payments(ctx, after, now)
	}()
	wg.Wait()

	if chanErr != nil {
		return nil, fmt.Errorf("assembling snapshot: %w", chanErr)
	}
	if fwdErr != nil {
		return nil, fmt.Errorf("assembling snapshot: %w", fwdErr)
	}
	if payErr != nil {
		return nil, fmt.Errorf("assembling snapshot: %w", payErr)
	}

	return &snapshot.NodeSnapshot{
		IdentityPubkey: c.identityPK,
		Channels:       channels,
		Forwards:       forwards,
		Payments:       payments,
		Days:           days,
		TakenAt:        now,
	}, nil
}

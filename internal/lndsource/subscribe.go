package lndsource

import (
	"context"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
)

// SubscribeChannels signals on every channel open/close event. The refresher
// only cares that something changed, not what, so the channel carries empty
// structs rather than the event payload itself.
func (c *Client) SubscribeChannels(ctx context.Context) (<-chan struct{}, error) {
	stream, err := c.lightning.SubscribeChannelEvents(ctx, &lnrpc.ChannelEventSubscription{})
	if err != nil {
		return nil, err
	}
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			if _, err := stream.Recv(); err != nil {
				return
			}
			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribeForwards signals on every HTLC forward or settle event, the
// router's equivalent of the channel-event stream above. Other HTLC events
// (failures, link failures) are skipped.
func (c *Client) SubscribeForwards(ctx context.Context) (<-chan struct{}, error) {
	stream, err := c.router.SubscribeHtlcEvents(ctx, &routerrpc.SubscribeHtlcEventsRequest{})
	if err != nil {
		return nil, err
	}
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			event, err := stream.Recv()
			if err != nil {
				return
			}
			if event.GetForwardEvent() == nil && event.GetSettleEvent() == nil {
				continue
			}
			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// SubscribePayments signals on every payment status update, using the same
// all-payments tracking stream lnd exposes for resumable payment tracking.
func (c *Client) SubscribePayments(ctx context.Context) (<-chan struct{}, error) {
	stream, err := c.router.TrackPayments(ctx, &routerrpc.TrackPaymentsRequest{NoInflightUpdates: true})
	if err != nil {
		return nil, err
	}
	out := make(chan struct{})
	go func() {
		defer close(out)
		for {
			if _, err := stream.Recv(); err != nil {
				return
			}
			select {
			case out <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

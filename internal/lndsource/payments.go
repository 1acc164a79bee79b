package lndsource

import (
	"context"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"

	"github.com/lnoperator/advisor/internal/snapshot"
)

// Payments lists our outgoing payments and classifies each as a rebalance
// or a plain payment by checking whether the final hop of the payment's
// route terminates back at our own node. A payment whose last hop's pubkey
// matches our identity pubkey paid itself through the network, which is
// exactly how a circular rebalance looks from ListPayments' point of view.
func (c *Client) Payments(ctx context.Context, after, before time.Time) ([]snapshot.PaymentEvent, error) {
	resp, err := c.lightning.ListPayments(ctx, &lnrpc.ListPaymentsRequest{
		IncludeIncomplete: false,
	})
	if err != nil {
		return nil, fmt.Errorf("listing payments: %w", err)
	}

	var out []snapshot.PaymentEvent
	for _, p := range resp.Payments {
		if p.Status != lnrpc.Payment_SUCCEEDED {
			continue
		}
		createdAt := time.Unix(0, p.CreationTimeNs).UTC()
		if createdAt.Before(after) || !createdAt.Before(before) {
			continue
		}

		route := lastHopRoute(p)
		if route == nil || len(route.Hops) == 0 {
			continue
		}

		outChannel := strconv.FormatUint(route.Hops[0].ChanId, 10)
		event := snapshot.PaymentEvent{
			CreatedAt:   createdAt,
			Tokens:      p.ValueSat,
			Fee:         route.TotalFeesMsat,
			OutChannel:  outChannel,
			IsRebalance: false,
		}

		if isSelfPayment(route, c.identityPK) {
			lastHop := route.Hops[len(route.Hops)-1]
			event.IsRebalance = true
			event.InChannel = strconv.FormatUint(lastHop.ChanId, 10)
		}

		out = append(out, event)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// lastHopRoute picks the successful HTLC attempt's route, mirroring how
// lnd itself considers a payment settled: the first attempt with
// Status == SUCCEEDED carries the route that was actually paid.
func lastHopRoute(p *lnrpc.Payment) *lnrpc.Route {
	for _, a := range p.Htlcs {
		if a.Status == lnrpc.HTLCAttempt_SUCCEEDED && a.Route != nil {
			return a.Route
		}
	}
	return nil
}

// isSelfPayment reports whether a route's final hop pays back to identityPK,
// the signature of a circular rebalance. Hop pubkeys are hex-encoded node
// IDs, same encoding as GetInfo's IdentityPubkey, so a straight decode-and
// -compare ignores upper/lower case differences in the raw strings. A
// pubkey that is not valid hex (e.g. one with surrounding whitespace) never
// matches.
func isSelfPayment(route *lnrpc.Route, identityPK string) bool {
	if len(route.Hops) == 0 {
		return false
	}
	lastHop := route.Hops[len(route.Hops)-1]
	want, err := hex.DecodeString(identityPK)
	if err != nil {
		return false
	}
	got, err := hex.DecodeString(lastHop.PubKey)
	if err != nil {
		return false
	}
	if len(want) != len(got) {
		return false
	}
	for i := range want {
		if want[i] != got[i] {
			return false
		}
	}
	return true
}

// Package timeline builds the per-channel, latest-first Change history the
// actions engine consumes from a raw NodeSnapshot, grounded on the
// backwards balance-reconstruction walk in the teacher's Lightning history
// scanner: start from the channel's current local balance and, walking
// events newest to oldest, subtract each event's signed amount to recover
// the balance that held immediately before it.
package timeline

import (
	"fmt"
	"sort"
	"time"

	"github.com/lnoperator/advisor/internal/snapshot"
)

// Build returns, for every channel in snap, its history sorted latest-first
// with Balance populated at each event per the reconstruction invariant:
// applying -Amount while walking newest-to-oldest recovers the prior
// balance. It returns a SnapshotInvariantError if a forward or payment
// references a channel absent from snap.Channels.
func Build(snap *snapshot.NodeSnapshot) (map[string][]snapshot.Change, error) {
	byID := make(map[string]snapshot.ChannelProperties, len(snap.Channels))
	for _, ch := range snap.Channels {
		byID[ch.ID] = ch
	}

	events := make(map[string][]timedEvent)

	for _, f := range snap.Forwards {
		if f.IncomingChannel != "" {
			if _, ok := byID[f.IncomingChannel]; !ok {
				return nil, &snapshot.SnapshotInvariantError{
					Reason: fmt.Sprintf("forward references unknown incoming channel %q", f.IncomingChannel),
				}
			}
			events[f.IncomingChannel] = append(events[f.IncomingChannel], timedEvent{
				at:     f.CreatedAt,
				amount: -f.Tokens,
				fee:    f.Fee,
				build: func(balance int64) snapshot.Change {
					return snapshot.InForward{At: f.CreatedAt, Tokens: -f.Tokens, TokensFee: f.Fee, Bal: balance, OutChannel: f.OutgoingChannel}
				},
			})
		}
		if f.OutgoingChannel != "" {
			if _, ok := byID[f.OutgoingChannel]; !ok {
				return nil, &snapshot.SnapshotInvariantError{
					Reason: fmt.Sprintf("forward references unknown outgoing channel %q", f.OutgoingChannel),
				}
			}
			events[f.OutgoingChannel] = append(events[f.OutgoingChannel], timedEvent{
				at:     f.CreatedAt,
				amount: f.Tokens,
				fee:    f.Fee,
				build: func(balance int64) snapshot.Change {
					return snapshot.OutForward{At: f.CreatedAt, Tokens: f.Tokens, TokensFee: f.Fee, Bal: balance, InChannel: f.IncomingChannel}
				},
			})
		}
	}

	for _, p := range snap.Payments {
		if p.OutChannel == "" {
			continue
		}
		if _, ok := byID[p.OutChannel]; !ok {
			return nil, &snapshot.SnapshotInvariantError{
				Reason: fmt.Sprintf("payment references unknown channel %q", p.OutChannel),
			}
		}
		p := p
		if p.IsRebalance {
			events[p.OutChannel] = append(events[p.OutChannel], timedEvent{
				at:     p.CreatedAt,
				amount: p.Tokens,
				fee:    p.Fee,
				build: func(balance int64) snapshot.Change {
					return snapshot.OutRebalance{At: p.CreatedAt, Tokens: p.Tokens, TokensFee: p.Fee, Bal: balance}
				},
			})
			if p.InChannel != "" {
				if _, ok := byID[p.InChannel]; !ok {
					return nil, &snapshot.SnapshotInvariantError{
						Reason: fmt.Sprintf("payment references unknown credited channel %q", p.InChannel),
					}
				}
				events[p.InChannel] = append(events[p.InChannel], timedEvent{
					at:     p.CreatedAt,
					amount: -p.Tokens,
					fee:    p.Fee,
					build: func(balance int64) snapshot.Change {
						return snapshot.InRebalance{At: p.CreatedAt, Tokens: -p.Tokens, TokensFee: p.Fee, Bal: balance}
					},
				})
			}
		} else {
			events[p.OutChannel] = append(events[p.OutChannel], timedEvent{
				at:     p.CreatedAt,
				amount: p.Tokens,
				fee:    p.Fee,
				build: func(balance int64) snapshot.Change {
					return snapshot.OutPayment{At: p.CreatedAt, Tokens: p.Tokens, TokensFee: p.Fee, Bal: balance}
				},
			})
		}
	}

	result := make(map[string][]snapshot.Change, len(snap.Channels))
	for _, ch := range snap.Channels {
		evs := events[ch.ID]
		sort.SliceStable(evs, func(i, j int) bool { return evs[i].at.Before(evs[j].at) })

		// evs is sorted oldest-first; history must be latest-first, so
		// walking evs backwards (newest to oldest) fills history forwards.
		history := make([]snapshot.Change, len(evs))
		balance := ch.LocalBalance
		for i := len(evs) - 1; i >= 0; i-- {
			e := evs[i]
			if balance < 0 || balance > ch.Capacity {
				return nil, &snapshot.SnapshotInvariantError{
					Reason: fmt.Sprintf("channel %q balance %d out of range [0,%d]", ch.ID, balance, ch.Capacity),
				}
			}
			history[len(evs)-1-i] = e.build(balance)
			balance -= e.amount
		}
		result[ch.ID] = history
	}

	return result, nil
}

type timedEvent struct {
	at     time.Time
	amount int64
	fee    int64
	build  func(balance int64) snapshot.Change
}

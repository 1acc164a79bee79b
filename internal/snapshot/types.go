// Package snapshot defines the immutable, at-a-point-in-time view of a
// node's channels and history that the actions engine consumes.
package snapshot

import (
	"context"
	"time"
)

// ChannelProperties is an immutable snapshot of one channel's static and
// current-balance attributes.
type ChannelProperties struct {
	ID             string    `json:"id"`
	PartnerAlias   string    `json:"partner_alias,omitempty"`
	Capacity       int64     `json:"capacity"`
	LocalBalance   int64     `json:"local_balance"`
	FeeRate        int64     `json:"fee_rate"`
	BaseFee        int64     `json:"base_fee"`
	PartnerFeeRate *int64    `json:"partner_fee_rate,omitempty"`
	OpenedAt       time.Time `json:"opened_at"`
}

// ForwardEvent is a single forward reported by the node over the window,
// already resolved from the RPC's integer channel IDs to canonical string
// IDs matching ChannelProperties.ID.
type ForwardEvent struct {
	CreatedAt        time.Time
	Tokens           int64
	Fee              int64
	IncomingChannel  string
	OutgoingChannel  string
}

// PaymentEvent is a self-initiated outbound payment, already classified by
// the source as a rebalance (final hop lands back at our own node,
// identity-matched) or a plain outbound payment.
//
// OutChannel is the channel that funded the payment and is always set. For
// a rebalance, InChannel is the channel credited by the payment's final
// hop; it is empty for a plain OutPayment.
type PaymentEvent struct {
	CreatedAt   time.Time
	Tokens      int64
	Fee         int64
	IsRebalance bool
	OutChannel  string
	InChannel   string
}

// NodeSnapshot is an immutable, at-one-instant view of identity, channels,
// and windowed forward/payment history. A new snapshot is produced on every
// refresh; nothing within it is ever mutated (Design Note: "event
// subscriber + cache" becomes an immutable value, not a mutated cache).
type NodeSnapshot struct {
	IdentityPubkey string
	Channels       []ChannelProperties
	Forwards       []ForwardEvent // sorted oldest-first, as returned by the source
	Payments       []PaymentEvent // sorted oldest-first, as returned by the source
	Days           uint32
	TakenAt        time.Time
}

// Source is the external collaborator that yields a NodeSnapshot and
// notifies on changes. Implementations live outside the engine (see
// internal/lndsource for the production lndclient-backed adapter); the
// engine itself never imports this package's implementers.
type Source interface {
	// Channels returns the current open channels.
	Channels(ctx context.Context) ([]ChannelProperties, error)

	// Forwards returns forwarding events in [after, before), oldest first.
	Forwards(ctx context.Context, after, before time.Time) ([]ForwardEvent, error)

	// Payments returns our outbound payments (including self-rebalances)
	// in [after, before), oldest first.
	Payments(ctx context.Context, after, before time.Time) ([]PaymentEvent, error)

	// Snapshot assembles a full NodeSnapshot over the trailing window of
	// the given number of days.
	Snapshot(ctx context.Context, days uint32) (*NodeSnapshot, error)

	// SubscribeChannels, SubscribeForwards, and SubscribePayments deliver a
	// value on their returned channel whenever the node reports a change;
	// the channel is closed when ctx is cancelled.
	SubscribeChannels(ctx context.Context) (<-chan struct{}, error)
	SubscribeForwards(ctx context.Context) (<-chan struct{}, error)
	SubscribePayments(ctx context.Context) (<-chan struct{}, error)

	// PruneFailedPayments deletes failed historical payments older than
	// olderThan. Housekeeping only; never called by the engine.
	PruneFailedPayments(ctx context.Context, olderThan time.Duration) error
}

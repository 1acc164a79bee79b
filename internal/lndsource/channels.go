package lndsource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightningnetwork/lnd/lnrpc"

	"github.com/lnoperator/advisor/internal/snapshot"
)

// Channels lists our open channels and resolves each partner's inbound fee
// rate via a channel-edge lookup, the same GetChanInfo round trip
// regolancer's getChanInfo performs before computing a route's fee.
func (c *Client) Channels(ctx context.Context) ([]snapshot.ChannelProperties, error) {
	resp, err := c.lightning.ListChannels(ctx, &lnrpc.ListChannelsRequest{ActiveOnly: false})
	if err != nil {
		return nil, fmt.Errorf("listing channels: %w", err)
	}

	out := make([]snapshot.ChannelProperties, 0, len(resp.Channels))
	for _, ch := range resp.Channels {
		capacity := btcutil.Amount(ch.Capacity)
		local := btcutil.Amount(ch.LocalBalance)

		policy, err := c.ourPolicy(ctx, ch.ChanId)
		if err != nil {
			return nil, err
		}
		var feeRate, baseFee int64
		if policy != nil {
			feeRate = policy.FeeRateMilliMsat
			baseFee = policy.FeeBaseMsat
		}

		var partnerRate *int64
		if rate, err := c.partnerFeeRate(ctx, ch.ChanId); err == nil {
			partnerRate = rate
		}

		alias, _ := c.aliasFor(ctx, ch.RemotePubkey)

		props := snapshot.ChannelProperties{
			ID:             strconv.FormatUint(ch.ChanId, 10),
			PartnerAlias:   alias,
			Capacity:       satsOf(capacity),
			LocalBalance:   satsOf(local),
			FeeRate:        feeRate,
			BaseFee:        baseFee,
			PartnerFeeRate: partnerRate,
			OpenedAt:       c.channelOpenTime(ctx, ch),
		}
		out = append(out, props)
	}
	return out, nil
}

func (c *Client) ourPolicy(ctx context.Context, chanID uint64) (*lnrpc.RoutingPolicy, error) {
	edge, err := c.chanInfo(ctx, chanID)
	if err != nil {
		return nil, err
	}
	if edge.Node1Pub == c.identityPK {
		return edge.Node1Policy, nil
	}
	if edge.Node2Pub == c.identityPK {
		return edge.Node2Policy, nil
	}
	return nil, nil
}

func (c *Client) aliasFor(ctx context.Context, pubkey string) (string, error) {
	if alias, ok := c.aliasCache[pubkey]; ok {
		return alias, nil
	}
	if c.aliasStore != nil {
		if alias, ok, err := c.aliasStore.Lookup(pubkey); err == nil && ok {
			c.aliasCache[pubkey] = alias
			return alias, nil
		}
	}

	info, err := c.lightning.GetNodeInfo(ctx, &lnrpc.NodeInfoRequest{PubKey: pubkey})
	if err != nil {
		return "", err
	}
	alias := ""
	if info.Node != nil {
		alias = info.Node.Alias
	}
	c.aliasCache[pubkey] = alias
	if c.aliasStore != nil {
		_ = c.aliasStore.Store(pubkey, alias)
	}
	return alias, nil
}

const avgBlockInterval = 10 * time.Minute

// channelOpenTime approximates the channel's open timestamp from the block
// height encoded in its short channel ID (the top 24 bits, per BOLT 7),
// since lnrpc's ListChannelsResponse carries no direct open timestamp. The
// approximation uses the node's current height and an average block
// interval; it is a rough estimate, adequate for the days-since-open
// comparisons the fee decision tree needs, not a wall-clock-accurate
// timestamp.
func (c *Client) channelOpenTime(ctx context.Context, ch *lnrpc.Channel) time.Time {
	openHeight := uint32(ch.ChanId >> 40)
	if c.currentHeight == 0 || openHeight == 0 || openHeight > c.currentHeight {
		return time.Now().UTC()
	}
	blocksAgo := c.currentHeight - openHeight
	return time.Now().UTC().Add(-time.Duration(blocksAgo) * avgBlockInterval)
}

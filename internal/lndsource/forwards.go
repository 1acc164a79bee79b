package lndsource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/lightningnetwork/lnd/lnrpc"

	"github.com/lnoperator/advisor/internal/snapshot"
)

const forwardingHistoryPageSize = 100

// Forwards paginates ForwardingHistory between after and before, the same
// paginated-fetch shape the live refresher (internal/refresh) assembles a
// snapshot with.
func (c *Client) Forwards(ctx context.Context, after, before time.Time) ([]snapshot.ForwardEvent, error) {
	var out []snapshot.ForwardEvent
	var offset uint32

	for {
		resp, err := c.lightning.ForwardingHistory(ctx, &lnrpc.ForwardingHistoryRequest{
			StartTime:    uint64(after.Unix()),
			EndTime:      uint64(before.Unix()),
			IndexOffset:  offset,
			NumMaxEvents: forwardingHistoryPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("fetching forwarding history: %w", err)
		}
		for _, f := range resp.ForwardingEvents {
			out = append(out, snapshot.ForwardEvent{
				CreatedAt:       time.Unix(0, int64(f.TimestampNs)).UTC(),
				Tokens:          int64(f.AmtOut),
				Fee:             int64(f.FeeMsat),
				IncomingChannel: strconv.FormatUint(f.ChanIdIn, 10),
				OutgoingChannel: strconv.FormatUint(f.ChanIdOut, 10),
			})
		}
		if len(resp.ForwardingEvents) < forwardingHistoryPageSize {
			break
		}
		offset = resp.LastOffsetIndex
	}
	return out, nil
}

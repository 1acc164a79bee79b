// Package lndsource is the production implementation of snapshot.Source,
// backed by a real lnd gRPC connection. It is where the project's
// Lightning-specific third-party dependencies live: lndclient handles
// connection setup (in place of the teacher's exec.Command("lncli", ...)
// shell-out), lnrpc/routerrpc provide the RPC surface, and btcutil.Amount
// carries satoshi quantities until they're converted to the plain int64
// sats the pure actions engine expects.
package lndsource

import (
	"context"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/lightninglabs/lndclient"
	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"google.golang.org/grpc"

	"github.com/lnoperator/advisor/internal/nodecache"
	"github.com/lnoperator/advisor/internal/snapshot"
)

// Config gathers everything needed to dial lnd, mirroring the teacher's
// flag-parsed connection parameters (Connect/TLSCert/MacaroonDir/Network).
type Config struct {
	Connect          string
	TLSCertPath      string
	MacaroonDir      string
	MacaroonFilename string
	Network          string
}

// Client is the production snapshot.Source. It caches channel-edge lookups
// the way regolancer's getChanInfo does, since partner fee rates require a
// GetChanInfo round trip per channel.
type Client struct {
	conn          *grpc.ClientConn
	lightning     lnrpc.LightningClient
	router        routerrpc.RouterClient
	identityPK    string
	chanEdgeCache map[uint64]*lnrpc.ChannelEdge
	aliasCache    map[string]string
	aliasStore    *nodecache.Cache
	currentHeight uint32
}

var _ snapshot.Source = (*Client)(nil)

// Dial opens the gRPC connection and resolves our own identity pubkey, the
// same two steps regolancer's main() performs before any channel query.
// aliasStore may be nil, in which case alias lookups are cached only for
// the lifetime of the Client.
func Dial(ctx context.Context, cfg Config, aliasStore *nodecache.Cache) (*Client, error) {
	conn, err := lndclient.NewBasicConn(cfg.Connect, cfg.TLSCertPath, cfg.MacaroonDir, cfg.Network,
		lndclient.MacFilename(cfg.MacaroonFilename))
	if err != nil {
		return nil, fmt.Errorf("dialing lnd: %w", err)
	}

	c := &Client{
		conn:          conn,
		lightning:     lnrpc.NewLightningClient(conn),
		router:        routerrpc.NewRouterClient(conn),
		chanEdgeCache: make(map[uint64]*lnrpc.ChannelEdge),
		aliasCache:    make(map[string]string),
		aliasStore:    aliasStore,
	}

	info, err := c.lightning.GetInfo(ctx, &lnrpc.GetInfoRequest{})
	if err != nil {
		return nil, fmt.Errorf("fetching node identity: %w", err)
	}
	c.identityPK = info.IdentityPubkey
	c.currentHeight = info.BlockHeight

	return c, nil
}

// Close tears down the underlying gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) chanInfo(ctx context.Context, chanID uint64) (*lnrpc.ChannelEdge, error) {
	if edge, ok := c.chanEdgeCache[chanID]; ok {
		return edge, nil
	}
	edge, err := c.lightning.GetChanInfo(ctx, &lnrpc.ChanInfoRequest{ChanId: chanID})
	if err != nil {
		return nil, fmt.Errorf("fetching channel edge %d: %w", chanID, err)
	}
	c.chanEdgeCache[chanID] = edge
	return edge, nil
}

// partnerFeeRate looks up the peer's policy on their side of the channel
// (their fee rate for traffic flowing to us), mirroring getRoutes'
// node-matching logic in routes.go: the policy belongs to whichever side
// is NOT our own pubkey.
func (c *Client) partnerFeeRate(ctx context.Context, chanID uint64) (*int64, error) {
	edge, err := c.chanInfo(ctx, chanID)
	if err != nil {
		return nil, err
	}
	policy := edge.Node2Policy
	if edge.Node1Pub == c.identityPK {
		policy = edge.Node2Policy
	} else if edge.Node2Pub == c.identityPK {
		policy = edge.Node1Policy
	}
	if policy == nil {
		return nil, nil
	}
	rate := policy.FeeRateMilliMsat
	return &rate, nil
}

func satsOf(a btcutil.Amount) int64 { return int64(a) }

// Command advisor is the operational front end for the actions engine: it
// dials lnd, assembles a snapshot, and either prints recommendations once,
// keeps printing them as the node changes, or serves them over HTTP.
//
// Subcommand dispatch follows the teacher's channel-manager tool
// (balance/fees/earnings); the run/once split follows
// forwarding-collector's --oneshot flag.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/lndsource"
	"github.com/lnoperator/advisor/internal/nodecache"
	"github.com/lnoperator/advisor/internal/refresh"
)

func main() {
	if len(os.Args) < 2 {
		showHelp()
		os.Exit(1)
	}

	command := os.Args[1]
	rest := os.Args[2:]

	switch command {
	case "once":
		runOnce(rest)
	case "run":
		runLoop(rest)
	case "serve":
		runServe(rest)
	case "prune":
		runPrune(rest)
	case "help", "-h", "--help":
		showHelp()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		showHelp()
		os.Exit(1)
	}
}

func showHelp() {
	fmt.Println("advisor - Lightning routing-node operational advisor")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  advisor once   [flags]   Fetch one snapshot, print proposed actions, exit")
	fmt.Println("  advisor run    [flags]   Keep printing proposed actions as the node changes")
	fmt.Println("  advisor serve  [flags]   Serve proposed actions over HTTP (see advisor-api)")
	fmt.Println("  advisor prune  [flags]   Delete failed payments older than --days")
	fmt.Println("  advisor help             Show this help message")
}

func dial(ctx context.Context, p configParams) (*lndsource.Client, *nodecache.Cache, error) {
	var cache *nodecache.Cache
	if p.NodeCacheFilename != "" {
		c, err := nodecache.Open(p.NodeCacheFilename, p.nodeCacheLifetime())
		if err != nil {
			return nil, nil, fmt.Errorf("opening node cache: %w", err)
		}
		if _, err := c.Prune(); err != nil {
			log.Printf("node cache prune: %v", err)
		}
		cache = c
	}

	client, err := lndsource.Dial(ctx, p.lndConfig(), cache)
	if err != nil {
		if cache != nil {
			cache.Close()
		}
		return nil, nil, err
	}
	return client, cache, nil
}

func runOnce(args []string) {
	params, err := loadConfig(args)
	if err != nil {
		fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, cache, err := dial(ctx, params)
	if err != nil {
		fatalf("dialing lnd: %v", err)
	}
	defer client.Close()
	if cache != nil {
		defer cache.Close()
	}

	engine, err := actions.New(params.actionsConfig())
	if err != nil {
		fatalf("invalid config: %v", err)
	}

	snap, err := client.Snapshot(ctx, params.Days)
	if err != nil {
		fatalf("fetching snapshot: %v", err)
	}

	out, err := engine.Get(snap, time.Now().UTC())
	if err != nil {
		fatalf("computing actions: %v", err)
	}

	renderActions(out)
}

func runLoop(args []string) {
	params, err := loadConfig(args)
	if err != nil {
		fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Println("received shutdown signal, exiting...")
		cancel()
	}()

	client, cache, err := dial(ctx, params)
	if err != nil {
		fatalf("dialing lnd: %v", err)
	}
	defer client.Close()
	if cache != nil {
		defer cache.Close()
	}

	engine, err := actions.New(params.actionsConfig())
	if err != nil {
		fatalf("invalid config: %v", err)
	}

	sched := refresh.New(refresh.Config{
		Source:        client,
		Engine:        engine,
		Days:          params.Days,
		DebounceDelay: time.Duration(params.DebounceSeconds) * time.Second,
		BackoffDelay:  time.Duration(params.BackoffSeconds) * time.Second,
		OnActions:     renderActions,
		OnError: func(err error) {
			log.Printf("refresh error: %v", err)
		},
	})

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		fatalf("scheduler stopped: %v", err)
	}
}

func runPrune(args []string) {
	params, err := loadConfig(args)
	if err != nil {
		fatalf("loading config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, cache, err := dial(ctx, params)
	if err != nil {
		fatalf("dialing lnd: %v", err)
	}
	defer client.Close()
	if cache != nil {
		defer cache.Close()
	}

	if err := client.PruneFailedPayments(ctx, time.Duration(params.Days)*24*time.Hour); err != nil {
		fatalf("pruning failed payments: %v", err)
	}
	fmt.Printf("pruned failed payments older than %d days\n", params.Days)
}

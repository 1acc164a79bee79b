// Command advisor-api is the standalone HTTP surface over the actions
// engine, mirroring the teacher's split between a collector process and a
// read-only dashboard-api process: this binary only dials lnd and answers
// requests, it never runs the debounced refresh loop itself (use "advisor
// serve" for a combined collector+API process, or pair this with a
// separately running "advisor run").
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/actionsconfig"
	"github.com/lnoperator/advisor/internal/httpapi"
	"github.com/lnoperator/advisor/internal/lndsource"
	"github.com/lnoperator/advisor/internal/nodecache"
)

func main() {
	var (
		connect          = flag.String("connect", "localhost:10009", "lnd host:port")
		tlsCert          = flag.String("tlscert", "", "path to tls.cert")
		macaroonDir      = flag.String("macaroon-dir", "", "path to the macaroon directory")
		macaroonFilename = flag.String("macaroon-filename", "admin.macaroon", "macaroon filename")
		network          = flag.String("network", "mainnet", "bitcoin network")
		days             = flag.Uint("days", 30, "rolling window, in days, statistics are computed over")
		nodeCachePath    = flag.String("node-cache-filename", "", "sqlite file to persist peer aliases across restarts")
		addr             = flag.String("addr", "127.0.0.1:8080", "address to serve on")
	)
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cache *nodecache.Cache
	if *nodeCachePath != "" {
		c, err := nodecache.Open(*nodeCachePath, time.Hour)
		if err != nil {
			log.Fatalf("opening node cache: %v", err)
		}
		cache = c
		defer cache.Close()
	}

	client, err := lndsource.Dial(ctx, lndsource.Config{
		Connect:          *connect,
		TLSCertPath:      *tlsCert,
		MacaroonDir:      *macaroonDir,
		MacaroonFilename: *macaroonFilename,
		Network:          *network,
	}, cache)
	if err != nil {
		log.Fatalf("dialing lnd: %v", err)
	}
	defer client.Close()

	engine, err := actions.New(actionsconfig.Default())
	if err != nil {
		log.Fatalf("invalid actions config: %v", err)
	}

	server := httpapi.NewServer(client, engine, uint32(*days))

	fmt.Printf("advisor-api listening on http://%s\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, server.Handler()))
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lnoperator/advisor/internal/actions"
	"github.com/lnoperator/advisor/internal/httpapi"
	"github.com/lnoperator/advisor/internal/refresh"
)

// runServe dials lnd, starts the debounced refresh scheduler, and serves
// its output over HTTP, following the same split the teacher keeps between
// forwarding-collector (the background refresher) and dashboard-api (the
// HTTP surface) but combined into a single process for operator
// convenience.
func runServe(args []string) {
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

	server := httpapi.NewServer(client, engine, params.Days)

	sched := refresh.New(refresh.Config{
		Source:        client,
		Engine:        engine,
		Days:          params.Days,
		DebounceDelay: time.Duration(params.DebounceSeconds) * time.Second,
		BackoffDelay:  time.Duration(params.BackoffSeconds) * time.Second,
		OnActions:     server.SetActions,
	})
	go func() {
		if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
			fatalf("scheduler stopped: %v", err)
		}
	}()

	httpServer := &http.Server{
		Addr:    params.HTTPAddr,
		Handler: server.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	fmt.Printf("advisor serving on http://%s\n", params.HTTPAddr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fatalf("http server: %v", err)
	}
}

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/squeakview/backend/internal/config"
	"github.com/squeakview/backend/internal/handler"
	"github.com/squeakview/backend/internal/node"
	"github.com/squeakview/backend/internal/service/thread"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	nodeClient := node.NewClient(cfg.Node.BaseURL, cfg.Node.Timeout)

	network := cfg.Node.Network
	if network == "" {
		network = resolveNetwork(ctx, nodeClient)
	}
	log.Printf("serving squeak views against %s (network %s)", cfg.Node.BaseURL, network)

	views := thread.NewService(nodeClient, network)

	// Node-side updates invalidate single items in open views.
	if cfg.Node.FeedEnabled() {
		feed := node.NewFeed(cfg.Node.FeedURL, func(ctx context.Context, hash string) {
			if err := views.RefreshEverywhere(ctx, hash); err != nil {
				log.Printf("[feed] refresh for %s failed: %v", hash, err)
			}
		})
		go feed.Run(ctx)
	} else {
		log.Println("SQUEAKNODE_FEED_URL not set, skipping live update feed")
	}

	router := handler.NewRouter(views, nodeClient, network)

	startServer(ctx, cfg.Server, router)
}

// resolveNetwork asks the node which network it serves; the value is opaque
// display context, so a failure degrades to "unknown" rather than aborting.
func resolveNetwork(ctx context.Context, client *node.Client) string {
	askCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	network, err := client.Network(askCtx)
	if err != nil {
		log.Printf("warning: could not resolve node network: %v", err)
		return "unknown"
	}
	return network
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Squeakview backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

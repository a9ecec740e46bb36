// gojocatalog serves an aggregated catalog of Amharic feature films on
// YouTube. On each request it harvests candidate videos from search queries
// and channel uploads, fetches their details, filters out ineligible entries
// and assembles ranked category shelves.
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

	"gojocatalog/catalog"
	"gojocatalog/config"
	"gojocatalog/retry"
	"gojocatalog/server"
	"gojocatalog/youtube"
)

func main() {
	// A local .env is a convenience for development; absence is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("gojocatalog: config: %v", err)
	}

	builder, err := newBuilder(cfg)
	if err != nil {
		log.Fatalf("gojocatalog: youtube client: %v", err)
	}

	srv := server.New(cfg, builder)

	go func() {
		log.Printf("gojocatalog: listening on %s", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("gojocatalog: serve: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("gojocatalog: shutdown: %v", err)
	}
}

// newBuilder wires the catalog pipeline against the YouTube Data API. With no
// credential configured the service still starts and reports the missing key
// per request.
func newBuilder(cfg *config.Config) (*catalog.Builder, error) {
	if cfg.APIKey == "" {
		log.Printf("gojocatalog: YT_API_KEY not set, catalog requests will fail")
		return nil, nil
	}

	ytCfg := youtube.DefaultConfig()
	ytCfg.APIKey = cfg.APIKey
	ytCfg.CallTimeout = cfg.CallTimeout
	ytCfg.RequestsPerSecond = cfg.RequestsPerSecond
	ytCfg.Retry = retry.DefaultConfig()
	ytCfg.Retry.MaxRetries = cfg.MaxRetries

	client, err := youtube.NewClient(ytCfg)
	if err != nil {
		return nil, err
	}

	queries := append([]string{}, catalog.DefaultQueries...)
	queries = append(queries, cfg.ExtraQueries...)

	return catalog.NewBuilder(client, catalog.Options{
		Queries:  queries,
		Channels: cfg.Channels,
		Workers:  cfg.Workers,
	}), nil
}

// Command scheduler periodically enqueues scrape.run jobs for every active
// shelter whose last sync is older than the configured interval.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/SnoutAI/snout-mvp/engine/catalog"
	"github.com/SnoutAI/snout-mvp/engine/ingest"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/pkg/config"
	"github.com/SnoutAI/snout-mvp/pkg/natsutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Password, ""))
	if err != nil {
		log.Error("neo4j connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer driver.Close(ctx)
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Error("neo4j verify failed", slog.Any("error", err))
		os.Exit(1)
	}
	store := catalog.New(driver, log)

	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		log.Error("nats connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer nc.Close()
	js, err := nc.JetStream()
	if err != nil {
		log.Error("jetstream failed", slog.Any("error", err))
		os.Exit(1)
	}
	if err := natsutil.EnsureStream(js, jobs.StreamName, jobs.StreamSubjects...); err != nil {
		log.Error("stream setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	pub := ingest.NewJetStreamPublisher(js)
	sched := ingest.NewScheduler(store, pub, cfg.Scrape.SyncInterval(), log)

	log.Info("scheduler started", slog.Duration("interval", cfg.Scrape.SyncInterval()))
	if err := sched.Run(ctx); err != nil && err != context.Canceled {
		log.Error("scheduler stopped", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("scheduler shut down")
}

// Command indexer consumes search.reindex jobs and keeps the Qdrant vector
// index in step with the dog catalog.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SnoutAI/snout-mvp/engine/catalog"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/engine/search"
	"github.com/SnoutAI/snout-mvp/engine/semantic"
	"github.com/SnoutAI/snout-mvp/pkg/config"
	"github.com/SnoutAI/snout-mvp/pkg/mid"
	"github.com/SnoutAI/snout-mvp/pkg/natsutil"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
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

	vs, err := semantic.New(cfg.Qdrant.Addr, cfg.Qdrant.Collection)
	if err != nil {
		log.Error("qdrant connect failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer vs.Close()
	if err := vs.EnsureCollection(ctx, cfg.Qdrant.Dims); err != nil {
		log.Error("qdrant collection setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	// The cost tracker is best-effort: a missing Neo4j connection degrades
	// to untracked embeddings, it never stops indexing.
	var costs search.CostTracker
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Password, ""))
	if err != nil {
		log.Warn("neo4j unavailable, embedding costs untracked", slog.Any("error", err))
	} else {
		defer driver.Close(ctx)
		costs = catalog.NewTracker(catalog.New(driver, log), log)
	}

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

	embedder := openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)
	worker := search.NewWorker(vs, embedder, cfg.OpenAI.EmbeddingModel, costs,
		cfg.Indexer.BatchSize, cfg.Indexer.FetchWait(), log)

	go serveMetrics(cfg.Metrics.Port, log)

	log.Info("indexer started",
		slog.String("collection", cfg.Qdrant.Collection),
		slog.String("model", cfg.OpenAI.EmbeddingModel))
	if err := worker.Run(ctx, js); err != nil && err != context.Canceled {
		log.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("indexer shut down")
}

func serveMetrics(port int, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	handler := mid.Chain(mux, mid.Recover(log), mid.Logger(log))
	addr := fmt.Sprintf(":%d", port)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Error("metrics server failed", slog.Any("error", err))
	}
}

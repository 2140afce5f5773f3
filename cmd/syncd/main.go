// Command syncd consumes scrape.run jobs and runs the full shelter sync
// pipeline: fetch, parse, extract, diff, persist, fan out.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SnoutAI/snout-mvp/engine/adapters"
	"github.com/SnoutAI/snout-mvp/engine/catalog"
	"github.com/SnoutAI/snout-mvp/engine/extract"
	"github.com/SnoutAI/snout-mvp/engine/ingest"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
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

	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	registry := adapters.NewRegistry(httpClient, adapters.Options{
		DetailWorkers: cfg.Scrape.DetailConcurrency,
		MaxListings:   cfg.Scrape.MaxListings,
	})

	llm := openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)
	costs := catalog.NewTracker(store, log)
	extractor := extract.NewExtractor(llm, cfg.OpenAI.TextModel, cfg.OpenAI.PhotoModel, costs, log)
	generator := extract.NewDescriptionGenerator(llm, cfg.OpenAI.BioModel, costs, log)
	pub := ingest.NewJetStreamPublisher(js)
	processor := ingest.NewProcessor(registry, store, extractor, generator, pub, log)

	consumer, err := ingest.NewConsumer(js, processor, 0, log)
	if err != nil {
		log.Error("consumer setup failed", slog.Any("error", err))
		os.Exit(1)
	}

	go serveMetrics(cfg.Metrics.Port, log)

	log.Info("syncd started", slog.String("nats", cfg.NATS.URL))
	if err := consumer.Run(ctx); err != nil && err != context.Canceled {
		log.Error("consumer stopped", slog.Any("error", err))
		os.Exit(1)
	}
	log.Info("syncd shut down")
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

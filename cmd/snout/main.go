// Command snout is the operator CLI: list registered shelters, enqueue a
// scrape run, or process one shelter synchronously in-process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/SnoutAI/snout-mvp/engine/adapters"
	"github.com/SnoutAI/snout-mvp/engine/catalog"
	"github.com/SnoutAI/snout-mvp/engine/extract"
	"github.com/SnoutAI/snout-mvp/engine/ingest"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/pkg/config"
	"github.com/SnoutAI/snout-mvp/pkg/natsutil"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
)

func usage() {
	fmt.Fprintln(os.Stderr, `usage: snout <command> [flags]

commands:
  list                         list registered shelters and their catalog stats
  run <shelter-id>             enqueue a scrape.run job for one shelter
  process <shelter-id>         run the full sync for one shelter in-process`)
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	log := slog.Default()
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var cmdErr error
	switch os.Args[1] {
	case "list":
		cmdErr = runList(ctx, cfg)
	case "run":
		cmdErr = runEnqueue(ctx, cfg, os.Args[2:])
	case "process":
		cmdErr = runProcess(ctx, cfg, log, os.Args[2:])
	default:
		usage()
	}
	if cmdErr != nil {
		fmt.Fprintln(os.Stderr, "error:", cmdErr)
		os.Exit(1)
	}
}

func runList(ctx context.Context, cfg config.Config) error {
	driver, store, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	shelters, err := store.ListShelters(ctx)
	if err != nil {
		return err
	}
	registered := adapters.NewRegistry(nil, adapters.Options{}).IDs()

	fmt.Printf("%-12s %-10s %-24s %-10s %-20s %s\n", "ID", "STATUS", "NAME", "DOGS", "LAST SYNC", "CITY")
	seen := make(map[string]bool, len(shelters))
	for _, sh := range shelters {
		seen[sh.ID] = true
		stats, err := store.Stats(ctx, sh.ID)
		if err != nil {
			return err
		}
		lastSync := "never"
		if sh.LastSync != nil {
			lastSync = sh.LastSync.Format(time.RFC3339)
		}
		fmt.Printf("%-12s %-10s %-24s %-10d %-20s %s\n",
			sh.ID, sh.Status, sh.Name, stats.Total, lastSync, sh.City)
	}
	for _, id := range registered {
		if !seen[id] {
			fmt.Printf("%-12s %-10s (adapter registered, not yet synced)\n", id, "new")
		}
	}
	return nil
}

func runEnqueue(ctx context.Context, cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	limit := fs.Int("limit", 0, "cap processed dogs for this run")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one shelter id")
	}
	shelterID := fs.Arg(0)

	adapter, err := adapters.NewRegistry(nil, adapters.Options{}).Get(shelterID)
	if err != nil {
		return err
	}
	site := adapter.Site()

	nc, js, err := connectJetStream(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	env := jobs.New(jobs.SubjectScrapeRun, "cli", jobs.ScrapeRun{
		ShelterID:   site.ShelterID,
		ShelterSlug: site.Slug,
		BaseURL:     site.BaseURL,
		Limit:       *limit,
	})
	if err := natsutil.Publish(ctx, js, jobs.SubjectScrapeRun, env); err != nil {
		return err
	}
	fmt.Printf("enqueued scrape.run for %s (trace %s)\n", shelterID, env.TraceID)
	return nil
}

func runProcess(ctx context.Context, cfg config.Config, log *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	limit := fs.Int("limit", 0, "cap processed dogs for this run")
	photos := fs.Bool("generate-photos", false, "also enqueue AI photo generation")
	concurrency := fs.Int("concurrency", 0, "detail-page fetch workers per shelter (default from config)")
	fs.Parse(args)
	if fs.NArg() != 1 {
		return fmt.Errorf("process: expected exactly one shelter id")
	}
	shelterID := fs.Arg(0)

	scrape := adapters.Options{
		DetailWorkers: cfg.Scrape.DetailConcurrency,
		MaxListings:   cfg.Scrape.MaxListings,
	}
	if *concurrency > 0 {
		scrape.DetailWorkers = *concurrency
	}

	driver, store, err := openCatalog(ctx, cfg)
	if err != nil {
		return err
	}
	defer driver.Close(ctx)

	nc, js, err := connectJetStream(cfg)
	if err != nil {
		return err
	}
	defer nc.Close()

	processor := buildProcessor(cfg, scrape, store, js, log)
	outcome, err := processor.ProcessShelter(ctx, shelterID, ingest.Options{
		Limit:          *limit,
		GeneratePhotos: *photos,
	})
	if err != nil {
		return err
	}
	fmt.Printf("added %d, updated %d, unchanged %d, removed %d\n",
		outcome.Added, outcome.Updated, outcome.Unchanged, outcome.Removed)
	for _, e := range outcome.Errors {
		fmt.Println("  item error:", e)
	}
	return nil
}

func openCatalog(ctx context.Context, cfg config.Config) (neo4j.DriverWithContext, *catalog.Store, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4j.URL, neo4j.BasicAuth(cfg.Neo4j.User, cfg.Neo4j.Password, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("neo4j connect: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, nil, fmt.Errorf("neo4j verify: %w", err)
	}
	return driver, catalog.New(driver, slog.Default()), nil
}

func connectJetStream(cfg config.Config) (*nats.Conn, nats.JetStreamContext, error) {
	nc, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("jetstream: %w", err)
	}
	if err := natsutil.EnsureStream(js, jobs.StreamName, jobs.StreamSubjects...); err != nil {
		nc.Close()
		return nil, nil, err
	}
	return nc, js, nil
}

func buildProcessor(cfg config.Config, scrape adapters.Options, store *catalog.Store, js nats.JetStreamContext, log *slog.Logger) *ingest.Processor {
	httpClient := &http.Client{
		Timeout:   30 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	registry := adapters.NewRegistry(httpClient, scrape)

	llm := openai.New(cfg.OpenAI.BaseURL, cfg.OpenAI.APIKey)
	costs := catalog.NewTracker(store, log)
	extractor := extract.NewExtractor(llm, cfg.OpenAI.TextModel, cfg.OpenAI.PhotoModel, costs, log)
	generator := extract.NewDescriptionGenerator(llm, cfg.OpenAI.BioModel, costs, log)
	pub := ingest.NewJetStreamPublisher(js)

	return ingest.NewProcessor(registry, store, extractor, generator, pub, log)
}

package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/engine/semantic"
	"github.com/SnoutAI/snout-mvp/pkg/fn"
	"github.com/SnoutAI/snout-mvp/pkg/natsutil"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
)

// Embedder is the batch-embedding capability. Production wires
// *openai.Client.
type Embedder interface {
	EmbedBatch(ctx context.Context, model string, texts []string) ([][]float32, openai.Usage, error)
}

// VectorIndex is the mutation surface of the vector store.
type VectorIndex interface {
	Upsert(ctx context.Context, records []semantic.VectorRecord) error
	Delete(ctx context.Context, dogIDs []string) error
}

// CostTracker mirrors the extraction-side tracker; nil-safe implementations
// expected.
type CostTracker interface {
	LogUsage(operation, model string, inputTokens, outputTokens int)
}

// Job pairs one reindex envelope with its queue acknowledgement controls,
// decoupling batch processing from the queue client.
type Job struct {
	Env jobs.Envelope[jobs.SearchReindex]
	Ack func() error
	Nak func() error
}

// Worker consumes search.reindex batches and keeps the vector index in step
// with the catalog.
type Worker struct {
	index     VectorIndex
	embedder  Embedder
	model     string
	costs     CostTracker
	batchSize int
	wait      time.Duration
	log       *slog.Logger
}

func NewWorker(index VectorIndex, embedder Embedder, model string, costs CostTracker, batchSize int, wait time.Duration, log *slog.Logger) *Worker {
	if batchSize <= 0 {
		batchSize = 25
	}
	if wait <= 0 {
		wait = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Worker{
		index:     index,
		embedder:  embedder,
		model:     model,
		costs:     costs,
		batchSize: batchSize,
		wait:      wait,
		log:       log,
	}
}

// Run pulls reindex batches until the context is cancelled.
func (w *Worker) Run(ctx context.Context, js nats.JetStreamContext) error {
	sub, err := natsutil.PullSubscribe(js, jobs.SubjectSearchReindex, "search-indexer")
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := natsutil.Fetch[jobs.Envelope[jobs.SearchReindex]](sub, w.batchSize, w.wait)
		if err != nil {
			w.log.Error("fetch failed", slog.Any("error", err))
			continue
		}
		if len(msgs) == 0 {
			continue
		}

		batch := make([]Job, len(msgs))
		for i, m := range msgs {
			batch[i] = Job{Env: m.Value, Ack: m.Ack, Nak: m.Nak}
		}
		w.ProcessBatch(ctx, batch)
	}
}

// ProcessBatch partitions one batch into deletes and upserts and applies
// each side with its own acknowledgement boundary: a failed delete call
// redelivers only the delete jobs, a failed embed or upsert call redelivers
// only the upsert jobs.
func (w *Worker) ProcessBatch(ctx context.Context, batch []Job) {
	var deletes, upserts []Job
	for _, job := range batch {
		switch {
		case job.Env.Payload.Op == jobs.ReindexDelete:
			deletes = append(deletes, job)
		case job.Env.Payload.Op == jobs.ReindexUpsert && job.Env.Payload.Description != "":
			upserts = append(upserts, job)
		default:
			// Ineligible job: redelivery can never make it succeed.
			w.log.Warn("dropping ineligible reindex job",
				slog.String("op", string(job.Env.Payload.Op)),
				slog.String("dog_id", job.Env.Payload.DogID))
			ack(job, w.log)
		}
	}

	if len(deletes) > 0 {
		w.applyDeletes(ctx, deletes)
	}
	if len(upserts) > 0 {
		w.applyUpserts(ctx, upserts)
	}
}

// applyDeletes issues one batched delete, retried with exponential backoff
// before the batch is handed back.
func (w *Worker) applyDeletes(ctx context.Context, deletes []Job) {
	ids := make([]string, len(deletes))
	for i, job := range deletes {
		ids[i] = job.Env.Payload.DogID
	}

	res := fn.Retry(ctx, fn.DefaultRetry, func(ctx context.Context) fn.Result[struct{}] {
		if err := w.index.Delete(ctx, ids); err != nil {
			return fn.Err[struct{}](err)
		}
		return fn.Ok(struct{}{})
	})
	if _, err := res.Unwrap(); err != nil {
		verr := &domain.VectorizeError{Operation: "delete", Err: err}
		w.log.Error("batched delete failed", slog.Int("count", len(ids)), slog.Any("error", verr))
		nakAll(deletes, w.log)
		reindexOps.WithLabelValues("delete", "error").Add(float64(len(deletes)))
		return
	}

	ackAll(deletes, w.log)
	reindexOps.WithLabelValues("delete", "ok").Add(float64(len(deletes)))
}

// applyUpserts embeds every document in one call and issues one batched
// vector upsert. Any failure redelivers the whole upsert side of the batch.
func (w *Worker) applyUpserts(ctx context.Context, upserts []Job) {
	texts := make([]string, len(upserts))
	docs := make([]Document, len(upserts))
	for i, job := range upserts {
		docs[i] = BuildDocument(job.Env.Payload.Metadata)
		texts[i] = docs[i].Text
	}

	embeddings, usage, err := w.embedder.EmbedBatch(ctx, w.model, texts)
	if err != nil {
		w.log.Error("batch embed failed", slog.Int("count", len(texts)), slog.Any("error", err))
		nakAll(upserts, w.log)
		reindexOps.WithLabelValues("upsert", "error").Add(float64(len(upserts)))
		return
	}
	if w.costs != nil {
		w.costs.LogUsage("embed", w.model, usage.PromptTokens, 0)
	}

	records := make([]semantic.VectorRecord, len(upserts))
	for i, job := range upserts {
		records[i] = semantic.VectorRecord{
			DogID:     job.Env.Payload.DogID,
			Embedding: embeddings[i],
			Payload:   docs[i].Metadata,
		}
	}

	if err := w.index.Upsert(ctx, records); err != nil {
		verr := &domain.VectorizeError{Operation: "upsert", Err: err}
		w.log.Error("batched upsert failed", slog.Int("count", len(records)), slog.Any("error", verr))
		nakAll(upserts, w.log)
		reindexOps.WithLabelValues("upsert", "error").Add(float64(len(upserts)))
		return
	}

	ackAll(upserts, w.log)
	reindexOps.WithLabelValues("upsert", "ok").Add(float64(len(upserts)))
}

func ack(job Job, log *slog.Logger) {
	if job.Ack == nil {
		return
	}
	if err := job.Ack(); err != nil {
		log.Warn("ack failed", slog.Any("error", err))
	}
}

func ackAll(batch []Job, log *slog.Logger) {
	for _, job := range batch {
		ack(job, log)
	}
}

func nakAll(batch []Job, log *slog.Logger) {
	for _, job := range batch {
		if job.Nak == nil {
			continue
		}
		if err := job.Nak(); err != nil {
			log.Warn("nak failed", slog.Any("error", err))
		}
	}
}

package catalog

import (
	"context"
	"log/slog"
	"time"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

// modelPrice is USD per single token.
type modelPrice struct {
	input  float64
	output float64
}

// Static price table. Unknown models cost 0: the ledger fails open rather
// than blocking extraction on a pricing gap.
var modelPrices = map[string]modelPrice{
	"gpt-4o":                 {input: 2.50 / 1e6, output: 10.00 / 1e6},
	"gpt-4o-mini":            {input: 0.15 / 1e6, output: 0.60 / 1e6},
	"text-embedding-3-small": {input: 0.02 / 1e6, output: 0},
	"text-embedding-3-large": {input: 0.13 / 1e6, output: 0},
}

// CostUSD computes the cost of one call from the static price table.
func CostUSD(model string, inputTokens, outputTokens int) float64 {
	p, ok := modelPrices[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)*p.input + float64(outputTokens)*p.output
}

// InsertAPICost appends one row to the cost ledger.
func (s *Store) InsertAPICost(ctx context.Context, e domain.APICostEntry) error {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `CREATE (c:APICost {created_at: $createdAt, operation: $operation, model: $model,
	           input_tokens: $inputTokens, output_tokens: $outputTokens, cost_usd: $costUSD})`
	_, err := sess.Run(ctx, cypher, map[string]any{
		"createdAt":    e.CreatedAt.UTC().Unix(),
		"operation":    e.Operation,
		"model":        e.Model,
		"inputTokens":  e.InputTokens,
		"outputTokens": e.OutputTokens,
		"costUSD":      e.CostUSD,
	})
	if err != nil {
		return &domain.APICostInsertError{Err: err}
	}
	return nil
}

// TotalCostSince sums ledger rows created at or after the cutoff.
func (s *Store) TotalCostSince(ctx context.Context, since time.Time) (float64, error) {
	sess := s.opener.OpenSession(ctx)
	defer sess.Close(ctx)

	cypher := `MATCH (c:APICost) WHERE c.created_at >= $since
	           RETURN coalesce(sum(c.cost_usd), 0.0) AS total`
	res, err := sess.Run(ctx, cypher, map[string]any{"since": since.UTC().Unix()})
	if err != nil {
		return 0, &domain.StorageError{Operation: "read", Entity: "api_cost", Err: err}
	}
	if !res.Next(ctx) {
		return 0, res.Err()
	}
	val, _ := res.Record().Get("total")
	total, _ := val.(float64)
	return total, nil
}

// Tracker is the best-effort cost ledger writer. Persistence runs
// asynchronously and failures only warn: cost tracking must never fail or
// retry the extraction path that triggered it.
type Tracker struct {
	store *Store
	log   *slog.Logger
}

func NewTracker(store *Store, log *slog.Logger) *Tracker {
	if log == nil {
		log = slog.Default()
	}
	return &Tracker{store: store, log: log}
}

// LogUsage records one call's token usage. Safe to call on a nil tracker.
func (t *Tracker) LogUsage(operation, model string, inputTokens, outputTokens int) {
	if t == nil || t.store == nil {
		return
	}
	entry := domain.APICostEntry{
		CreatedAt:    time.Now().UTC(),
		Operation:    operation,
		Model:        model,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		CostUSD:      CostUSD(model, inputTokens, outputTokens),
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.store.InsertAPICost(ctx, entry); err != nil {
			t.log.Warn("cost ledger insert failed",
				slog.String("operation", operation),
				slog.String("model", model),
				slog.Any("error", err))
		}
	}()
}

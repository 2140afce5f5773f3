package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/engine/semantic"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
)

type fakeIndex struct {
	deleteCalls [][]string
	deleteTimes []time.Time
	deleteErr   error
	upsertCalls [][]semantic.VectorRecord
	upsertErr   error
}

func (f *fakeIndex) Delete(_ context.Context, dogIDs []string) error {
	f.deleteCalls = append(f.deleteCalls, dogIDs)
	f.deleteTimes = append(f.deleteTimes, time.Now())
	return f.deleteErr
}

func (f *fakeIndex) Upsert(_ context.Context, records []semantic.VectorRecord) error {
	f.upsertCalls = append(f.upsertCalls, records)
	return f.upsertErr
}

type fakeEmbedder struct {
	calls [][]string
	err   error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, _ string, texts []string) ([][]float32, openai.Usage, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, openai.Usage{}, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1}
	}
	return out, openai.Usage{PromptTokens: 7 * len(texts)}, nil
}

type usageEntry struct {
	operation string
	model     string
	input     int
}

type recordingCosts struct {
	entries []usageEntry
}

func (r *recordingCosts) LogUsage(operation, model string, inputTokens, _ int) {
	r.entries = append(r.entries, usageEntry{operation, model, inputTokens})
}

// trackedJob builds a Job whose ack/nak outcomes land in the given counters.
func trackedJob(payload jobs.SearchReindex, acked, naked *int) Job {
	return Job{
		Env: jobs.New(jobs.SubjectSearchReindex, "test", payload),
		Ack: func() error { *acked++; return nil },
		Nak: func() error { *naked++; return nil },
	}
}

func upsertPayload(dogID, description string, meta *jobs.ReindexMetadata) jobs.SearchReindex {
	return jobs.SearchReindex{Op: jobs.ReindexUpsert, DogID: dogID, Description: description, Metadata: meta}
}

func deletePayload(dogID string) jobs.SearchReindex {
	return jobs.SearchReindex{Op: jobs.ReindexDelete, DogID: dogID}
}

func TestProcessBatchUpsertsAndDeletes(t *testing.T) {
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	costs := &recordingCosts{}
	w := NewWorker(index, embedder, "text-embedding-3-small", costs, 0, 0, nil)

	var acked, naked int
	meta := &jobs.ReindexMetadata{ShelterID: "napaluchu", Name: "Burek", City: "Warszawa"}
	batch := []Job{
		trackedJob(upsertPayload("dog-1", "Wesoły pies.", meta), &acked, &naked),
		trackedJob(deletePayload("dog-2"), &acked, &naked),
		trackedJob(upsertPayload("dog-3", "Spokojna sunia.", &jobs.ReindexMetadata{ShelterID: "promyk", Name: "Luna"}), &acked, &naked),
	}

	w.ProcessBatch(context.Background(), batch)

	if len(index.deleteCalls) != 1 || len(index.deleteCalls[0]) != 1 || index.deleteCalls[0][0] != "dog-2" {
		t.Errorf("deleteCalls = %v", index.deleteCalls)
	}
	if len(embedder.calls) != 1 {
		t.Fatalf("embed calls = %d, want one batched call", len(embedder.calls))
	}
	if got := embedder.calls[0]; len(got) != 2 || got[0] != BuildDocument(meta).Text {
		t.Errorf("embedded texts = %v", got)
	}
	if len(index.upsertCalls) != 1 {
		t.Fatalf("upsertCalls = %d, want one batched call", len(index.upsertCalls))
	}
	records := index.upsertCalls[0]
	if len(records) != 2 || records[0].DogID != "dog-1" || records[1].DogID != "dog-3" {
		t.Errorf("records = %+v", records)
	}
	if records[0].Payload["shelterId"] != "napaluchu" || records[0].Payload["city"] != "Warszawa" {
		t.Errorf("payload = %v", records[0].Payload)
	}
	if acked != 3 || naked != 0 {
		t.Errorf("acked = %d, naked = %d", acked, naked)
	}
	if len(costs.entries) != 1 || costs.entries[0].operation != "embed" || costs.entries[0].model != "text-embedding-3-small" || costs.entries[0].input != 14 {
		t.Errorf("cost entries = %+v", costs.entries)
	}
}

func TestProcessBatchDeleteRetriesThenNaks(t *testing.T) {
	index := &fakeIndex{deleteErr: errors.New("qdrant unavailable")}
	w := NewWorker(index, &fakeEmbedder{}, "text-embedding-3-small", nil, 0, 0, nil)

	var dAcked, dNaked, uAcked, uNaked int
	batch := []Job{
		trackedJob(deletePayload("dog-1"), &dAcked, &dNaked),
		trackedJob(deletePayload("dog-2"), &dAcked, &dNaked),
		trackedJob(upsertPayload("dog-3", "Opis.", &jobs.ReindexMetadata{Name: "Azor"}), &uAcked, &uNaked),
	}

	w.ProcessBatch(context.Background(), batch)

	if len(index.deleteCalls) != 3 {
		t.Fatalf("delete attempts = %d, want 3", len(index.deleteCalls))
	}
	first := index.deleteTimes[1].Sub(index.deleteTimes[0])
	second := index.deleteTimes[2].Sub(index.deleteTimes[1])
	if first < 80*time.Millisecond {
		t.Errorf("first backoff = %v, want >= ~100ms", first)
	}
	if second < first {
		t.Errorf("backoff must grow: first = %v, second = %v", first, second)
	}
	if dNaked != 2 || dAcked != 0 {
		t.Errorf("delete side: acked = %d, naked = %d", dAcked, dNaked)
	}
	// The upsert side of the batch is unaffected by the delete failure.
	if uAcked != 1 || uNaked != 0 {
		t.Errorf("upsert side: acked = %d, naked = %d", uAcked, uNaked)
	}
}

func TestProcessBatchEmbedFailureNaksUpsertsOnly(t *testing.T) {
	index := &fakeIndex{}
	embedder := &fakeEmbedder{err: errors.New("rate limited")}
	w := NewWorker(index, embedder, "text-embedding-3-small", nil, 0, 0, nil)

	var dAcked, dNaked, uAcked, uNaked int
	batch := []Job{
		trackedJob(deletePayload("dog-1"), &dAcked, &dNaked),
		trackedJob(upsertPayload("dog-2", "Opis.", &jobs.ReindexMetadata{Name: "Azor"}), &uAcked, &uNaked),
		trackedJob(upsertPayload("dog-3", "Opis.", &jobs.ReindexMetadata{Name: "Luna"}), &uAcked, &uNaked),
	}

	w.ProcessBatch(context.Background(), batch)

	if dAcked != 1 || dNaked != 0 {
		t.Errorf("delete side: acked = %d, naked = %d", dAcked, dNaked)
	}
	if uNaked != 2 || uAcked != 0 {
		t.Errorf("upsert side: acked = %d, naked = %d", uAcked, uNaked)
	}
	if len(index.upsertCalls) != 0 {
		t.Errorf("upsert must not be attempted after a failed embed")
	}
}

func TestProcessBatchUpsertFailureNaksUpserts(t *testing.T) {
	index := &fakeIndex{upsertErr: errors.New("collection missing")}
	w := NewWorker(index, &fakeEmbedder{}, "text-embedding-3-small", nil, 0, 0, nil)

	var acked, naked int
	batch := []Job{
		trackedJob(upsertPayload("dog-1", "Opis.", &jobs.ReindexMetadata{Name: "Azor"}), &acked, &naked),
	}

	w.ProcessBatch(context.Background(), batch)

	if naked != 1 || acked != 0 {
		t.Errorf("acked = %d, naked = %d", acked, naked)
	}
}

func TestProcessBatchAcksIneligibleUpsert(t *testing.T) {
	index := &fakeIndex{}
	embedder := &fakeEmbedder{}
	w := NewWorker(index, embedder, "text-embedding-3-small", nil, 0, 0, nil)

	var acked, naked int
	batch := []Job{
		trackedJob(upsertPayload("dog-1", "", &jobs.ReindexMetadata{Name: "Bezopisowy"}), &acked, &naked),
	}

	w.ProcessBatch(context.Background(), batch)

	if acked != 1 || naked != 0 {
		t.Errorf("acked = %d, naked = %d", acked, naked)
	}
	if len(embedder.calls) != 0 || len(index.upsertCalls) != 0 {
		t.Errorf("ineligible job must not reach the index")
	}
}

func TestVectorizeErrorOperation(t *testing.T) {
	cause := errors.New("boom")
	err := &domain.VectorizeError{Operation: "delete", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("VectorizeError must unwrap to its cause")
	}
}

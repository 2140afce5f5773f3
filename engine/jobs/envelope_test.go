package jobs

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestNew_Defaults(t *testing.T) {
	before := time.Now().UTC()
	env := New(SubjectScrapeRun, "cli", ScrapeRun{ShelterID: "napaluchu"})
	after := time.Now().UTC()

	if env.V != 1 {
		t.Errorf("expected v=1, got %d", env.V)
	}
	if env.Type != SubjectScrapeRun {
		t.Errorf("type mismatch: %s", env.Type)
	}
	if env.Source != "cli" {
		t.Errorf("source mismatch: %s", env.Source)
	}
	if env.TraceID == "" {
		t.Error("expected non-empty trace id")
	}
	if env.CreatedAt.Before(before) || env.CreatedAt.After(after) {
		t.Errorf("createdAt %v outside call window [%v, %v]", env.CreatedAt, before, after)
	}
}

func TestNew_TraceIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		env := New(SubjectScrapeRun, "cli", ScrapeRun{})
		if seen[env.TraceID] {
			t.Fatalf("duplicate trace id %s", env.TraceID)
		}
		seen[env.TraceID] = true
	}
}

func TestEnvelope_ParentTraceIDOmittedByDefault(t *testing.T) {
	env := New(SubjectSearchReindex, "processor", SearchReindex{Op: ReindexDelete, DogID: "d1"})
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "parentTraceId") {
		t.Errorf("parentTraceId key should be absent: %s", data)
	}
}

func TestNewChild_CarriesParentTraceID(t *testing.T) {
	env := NewChild(SubjectSearchReindex, "processor", "trace-123", SearchReindex{Op: ReindexUpsert, DogID: "d1"})
	if env.ParentTraceID != "trace-123" {
		t.Fatalf("expected parent trace id trace-123, got %q", env.ParentTraceID)
	}
	data, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"parentTraceId":"trace-123"`) {
		t.Errorf("expected serialized parentTraceId, got %s", data)
	}
}

func TestReindexMetadata_OptionalKeysOmitted(t *testing.T) {
	meta := ReindexMetadata{ShelterID: "promyk", Name: "Luna"}
	data, err := json.Marshal(meta)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"city", "size", "ageMonths", "sex"} {
		if strings.Contains(string(data), key) {
			t.Errorf("key %q should be omitted when absent: %s", key, data)
		}
	}
}

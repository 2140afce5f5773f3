package extract

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
)

type fakeLLM struct {
	response string
	usage    openai.Usage
	err      error
	gotReq   openai.ChatRequest
}

func (f *fakeLLM) Chat(_ context.Context, req openai.ChatRequest) (string, openai.Usage, error) {
	f.gotReq = req
	return f.response, f.usage, f.err
}

type recordingTracker struct {
	mu      sync.Mutex
	entries []string
}

func (r *recordingTracker) LogUsage(operation, model string, inputTokens, outputTokens int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, operation)
}

const validTextResponse = `{
	"breeds": [{"breed": "german-shepherd", "confidence": 0.8}],
	"size": {"category": "large", "confidence": 0.9},
	"age": {"months": 36, "min_months": 24, "max_months": 48, "confidence": 0.5},
	"weight": {"kg": 30, "confidence": 0.4},
	"personality": ["łagodny", "energiczny"],
	"health": {"vaccinated": true, "sterilized": null, "chipped": true, "special_needs": null, "good_with_kids": null, "good_with_dogs": true, "good_with_cats": null}
}`

func TestExtractFromText(t *testing.T) {
	llm := &fakeLLM{response: validTextResponse, usage: openai.Usage{PromptTokens: 500, CompletionTokens: 90}}
	tracker := &recordingTracker{}
	ex := NewExtractor(llm, "gpt-4o-mini", "gpt-4o", tracker, nil)

	got, err := ex.ExtractFromText(context.Background(), "Schronisko Na Paluchu", "Warszawa", "Duży, łagodny owczarek niemiecki, ok. 3 lata.")
	if err != nil {
		t.Fatalf("ExtractFromText: %v", err)
	}

	if len(got.Breeds) != 1 || got.Breeds[0].Breed != "german-shepherd" {
		t.Errorf("Breeds = %v", got.Breeds)
	}
	if got.Size == nil || got.Size.Category != domain.SizeLarge {
		t.Errorf("Size = %v", got.Size)
	}
	if got.Age == nil || got.Age.Months != 36 {
		t.Errorf("Age = %v", got.Age)
	}
	if got.Health.Vaccinated == nil || !*got.Health.Vaccinated {
		t.Error("vaccinated must be true")
	}
	if got.Health.Sterilized != nil {
		t.Error("null health flag must stay nil")
	}

	if llm.gotReq.Model != "gpt-4o-mini" {
		t.Errorf("model = %q", llm.gotReq.Model)
	}
	if llm.gotReq.Schema == nil || llm.gotReq.Schema.Name != "dog_text_extraction" {
		t.Error("request must carry the text extraction schema")
	}
	if !strings.Contains(llm.gotReq.User, "Schronisko Na Paluchu") || !strings.Contains(llm.gotReq.User, "Warszawa") {
		t.Error("prompt must carry shelter name and city")
	}
	if !strings.Contains(llm.gotReq.User, "german-shepherd") {
		t.Error("prompt must carry the breed vocabulary")
	}

	if len(tracker.entries) != 1 || tracker.entries[0] != "extract_text" {
		t.Errorf("cost tracking entries = %v", tracker.entries)
	}
}

func TestExtractFromTextStripsCodeFence(t *testing.T) {
	llm := &fakeLLM{response: "```json\n" + validTextResponse + "\n```"}
	ex := NewExtractor(llm, "gpt-4o-mini", "gpt-4o", nil, nil)

	got, err := ex.ExtractFromText(context.Background(), "S", "W", "opis")
	if err != nil {
		t.Fatalf("fenced response must still parse: %v", err)
	}
	if len(got.Breeds) != 1 {
		t.Errorf("Breeds = %v", got.Breeds)
	}
}

func TestExtractFromTextErrors(t *testing.T) {
	tests := []struct {
		name     string
		llm      *fakeLLM
		text     string
		wantName string
	}{
		{"transport failure", &fakeLLM{err: errors.New("boom")}, "opis", "llm call failed"},
		{"empty response", &fakeLLM{response: "   "}, "opis", "empty response"},
		{"invalid json", &fakeLLM{response: "nie umiem"}, "opis", "not valid json"},
		{"unknown breed", &fakeLLM{response: `{"breeds":[{"breed":"smok","confidence":0.5}],"size":null,"age":null,"weight":null,"personality":[],"health":{}}`}, "opis", "failed validation"},
		{"confidence out of range", &fakeLLM{response: `{"breeds":[{"breed":"mixed","confidence":1.5}],"size":null,"age":null,"weight":null,"personality":[],"health":{}}`}, "opis", "failed validation"},
		{"empty input", &fakeLLM{}, "  ", "empty description"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := NewExtractor(tt.llm, "m", "m", nil, nil)
			_, err := ex.ExtractFromText(context.Background(), "S", "W", tt.text)
			var ee *domain.ExtractionError
			if !errors.As(err, &ee) {
				t.Fatalf("want ExtractionError, got %v", err)
			}
			if ee.Source != "text" {
				t.Errorf("Source = %q", ee.Source)
			}
			if !strings.Contains(ee.Message, tt.wantName) {
				t.Errorf("Message = %q, want substring %q", ee.Message, tt.wantName)
			}
		})
	}
}

func TestExtractFromPhotos(t *testing.T) {
	llm := &fakeLLM{response: `{
		"breeds": [{"breed": "labrador-retriever", "confidence": 0.6}],
		"size": {"category": "medium", "confidence": 0.7},
		"age": null,
		"weight": null
	}`}
	ex := NewExtractor(llm, "gpt-4o-mini", "gpt-4o", nil, nil)

	got, err := ex.ExtractFromPhotos(context.Background(), []string{"https://x.pl/a.jpg", "https://x.pl/b.jpg"})
	if err != nil {
		t.Fatalf("ExtractFromPhotos: %v", err)
	}
	if got.Size == nil || got.Size.Category != domain.SizeMedium {
		t.Errorf("Size = %v", got.Size)
	}
	if got.Age != nil {
		t.Error("null age must stay nil")
	}
	if llm.gotReq.Model != "gpt-4o" {
		t.Errorf("photo extraction must use the photo model, got %q", llm.gotReq.Model)
	}
	if len(llm.gotReq.ImageURLs) != 2 {
		t.Errorf("ImageURLs = %v", llm.gotReq.ImageURLs)
	}
}

func TestExtractFromPhotosNoURLs(t *testing.T) {
	ex := NewExtractor(&fakeLLM{}, "m", "m", nil, nil)
	_, err := ex.ExtractFromPhotos(context.Background(), nil)
	var ee *domain.ExtractionError
	if !errors.As(err, &ee) || ee.Source != "photo" {
		t.Fatalf("want photo ExtractionError, got %v", err)
	}
}

func TestStripCodeFence(t *testing.T) {
	tests := []struct{ in, want string }{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := StripCodeFence(tt.in); got != tt.want {
			t.Errorf("StripCodeFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGenerate(t *testing.T) {
	llm := &fakeLLM{response: `{"bio": "Burek to pogodny pies, który czeka na swój dom.", "tone": "hopeful"}`, usage: openai.Usage{PromptTokens: 200, CompletionTokens: 40}}
	tracker := &recordingTracker{}
	gen := NewDescriptionGenerator(llm, "gpt-4o-mini", tracker, nil)

	dog := domain.Dog{
		Name: "Burek",
		Sex:  domain.SexMale,
		Age:  &domain.AgeEstimate{Months: 36},
		City: "Warszawa",
	}
	bio, tone, err := gen.Generate(context.Background(), dog)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(bio, "Burek") {
		t.Errorf("bio = %q", bio)
	}
	if tone != domain.ToneHopeful {
		t.Errorf("tone = %q", tone)
	}
	if !strings.Contains(llm.gotReq.User, "Burek") || !strings.Contains(llm.gotReq.User, "36 miesięcy") {
		t.Errorf("prompt = %q", llm.gotReq.User)
	}
	if len(tracker.entries) != 1 || tracker.entries[0] != "generate_bio" {
		t.Errorf("cost tracking entries = %v", tracker.entries)
	}
}

func TestGenerateErrors(t *testing.T) {
	tests := []struct {
		name string
		llm  *fakeLLM
	}{
		{"transport failure", &fakeLLM{err: errors.New("boom")}},
		{"invalid json", &fakeLLM{response: "halo"}},
		{"empty bio", &fakeLLM{response: `{"bio": "  ", "tone": "hopeful"}`}},
		{"unknown tone", &fakeLLM{response: `{"bio": "x", "tone": "sarcastic"}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewDescriptionGenerator(tt.llm, "m", nil, nil)
			_, _, err := gen.Generate(context.Background(), domain.Dog{Name: "X"})
			var ge *domain.GenerationError
			if !errors.As(err, &ge) {
				t.Fatalf("want GenerationError, got %v", err)
			}
		})
	}
}

// Package extract turns unstructured shelter text and photos into validated
// structured attributes via schema-constrained LLM calls.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/pkg/openai"
)

// LLM is the injected chat capability. Production wires *openai.Client.
type LLM interface {
	Chat(ctx context.Context, req openai.ChatRequest) (string, openai.Usage, error)
}

// CostTracker records token usage for paid API calls. It is optional: a nil
// tracker disables tracking, and implementations must never fail the caller.
type CostTracker interface {
	LogUsage(operation, model string, inputTokens, outputTokens int)
}

// TextExtractionResult is the structured output of one text extraction call.
type TextExtractionResult struct {
	Breeds      []domain.BreedEstimate `json:"breeds"`
	Size        *domain.SizeEstimate   `json:"size,omitempty"`
	Age         *domain.AgeEstimate    `json:"age,omitempty"`
	Weight      *domain.WeightEstimate `json:"weight,omitempty"`
	Personality []string               `json:"personality,omitempty"`
	Health      domain.Health          `json:"health"`
}

// PhotoExtractionResult is the structured output of one photo extraction
// call. Photos cannot speak to health or personality, so those are absent.
type PhotoExtractionResult struct {
	Breeds []domain.BreedEstimate `json:"breeds"`
	Size   *domain.SizeEstimate   `json:"size,omitempty"`
	Age    *domain.AgeEstimate    `json:"age,omitempty"`
	Weight *domain.WeightEstimate `json:"weight,omitempty"`
}

// Extractor runs the two extraction operations against the configured
// models. Calls are not retried here; redelivery happens at the queue layer.
type Extractor struct {
	llm        LLM
	textModel  string
	photoModel string
	costs      CostTracker
	log        *slog.Logger
}

func NewExtractor(llm LLM, textModel, photoModel string, costs CostTracker, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.Default()
	}
	return &Extractor{llm: llm, textModel: textModel, photoModel: photoModel, costs: costs, log: log}
}

// ExtractFromText derives structured attributes from a shelter's free-form
// description. shelterName and city anchor the prompt so the model does not
// hallucinate a location.
func (e *Extractor) ExtractFromText(ctx context.Context, shelterName, city, text string) (TextExtractionResult, error) {
	var out TextExtractionResult
	if strings.TrimSpace(text) == "" {
		return out, &domain.ExtractionError{Source: "text", Message: "empty description", Err: domain.ErrEmptyResponse}
	}

	req := openai.ChatRequest{
		Model:  e.textModel,
		System: textExtractionSystem,
		User:   textExtractionUser(shelterName, city, text),
		Schema: &textExtractionSchema,
	}
	if err := e.call(ctx, "extract_text", "text", req, &out); err != nil {
		return TextExtractionResult{}, err
	}
	if err := domain.ValidateEstimates(out.Breeds, out.Size, out.Age); err != nil {
		return TextExtractionResult{}, &domain.ExtractionError{Source: "text", Message: "response failed validation", Err: err}
	}
	return out, nil
}

// ExtractFromPhotos derives visual attributes from dog photos.
func (e *Extractor) ExtractFromPhotos(ctx context.Context, urls []string) (PhotoExtractionResult, error) {
	var out PhotoExtractionResult
	if len(urls) == 0 {
		return out, &domain.ExtractionError{Source: "photo", Message: "no photos", Err: domain.ErrEmptyResponse}
	}

	req := openai.ChatRequest{
		Model:     e.photoModel,
		System:    photoExtractionSystem,
		User:      photoExtractionUser,
		ImageURLs: urls,
		Schema:    &photoExtractionSchema,
	}
	if err := e.call(ctx, "extract_photo", "photo", req, &out); err != nil {
		return PhotoExtractionResult{}, err
	}
	if err := domain.ValidateEstimates(out.Breeds, out.Size, out.Age); err != nil {
		return PhotoExtractionResult{}, &domain.ExtractionError{Source: "photo", Message: "response failed validation", Err: err}
	}
	return out, nil
}

// call runs one chat request and decodes its JSON payload into out. Cost
// tracking fires on every successful call, using the usage the API reported.
func (e *Extractor) call(ctx context.Context, operation, source string, req openai.ChatRequest, out any) error {
	raw, usage, err := e.llm.Chat(ctx, req)
	if err != nil {
		return &domain.ExtractionError{Source: source, Message: "llm call failed", Err: err}
	}

	cleaned := StripCodeFence(raw)
	if cleaned == "" {
		return &domain.ExtractionError{Source: source, Message: "empty response", Err: domain.ErrEmptyResponse}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &domain.ExtractionError{Source: source, Message: "response is not valid json", Err: err}
	}

	if e.costs != nil {
		e.costs.LogUsage(operation, req.Model, usage.PromptTokens, usage.CompletionTokens)
	}
	e.log.Debug("extraction call done",
		slog.String("operation", operation),
		slog.String("model", req.Model),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens))
	return nil
}

// StripCodeFence removes a markdown code fence wrapper if the model added
// one despite the structured response format.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// Language tag on the opening fence, e.g. ```json.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

const textExtractionSystem = `You are a veterinary data analyst extracting structured attributes of shelter dogs from Polish adoption listings. Answer only with JSON matching the given schema. Use null for attributes the text does not support. Confidence values are in [0,1].`

func textExtractionUser(shelterName, city, text string) string {
	return fmt.Sprintf(`Shelter: %s (%s)
Allowed breed identifiers: %s

Listing text:
%s`, shelterName, city, strings.Join(domain.BreedSlugs(), ", "), text)
}

const photoExtractionSystem = `You are a veterinary data analyst estimating visual attributes of shelter dogs from photos. Answer only with JSON matching the given schema. Use null for attributes the photos do not support. Confidence values are in [0,1].`

const photoExtractionUser = `Estimate the dog's breed mix, size category, age and weight from the attached photos.`

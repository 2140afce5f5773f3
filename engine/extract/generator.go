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

// DescriptionGenerator writes the adoption bio shown on the listing page.
type DescriptionGenerator struct {
	llm   LLM
	model string
	costs CostTracker
	log   *slog.Logger
}

func NewDescriptionGenerator(llm LLM, model string, costs CostTracker, log *slog.Logger) *DescriptionGenerator {
	if log == nil {
		log = slog.Default()
	}
	return &DescriptionGenerator{llm: llm, model: model, costs: costs, log: log}
}

type bioResponse struct {
	Bio  string         `json:"bio"`
	Tone domain.BioTone `json:"tone"`
}

const bioSystem = `Piszesz krótkie, ciepłe biografie adopcyjne psów ze schronisk, po polsku, w trzeciej osobie. Dwa-trzy zdania, bez wykrzykników w każdym zdaniu, bez zmyślania faktów spoza podanych danych. Dobierz ton: "hopeful" dla typowych psów, "urgent" dla psów oznaczonych jako pilne, "gentle" dla psów lękliwych lub starszych.`

// Generate produces {bio, tone} for a dog from its canonical fields.
func (g *DescriptionGenerator) Generate(ctx context.Context, dog domain.Dog) (string, domain.BioTone, error) {
	user := bioPrompt(dog)

	raw, usage, err := g.llm.Chat(ctx, openai.ChatRequest{
		Model:  g.model,
		System: bioSystem,
		User:   user,
		Schema: &bioSchema,
	})
	if err != nil {
		return "", "", &domain.GenerationError{Message: "llm call failed", Err: err}
	}

	cleaned := StripCodeFence(raw)
	var resp bioResponse
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return "", "", &domain.GenerationError{Message: "response is not valid json", Err: err}
	}
	if strings.TrimSpace(resp.Bio) == "" {
		return "", "", &domain.GenerationError{Message: "empty bio", Err: domain.ErrEmptyResponse}
	}
	switch resp.Tone {
	case domain.ToneHopeful, domain.ToneUrgent, domain.ToneGentle:
	default:
		return "", "", &domain.GenerationError{Message: fmt.Sprintf("unknown tone %q", resp.Tone), Err: domain.ErrSchemaMismatch}
	}

	if g.costs != nil {
		g.costs.LogUsage("generate_bio", g.model, usage.PromptTokens, usage.CompletionTokens)
	}
	return strings.TrimSpace(resp.Bio), resp.Tone, nil
}

func bioPrompt(dog domain.Dog) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Imię: %s\n", dog.Name)
	switch dog.Sex {
	case domain.SexFemale:
		sb.WriteString("Płeć: suczka\n")
	case domain.SexMale:
		sb.WriteString("Płeć: pies\n")
	}
	if dog.Age != nil {
		fmt.Fprintf(&sb, "Wiek: około %d miesięcy\n", dog.Age.Months)
	}
	if dog.Size != nil {
		fmt.Fprintf(&sb, "Rozmiar: %s\n", dog.Size.Category)
	}
	if len(dog.Breeds) > 0 {
		fmt.Fprintf(&sb, "Rasa: %s\n", dog.Breeds[0].Breed)
	}
	if len(dog.Personality) > 0 {
		fmt.Fprintf(&sb, "Charakter: %s\n", strings.Join(dog.Personality, ", "))
	}
	if dog.City != "" {
		fmt.Fprintf(&sb, "Miasto: %s\n", dog.City)
	}
	if dog.Urgent {
		sb.WriteString("Status: PILNA adopcja\n")
	}
	if dog.Description != "" {
		fmt.Fprintf(&sb, "Opis ze schroniska:\n%s\n", dog.Description)
	}
	return sb.String()
}

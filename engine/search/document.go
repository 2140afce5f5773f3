// Package search builds searchable documents for dogs and keeps the vector
// index synchronized with the catalog.
package search

import (
	"fmt"
	"strings"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
)

// Document is the embeddable representation of one dog: a Polish natural
// language text plus the facet metadata stored alongside the vector.
type Document struct {
	Text     string
	Metadata map[string]any
}

// BuildDocument synthesizes the search document from a reindex payload. Pure
// function of its inputs; phrase order is fixed so identical inputs embed
// identically.
func BuildDocument(meta *jobs.ReindexMetadata) Document {
	if meta == nil {
		meta = &jobs.ReindexMetadata{}
	}

	var parts []string
	if meta.Name != "" {
		parts = append(parts, meta.Name)
	}
	if meta.AgeMonths != nil {
		parts = append(parts, agePhrase(*meta.AgeMonths))
	}
	if phrase, ok := sizePhrases[meta.Size]; ok {
		parts = append(parts, phrase)
	}
	if len(meta.Breeds) > 0 {
		parts = append(parts, breedPhrase(meta.Breeds[0]))
	}
	if meta.City != "" {
		parts = append(parts, meta.City)
	}
	if noun, ok := sexNouns[meta.Sex]; ok {
		parts = append(parts, noun)
	}
	if len(meta.Personality) > 0 {
		parts = append(parts, strings.Join(meta.Personality, ", "))
	}

	text := strings.Join(parts, ", ")
	if meta.Bio != "" {
		if text != "" {
			text += ". "
		}
		text += meta.Bio
	}

	md := map[string]any{"shelterId": meta.ShelterID}
	if meta.City != "" {
		md["city"] = meta.City
	}
	if meta.Size != "" {
		md["size"] = meta.Size
	}
	if meta.AgeMonths != nil {
		md["ageMonths"] = *meta.AgeMonths
	}
	if meta.Sex != "" {
		md["sex"] = meta.Sex
	}

	return Document{Text: text, Metadata: md}
}

var sizePhrases = map[string]string{
	"small":  "mały pies",
	"medium": "średni pies",
	"large":  "duży pies",
}

var sexNouns = map[string]string{
	"male":   "pies",
	"female": "suczka",
}

// agePhrase renders the age in Polish: puppies by month count, adults by
// year count with the correct plural form.
func agePhrase(months int) string {
	if months < 12 {
		return fmt.Sprintf("szczeniak, %d mies.", months)
	}
	years := months / 12
	return fmt.Sprintf("%d %s", years, yearsWord(years))
}

// yearsWord selects the Polish plural form of "rok" for n years: 1 rok,
// 2-4 lata, 5+ lat, with 12-14 always lat.
func yearsWord(n int) string {
	if n == 1 {
		return "rok"
	}
	if last2 := n % 100; last2 >= 12 && last2 <= 14 {
		return "lat"
	}
	if last := n % 10; last >= 2 && last <= 4 {
		return "lata"
	}
	return "lat"
}

// breedPhrase turns a breed slug into searchable Polish words. Slugs from
// the shared vocabulary render as their display name; anything else falls
// back to de-dashing.
func breedPhrase(slug string) string {
	if name, ok := domain.KnownBreeds[slug]; ok {
		return name
	}
	return strings.NewReplacer("-", " ", "_", " ").Replace(slug)
}

package search

import (
	"strings"
	"testing"

	"github.com/SnoutAI/snout-mvp/engine/jobs"
)

func intptr(n int) *int { return &n }

func TestBuildDocumentFullText(t *testing.T) {
	meta := &jobs.ReindexMetadata{
		ShelterID:   "napaluchu",
		Name:        "Burek",
		City:        "Warszawa",
		Size:        "large",
		AgeMonths:   intptr(36),
		Sex:         "male",
		Breeds:      []string{"german-shepherd", "mixed"},
		Personality: []string{"łagodny", "energiczny"},
		Bio:         "Burek uwielbia długie spacery.",
	}

	doc := BuildDocument(meta)
	want := "Burek, 3 lata, duży pies, owczarek niemiecki, Warszawa, pies, łagodny, energiczny. Burek uwielbia długie spacery."
	if doc.Text != want {
		t.Errorf("Text = %q\nwant   %q", doc.Text, want)
	}
}

func TestBuildDocumentPuppy(t *testing.T) {
	doc := BuildDocument(&jobs.ReindexMetadata{Name: "Mała", AgeMonths: intptr(4)})
	if !strings.Contains(doc.Text, "szczeniak, 4 mies.") {
		t.Errorf("Text = %q", doc.Text)
	}
}

func TestYearsWord(t *testing.T) {
	tests := []struct {
		years int
		want  string
	}{
		{1, "rok"},
		{2, "lata"},
		{3, "lata"},
		{4, "lata"},
		{5, "lat"},
		{11, "lat"},
		{12, "lat"},
		{13, "lat"},
		{14, "lat"},
		{15, "lat"},
		{22, "lata"},
		{23, "lata"},
		{25, "lat"},
		{112, "lat"},
	}
	for _, tt := range tests {
		if got := yearsWord(tt.years); got != tt.want {
			t.Errorf("yearsWord(%d) = %q, want %q", tt.years, got, tt.want)
		}
	}
}

func TestBuildDocumentSexNoun(t *testing.T) {
	female := BuildDocument(&jobs.ReindexMetadata{Name: "Luna", Sex: "female"})
	if !strings.Contains(female.Text, "suczka") {
		t.Errorf("Text = %q", female.Text)
	}
	unknown := BuildDocument(&jobs.ReindexMetadata{Name: "Zagadka", Sex: ""})
	if strings.Contains(unknown.Text, "suczka") || strings.HasSuffix(unknown.Text, "pies") {
		t.Errorf("unknown sex must add no noun, Text = %q", unknown.Text)
	}
}

func TestBuildDocumentMetadataOmission(t *testing.T) {
	doc := BuildDocument(&jobs.ReindexMetadata{ShelterID: "promyk", Name: "Fafik"})

	if doc.Metadata["shelterId"] != "promyk" {
		t.Errorf("Metadata = %v", doc.Metadata)
	}
	for _, key := range []string{"city", "size", "ageMonths", "sex"} {
		if _, ok := doc.Metadata[key]; ok {
			t.Errorf("absent source value must omit key %q", key)
		}
	}

	full := BuildDocument(&jobs.ReindexMetadata{
		ShelterID: "promyk",
		Name:      "Fafik",
		City:      "Gdańsk",
		Size:      "small",
		AgeMonths: intptr(24),
		Sex:       "male",
	})
	if full.Metadata["city"] != "Gdańsk" || full.Metadata["size"] != "small" || full.Metadata["ageMonths"] != 24 || full.Metadata["sex"] != "male" {
		t.Errorf("Metadata = %v", full.Metadata)
	}
}

func TestBuildDocumentDeterministic(t *testing.T) {
	meta := &jobs.ReindexMetadata{
		ShelterID: "x", Name: "Reksio", City: "Kraków", Size: "medium",
		AgeMonths: intptr(18), Sex: "male", Breeds: []string{"beagle"},
	}
	a := BuildDocument(meta)
	b := BuildDocument(meta)
	if a.Text != b.Text {
		t.Error("identical input must produce identical text")
	}
}

func TestBuildDocumentNilMetadata(t *testing.T) {
	doc := BuildDocument(nil)
	if doc.Text != "" {
		t.Errorf("Text = %q", doc.Text)
	}
	if _, ok := doc.Metadata["shelterId"]; !ok {
		t.Error("shelterId key must always be present")
	}
}

func TestBreedPhraseVocabulary(t *testing.T) {
	tests := []struct {
		slug string
		want string
	}{
		{"german-shepherd", "owczarek niemiecki"},
		{"mixed", "mieszaniec"},
		{"husky", "husky syberyjski"},
		{"some-unknown_breed", "some unknown breed"},
	}
	for _, tt := range tests {
		if got := breedPhrase(tt.slug); got != tt.want {
			t.Errorf("breedPhrase(%q) = %q, want %q", tt.slug, got, tt.want)
		}
	}
}

package fingerprint

import (
	"testing"

	"github.com/SnoutAI/snout-mvp/engine/domain"
)

func sampleContent() Content {
	return Content{
		Name:        "Fafik",
		Sex:         domain.SexMale,
		Description: "Wesoły pies w typie mieszańca, lubi dzieci.",
		Breeds: []domain.BreedEstimate{
			{Breed: "mixed", Confidence: 0.75},
			{Breed: "beagle", Confidence: 0.2},
		},
		Size:        &domain.SizeEstimate{Category: domain.SizeMedium, Confidence: 0.6},
		Age:         &domain.AgeEstimate{Months: 30, MinMonths: 24, MaxMonths: 42, Confidence: 0.5},
		Personality: []string{"wesoły", "przyjazny"},
		Photos:      []string{"https://example.org/f1.jpg", "https://example.org/f2.jpg"},
		Urgent:      false,
	}
}

func TestCompute_Deterministic(t *testing.T) {
	a := Compute(sampleContent())
	b := Compute(sampleContent())
	if a != b {
		t.Fatalf("same content produced different fingerprints: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestCompute_EveryFieldParticipates(t *testing.T) {
	base := Compute(sampleContent())

	mutations := map[string]func(*Content){
		"name":        func(c *Content) { c.Name = "Fafik II" },
		"sex":         func(c *Content) { c.Sex = domain.SexFemale },
		"description": func(c *Content) { c.Description = c.Description + "!" },
		"breeds":      func(c *Content) { c.Breeds[0].Confidence = 0.76 },
		"size":        func(c *Content) { c.Size = &domain.SizeEstimate{Category: domain.SizeLarge, Confidence: 0.6} },
		"age":         func(c *Content) { c.Age.Months = 31 },
		"personality": func(c *Content) { c.Personality = append(c.Personality, "czujny") },
		"photos":      func(c *Content) { c.Photos = c.Photos[:1] },
		"urgent":      func(c *Content) { c.Urgent = true },
	}

	for field, mutate := range mutations {
		c := sampleContent()
		mutate(&c)
		if got := Compute(c); got == base {
			t.Errorf("changing %s did not change the fingerprint", field)
		}
	}
}

func TestCompute_NilEstimatesDifferFromZero(t *testing.T) {
	withSize := sampleContent()
	withoutSize := sampleContent()
	withoutSize.Size = nil
	if Compute(withSize) == Compute(withoutSize) {
		t.Fatal("nil size estimate should fingerprint differently than a present one")
	}
}

func TestCompute_FieldsDoNotBleed(t *testing.T) {
	// A value migrating between adjacent fields must not serialize identically.
	a := Content{Personality: []string{"spokojny"}}
	b := Content{Photos: []string{"spokojny"}}
	if Compute(a) == Compute(b) {
		t.Fatal("distinct fields with equal values must not collide")
	}
}

func TestFromDogAndFromInput_Agree(t *testing.T) {
	in := domain.CreateDogInput{
		Name:        "Luna",
		Sex:         domain.SexFemale,
		Description: "Delikatna suczka.",
		Personality: []string{"delikatna"},
		Photos:      []string{"https://example.org/luna.jpg"},
	}
	dog := domain.Dog{
		Name:        in.Name,
		Sex:         in.Sex,
		Description: in.Description,
		Personality: in.Personality,
		Photos:      in.Photos,
	}
	if Compute(FromInput(in)) != Compute(FromDog(dog)) {
		t.Fatal("equal content via input and via dog must yield equal fingerprints")
	}
}

func TestClassify(t *testing.T) {
	stored := map[string]string{
		"d1": "abcd",
		"d2": "ef01",
		"d4": "7777",
	}
	fresh := []Candidate{
		{ExternalID: "d1", Fingerprint: "abcd"}, // unchanged
		{ExternalID: "d2", Fingerprint: "9999"}, // changed
		{ExternalID: "d3", Fingerprint: "1111"}, // new
	}

	d := Classify(stored, fresh)

	if len(d.Creates) != 1 || d.Creates[0].ExternalID != "d3" {
		t.Errorf("expected exactly one create for d3, got %+v", d.Creates)
	}
	if len(d.Updates) != 1 || d.Updates[0].ExternalID != "d2" {
		t.Errorf("expected exactly one update for d2, got %+v", d.Updates)
	}
	if len(d.Unchanged) != 1 || d.Unchanged[0].ExternalID != "d1" {
		t.Errorf("expected d1 unchanged, got %+v", d.Unchanged)
	}
	if len(d.Removals) != 1 || d.Removals[0] != "d4" {
		t.Errorf("expected exactly one removal for d4, got %+v", d.Removals)
	}
}

func TestClassify_EmptyStored(t *testing.T) {
	d := Classify(nil, []Candidate{{ExternalID: "a", Fingerprint: "1"}})
	if len(d.Creates) != 1 || len(d.Updates) != 0 || len(d.Removals) != 0 {
		t.Fatalf("expected single create, got %+v", d)
	}
}

func TestClassify_EmptyFreshRemovesAll(t *testing.T) {
	d := Classify(map[string]string{"a": "1", "b": "2"}, nil)
	if len(d.Removals) != 2 {
		t.Fatalf("expected two removals, got %+v", d.Removals)
	}
}

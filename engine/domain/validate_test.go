package domain

import (
	"errors"
	"testing"
)

func validInput() CreateDogInput {
	return CreateDogInput{
		ShelterID:   "napaluchu",
		ExternalID:  "4821",
		Name:        "Burek",
		Sex:         SexMale,
		Description: "Spokojny, starszy pies szukający domu.",
		Breeds:      []BreedEstimate{{Breed: "mixed", Confidence: 0.8}},
		Size:        &SizeEstimate{Category: SizeMedium, Confidence: 0.7},
		Age:         &AgeEstimate{Months: 84, MinMonths: 72, MaxMonths: 96, Confidence: 0.5},
	}
}

func TestValidateCreateDogInput_Valid(t *testing.T) {
	if err := ValidateCreateDogInput(validInput()); err != nil {
		t.Fatalf("expected valid input, got %v", err)
	}
}

func TestValidateCreateDogInput_MissingName(t *testing.T) {
	in := validInput()
	in.Name = "   "
	err := ValidateCreateDogInput(in)
	if !errors.Is(err, ErrMissingName) {
		t.Fatalf("expected ErrMissingName, got %v", err)
	}
}

func TestValidateCreateDogInput_MissingExternalID(t *testing.T) {
	in := validInput()
	in.ExternalID = ""
	err := ValidateCreateDogInput(in)
	if !errors.Is(err, ErrMissingExternal) {
		t.Fatalf("expected ErrMissingExternal, got %v", err)
	}
}

func TestValidateCreateDogInput_BadSex(t *testing.T) {
	in := validInput()
	in.Sex = "samiec"
	if err := ValidateCreateDogInput(in); err == nil {
		t.Fatal("expected error for sex outside enum")
	}
}

func TestValidateEstimates_UnknownBreed(t *testing.T) {
	err := ValidateEstimates([]BreedEstimate{{Breed: "wolf", Confidence: 0.4}}, nil, nil)
	if err == nil {
		t.Fatal("expected error for out-of-vocabulary breed")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Field != "breed" {
		t.Fatalf("expected breed ValidationError, got %v", err)
	}
}

func TestValidateEstimates_ConfidenceBounds(t *testing.T) {
	err := ValidateEstimates([]BreedEstimate{{Breed: "beagle", Confidence: 1.2}}, nil, nil)
	if err == nil {
		t.Fatal("expected error for confidence > 1")
	}
}

func TestValidateEstimates_AgeRange(t *testing.T) {
	err := ValidateEstimates(nil, nil, &AgeEstimate{Months: 24, MinMonths: 36, MaxMonths: 12, Confidence: 0.5})
	if err == nil {
		t.Fatal("expected error for inverted age range")
	}
}

func TestBreedSlugs_SortedAndComplete(t *testing.T) {
	slugs := BreedSlugs()
	if len(slugs) != len(KnownBreeds) {
		t.Fatalf("expected %d slugs, got %d", len(KnownBreeds), len(slugs))
	}
	for i := 1; i < len(slugs); i++ {
		if slugs[i-1] >= slugs[i] {
			t.Fatalf("slugs not strictly sorted at %d: %s >= %s", i, slugs[i-1], slugs[i])
		}
	}
}

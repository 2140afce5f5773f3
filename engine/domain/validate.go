package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError wraps a sentinel with the offending field and value.
type ValidationError struct {
	Field   string
	Value   string
	Wrapped error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s=%q: %v", e.Field, e.Value, e.Wrapped)
}

func (e *ValidationError) Unwrap() error { return e.Wrapped }

// NewValidationError builds a ValidationError.
func NewValidationError(field, value string, wrapped error) *ValidationError {
	return &ValidationError{Field: field, Value: value, Wrapped: wrapped}
}

const maxNameLength = 80

// ValidateCreateDogInput checks adapter output before it enters the pipeline.
func ValidateCreateDogInput(in CreateDogInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError("name", in.Name, ErrMissingName)
	}
	if utf8.RuneCountInString(in.Name) > maxNameLength {
		return NewValidationError("name", in.Name, fmt.Errorf("longer than %d runes", maxNameLength))
	}
	if strings.TrimSpace(in.ExternalID) == "" {
		return NewValidationError("external_id", in.ExternalID, ErrMissingExternal)
	}
	if strings.TrimSpace(in.ShelterID) == "" {
		return NewValidationError("shelter_id", in.ShelterID, fmt.Errorf("empty"))
	}
	switch in.Sex {
	case SexMale, SexFemale, SexUnknown:
	default:
		return NewValidationError("sex", string(in.Sex), fmt.Errorf("not one of male/female/unknown"))
	}
	return ValidateEstimates(in.Breeds, in.Size, in.Age)
}

// ValidateEstimates checks AI-derived estimation shapes: confidences in [0,1],
// breeds from the controlled vocabulary, a coherent age range.
func ValidateEstimates(breeds []BreedEstimate, size *SizeEstimate, age *AgeEstimate) error {
	for _, b := range breeds {
		if !IsKnownBreed(b.Breed) {
			return NewValidationError("breed", b.Breed, fmt.Errorf("outside controlled vocabulary"))
		}
		if b.Confidence < 0 || b.Confidence > 1 {
			return NewValidationError("breed_confidence", fmt.Sprintf("%g", b.Confidence), fmt.Errorf("outside [0,1]"))
		}
	}
	if size != nil {
		switch size.Category {
		case SizeSmall, SizeMedium, SizeLarge:
		default:
			return NewValidationError("size", string(size.Category), fmt.Errorf("not one of small/medium/large"))
		}
		if size.Confidence < 0 || size.Confidence > 1 {
			return NewValidationError("size_confidence", fmt.Sprintf("%g", size.Confidence), fmt.Errorf("outside [0,1]"))
		}
	}
	if age != nil {
		if age.Months < 0 {
			return NewValidationError("age_months", fmt.Sprintf("%d", age.Months), fmt.Errorf("negative"))
		}
		if age.MinMonths > age.MaxMonths && age.MaxMonths != 0 {
			return NewValidationError("age_range", fmt.Sprintf("%d-%d", age.MinMonths, age.MaxMonths), fmt.Errorf("min exceeds max"))
		}
		if age.Confidence < 0 || age.Confidence > 1 {
			return NewValidationError("age_confidence", fmt.Sprintf("%g", age.Confidence), fmt.Errorf("outside [0,1]"))
		}
	}
	return nil
}

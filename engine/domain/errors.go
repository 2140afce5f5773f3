package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the pipeline.
var (
	ErrAdapterUnknown  = errors.New("unknown shelter adapter")
	ErrEmptyResponse   = errors.New("empty model response")
	ErrSchemaMismatch  = errors.New("response does not match expected schema")
	ErrMissingName     = errors.New("missing dog name")
	ErrMissingExternal = errors.New("missing external id")
)

// ScrapeError is a network-level failure fetching shelter content.
type ScrapeError struct {
	ShelterID string
	URL       string
	Err       error
}

func (e *ScrapeError) Error() string {
	return fmt.Sprintf("scrape %s (%s): %v", e.ShelterID, e.URL, e.Err)
}

func (e *ScrapeError) Unwrap() error { return e.Err }

// ParseError is a structural failure interpreting fetched content.
type ParseError struct {
	ShelterID string
	Detail    string
	Err       error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parse %s: %s", e.ShelterID, e.Detail)
	}
	return fmt.Sprintf("parse %s: %s: %v", e.ShelterID, e.Detail, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ExtractionError is an LLM call or schema-validation failure during
// structured extraction. Source is "text" or "photo".
type ExtractionError struct {
	Source  string
	Message string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract from %s: %s: %v", e.Source, e.Message, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// GenerationError is a bio-generation failure.
type GenerationError struct {
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate bio: %s: %v", e.Message, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure. Operation is read, write or delete.
type StorageError struct {
	Operation string
	Entity    string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Operation, e.Entity, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// VectorizeError wraps a vector-index failure. Operation is upsert or delete.
type VectorizeError struct {
	Operation string
	Err       error
}

func (e *VectorizeError) Error() string {
	return fmt.Sprintf("vectorize %s: %v", e.Operation, e.Err)
}

func (e *VectorizeError) Unwrap() error { return e.Err }

// APICostInsertError wraps a failure writing to the cost ledger. Always
// non-fatal: callers log it and continue.
type APICostInsertError struct {
	Err error
}

func (e *APICostInsertError) Error() string {
	return fmt.Sprintf("api cost insert: %v", e.Err)
}

func (e *APICostInsertError) Unwrap() error { return e.Err }

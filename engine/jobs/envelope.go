// Package jobs defines the versioned message envelope and the typed job
// payloads that travel between pipeline stages over the queue.
package jobs

import (
	"time"

	"github.com/google/uuid"
)

// EnvelopeVersion is the current wire version of the job envelope.
const EnvelopeVersion = 1

// StreamName is the JetStream stream that holds all pipeline subjects.
const StreamName = "SNOUT"

// StreamSubjects are the wildcard subjects the stream covers.
var StreamSubjects = []string{"scrape.>", "search.>", "images.>", "photos.>"}

// NATS subjects, one per job type. The subject doubles as the envelope's
// type discriminator on the wire.
const (
	SubjectScrapeRun        = "scrape.run"
	SubjectSearchReindex    = "search.reindex"
	SubjectImagesOriginal   = "images.processOriginal"
	SubjectPhotosGenerate   = "photos.generate"
	SubjectScrapeDeadLetter = "scrape.run.dlq"
)

// Envelope wraps every asynchronous job. Immutable once constructed.
// ParentTraceID is serialized only when the producer supplied one.
type Envelope[T any] struct {
	V             int       `json:"v"`
	Type          string    `json:"type"`
	Payload       T         `json:"payload"`
	TraceID       string    `json:"traceId"`
	CreatedAt     time.Time `json:"createdAt"`
	Source        string    `json:"source"`
	ParentTraceID string    `json:"parentTraceId,omitempty"`
}

// New builds an envelope with v=1, a fresh trace id and the current time.
func New[T any](jobType, source string, payload T) Envelope[T] {
	return Envelope[T]{
		V:         EnvelopeVersion,
		Type:      jobType,
		Payload:   payload,
		TraceID:   uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Source:    source,
	}
}

// NewChild builds an envelope causally chained to a parent trace.
func NewChild[T any](jobType, source, parentTraceID string, payload T) Envelope[T] {
	env := New(jobType, source, payload)
	env.ParentTraceID = parentTraceID
	return env
}

// ScrapeRun asks the processor to sync one shelter.
type ScrapeRun struct {
	ShelterID   string `json:"shelterId"`
	ShelterSlug string `json:"shelterSlug"`
	BaseURL     string `json:"baseUrl"`
	Limit       int    `json:"limit,omitempty"`
}

// ReindexOp discriminates search.reindex jobs.
type ReindexOp string

const (
	ReindexUpsert ReindexOp = "upsert"
	ReindexDelete ReindexOp = "delete"
)

// SearchReindex asks the indexer to upsert or delete one dog's search
// document. Description and Metadata are carried only for upserts.
type SearchReindex struct {
	Op          ReindexOp        `json:"op"`
	DogID       string           `json:"dogId"`
	Description string           `json:"description,omitempty"`
	Metadata    *ReindexMetadata `json:"metadata,omitempty"`
}

// ReindexMetadata carries the facet fields for search document construction.
// Optional keys are omitted, never null.
type ReindexMetadata struct {
	ShelterID   string   `json:"shelterId"`
	Name        string   `json:"name"`
	City        string   `json:"city,omitempty"`
	Size        string   `json:"size,omitempty"`
	AgeMonths   *int     `json:"ageMonths,omitempty"`
	Sex         string   `json:"sex,omitempty"`
	Breeds      []string `json:"breeds,omitempty"`
	Personality []string `json:"personality,omitempty"`
	Bio         string   `json:"bio,omitempty"`
}

// ImagesProcessOriginal asks the image service to ingest and normalise a
// dog's source photos.
type ImagesProcessOriginal struct {
	DogID string   `json:"dogId"`
	URLs  []string `json:"urls"`
}

// PhotoVariant names a generated-photo style.
type PhotoVariant string

const (
	VariantProfessional PhotoVariant = "professional"
	VariantNose         PhotoVariant = "nose"
)

// PhotosGenerate asks the image service to produce an AI photo variant.
type PhotosGenerate struct {
	DogID   string       `json:"dogId"`
	Variant PhotoVariant `json:"variant"`
	Force   bool         `json:"force,omitempty"`
}

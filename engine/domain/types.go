// Package domain holds the canonical data model shared by every pipeline
// stage: shelters, dogs, adapter intermediates, sync logs and the error kinds
// that cross package boundaries.
package domain

import "time"

// ShelterStatus is the operational state of a shelter source.
type ShelterStatus string

const (
	ShelterActive   ShelterStatus = "active"
	ShelterInactive ShelterStatus = "inactive"
	ShelterError    ShelterStatus = "error"
)

// Shelter is a source organisation whose listing page is scraped.
type Shelter struct {
	ID       string        `json:"id"`
	Slug     string        `json:"slug"`
	Name     string        `json:"name"`
	URL      string        `json:"url"`
	City     string        `json:"city"`
	Region   string        `json:"region,omitempty"`
	Lat      float64       `json:"lat,omitempty"`
	Lon      float64       `json:"lon,omitempty"`
	Email    string        `json:"email,omitempty"`
	Phone    string        `json:"phone,omitempty"`
	Active   bool          `json:"active"`
	Status   ShelterStatus `json:"status"`
	LastSync *time.Time    `json:"last_sync,omitempty"`
}

// DogStatus is the adoption lifecycle state of a dog record.
type DogStatus string

const (
	DogAvailable DogStatus = "available"
	DogAdopted   DogStatus = "adopted"
	DogReserved  DogStatus = "reserved"
	DogRemoved   DogStatus = "removed"
)

// Sex values. Unknown is a first-class value, not an absence.
type Sex string

const (
	SexMale    Sex = "male"
	SexFemale  Sex = "female"
	SexUnknown Sex = "unknown"
)

// SizeCategory is the three-way size classification used for search facets.
type SizeCategory string

const (
	SizeSmall  SizeCategory = "small"
	SizeMedium SizeCategory = "medium"
	SizeLarge  SizeCategory = "large"
)

// BreedEstimate is one AI-estimated breed with a confidence in [0,1].
type BreedEstimate struct {
	Breed      string  `json:"breed"`
	Confidence float64 `json:"confidence"`
}

// SizeEstimate is the AI-estimated size category.
type SizeEstimate struct {
	Category   SizeCategory `json:"category"`
	Confidence float64      `json:"confidence"`
}

// AgeEstimate is the AI-estimated age with a plausible range.
type AgeEstimate struct {
	Months     int     `json:"months"`
	MinMonths  int     `json:"min_months"`
	MaxMonths  int     `json:"max_months"`
	Confidence float64 `json:"confidence"`
}

// WeightEstimate is the AI-estimated weight with a plausible range.
type WeightEstimate struct {
	Kg         float64 `json:"kg"`
	MinKg      float64 `json:"min_kg"`
	MaxKg      float64 `json:"max_kg"`
	Confidence float64 `json:"confidence"`
}

// Health holds health and compatibility flags. Nil means "unknown", which is
// distinct from false.
type Health struct {
	Vaccinated   *bool `json:"vaccinated,omitempty"`
	Sterilized   *bool `json:"sterilized,omitempty"`
	Chipped      *bool `json:"chipped,omitempty"`
	SpecialNeeds *bool `json:"special_needs,omitempty"`
	GoodWithKids *bool `json:"good_with_kids,omitempty"`
	GoodWithDogs *bool `json:"good_with_dogs,omitempty"`
	GoodWithCats *bool `json:"good_with_cats,omitempty"`
}

// BioTone classifies the emotional register of a generated bio.
type BioTone string

const (
	ToneHopeful BioTone = "hopeful"
	ToneUrgent  BioTone = "urgent"
	ToneGentle  BioTone = "gentle"
)

// Dog is the canonical, persisted representation of one adoptable animal.
// (ID, ShelterID, ExternalID) is unique. Fingerprint is derived from the
// content-bearing fields and never set independently of them.
type Dog struct {
	ID         string `json:"id"`
	ShelterID  string `json:"shelter_id"`
	ExternalID string `json:"external_id"`

	Name        string `json:"name"`
	Sex         Sex    `json:"sex"`
	Description string `json:"description"`
	City        string `json:"city,omitempty"`
	Region      string `json:"region,omitempty"`

	Breeds      []BreedEstimate `json:"breeds,omitempty"`
	Size        *SizeEstimate   `json:"size,omitempty"`
	Age         *AgeEstimate    `json:"age,omitempty"`
	Weight      *WeightEstimate `json:"weight,omitempty"`
	Personality []string        `json:"personality,omitempty"`
	Health      Health          `json:"health"`

	Photos          []string          `json:"photos,omitempty"`
	GeneratedPhotos map[string]string `json:"generated_photos,omitempty"`

	Urgent      bool    `json:"urgent"`
	Bio         string  `json:"bio,omitempty"`
	BioTone     BioTone `json:"bio_tone,omitempty"`
	Fingerprint string  `json:"fingerprint"`
	SourceURL   string  `json:"source_url,omitempty"`

	Status     DogStatus `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
}

// RawDogData is the adapter-local intermediate produced by Parse. It is never
// persisted; Transform turns it into a CreateDogInput.
type RawDogData struct {
	FingerprintSeed string
	ExternalID      string
	Name            string
	RawDescription  string
	Breed           string
	AgeText         string
	SizeText        string
	Sex             Sex
	Personality     []string
	Photos          []string
	Urgent          bool
	SourceURL       string
}

// CreateDogInput is the adapter output: the canonical dog shape minus
// generated and meta fields. Immutable once produced by Transform.
type CreateDogInput struct {
	ShelterID   string          `json:"shelter_id"`
	ExternalID  string          `json:"external_id"`
	Name        string          `json:"name"`
	Sex         Sex             `json:"sex"`
	Description string          `json:"description"`
	Breeds      []BreedEstimate `json:"breeds,omitempty"`
	Size        *SizeEstimate   `json:"size,omitempty"`
	Age         *AgeEstimate    `json:"age,omitempty"`
	Weight      *WeightEstimate `json:"weight,omitempty"`
	Personality []string        `json:"personality,omitempty"`
	Health      Health          `json:"health"`
	Photos      []string        `json:"photos,omitempty"`
	Urgent      bool            `json:"urgent"`
	SourceURL   string          `json:"source_url,omitempty"`
}

// SyncLog records one scrape run for one shelter. Append-only.
type SyncLog struct {
	ID         string     `json:"id"`
	ShelterID  string     `json:"shelter_id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Added      int        `json:"added"`
	Updated    int        `json:"updated"`
	Removed    int        `json:"removed"`
	Errors     []string   `json:"errors,omitempty"`
}

// APICostEntry is one row of the append-only cost ledger for calls to the
// external AI service.
type APICostEntry struct {
	CreatedAt    time.Time `json:"created_at"`
	Operation    string    `json:"operation"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
}

// BoolPtr is a convenience for the nullable health flags.
func BoolPtr(b bool) *bool { return &b }

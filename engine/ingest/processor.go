// Package ingest drives shelter synchronization: the scheduler decides which
// shelters are due, the processor runs one shelter through
// fetch → parse → transform → extract → diff → persist and fans out the
// downstream jobs.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/SnoutAI/snout-mvp/engine/adapters"
	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/engine/extract"
	"github.com/SnoutAI/snout-mvp/engine/fingerprint"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/pkg/fn"
)

// Catalog is the persistence capability the processor needs.
type Catalog interface {
	GetShelter(ctx context.Context, id string) (domain.Shelter, error)
	SaveShelter(ctx context.Context, sh domain.Shelter) error
	UpdateShelterStatus(ctx context.Context, id string, status domain.ShelterStatus, lastSync *time.Time) error
	FingerprintMap(ctx context.Context, shelterID string) (map[string]string, error)
	UpsertDog(ctx context.Context, dog domain.Dog) error
	DogIDsByExternal(ctx context.Context, shelterID string, externalIDs []string) (map[string]string, error)
	MarkRemoved(ctx context.Context, shelterID string, externalIDs []string) error
	StartSyncLog(ctx context.Context, shelterID string) (string, error)
	FinishSyncLog(ctx context.Context, id string, added, updated, removed int, errs []string) error
}

// Extractor is the structured-extraction capability.
type Extractor interface {
	ExtractFromText(ctx context.Context, shelterName, city, text string) (extract.TextExtractionResult, error)
	ExtractFromPhotos(ctx context.Context, urls []string) (extract.PhotoExtractionResult, error)
}

// BioGenerator writes the adoption bio.
type BioGenerator interface {
	Generate(ctx context.Context, dog domain.Dog) (string, domain.BioTone, error)
}

// Publisher fans out downstream jobs.
type Publisher interface {
	PublishReindex(ctx context.Context, envs []jobs.Envelope[jobs.SearchReindex]) error
	PublishImages(ctx context.Context, envs []jobs.Envelope[jobs.ImagesProcessOriginal]) error
	PublishPhotos(ctx context.Context, envs []jobs.Envelope[jobs.PhotosGenerate]) error
}

// Processor syncs one shelter per call. Stateless between calls.
type Processor struct {
	registry  *adapters.Registry
	catalog   Catalog
	extractor Extractor
	generator BioGenerator
	pub       Publisher
	log       *slog.Logger
}

func NewProcessor(registry *adapters.Registry, catalog Catalog, extractor Extractor, generator BioGenerator, pub Publisher, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		registry:  registry,
		catalog:   catalog,
		extractor: extractor,
		generator: generator,
		pub:       pub,
		log:       log,
	}
}

// Options tune one processing run.
type Options struct {
	// Limit caps how many candidates are processed; 0 means no extra cap
	// beyond the adapter's own.
	Limit int
	// GeneratePhotos additionally enqueues photos.generate jobs for every
	// created or updated dog.
	GeneratePhotos bool
	// ParentTraceID chains downstream job envelopes to the triggering job.
	ParentTraceID string
}

// Outcome summarizes one shelter sync.
type Outcome struct {
	Added     int
	Updated   int
	Unchanged int
	Removed   int
	Errors    []string
}

// enriched pairs a fully extracted candidate with its fingerprint.
type enriched struct {
	input domain.CreateDogInput
	fp    string
}

// ProcessShelter runs the full sync for one shelter. A fetch or parse
// failure aborts the run and is recorded in the sync log; per-item failures
// drop the item and the run continues.
func (p *Processor) ProcessShelter(ctx context.Context, shelterID string, opts Options) (Outcome, error) {
	adapter, err := p.registry.Get(shelterID)
	if err != nil {
		return Outcome{}, err
	}
	site := adapter.Site()

	shelter, err := p.ensureShelter(ctx, shelterID, site)
	if err != nil {
		return Outcome{}, err
	}

	logID, err := p.catalog.StartSyncLog(ctx, shelterID)
	if err != nil {
		return Outcome{}, err
	}

	listing, err := adapter.Fetch(ctx, site)
	if err != nil {
		return Outcome{}, p.abort(ctx, shelterID, logID, err)
	}
	raws, err := adapter.Parse(ctx, listing, site)
	if err != nil {
		return Outcome{}, p.abort(ctx, shelterID, logID, err)
	}
	if opts.Limit > 0 && len(raws) > opts.Limit {
		raws = raws[:opts.Limit]
	}

	build := fn.TracedStage("ingest.candidate", func(ctx context.Context, raw domain.RawDogData) fn.Result[enriched] {
		return fn.FromPair(p.buildCandidate(ctx, adapter, site, shelter, raw))
	})

	var (
		candidates []enriched
		itemErrs   []string
	)
	for _, raw := range raws {
		cand, err := build(ctx, raw).Unwrap()
		if err != nil {
			itemErrs = append(itemErrs, err.Error())
			p.log.Warn("dog dropped",
				slog.String("shelter_id", shelterID),
				slog.String("external_id", raw.ExternalID),
				slog.Any("error", err))
			continue
		}
		candidates = append(candidates, cand)
	}

	stored, err := p.catalog.FingerprintMap(ctx, shelterID)
	if err != nil {
		return Outcome{}, p.abort(ctx, shelterID, logID, err)
	}

	fresh := make([]fingerprint.Candidate, len(candidates))
	byExternal := make(map[string]enriched, len(candidates))
	for i, c := range candidates {
		fresh[i] = fingerprint.Candidate{ExternalID: c.input.ExternalID, Fingerprint: c.fp}
		byExternal[c.input.ExternalID] = c
	}
	diff := fingerprint.Classify(stored, fresh)

	outcome := Outcome{Unchanged: len(diff.Unchanged)}
	var reindex []jobs.Envelope[jobs.SearchReindex]
	var images []jobs.Envelope[jobs.ImagesProcessOriginal]
	var photos []jobs.Envelope[jobs.PhotosGenerate]

	persist := func(externalIDs []string, existing map[string]string, isCreate bool) {
		for _, ext := range externalIDs {
			cand, ok := byExternal[ext]
			if !ok {
				continue
			}
			dog := p.assembleDog(ctx, shelter, cand, existing[ext], &itemErrs)
			if err := p.catalog.UpsertDog(ctx, dog); err != nil {
				itemErrs = append(itemErrs, err.Error())
				continue
			}
			if isCreate {
				outcome.Added++
			} else {
				outcome.Updated++
			}

			reindex = append(reindex, p.reindexUpsert(dog, opts))
			if isCreate && len(dog.Photos) > 0 {
				images = append(images, jobs.NewChild(jobs.SubjectImagesOriginal, "processor", opts.ParentTraceID,
					jobs.ImagesProcessOriginal{DogID: dog.ID, URLs: dog.Photos}))
			}
			if opts.GeneratePhotos && len(dog.Photos) > 0 {
				photos = append(photos, jobs.NewChild(jobs.SubjectPhotosGenerate, "processor", opts.ParentTraceID,
					jobs.PhotosGenerate{DogID: dog.ID, Variant: jobs.VariantProfessional}))
			}
		}
	}

	externalIDs := func(cands []fingerprint.Candidate) []string {
		return fn.Map(cands, func(c fingerprint.Candidate) string { return c.ExternalID })
	}

	persist(externalIDs(diff.Creates), nil, true)

	updateExts := externalIDs(diff.Updates)
	updateIDs, err := p.catalog.DogIDsByExternal(ctx, shelterID, updateExts)
	if err != nil {
		itemErrs = append(itemErrs, err.Error())
		updateIDs = map[string]string{}
	}
	persist(updateExts, updateIDs, false)

	if len(diff.Removals) > 0 {
		removalIDs, err := p.catalog.DogIDsByExternal(ctx, shelterID, diff.Removals)
		if err != nil {
			itemErrs = append(itemErrs, err.Error())
		}
		if err := p.catalog.MarkRemoved(ctx, shelterID, diff.Removals); err != nil {
			itemErrs = append(itemErrs, err.Error())
		} else {
			outcome.Removed = len(diff.Removals)
			for _, ext := range diff.Removals {
				id, ok := removalIDs[ext]
				if !ok {
					continue
				}
				reindex = append(reindex, jobs.NewChild(jobs.SubjectSearchReindex, "processor", opts.ParentTraceID,
					jobs.SearchReindex{Op: jobs.ReindexDelete, DogID: id}))
			}
		}
	}

	if len(reindex) > 0 {
		if err := p.pub.PublishReindex(ctx, reindex); err != nil {
			itemErrs = append(itemErrs, fmt.Sprintf("publish reindex: %v", err))
		}
	}
	if len(images) > 0 {
		if err := p.pub.PublishImages(ctx, images); err != nil {
			itemErrs = append(itemErrs, fmt.Sprintf("publish images: %v", err))
		}
	}
	if len(photos) > 0 {
		if err := p.pub.PublishPhotos(ctx, photos); err != nil {
			itemErrs = append(itemErrs, fmt.Sprintf("publish photos: %v", err))
		}
	}

	now := time.Now().UTC()
	if err := p.catalog.UpdateShelterStatus(ctx, shelterID, domain.ShelterActive, &now); err != nil {
		itemErrs = append(itemErrs, err.Error())
	}
	outcome.Errors = itemErrs
	if err := p.catalog.FinishSyncLog(ctx, logID, outcome.Added, outcome.Updated, outcome.Removed, itemErrs); err != nil {
		p.log.Warn("sync log finish failed", slog.String("shelter_id", shelterID), slog.Any("error", err))
	}

	p.log.Info("shelter synced",
		slog.String("shelter_id", shelterID),
		slog.Int("added", outcome.Added),
		slog.Int("updated", outcome.Updated),
		slog.Int("unchanged", outcome.Unchanged),
		slog.Int("removed", outcome.Removed),
		slog.Int("errors", len(itemErrs)))
	return outcome, nil
}

// buildCandidate turns one RawDogData into a fully extracted, fingerprinted
// candidate. Extraction runs before fingerprinting so the digest covers the
// final canonical content.
func (p *Processor) buildCandidate(ctx context.Context, adapter adapters.Adapter, site adapters.Site, shelter domain.Shelter, raw domain.RawDogData) (enriched, error) {
	input, err := adapter.Transform(raw, site)
	if err != nil {
		return enriched{}, err
	}
	if err := domain.ValidateCreateDogInput(input); err != nil {
		return enriched{}, err
	}

	if input.Description != "" {
		res, err := p.extractor.ExtractFromText(ctx, shelter.Name, shelter.City, input.Description)
		if err != nil {
			return enriched{}, err
		}
		input.Breeds = res.Breeds
		input.Size = res.Size
		input.Age = res.Age
		input.Weight = res.Weight
		input.Personality = mergeTags(input.Personality, res.Personality)
		input.Health = res.Health
	}

	// Photos supplement what the text could not establish. A photo-call
	// failure is not fatal: the text result stands on its own.
	if len(input.Photos) > 0 && (len(input.Breeds) == 0 || input.Size == nil) {
		res, err := p.extractor.ExtractFromPhotos(ctx, input.Photos)
		if err != nil {
			p.log.Warn("photo extraction failed",
				slog.String("external_id", input.ExternalID),
				slog.Any("error", err))
		} else {
			if len(input.Breeds) == 0 {
				input.Breeds = res.Breeds
			}
			if input.Size == nil {
				input.Size = res.Size
			}
			if input.Age == nil {
				input.Age = res.Age
			}
			if input.Weight == nil {
				input.Weight = res.Weight
			}
		}
	}

	fp := fingerprint.Compute(fingerprint.FromInput(input))
	return enriched{input: input, fp: fp}, nil
}

// assembleDog builds the persisted record for one create or update. A bio
// generation failure is recorded but never blocks persistence.
func (p *Processor) assembleDog(ctx context.Context, shelter domain.Shelter, cand enriched, existingID string, itemErrs *[]string) domain.Dog {
	now := time.Now().UTC()
	id := existingID
	if id == "" {
		id = uuid.NewString()
	}

	dog := domain.Dog{
		ID:          id,
		ShelterID:   cand.input.ShelterID,
		ExternalID:  cand.input.ExternalID,
		Name:        cand.input.Name,
		Sex:         cand.input.Sex,
		Description: cand.input.Description,
		City:        shelter.City,
		Region:      shelter.Region,
		Breeds:      cand.input.Breeds,
		Size:        cand.input.Size,
		Age:         cand.input.Age,
		Weight:      cand.input.Weight,
		Personality: cand.input.Personality,
		Health:      cand.input.Health,
		Photos:      cand.input.Photos,
		Urgent:      cand.input.Urgent,
		Fingerprint: cand.fp,
		SourceURL:   cand.input.SourceURL,
		Status:      domain.DogAvailable,
		CreatedAt:   now,
		UpdatedAt:   now,
		LastSeenAt:  now,
	}

	bio, tone, err := p.generator.Generate(ctx, dog)
	if err != nil {
		*itemErrs = append(*itemErrs, err.Error())
	} else {
		dog.Bio = bio
		dog.BioTone = tone
	}
	return dog
}

func (p *Processor) reindexUpsert(dog domain.Dog, opts Options) jobs.Envelope[jobs.SearchReindex] {
	meta := &jobs.ReindexMetadata{
		ShelterID:   dog.ShelterID,
		Name:        dog.Name,
		City:        dog.City,
		Personality: dog.Personality,
		Bio:         dog.Bio,
	}
	if dog.Sex == domain.SexMale || dog.Sex == domain.SexFemale {
		meta.Sex = string(dog.Sex)
	}
	if dog.Size != nil {
		meta.Size = string(dog.Size.Category)
	}
	if dog.Age != nil {
		months := dog.Age.Months
		meta.AgeMonths = &months
	}
	for _, b := range dog.Breeds {
		meta.Breeds = append(meta.Breeds, b.Breed)
	}
	return jobs.NewChild(jobs.SubjectSearchReindex, "processor", opts.ParentTraceID, jobs.SearchReindex{
		Op:          jobs.ReindexUpsert,
		DogID:       dog.ID,
		Description: dog.Description,
		Metadata:    meta,
	})
}

// ensureShelter loads the shelter record, bootstrapping it from the adapter
// site definition on first contact.
func (p *Processor) ensureShelter(ctx context.Context, shelterID string, site adapters.Site) (domain.Shelter, error) {
	shelter, err := p.catalog.GetShelter(ctx, shelterID)
	if err == nil {
		return shelter, nil
	}
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		return domain.Shelter{}, err
	}

	shelter = domain.Shelter{
		ID:     site.ShelterID,
		Slug:   site.Slug,
		Name:   site.Name,
		URL:    site.BaseURL,
		City:   site.City,
		Region: site.Region,
		Active: true,
		Status: domain.ShelterActive,
	}
	if err := p.catalog.SaveShelter(ctx, shelter); err != nil {
		return domain.Shelter{}, err
	}
	return shelter, nil
}

// abort records a fatal per-shelter failure without touching last_sync, so
// the scheduler retries on the next pass.
func (p *Processor) abort(ctx context.Context, shelterID, logID string, cause error) error {
	if err := p.catalog.UpdateShelterStatus(ctx, shelterID, domain.ShelterError, nil); err != nil {
		p.log.Warn("status update failed", slog.String("shelter_id", shelterID), slog.Any("error", err))
	}
	if err := p.catalog.FinishSyncLog(ctx, logID, 0, 0, 0, []string{cause.Error()}); err != nil {
		p.log.Warn("sync log finish failed", slog.String("shelter_id", shelterID), slog.Any("error", err))
	}
	p.log.Error("shelter sync aborted", slog.String("shelter_id", shelterID), slog.Any("error", cause))
	return cause
}

func mergeTags(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, s := range append(append([]string{}, a...), b...) {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

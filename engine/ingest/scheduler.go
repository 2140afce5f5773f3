package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
)

// ShelterLister is the slice of the catalog the scheduler needs.
type ShelterLister interface {
	ListShelters(ctx context.Context) ([]domain.Shelter, error)
}

// ScrapePublisher enqueues scrape.run jobs.
type ScrapePublisher interface {
	PublishScrapeRuns(ctx context.Context, envs []jobs.Envelope[jobs.ScrapeRun]) (int, error)
}

// Scheduler periodically enqueues one scrape.run job per due shelter. The
// scheduler only decides and publishes; all scraping happens in consumers.
type Scheduler struct {
	catalog  ShelterLister
	pub      ScrapePublisher
	interval time.Duration
	log      *slog.Logger
}

func NewScheduler(catalog ShelterLister, pub ScrapePublisher, interval time.Duration, log *slog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{catalog: catalog, pub: pub, interval: interval, log: log}
}

// Due selects the shelters whose last sync is missing or older than the
// interval. Inactive shelters never sync.
func (s *Scheduler) Due(shelters []domain.Shelter, now time.Time) []domain.Shelter {
	var due []domain.Shelter
	for _, sh := range shelters {
		if !sh.Active {
			continue
		}
		if sh.LastSync == nil || now.Sub(*sh.LastSync) >= s.interval {
			due = append(due, sh)
		}
	}
	return due
}

// RunOnce performs one scheduling pass and returns how many jobs were
// published.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	shelters, err := s.catalog.ListShelters(ctx)
	if err != nil {
		return 0, err
	}
	due := s.Due(shelters, time.Now().UTC())
	if len(due) == 0 {
		s.log.Debug("no shelters due", slog.Int("total", len(shelters)))
		return 0, nil
	}

	envs := make([]jobs.Envelope[jobs.ScrapeRun], len(due))
	for i, sh := range due {
		envs[i] = jobs.New(jobs.SubjectScrapeRun, "scheduler", jobs.ScrapeRun{
			ShelterID:   sh.ID,
			ShelterSlug: sh.Slug,
			BaseURL:     sh.URL,
		})
	}

	published, err := s.pub.PublishScrapeRuns(ctx, envs)
	s.log.Info("scheduling pass",
		slog.Int("shelters", len(shelters)),
		slog.Int("due", len(due)),
		slog.Int("published", published))
	return published, err
}

// Run loops until the context is cancelled, scheduling immediately and then
// on every interval tick.
func (s *Scheduler) Run(ctx context.Context) error {
	if _, err := s.RunOnce(ctx); err != nil {
		s.log.Error("scheduling pass failed", slog.Any("error", err))
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.RunOnce(ctx); err != nil {
				s.log.Error("scheduling pass failed", slog.Any("error", err))
			}
		}
	}
}

package ingest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SnoutAI/snout-mvp/engine/domain"
	"github.com/SnoutAI/snout-mvp/engine/jobs"
)

type fakeLister struct {
	shelters []domain.Shelter
	err      error
}

func (l *fakeLister) ListShelters(_ context.Context) ([]domain.Shelter, error) {
	return l.shelters, l.err
}

type fakeScrapePublisher struct {
	published []jobs.Envelope[jobs.ScrapeRun]
	err       error
}

func (p *fakeScrapePublisher) PublishScrapeRuns(_ context.Context, envs []jobs.Envelope[jobs.ScrapeRun]) (int, error) {
	if p.err != nil {
		return 0, p.err
	}
	p.published = append(p.published, envs...)
	return len(envs), nil
}

func tptr(t time.Time) *time.Time { return &t }

func TestSchedulerDue(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	s := NewScheduler(nil, nil, time.Hour, nil)

	shelters := []domain.Shelter{
		{ID: "never-synced", Active: true},
		{ID: "stale", Active: true, LastSync: tptr(now.Add(-2 * time.Hour))},
		{ID: "exactly-due", Active: true, LastSync: tptr(now.Add(-time.Hour))},
		{ID: "fresh", Active: true, LastSync: tptr(now.Add(-10 * time.Minute))},
		{ID: "inactive", Active: false},
	}

	due := s.Due(shelters, now)
	want := map[string]bool{"never-synced": true, "stale": true, "exactly-due": true}
	if len(due) != len(want) {
		t.Fatalf("due = %v", due)
	}
	for _, sh := range due {
		if !want[sh.ID] {
			t.Errorf("unexpected due shelter %q", sh.ID)
		}
	}
}

func TestSchedulerRunOnce(t *testing.T) {
	lister := &fakeLister{shelters: []domain.Shelter{
		{ID: "napaluchu", Slug: "na-paluchu", URL: "https://napaluchu.waw.pl", Active: true},
		{ID: "promyk", Slug: "promyk", URL: "https://schroniskopromyk.pl", Active: true, LastSync: tptr(time.Now().UTC())},
	}}
	pub := &fakeScrapePublisher{}
	s := NewScheduler(lister, pub, time.Hour, nil)

	n, err := s.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if n != 1 {
		t.Fatalf("published %d jobs, want 1", n)
	}

	env := pub.published[0]
	if env.V != jobs.EnvelopeVersion || env.Type != jobs.SubjectScrapeRun || env.Source != "scheduler" {
		t.Errorf("envelope = %+v", env)
	}
	if env.Payload.ShelterID != "napaluchu" || env.Payload.BaseURL != "https://napaluchu.waw.pl" {
		t.Errorf("payload = %+v", env.Payload)
	}
	if env.TraceID == "" {
		t.Error("missing trace id")
	}
}

func TestSchedulerRunOnceListError(t *testing.T) {
	s := NewScheduler(&fakeLister{err: errors.New("db down")}, &fakeScrapePublisher{}, time.Hour, nil)
	if _, err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestSchedulerRunStopsOnCancel(t *testing.T) {
	s := NewScheduler(&fakeLister{}, &fakeScrapePublisher{}, time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("Run = %v", err)
	}
}

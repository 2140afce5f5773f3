package ingest

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/pkg/natsutil"
)

// JetStreamPublisher publishes job envelopes over JetStream. It implements
// both Publisher and ScrapePublisher.
type JetStreamPublisher struct {
	js nats.JetStreamContext
}

func NewJetStreamPublisher(js nats.JetStreamContext) *JetStreamPublisher {
	return &JetStreamPublisher{js: js}
}

func (p *JetStreamPublisher) PublishScrapeRuns(ctx context.Context, envs []jobs.Envelope[jobs.ScrapeRun]) (int, error) {
	return natsutil.PublishBatch(ctx, p.js, jobs.SubjectScrapeRun, envs)
}

func (p *JetStreamPublisher) PublishReindex(ctx context.Context, envs []jobs.Envelope[jobs.SearchReindex]) error {
	_, err := natsutil.PublishBatch(ctx, p.js, jobs.SubjectSearchReindex, envs)
	return err
}

func (p *JetStreamPublisher) PublishImages(ctx context.Context, envs []jobs.Envelope[jobs.ImagesProcessOriginal]) error {
	_, err := natsutil.PublishBatch(ctx, p.js, jobs.SubjectImagesOriginal, envs)
	return err
}

func (p *JetStreamPublisher) PublishPhotos(ctx context.Context, envs []jobs.Envelope[jobs.PhotosGenerate]) error {
	_, err := natsutil.PublishBatch(ctx, p.js, jobs.SubjectPhotosGenerate, envs)
	return err
}

package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/SnoutAI/snout-mvp/engine/jobs"
	"github.com/SnoutAI/snout-mvp/pkg/natsutil"
)

const (
	// MaxDeliveries before a scrape job goes to the dead letter subject.
	MaxDeliveries = 3

	consumerDurable = "scrape-processor"
	fetchBatch      = 4
)

// DeadLetter wraps a job that exhausted its deliveries.
type DeadLetter[T any] struct {
	Job        jobs.Envelope[T] `json:"job"`
	Error      string           `json:"error"`
	Deliveries int              `json:"deliveries"`
}

// Consumer pulls scrape.run jobs and runs them through the processor.
type Consumer struct {
	js        nats.JetStreamContext
	sub       *nats.Subscription
	processor *Processor
	wait      time.Duration
	log       *slog.Logger
}

func NewConsumer(js nats.JetStreamContext, processor *Processor, wait time.Duration, log *slog.Logger) (*Consumer, error) {
	if wait <= 0 {
		wait = 2 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	sub, err := natsutil.PullSubscribe(js, jobs.SubjectScrapeRun, consumerDurable)
	if err != nil {
		return nil, err
	}
	return &Consumer{js: js, sub: sub, processor: processor, wait: wait, log: log}, nil
}

// Run consumes until the context is cancelled. Failed runs are redelivered
// by the queue; after MaxDeliveries they land on the dead letter subject.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		msgs, err := natsutil.Fetch[jobs.Envelope[jobs.ScrapeRun]](c.sub, fetchBatch, c.wait)
		if err != nil {
			c.log.Error("fetch failed", slog.Any("error", err))
			continue
		}
		for _, msg := range msgs {
			c.handle(msg)
		}
	}
}

func (c *Consumer) handle(msg natsutil.Msg[jobs.Envelope[jobs.ScrapeRun]]) {
	env := msg.Value
	ctx := msg.Context()

	start := time.Now()
	outcome, err := c.processor.ProcessShelter(ctx, env.Payload.ShelterID, Options{
		Limit:         env.Payload.Limit,
		ParentTraceID: env.TraceID,
	})
	observeScrapeRun(env.Payload.ShelterID, time.Since(start), outcome, err)

	if err == nil {
		if ackErr := msg.Ack(); ackErr != nil {
			c.log.Warn("ack failed", slog.Any("error", ackErr))
		}
		return
	}

	if msg.Deliveries() >= MaxDeliveries {
		dead := DeadLetter[jobs.ScrapeRun]{Job: env, Error: err.Error(), Deliveries: msg.Deliveries()}
		if pubErr := natsutil.Publish(ctx, c.js, jobs.SubjectScrapeDeadLetter, dead); pubErr != nil {
			c.log.Error("dead letter publish failed", slog.Any("error", pubErr))
		}
		// Acked so the queue stops redelivering; the DLQ copy owns it now.
		if ackErr := msg.Ack(); ackErr != nil {
			c.log.Warn("ack failed", slog.Any("error", ackErr))
		}
		c.log.Error("scrape job dead lettered",
			slog.String("shelter_id", env.Payload.ShelterID),
			slog.String("trace_id", env.TraceID),
			slog.Any("error", err))
		return
	}

	if nakErr := msg.Nak(); nakErr != nil {
		c.log.Warn("nak failed", slog.Any("error", nakErr))
	}
}

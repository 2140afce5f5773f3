// Package natsutil provides typed JSON publish/subscribe helpers over NATS
// JetStream with OpenTelemetry trace propagation. The delivery substrate is
// at-least-once: consumers must tolerate redelivery of any message.
package natsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
)

// headerCarrier adapts nats.Msg headers for the OTel TextMapCarrier.
type headerCarrier nats.Msg

func (c *headerCarrier) Get(key string) string {
	if c.Header == nil {
		return ""
	}
	return c.Header.Get(key)
}

func (c *headerCarrier) Set(key, val string) {
	if c.Header == nil {
		c.Header = make(nats.Header)
	}
	c.Header.Set(key, val)
}

func (c *headerCarrier) Keys() []string {
	if c.Header == nil {
		return nil
	}
	keys := make([]string, 0, len(c.Header))
	for k := range c.Header {
		keys = append(keys, k)
	}
	return keys
}

// Publish serializes v as JSON and publishes it to subject via JetStream.
// Trace context from ctx is injected into the message headers.
func Publish[T any](ctx context.Context, js nats.JetStreamContext, subject string, v T) error {
	msg, err := buildMsg(ctx, subject, v)
	if err != nil {
		return err
	}
	if _, err := js.PublishMsg(msg); err != nil {
		return fmt.Errorf("natsutil: publish %s: %w", subject, err)
	}
	return nil
}

// PublishBatch publishes every value to the same subject, accumulating
// per-item failures instead of stopping at the first. Returns the count of
// successfully published messages and the first error encountered.
func PublishBatch[T any](ctx context.Context, js nats.JetStreamContext, subject string, vs []T) (int, error) {
	published := 0
	var firstErr error
	for _, v := range vs {
		if err := Publish(ctx, js, subject, v); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		published++
	}
	return published, firstErr
}

func buildMsg[T any](ctx context.Context, subject string, v T) (*nats.Msg, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("natsutil: marshal for %s: %w", subject, err)
	}
	msg := &nats.Msg{Subject: subject, Data: data}
	otel.GetTextMapPropagator().Inject(ctx, (*headerCarrier)(msg))
	return msg, nil
}

// Msg pairs a decoded payload with its underlying JetStream message so the
// consumer controls acknowledgement explicitly.
type Msg[T any] struct {
	Value T
	raw   *nats.Msg
}

// Ack acknowledges the message: it will not be redelivered.
func (m Msg[T]) Ack() error { return m.raw.Ack() }

// Nak hands the message back to the queue for redelivery.
func (m Msg[T]) Nak() error { return m.raw.Nak() }

// Deliveries returns how many times JetStream has delivered this message,
// starting at 1. Falls back to 1 when metadata is unavailable.
func (m Msg[T]) Deliveries() int {
	md, err := m.raw.Metadata()
	if err != nil {
		return 1
	}
	return int(md.NumDelivered)
}

// Context returns a context carrying the trace extracted from the message
// headers.
func (m Msg[T]) Context() context.Context {
	return otel.GetTextMapPropagator().Extract(context.Background(), (*headerCarrier)(m.raw))
}

// EnsureStream creates the named stream over the given subjects if it does
// not already exist. Safe to call from every binary at startup.
func EnsureStream(js nats.JetStreamContext, name string, subjects ...string) error {
	_, err := js.StreamInfo(name)
	if err == nil {
		return nil
	}
	if err != nats.ErrStreamNotFound {
		return fmt.Errorf("natsutil: stream info %s: %w", name, err)
	}
	_, err = js.AddStream(&nats.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		Retention: nats.WorkQueuePolicy,
	})
	if err != nil {
		return fmt.Errorf("natsutil: add stream %s: %w", name, err)
	}
	return nil
}

// PullSubscribe creates a durable pull subscription on subject.
func PullSubscribe(js nats.JetStreamContext, subject, durable string) (*nats.Subscription, error) {
	sub, err := js.PullSubscribe(subject, durable, nats.AckExplicit())
	if err != nil {
		return nil, fmt.Errorf("natsutil: pull subscribe %s: %w", subject, err)
	}
	return sub, nil
}

// Fetch pulls up to batch messages and decodes each as T. Messages that fail
// to decode are terminated (they can never succeed) and skipped.
func Fetch[T any](sub *nats.Subscription, batch int, wait time.Duration) ([]Msg[T], error) {
	raw, err := sub.Fetch(batch, nats.MaxWait(wait))
	if err != nil {
		if err == nats.ErrTimeout {
			return nil, nil
		}
		return nil, fmt.Errorf("natsutil: fetch: %w", err)
	}

	out := make([]Msg[T], 0, len(raw))
	for _, m := range raw {
		var v T
		if err := json.Unmarshal(m.Data, &v); err != nil {
			_ = m.Term()
			continue
		}
		out = append(out, Msg[T]{Value: v, raw: m})
	}
	return out, nil
}

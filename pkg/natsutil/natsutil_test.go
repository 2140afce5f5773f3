package natsutil

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestHeaderCarrier_SetGet(t *testing.T) {
	msg := &nats.Msg{}
	c := (*headerCarrier)(msg)

	if got := c.Get("traceparent"); got != "" {
		t.Fatalf("expected empty value on fresh carrier, got %q", got)
	}

	c.Set("traceparent", "00-abc-def-01")
	if got := c.Get("traceparent"); got != "00-abc-def-01" {
		t.Fatalf("round trip failed: %q", got)
	}

	// nats.Header stores keys as given, without MIME canonicalization.
	keys := c.Keys()
	if len(keys) != 1 || keys[0] != "traceparent" {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestBuildMsg_SerializesJSON(t *testing.T) {
	type payload struct {
		ID string `json:"id"`
	}
	msg, err := buildMsg(context.Background(), "scrape.run", payload{ID: "napaluchu"})
	if err != nil {
		t.Fatalf("buildMsg: %v", err)
	}
	if msg.Subject != "scrape.run" {
		t.Errorf("subject mismatch: %s", msg.Subject)
	}
	var got payload
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != "napaluchu" {
		t.Errorf("payload mismatch: %+v", got)
	}
}

func TestBuildMsg_UnmarshalableValue(t *testing.T) {
	if _, err := buildMsg(context.Background(), "s", func() {}); err == nil {
		t.Fatal("expected marshal error for func value")
	}
}

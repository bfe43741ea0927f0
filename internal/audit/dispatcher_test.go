package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) { <-s.gate }

func TestDisabledDispatcherIsNil(t *testing.T) {
	d := NewDispatcher(Config{Enabled: false}, NoOpSink{})
	if d != nil {
		t.Fatal("expected nil dispatcher when disabled")
	}
	d.Emit(context.Background(), Event{EventType: "x"})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestDispatcherDeliversAndDrainsOnClose(t *testing.T) {
	sink := NewChannelSink(8)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 8}, sink)
	for i := 0; i < 3; i++ {
		d.Emit(context.Background(), Event{EventType: "login_success"})
	}
	d.Close()

	for i := 0; i < 3; i++ {
		select {
		case ev := <-sink.Events():
			if ev.EventType != "login_success" {
				t.Fatalf("unexpected event %+v", ev)
			}
		case <-time.After(time.Second):
			t.Fatalf("event %d not delivered", i)
		}
	}
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	var onDrop atomic.Uint64
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1, DropIfFull: true, OnDrop: func(Event) { onDrop.Add(1) }}, sink)

	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{EventType: "refresh_failure"})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events with a blocked sink")
	}
	if onDrop.Load() != d.Dropped() {
		t.Fatalf("OnDrop calls = %d, dropped = %d", onDrop.Load(), d.Dropped())
	}
	close(sink.gate)
	d.Close()
}

func TestDispatcherRedactsSensitiveMetadata(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	md := map[string]string{
		"refresh_token":     "eyJhbGciOi",
		"confirmationCode":  "482913",
		"Password":          "Abc123!@",
		"registered_by":     "google",
		"sent_email":        "true",
		"authorization-hdr": "kept",
	}
	d.Emit(context.Background(), Event{EventType: "sign_up_success", Metadata: md})
	d.Close()

	ev := <-sink.Events()
	for _, k := range []string{"refresh_token", "confirmationCode", "Password"} {
		if ev.Metadata[k] != Redacted {
			t.Fatalf("%s = %q, want redacted", k, ev.Metadata[k])
		}
	}
	for _, k := range []string{"registered_by", "sent_email", "authorization-hdr"} {
		if ev.Metadata[k] != md[k] {
			t.Fatalf("%s = %q, want %q", k, ev.Metadata[k], md[k])
		}
	}
	if md["refresh_token"] != "eyJhbGciOi" {
		t.Fatal("caller metadata was modified")
	}
}

func TestDispatcherStampsMissingTimestamp(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("x", 3600))
	sink := NewChannelSink(2)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 2, Now: func() time.Time { return at }}, sink)
	set := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Emit(context.Background(), Event{EventType: "a"})
	d.Emit(context.Background(), Event{EventType: "b", Timestamp: set})
	d.Close()

	if ev := <-sink.Events(); !ev.Timestamp.Equal(at) || ev.Timestamp.Location() != time.UTC {
		t.Fatalf("stamped %v", ev.Timestamp)
	}
	if ev := <-sink.Events(); !ev.Timestamp.Equal(set) {
		t.Fatalf("overwrote timestamp %v", ev.Timestamp)
	}
}

type panicSink struct{ calls atomic.Int32 }

func (s *panicSink) Emit(context.Context, Event) {
	if s.calls.Add(1) == 1 {
		panic("sink failure")
	}
}

func TestDispatcherSurvivesPanickingSink(t *testing.T) {
	var dropped []string
	sink := &panicSink{}
	d := NewDispatcher(Config{Enabled: true, BufferSize: 4, OnDrop: func(ev Event) {
		dropped = append(dropped, ev.EventType)
	}}, sink)
	d.Emit(context.Background(), Event{EventType: "login_failure"})
	d.Emit(context.Background(), Event{EventType: "login_success"})
	d.Close()

	if sink.calls.Load() != 2 {
		t.Fatalf("sink calls = %d", sink.calls.Load())
	}
	if d.Dropped() != 1 || len(dropped) != 1 || dropped[0] != "login_failure" {
		t.Fatalf("dropped = %d %v", d.Dropped(), dropped)
	}
}

func TestDispatcherIgnoresEmitAfterClose(t *testing.T) {
	sink := NewChannelSink(1)
	d := NewDispatcher(Config{Enabled: true, BufferSize: 1}, sink)
	d.Close()
	d.Close()
	d.Emit(context.Background(), Event{EventType: "late"})

	select {
	case ev := <-sink.Events():
		t.Fatalf("delivered after close: %+v", ev)
	default:
	}
}

func TestJSONWriterSink(t *testing.T) {
	var buf bytes.Buffer
	NewJSONWriterSink(&buf).Emit(context.Background(), Event{EventType: "sign_up_success", UserID: "u1", Success: true})

	var got map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid json line %q: %v", buf.String(), err)
	}
	if got["event_type"] != "sign_up_success" || got["user_id"] != "u1" {
		t.Fatalf("unexpected payload: %v", got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestJSONWriterSinkCountsFailures(t *testing.T) {
	sink := NewJSONWriterSink(failingWriter{})
	sink.Emit(context.Background(), Event{EventType: "login_success"})
	sink.Emit(context.Background(), Event{EventType: "login_failure"})
	if sink.Failed() != 2 {
		t.Fatalf("failed = %d", sink.Failed())
	}

	NewJSONWriterSink(nil).Emit(context.Background(), Event{EventType: "ignored"})
}

func TestZapSink(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	NewZapSink(zap.New(core)).Emit(context.Background(), Event{
		EventType: "social_sign_in_failure",
		Provider:  "google",
		Error:     "not_authorized",
		Metadata:  map[string]string{"reason": "rejected"},
	})

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if entries[0].Message != "social_sign_in_failure" || ctx["provider"] != "google" || ctx["meta.reason"] != "rejected" {
		t.Fatalf("unexpected entry: %s %v", entries[0].Message, ctx)
	}
}

package goAccount

import (
	"io"

	internalaudit "github.com/MrEthical07/goAccount/internal/audit"
	"go.uber.org/zap"
)

// AuditEvent is one account audit record.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the engine's dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink drops every event.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink buffers events in a channel; tests read them back with Events.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = internalaudit.JSONWriterSink

// ZapSink logs each event at info level on an "audit" child logger.
type ZapSink = internalaudit.ZapSink

func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

func NewZapAuditSink(logger *zap.Logger) *ZapSink {
	return internalaudit.NewZapSink(logger)
}

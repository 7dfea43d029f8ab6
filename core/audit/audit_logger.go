package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// AuditEvent represents one recorded operation or authorization decision.
type AuditEvent struct {
	Timestamp time.Time
	EventType string // e.g. "PENALTY_APPLIED", "Authorization"
	EntityID  string // assessment id or token subject
	Result    string // "success" or "failure"
	Reason    string
	Metadata  map[string]string
}

// AuditLogger is the interface for logging audit events.
type AuditLogger interface {
	LogEvent(event AuditEvent)
}

// SlogAuditLogger writes audit events as structured log records.
type SlogAuditLogger struct {
	Log *slog.Logger
}

// NewSlogAuditLogger returns an AuditLogger backed by log, or slog.Default() when nil.
func NewSlogAuditLogger(log *slog.Logger) AuditLogger {
	if log == nil {
		log = slog.Default()
	}
	return &SlogAuditLogger{Log: log.With("component", "audit")}
}

func (l *SlogAuditLogger) LogEvent(event AuditEvent) {
	level := slog.LevelInfo
	if event.Result == ResultFailure {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.Time("at", event.Timestamp),
		slog.String("event", event.EventType),
		slog.String("entity", event.EntityID),
		slog.String("result", event.Result),
	}
	if event.Reason != "" {
		attrs = append(attrs, slog.String("reason", event.Reason))
	}
	for k, v := range event.Metadata {
		attrs = append(attrs, slog.String(k, v))
	}
	l.Log.LogAttrs(context.Background(), level, "Audit event", attrs...)
}

const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// MemoryAuditLogger keeps events in memory.
type MemoryAuditLogger struct {
	mu     sync.Mutex
	events []AuditEvent
}

func (l *MemoryAuditLogger) LogEvent(event AuditEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

// Events returns a copy of everything logged so far.
func (l *MemoryAuditLogger) Events() []AuditEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AuditEvent, len(l.events))
	copy(out, l.events)
	return out
}

// Multi fans an event out to several loggers.
type Multi []AuditLogger

func (m Multi) LogEvent(event AuditEvent) {
	for _, l := range m {
		l.LogEvent(event)
	}
}

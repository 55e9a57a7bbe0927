// Package audit provides structured logging for policy decisions and grants.
// Log entries follow a key=value format suitable for parsing and analysis.
package audit

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// EventType represents the type of policy event.
type EventType string

// Event types for request decisions.
const (
	EventAutoApprove EventType = "AUTO_APPROVE"
	EventAsk         EventType = "ASK"
	EventDeny        EventType = "DENY"
	EventApprove     EventType = "APPROVE"
	EventReject      EventType = "REJECT"
)

// Event types for changes to a session's policy state.
const (
	EventGrantAll  EventType = "GRANT_ALL"
	EventGrantHost EventType = "GRANT_HOST"
	EventNeverAsk  EventType = "NEVER_ASK"
	EventAlwaysAsk EventType = "ALWAYS_ASK"
	EventMigrate   EventType = "MIGRATE"
	EventUnpair    EventType = "UNPAIR"
)

// Event represents a policy audit log entry.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time

	// Type is the event type (AUTO_APPROVE, GRANT_ALL, etc.)
	Type EventType

	// Session is the session id.
	Session string

	// Request is the request id (for decision events).
	Request string

	// Kind is the request kind (for decision events).
	Kind string

	// Summary is a short description of the request (for decision events).
	Summary string

	// Category is the blanket allow category (GRANT_ALL, ALWAYS_ASK).
	Category string

	// Host is the user@host (GRANT_HOST, ALWAYS_ASK, decision events for ssh).
	Host string

	// Until is the grant expiry (GRANT_ALL, GRANT_HOST).
	Until time.Time

	// Reason explains a DENY or what a MIGRATE changed.
	Reason string
}

// Format returns the log entry as a formatted string.
// Format: 2024-01-15T14:32:05Z POLICY ASK session=4b1f request=r1 kind=ssh summary="SSH login root@db"
// Format: 2024-01-15T14:32:05Z POLICY GRANT_ALL session=4b1f category="ssh" until=2024-01-15T17:32:05Z
func (e *Event) Format() string {
	var b strings.Builder

	b.WriteString(e.Timestamp.UTC().Format(time.RFC3339))
	b.WriteString(" POLICY ")
	b.WriteString(string(e.Type))

	b.WriteString(" session=")
	b.WriteString(e.Session)

	if e.isDecisionEvent() {
		b.WriteString(" request=")
		b.WriteString(e.Request)
		b.WriteString(" kind=")
		b.WriteString(e.Kind)
		writeOptionalField(&b, "summary", e.Summary)
	}

	e.formatTypeSpecificFields(&b)

	return b.String()
}

// isDecisionEvent returns true if the event is about one request.
func (e *Event) isDecisionEvent() bool {
	switch e.Type {
	case EventAutoApprove, EventAsk, EventDeny, EventApprove, EventReject:
		return true
	default:
		return false
	}
}

// formatTypeSpecificFields appends type-specific key=value pairs to the builder.
func (e *Event) formatTypeSpecificFields(b *strings.Builder) {
	switch e.Type {
	case EventAutoApprove, EventAsk, EventApprove, EventReject:
		writeOptionalField(b, "host", e.Host)
	case EventDeny:
		writeOptionalField(b, "host", e.Host)
		writeOptionalField(b, "reason", e.Reason)
	case EventGrantAll:
		writeOptionalField(b, "category", e.Category)
		writeTime(b, "until", e.Until)
	case EventGrantHost:
		writeOptionalField(b, "host", e.Host)
		writeTime(b, "until", e.Until)
	case EventAlwaysAsk:
		writeOptionalField(b, "category", e.Category)
		writeOptionalField(b, "host", e.Host)
	case EventMigrate:
		writeOptionalField(b, "reason", e.Reason)
	}
}

// writeOptionalField appends " key=quoted_value" to the builder if value is non-empty.
func writeOptionalField(b *strings.Builder, key, value string) {
	if value == "" {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(quoteValue(value))
}

func writeTime(b *strings.Builder, key string, t time.Time) {
	if t.IsZero() {
		return
	}
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString("=")
	b.WriteString(t.UTC().Format(time.RFC3339))
}

// quoteValue returns a quoted string value.
// Values are always quoted for consistency and to handle spaces/special chars.
func quoteValue(s string) string {
	return fmt.Sprintf("%q", s)
}

// Logger writes audit events to an io.Writer.
type Logger struct {
	mu  sync.Mutex
	w   io.Writer
	now func() time.Time
}

// NewLogger creates a new audit logger that writes to the given writer.
func NewLogger(w io.Writer) *Logger {
	return &Logger{w: w, now: time.Now}
}

// SetClock replaces the timestamp source.
func (l *Logger) SetClock(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
}

// Log writes an event to the audit log. A zero Timestamp is filled in
// from the logger's clock.
func (l *Logger) Log(e *Event) error {
	if l == nil || l.w == nil {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Timestamp.IsZero() {
		e.Timestamp = l.now()
	}
	line := e.Format() + "\n"
	_, err := l.w.Write([]byte(line))
	if err != nil {
		return fmt.Errorf("write audit event: %w", err)
	}
	return nil
}

// Decision describes one request for the decision helpers.
type Decision struct {
	Session string
	Request string
	Kind    string
	Summary string
	Host    string
}

func (l *Logger) logDecision(t EventType, d Decision, reason string) error {
	return l.Log(&Event{
		Type:    t,
		Session: d.Session,
		Request: d.Request,
		Kind:    d.Kind,
		Summary: d.Summary,
		Host:    d.Host,
		Reason:  reason,
	})
}

// LogAutoApprove logs a POLICY AUTO_APPROVE event.
func (l *Logger) LogAutoApprove(d Decision) error {
	return l.logDecision(EventAutoApprove, d, "")
}

// LogAsk logs a POLICY ASK event.
func (l *Logger) LogAsk(d Decision) error {
	return l.logDecision(EventAsk, d, "")
}

// LogDeny logs a POLICY DENY event.
func (l *Logger) LogDeny(d Decision, reason string) error {
	return l.logDecision(EventDeny, d, reason)
}

// LogApprove logs a POLICY APPROVE event.
func (l *Logger) LogApprove(d Decision) error {
	return l.logDecision(EventApprove, d, "")
}

// LogReject logs a POLICY REJECT event.
func (l *Logger) LogReject(d Decision) error {
	return l.logDecision(EventReject, d, "")
}

// LogGrantAll logs a POLICY GRANT_ALL event.
func (l *Logger) LogGrantAll(session, category string, until time.Time) error {
	return l.Log(&Event{Type: EventGrantAll, Session: session, Category: category, Until: until})
}

// LogGrantHost logs a POLICY GRANT_HOST event.
func (l *Logger) LogGrantHost(session, host string, until time.Time) error {
	return l.Log(&Event{Type: EventGrantHost, Session: session, Host: host, Until: until})
}

// LogNeverAsk logs a POLICY NEVER_ASK event.
func (l *Logger) LogNeverAsk(session string) error {
	return l.Log(&Event{Type: EventNeverAsk, Session: session})
}

// LogAlwaysAsk logs a POLICY ALWAYS_ASK event. An empty category and
// host means every grant was revoked.
func (l *Logger) LogAlwaysAsk(session, category, host string) error {
	return l.Log(&Event{Type: EventAlwaysAsk, Session: session, Category: category, Host: host})
}

// LogMigrate logs a POLICY MIGRATE event.
func (l *Logger) LogMigrate(session, reason string) error {
	return l.Log(&Event{Type: EventMigrate, Session: session, Reason: reason})
}

// LogUnpair logs a POLICY UNPAIR event.
func (l *Logger) LogUnpair(session string) error {
	return l.Log(&Event{Type: EventUnpair, Session: session})
}

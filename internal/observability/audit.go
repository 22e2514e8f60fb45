package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditEventType categorizes audit events.
type AuditEventType string

const (
	AuditEventMemberRegister   AuditEventType = "member.register"
	AuditEventMemberUpdate     AuditEventType = "member.update"
	AuditEventConnectionCreate AuditEventType = "connection.create"
	AuditEventSnapshotLoad     AuditEventType = "snapshot.load"
	AuditEventSnapshotSave     AuditEventType = "snapshot.save"
	AuditEventRosterImport     AuditEventType = "roster.import"
	AuditEventRosterExport     AuditEventType = "roster.export"
	AuditEventExportWrite      AuditEventType = "export.write"
)

// AuditEvent represents a single audit log entry.
type AuditEvent struct {
	Timestamp   time.Time              `json:"timestamp"`
	EventType   AuditEventType         `json:"event_type"`
	SessionID   string                 `json:"session_id"`
	Member      string                 `json:"member,omitempty"`
	Other       string                 `json:"other,omitempty"`
	Success     bool                   `json:"success"`
	Duration    time.Duration          `json:"duration_ms,omitempty"`
	Message     string                 `json:"message,omitempty"`
	Details     map[string]interface{} `json:"details,omitempty"`
	ErrorDetail string                 `json:"error_detail,omitempty"`
}

// AuditLogger writes audit events as JSON lines.
type AuditLogger struct {
	mu        sync.Mutex
	writer    io.Writer
	sessionID string
	enabled   bool
}

// AuditConfig configures the audit logger.
type AuditConfig struct {
	Enabled    bool
	OutputPath string // File path or "stdout"/"stderr"
	SessionID  string
}

// DefaultAuditConfig returns default audit configuration.
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		Enabled:    true,
		OutputPath: "stderr",
	}
}

// NewAuditLogger creates a new audit logger. Files are opened for append.
func NewAuditLogger(config *AuditConfig) (*AuditLogger, error) {
	if config == nil {
		config = DefaultAuditConfig()
	}
	if !config.Enabled {
		return &AuditLogger{enabled: false}, nil
	}

	var writer io.Writer
	switch config.OutputPath {
	case "stderr", "":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	default:
		f, err := os.OpenFile(config.OutputPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
		writer = f
	}

	sessionID := config.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	return &AuditLogger{
		writer:    writer,
		sessionID: sessionID,
		enabled:   true,
	}, nil
}

// NewAuditLoggerTo creates an enabled audit logger writing to w.
func NewAuditLoggerTo(w io.Writer, sessionID string) *AuditLogger {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	return &AuditLogger{writer: w, sessionID: sessionID, enabled: true}
}

// SessionID identifies the process run in every event.
func (l *AuditLogger) SessionID() string { return l.sessionID }

// Log writes an audit event.
func (l *AuditLogger) Log(event *AuditEvent) error {
	if !l.enabled {
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Fill in defaults
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.SessionID == "" {
		event.SessionID = l.sessionID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}

	_, err = fmt.Fprintf(l.writer, "%s\n", data)
	return err
}

func outcome(event *AuditEvent, err error) *AuditEvent {
	event.Success = err == nil
	if err != nil {
		event.ErrorDetail = err.Error()
	}
	return event
}

// LogRegister logs a member registration attempt.
func (l *AuditLogger) LogRegister(ctx context.Context, id string, attrs map[string]string, err error) {
	details := make(map[string]interface{}, len(attrs))
	for k, v := range attrs {
		details[k] = v
	}
	l.Log(outcome(&AuditEvent{
		EventType: AuditEventMemberRegister,
		Member:    id,
		Message:   fmt.Sprintf("Register %s", id),
		Details:   details,
	}, err))
}

// LogAttributeUpdate logs an attribute change on an existing member.
func (l *AuditLogger) LogAttributeUpdate(ctx context.Context, id, key, value string, err error) {
	l.Log(outcome(&AuditEvent{
		EventType: AuditEventMemberUpdate,
		Member:    id,
		Message:   fmt.Sprintf("Set %s of %s", key, id),
		Details: map[string]interface{}{
			"key":   key,
			"value": value,
		},
	}, err))
}

// LogConnect logs a connection attempt.
func (l *AuditLogger) LogConnect(ctx context.Context, a, b string, err error) {
	l.Log(outcome(&AuditEvent{
		EventType: AuditEventConnectionCreate,
		Member:    a,
		Other:     b,
		Message:   fmt.Sprintf("Connect %s and %s", a, b),
	}, err))
}

// LogSnapshot logs a repository load or save.
func (l *AuditLogger) LogSnapshot(ctx context.Context, eventType AuditEventType, backend string, members, connections int, duration time.Duration, err error) {
	l.Log(outcome(&AuditEvent{
		EventType: eventType,
		Duration:  duration,
		Message:   fmt.Sprintf("Snapshot %s: %d members, %d connections", backend, members, connections),
		Details: map[string]interface{}{
			"backend":     backend,
			"members":     members,
			"connections": connections,
		},
	}, err))
}

// LogRoster logs a roster import or export.
func (l *AuditLogger) LogRoster(ctx context.Context, eventType AuditEventType, path string, records, failed int, err error) {
	l.Log(outcome(&AuditEvent{
		EventType: eventType,
		Message:   fmt.Sprintf("Roster %s: %d records", path, records),
		Details: map[string]interface{}{
			"path":    path,
			"records": records,
			"failed":  failed,
		},
	}, err))
}

// LogExport logs files written by an export.
func (l *AuditLogger) LogExport(ctx context.Context, format string, paths []string, err error) {
	l.Log(outcome(&AuditEvent{
		EventType: AuditEventExportWrite,
		Message:   fmt.Sprintf("Export %s: %d files", format, len(paths)),
		Details: map[string]interface{}{
			"format": format,
			"paths":  paths,
		},
	}, err))
}

// Close closes the audit logger (if using a file).
func (l *AuditLogger) Close() error {
	if closer, ok := l.writer.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}
	return nil
}

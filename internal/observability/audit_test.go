package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func decodeEvents(t *testing.T, buf *bytes.Buffer) []AuditEvent {
	t.Helper()
	var events []AuditEvent
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e AuditEvent
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

// ==================== AuditConfig Tests ====================

func TestDefaultAuditConfig(t *testing.T) {
	cfg := DefaultAuditConfig()
	if !cfg.Enabled {
		t.Fatal("expected enabled by default")
	}
	if cfg.OutputPath != "stderr" {
		t.Fatalf("expected stderr, got %s", cfg.OutputPath)
	}
}

// ==================== AuditLogger Tests ====================

func TestAuditLogger_New_File(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")

	l, err := NewAuditLogger(&AuditConfig{
		Enabled:    true,
		OutputPath: logPath,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l.LogConnect(context.Background(), "alice", "bob", nil)
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"event_type":"connection.create"`) {
		t.Errorf("expected connection event in file, got %s", data)
	}
}

func TestAuditLogger_New_FileAppends(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "audit.log")
	for i := 0; i < 2; i++ {
		l, err := NewAuditLogger(&AuditConfig{Enabled: true, OutputPath: logPath})
		if err != nil {
			t.Fatal(err)
		}
		l.LogConnect(context.Background(), "a", "b", nil)
		l.Close()
	}
	data, _ := os.ReadFile(logPath)
	if n := strings.Count(string(data), "\n"); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}

func TestAuditLogger_New_BadPath(t *testing.T) {
	_, err := NewAuditLogger(&AuditConfig{
		Enabled:    true,
		OutputPath: filepath.Join(t.TempDir(), "missing", "dir", "audit.log"),
	})
	if err == nil {
		t.Fatal("expected error for unwritable path")
	}
}

func TestAuditLogger_New_NilConfig(t *testing.T) {
	l, err := NewAuditLogger(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if l.SessionID() == "" {
		t.Fatal("expected generated session id")
	}
}

func TestAuditLogger_Disabled(t *testing.T) {
	l, err := NewAuditLogger(&AuditConfig{Enabled: false})
	if err != nil {
		t.Fatal(err)
	}
	if err := l.Log(&AuditEvent{EventType: AuditEventSnapshotSave}); err != nil {
		t.Fatalf("disabled logger should not error: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestAuditLogger_FillsDefaults(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLoggerTo(&buf, "session-1")

	if err := l.Log(&AuditEvent{EventType: AuditEventSnapshotLoad}); err != nil {
		t.Fatal(err)
	}

	events := decodeEvents(t, &buf)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].SessionID != "session-1" {
		t.Errorf("expected session-1, got %s", events[0].SessionID)
	}
	if events[0].Timestamp.IsZero() {
		t.Error("timestamp should be filled in")
	}
}

func TestAuditLogger_MutationEvents(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLoggerTo(&buf, "")
	ctx := context.Background()

	l.LogRegister(ctx, "alice", map[string]string{"department": "CS"}, nil)
	l.LogRegister(ctx, "alice", nil, errors.New("alice is already registered"))
	l.LogAttributeUpdate(ctx, "alice", "interest", "AI", nil)
	l.LogConnect(ctx, "alice", "alice", errors.New("alice cannot connect with themselves"))

	events := decodeEvents(t, &buf)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	tests := []struct {
		eventType AuditEventType
		success   bool
	}{
		{AuditEventMemberRegister, true},
		{AuditEventMemberRegister, false},
		{AuditEventMemberUpdate, true},
		{AuditEventConnectionCreate, false},
	}
	for i, tt := range tests {
		if events[i].EventType != tt.eventType || events[i].Success != tt.success {
			t.Errorf("event %d: got %s/%v, want %s/%v", i, events[i].EventType, events[i].Success, tt.eventType, tt.success)
		}
	}
	if events[0].Details["department"] != "CS" {
		t.Errorf("register details lost: %v", events[0].Details)
	}
	if events[1].ErrorDetail != "alice is already registered" {
		t.Errorf("unexpected error detail %q", events[1].ErrorDetail)
	}
	if events[3].Other != "alice" {
		t.Errorf("connect should record the other member, got %q", events[3].Other)
	}
}

func TestAuditLogger_SnapshotRosterExport(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLoggerTo(&buf, "")
	ctx := context.Background()

	l.LogSnapshot(ctx, AuditEventSnapshotSave, "sqlite", 4, 3, 5*time.Millisecond, nil)
	l.LogRoster(ctx, AuditEventRosterImport, "users.txt", 10, 2, nil)
	l.LogExport(ctx, "partition", []string{"CS_graph.dot", "EE_graph.dot"}, nil)

	events := decodeEvents(t, &buf)
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Details["members"] != float64(4) {
		t.Errorf("snapshot members: %v", events[0].Details["members"])
	}
	if events[1].Details["failed"] != float64(2) {
		t.Errorf("roster failures: %v", events[1].Details["failed"])
	}
	if events[2].EventType != AuditEventExportWrite {
		t.Errorf("unexpected event type %s", events[2].EventType)
	}
	for _, e := range events {
		if e.SessionID != l.SessionID() {
			t.Errorf("event %s has session %s", e.EventType, e.SessionID)
		}
	}
}

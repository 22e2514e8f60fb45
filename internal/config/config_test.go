package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func hasWarning(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}

func TestValidate_Empty(t *testing.T) {
	cfg := &Config{}
	warnings := cfg.Validate()
	if len(warnings) != 0 {
		t.Errorf("empty config should have no warnings, got %v", warnings)
	}
}

func TestValidate_UnknownBackend(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: "mongo"}}
	if !hasWarning(cfg.Validate(), "mongo") {
		t.Error("expected warning about unknown backend")
	}
}

func TestValidate_Neo4jWithoutURI(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Backend: BackendNeo4j}}
	if !hasWarning(cfg.Validate(), "neo4j.uri") {
		t.Error("expected warning about missing neo4j uri")
	}
}

func TestValidate_RosterFormat(t *testing.T) {
	tests := []struct {
		format string
		want   bool
	}{
		{"", false},
		{"minimal", false},
		{"full", false},
		{"csv", true},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			cfg := &Config{Roster: RosterConfig{Format: tt.format}}
			if got := hasWarning(cfg.Validate(), "roster format"); got != tt.want {
				t.Errorf("format=%q: hasWarn=%v, want=%v", tt.format, got, tt.want)
			}
		})
	}
}

func TestValidate_NegativeLimits(t *testing.T) {
	cfg := &Config{Limits: LimitsConfig{MaxMembers: -1, MaxConnectionsPerMember: -5}}
	warnings := cfg.Validate()
	if !hasWarning(warnings, "max_members") {
		t.Error("expected warning about negative max_members")
	}
	if !hasWarning(warnings, "max_connections_per_member") {
		t.Error("expected warning about negative max_connections_per_member")
	}
}

func TestValidate_SampleRate(t *testing.T) {
	tests := []struct {
		name string
		rate float64
		want bool
	}{
		{"zero", 0, false},
		{"half", 0.5, false},
		{"one", 1, false},
		{"negative", -0.1, true},
		{"too_high", 1.5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Tracing: TracingConfig{SampleRate: tt.rate}}
			if got := hasWarning(cfg.Validate(), "sample_rate"); got != tt.want {
				t.Errorf("rate=%.1f: hasWarn=%v, want=%v", tt.rate, got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != BackendFile {
		t.Errorf("expected default backend %q, got %q", BackendFile, cfg.Storage.Backend)
	}
	if cfg.Storage.File != "socialgraph.json" {
		t.Errorf("unexpected default storage file %q", cfg.Storage.File)
	}
	if cfg.Export.GraphName != "NetworkGraph" {
		t.Errorf("unexpected default graph name %q", cfg.Export.GraphName)
	}
	if cfg.Tracing.SampleRate != 1.0 {
		t.Errorf("expected sample rate 1.0, got %f", cfg.Tracing.SampleRate)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "socialgraph.yaml")
	content := `
storage:
  backend: sqlite
  sqlite_path: /tmp/graph.db
limits:
  max_members: 100
roster:
  path: users.txt
  format: full
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SOCIALGRAPH_LIMITS_MAX_CONNECTIONS_PER_MEMBER", "100")
	t.Setenv("SOCIALGRAPH_STORAGE_BACKEND", "badger")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.Backend != BackendBadger {
		t.Errorf("env should override backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.SQLitePath != "/tmp/graph.db" {
		t.Errorf("unexpected sqlite path %q", cfg.Storage.SQLitePath)
	}
	if cfg.Limits.MaxMembers != 100 {
		t.Errorf("expected max_members 100, got %d", cfg.Limits.MaxMembers)
	}
	if cfg.Limits.MaxConnectionsPerMember != 100 {
		t.Errorf("expected max_connections_per_member 100 from env, got %d", cfg.Limits.MaxConnectionsPerMember)
	}
	if cfg.Roster.Format != "full" {
		t.Errorf("expected roster format full, got %q", cfg.Roster.Format)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("SOCIALGRAPH_METRICS_TEXTFILE=metrics.prom\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set
	t.Setenv("SOCIALGRAPH_METRICS_TEXTFILE", "")
	os.Unsetenv("SOCIALGRAPH_METRICS_TEXTFILE")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Metrics.Textfile != "metrics.prom" {
		t.Errorf("expected textfile from .env, got %q", cfg.Metrics.Textfile)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Chdir(t.TempDir())

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("storage: [unclosed"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config")
	}
}

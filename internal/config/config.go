package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
	BackendNeo4j  = "neo4j"
	BackendRoster = "roster"
	BackendMemory = "memory"
)

// Config holds all application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Roster  RosterConfig  `mapstructure:"roster"`
	Limits  LimitsConfig  `mapstructure:"limits"`
	Export  ExportConfig  `mapstructure:"export"`
	Log     LogConfig     `mapstructure:"log"`
	Tracing TracingConfig `mapstructure:"tracing"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Audit   AuditConfig   `mapstructure:"audit"`
}

type StorageConfig struct {
	Backend    string      `mapstructure:"backend"`
	File       string      `mapstructure:"file"`
	SQLitePath string      `mapstructure:"sqlite_path"`
	BadgerPath string      `mapstructure:"badger_path"`
	Neo4j      Neo4jConfig `mapstructure:"neo4j"`
}

type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type RosterConfig struct {
	Path   string `mapstructure:"path"`
	Format string `mapstructure:"format"` // minimal or full
}

type LimitsConfig struct {
	MaxMembers              int `mapstructure:"max_members"`
	MaxConnectionsPerMember int `mapstructure:"max_connections_per_member"`
}

type ExportConfig struct {
	OutputDir string `mapstructure:"output_dir"`
	GraphName string `mapstructure:"graph_name"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"` // production or development
	Level string `mapstructure:"level"`
}

type TracingConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	ServiceName  string  `mapstructure:"service_name"`
	Insecure     bool    `mapstructure:"insecure"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// AuditConfig enables the mutation journal. An empty path disables it;
// "stdout" and "stderr" are accepted.
type AuditConfig struct {
	Path string `mapstructure:"path"`
}

var validBackends = map[string]bool{
	BackendFile:   true,
	BackendSQLite: true,
	BackendBadger: true,
	BackendNeo4j:  true,
	BackendRoster: true,
	BackendMemory: true,
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Storage.Backend != "" && !validBackends[c.Storage.Backend] {
		warnings = append(warnings, fmt.Sprintf("storage backend '%s' is unknown, falling back to '%s'", c.Storage.Backend, BackendFile))
	}

	if c.Storage.Backend == BackendNeo4j && c.Storage.Neo4j.URI == "" {
		warnings = append(warnings, "storage backend 'neo4j' is configured but neo4j.uri is empty")
	}

	if c.Storage.Backend == BackendRoster && c.Roster.Path == "" {
		warnings = append(warnings, "storage backend 'roster' is configured but roster.path is empty")
	}

	if c.Roster.Format != "" && c.Roster.Format != "minimal" && c.Roster.Format != "full" {
		warnings = append(warnings, fmt.Sprintf("roster format '%s' is unknown, expected 'minimal' or 'full'", c.Roster.Format))
	}

	if c.Limits.MaxMembers < 0 {
		warnings = append(warnings, fmt.Sprintf("limits max_members %d is negative, treated as unlimited", c.Limits.MaxMembers))
	}
	if c.Limits.MaxConnectionsPerMember < 0 {
		warnings = append(warnings, fmt.Sprintf("limits max_connections_per_member %d is negative, treated as unlimited", c.Limits.MaxConnectionsPerMember))
	}

	// Sample rate range [0, 1]
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside range [0.0, 1.0]", c.Tracing.SampleRate))
	}

	return warnings
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", BackendFile)
	v.SetDefault("storage.file", "socialgraph.json")
	v.SetDefault("storage.sqlite_path", "socialgraph.db")
	v.SetDefault("storage.badger_path", "socialgraph.badger")
	v.SetDefault("storage.neo4j.username", "neo4j")
	v.SetDefault("roster.path", "users.txt")
	v.SetDefault("roster.format", "minimal")
	v.SetDefault("export.output_dir", ".")
	v.SetDefault("export.graph_name", "NetworkGraph")
	v.SetDefault("log.env", "development")
	v.SetDefault("log.level", "warn")
	v.SetDefault("tracing.sample_rate", 1.0)
	v.SetDefault("tracing.service_name", "socialgraph")
}

// bindEnvKeys lets AutomaticEnv override keys that have no default and are
// absent from the config file.
func bindEnvKeys(v *viper.Viper) {
	for _, key := range []string{
		"storage.neo4j.uri",
		"storage.neo4j.password",
		"limits.max_members",
		"limits.max_connections_per_member",
		"tracing.otlp_endpoint",
		"tracing.insecure",
		"metrics.textfile",
		"audit.path",
	} {
		_ = v.BindEnv(key)
	}
}

// Load reads configuration from a .env file, the config file and the
// environment, in increasing order of precedence. A missing config file or
// .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("SOCIALGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	// Validate configuration and print warnings
	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

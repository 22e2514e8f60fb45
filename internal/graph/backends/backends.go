// Package backends selects and opens the configured graph.Repository.
package backends

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/efebarandurmaz/socialgraph/internal/config"
	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/graph/badger"
	"github.com/efebarandurmaz/socialgraph/internal/graph/file"
	"github.com/efebarandurmaz/socialgraph/internal/graph/memory"
	"github.com/efebarandurmaz/socialgraph/internal/graph/neo4j"
	"github.com/efebarandurmaz/socialgraph/internal/graph/rosterstore"
	"github.com/efebarandurmaz/socialgraph/internal/graph/sqlite"
	"github.com/efebarandurmaz/socialgraph/internal/roster"
)

// Open returns the repository named by cfg.Backend. An empty or unknown
// backend falls back to the JSON file store.
func Open(ctx context.Context, cfg config.StorageConfig, rosterCfg config.RosterConfig, logger *zap.Logger) (graph.Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	switch cfg.Backend {
	case config.BackendSQLite:
		logger.Debug("opening sqlite storage", zap.String("path", cfg.SQLitePath))
		return sqlite.NewSQLiteRepo(cfg.SQLitePath)

	case config.BackendBadger:
		logger.Debug("opening badger storage", zap.String("path", cfg.BadgerPath))
		bcfg := badger.DefaultConfig(cfg.BadgerPath)
		bcfg.Logger = logger
		return badger.Open(bcfg)

	case config.BackendNeo4j:
		logger.Debug("connecting to neo4j", zap.String("uri", cfg.Neo4j.URI))
		if cfg.Neo4j.URI == "" {
			return nil, errors.New("neo4j storage requires storage.neo4j.uri")
		}
		return neo4j.NewNeo4j(ctx, cfg.Neo4j.URI, cfg.Neo4j.Username, cfg.Neo4j.Password)

	case config.BackendRoster:
		format, err := roster.ParseFormat(rosterCfg.Format)
		if err != nil {
			return nil, err
		}
		logger.Debug("using roster storage", zap.String("path", rosterCfg.Path))
		return rosterstore.New(rosterCfg.Path, format, logger), nil

	case config.BackendMemory:
		return memory.New(), nil

	default:
		logger.Debug("opening file storage", zap.String("path", cfg.File))
		return file.NewStore(cfg.File)
	}
}

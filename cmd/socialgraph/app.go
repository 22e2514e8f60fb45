package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/efebarandurmaz/socialgraph/internal/config"
	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/graph/backends"
	"github.com/efebarandurmaz/socialgraph/internal/network"
	"github.com/efebarandurmaz/socialgraph/internal/observability"
	"github.com/efebarandurmaz/socialgraph/internal/roster"
	"github.com/efebarandurmaz/socialgraph/internal/tui"
	"github.com/efebarandurmaz/socialgraph/pkg/logger"
)

const version = "0.1.0"

// app is the state shared by every command of one process. The shell runs
// many command lines against the same app.
type app struct {
	configPath string
	asJSON     bool

	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	log     *zap.Logger
	tracing *observability.TracerProvider
	audit   *observability.AuditLogger
	metrics *observability.SocialGraphMetrics
	repo    graph.Repository
	net     *network.Network

	cmdSpan     trace.Span
	ready       bool
	dirty       bool
	interactive bool
}

func newApp(stdin io.Reader, stdout, stderr io.Writer, metrics *observability.SocialGraphMetrics) *app {
	return &app{
		stdin:   stdin,
		stdout:  stdout,
		stderr:  stderr,
		metrics: metrics,
	}
}

func (a *app) printer() *tui.Printer {
	return tui.NewPrinter(a.stdout, a.asJSON)
}

func (a *app) backendName() string {
	switch b := a.cfg.Storage.Backend; b {
	case config.BackendSQLite, config.BackendBadger, config.BackendNeo4j, config.BackendRoster, config.BackendMemory:
		return b
	}
	return config.BackendFile
}

// rosterFormat is roster.format, minimal when unset or unknown.
func (a *app) rosterFormat() roster.Format {
	format, err := roster.ParseFormat(a.cfg.Roster.Format)
	if err != nil {
		return roster.FormatMinimal
	}
	return format
}

// checkRosterValue rejects a value the roster backend would fail to save and
// warns about one that a roster export could not keep.
func (a *app) checkRosterValue(id string, key network.AttributeKey, value string) error {
	err := roster.CheckValue(value)
	if err == nil {
		return nil
	}
	if a.backendName() == config.BackendRoster && slices.Contains(roster.Columns(a.rosterFormat()), key) {
		return fmt.Errorf("%s of %s: %w", key, id, err)
	}
	if slices.Contains(roster.Columns(roster.FormatFull), key) {
		a.log.Warn("attribute cannot be written to a roster", zap.String("id", id), zap.String("attribute", string(key)))
		a.printer().Warning("%s of %s: %v", key, id, err)
	}
	return nil
}

// checkRosterID rejects the id null on the roster backend, where it would
// read back as a missing id.
func (a *app) checkRosterID(id string) error {
	if a.backendName() == config.BackendRoster && id == roster.Null {
		return fmt.Errorf("member id %q is reserved in a roster", id)
	}
	return nil
}

func (a *app) limits() network.Limits {
	return network.Limits{
		MaxMembers:              max(0, a.cfg.Limits.MaxMembers),
		MaxConnectionsPerMember: max(0, a.cfg.Limits.MaxConnectionsPerMember),
	}
}

// setup loads configuration, starts logging, tracing and the audit journal,
// opens the repository and loads the stored network. It runs once per app.
func (a *app) setup(ctx context.Context) error {
	if a.ready {
		return nil
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Log.Env, cfg.Log.Level); err != nil {
		return err
	}
	a.log = logger.Get()

	a.tracing, err = observability.InitTracing(ctx, &observability.TracingConfig{
		ServiceName:    cfg.Tracing.ServiceName,
		ServiceVersion: version,
		Environment:    cfg.Log.Env,
		OTLPEndpoint:   cfg.Tracing.OTLPEndpoint,
		Insecure:       cfg.Tracing.Insecure,
		SampleRate:     cfg.Tracing.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	a.audit, err = observability.NewAuditLogger(&observability.AuditConfig{
		Enabled:    cfg.Audit.Path != "",
		OutputPath: cfg.Audit.Path,
		SessionID:  a.tracing.InstanceID(),
	})
	if err != nil {
		return err
	}

	a.repo, err = backends.Open(ctx, cfg.Storage, cfg.Roster, a.log)
	if err != nil {
		return fmt.Errorf("open %s storage: %w", a.backendName(), err)
	}

	if err := a.load(ctx); err != nil {
		return err
	}

	a.ready = true
	a.log.Debug("socialgraph ready",
		zap.String("backend", a.backendName()),
		zap.Int("members", a.net.MemberCount()),
		zap.Int("connections", a.net.ConnectionCount()),
		zap.String("instance_id", a.tracing.InstanceID()),
	)
	return nil
}

func (a *app) load(ctx context.Context) error {
	backend := a.backendName()
	ctx, span := observability.StartStorageSpan(ctx, backend, "load")
	defer span.End()

	start := time.Now()
	snap, err := a.repo.Load(ctx)
	if err == nil {
		a.net, err = network.Restore(snap, a.limits())
	}
	elapsed := time.Since(start)
	a.metrics.RecordStorage(backend, "load", elapsed, err)

	if err != nil {
		observability.RecordError(span, err)
		a.audit.LogSnapshot(ctx, observability.AuditEventSnapshotLoad, backend, 0, 0, elapsed, err)
		return fmt.Errorf("load network: %w", err)
	}

	members, conns := a.net.MemberCount(), a.net.ConnectionCount()
	observability.RecordStorageResult(span, members, conns)
	a.metrics.RecordSize(members, conns)
	a.audit.LogSnapshot(ctx, observability.AuditEventSnapshotLoad, backend, members, conns, elapsed, nil)
	a.log.Debug("network loaded", zap.String("backend", backend), zap.Int("members", members), zap.Int("connections", conns))
	return nil
}

// save writes the network to the repository and clears the dirty flag.
func (a *app) save(ctx context.Context) error {
	backend := a.backendName()
	ctx, span := observability.StartStorageSpan(ctx, backend, "save")
	defer span.End()

	snap := a.net.Snapshot()
	members, conns := len(snap.Members), len(snap.Connections)

	start := time.Now()
	err := a.repo.Save(ctx, snap)
	elapsed := time.Since(start)
	a.metrics.RecordStorage(backend, "save", elapsed, err)
	a.audit.LogSnapshot(ctx, observability.AuditEventSnapshotSave, backend, members, conns, elapsed, err)

	if err != nil {
		observability.RecordError(span, err)
		a.log.Error("saving network failed", zap.String("backend", backend), zap.Error(err))
		return fmt.Errorf("save network: %w", err)
	}

	observability.RecordStorageResult(span, members, conns)
	a.dirty = false
	a.log.Debug("network saved", zap.String("backend", backend), zap.Int("members", members), zap.Int("connections", conns))
	return nil
}

// op runs one network operation inside a span and records its metrics.
func (a *app) op(ctx context.Context, name string, fn func(ctx context.Context) (int, error), attrs ...attribute.KeyValue) error {
	ctx, span := observability.StartOperationSpan(ctx, name, attrs...)
	defer span.End()

	start := time.Now()
	count, err := fn(ctx)
	a.metrics.RecordOperation(name, time.Since(start), err)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	observability.RecordResult(span, count)
	return nil
}

// mutated marks the network as changed and refreshes the size gauges.
func (a *app) mutated() {
	a.dirty = true
	a.metrics.RecordSize(a.net.MemberCount(), a.net.ConnectionCount())
}

func (a *app) beginCommand(ctx context.Context, name string) context.Context {
	if a.cmdSpan != nil {
		return ctx
	}
	ctx, a.cmdSpan = observability.StartCommandSpan(ctx, name)
	return ctx
}

func (a *app) endCommand(err error) {
	if a.cmdSpan == nil {
		return
	}
	observability.RecordError(a.cmdSpan, err)
	a.cmdSpan.End()
	a.cmdSpan = nil
}

// commit saves pending changes unless the shell is still running.
func (a *app) commit(ctx context.Context) error {
	if a.interactive || !a.dirty {
		return nil
	}
	return a.save(ctx)
}

// close releases everything setup acquired. It is safe to call when setup
// never ran or failed part way.
func (a *app) close(ctx context.Context, runErr error) error {
	a.endCommand(runErr)

	var errs []error
	if a.cfg != nil && a.cfg.Metrics.Textfile != "" {
		if err := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics textfile: %w", err))
		}
	}
	if a.repo != nil {
		if err := a.repo.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
	}
	if a.audit != nil {
		if err := a.audit.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close audit log: %w", err))
		}
	}
	if a.tracing != nil {
		if err := a.tracing.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown tracing: %w", err))
		}
	}
	logger.Sync()
	return errors.Join(errs...)
}

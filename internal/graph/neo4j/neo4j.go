package neo4j

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/efebarandurmaz/socialgraph/internal/graph"
	"github.com/efebarandurmaz/socialgraph/internal/network"
)

// attrPrefix namespaces member attributes among node properties.
const attrPrefix = "attr_"

// Neo4jRepository implements graph.Repository using Neo4j.
//
// Members are (:Member {id, seq, attr_*}) nodes and connections are
// [:CONNECTED {seq}] relationships stored once, from A to B.
type Neo4jRepository struct {
	driver neo4j.DriverWithContext
}

// NewNeo4j creates a Neo4j-backed repository.
func NewNeo4j(ctx context.Context, uri, username, password string) (*Neo4jRepository, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, fmt.Errorf("neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("neo4j connectivity: %w", err)
	}
	return &Neo4jRepository{driver: driver}, nil
}

func (r *Neo4jRepository) session(ctx context.Context, mode neo4j.AccessMode) neo4j.SessionWithContext {
	return r.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode})
}

// memberProps flattens a member into node properties.
func memberProps(seq int, m network.Member) map[string]any {
	props := map[string]any{"id": m.ID, "seq": seq}
	for k, v := range m.Attributes {
		props[attrPrefix+string(k)] = v
	}
	return props
}

// Save replaces every Member node and CONNECTED relationship in one write
// transaction.
func (r *Neo4jRepository) Save(ctx context.Context, snap *network.Snapshot) error {
	session := r.session(ctx, neo4j.AccessModeWrite)
	defer session.Close(ctx)

	members := make([]any, 0, len(snap.Members))
	for i, m := range snap.Members {
		members = append(members, memberProps(i, m))
	}
	conns := make([]any, 0, len(snap.Connections))
	for i, c := range snap.Connections {
		conns = append(conns, map[string]any{"a": c.A, "b": c.B, "seq": i})
	}

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		if _, err := tx.Run(ctx, "MATCH (m:Member) DETACH DELETE m", nil); err != nil {
			return nil, fmt.Errorf("clear members: %w", err)
		}
		if _, err := tx.Run(ctx,
			"UNWIND $members AS props "+
				"CREATE (m:Member) SET m = props",
			map[string]any{"members": members}); err != nil {
			return nil, fmt.Errorf("store members: %w", err)
		}
		if _, err := tx.Run(ctx,
			"UNWIND $conns AS c "+
				"MATCH (a:Member {id: c.a}), (b:Member {id: c.b}) "+
				"CREATE (a)-[:CONNECTED {seq: c.seq}]->(b)",
			map[string]any{"conns": conns}); err != nil {
			return nil, fmt.Errorf("store connections: %w", err)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *Neo4jRepository) Load(ctx context.Context) (*network.Snapshot, error) {
	session := r.session(ctx, neo4j.AccessModeRead)
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		snap := &network.Snapshot{}

		records, err := tx.Run(ctx,
			"MATCH (m:Member) RETURN properties(m) AS props ORDER BY m.seq ASC", nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			raw, _ := records.Record().Get("props")
			props, _ := raw.(map[string]any)
			snap.Members = append(snap.Members, memberFromProps(props))
		}
		if err := records.Err(); err != nil {
			return nil, err
		}

		records, err = tx.Run(ctx,
			"MATCH (a:Member)-[c:CONNECTED]->(b:Member) RETURN a.id AS a, b.id AS b ORDER BY c.seq ASC", nil)
		if err != nil {
			return nil, err
		}
		for records.Next(ctx) {
			rec := records.Record()
			a, _ := rec.Get("a")
			b, _ := rec.Get("b")
			snap.Connections = append(snap.Connections, network.Connection{A: a.(string), B: b.(string)})
		}
		return snap, records.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return result.(*network.Snapshot), nil
}

func memberFromProps(props map[string]any) network.Member {
	id, _ := props["id"].(string)
	m := network.Member{ID: id}

	keys := make([]string, 0, len(props))
	for k := range props {
		if strings.HasPrefix(k, attrPrefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, ok := props[k].(string)
		if !ok {
			continue
		}
		if m.Attributes == nil {
			m.Attributes = network.Attributes{}
		}
		m.Attributes[network.AttributeKey(strings.TrimPrefix(k, attrPrefix))] = v
	}
	return m
}

func (r *Neo4jRepository) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

var _ graph.Repository = (*Neo4jRepository)(nil)

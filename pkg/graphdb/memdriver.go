package graphdb

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/graphqa/kgqa/pkg/graph"
)

// MemDriver is an in-memory Driver used by unit tests and as a lightweight
// default when no Postgres-backed store is configured. It implements the
// full Kind vocabulary so every caller (fulltext manager, resolver,
// specialists, ingestor) can be exercised without a live database.
type MemDriver struct {
	mu  sync.Mutex
	dbs map[string]*memDB

	// forceDDLFailure, keyed by "database/name", makes KindCreateIndexDDL
	// fail once so tests can exercise the legacy-create fallback path.
	forceDDLFailure map[string]bool
	// forceTransient, keyed by database, makes every call against that
	// database return ErrTransient, for exercising retry/infrastructure
	// error handling.
	forceTransient map[string]bool
}

type memDB struct {
	nodes   map[string]graph.Node
	rels    []graph.Relationship
	indexes map[string]IndexInfo
}

// NewMemDriver creates an empty in-memory driver.
func NewMemDriver() *MemDriver {
	return &MemDriver{
		dbs:             make(map[string]*memDB),
		forceDDLFailure: make(map[string]bool),
		forceTransient:  make(map[string]bool),
	}
}

func (m *MemDriver) db(name string) *memDB {
	d, ok := m.dbs[name]
	if !ok {
		d = &memDB{nodes: make(map[string]graph.Node), indexes: make(map[string]IndexInfo)}
		m.dbs[name] = d
	}
	return d
}

// SeedNodes adds nodes directly to a database, bypassing Load, for test setup.
func (m *MemDriver) SeedNodes(database string, nodes ...graph.Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.db(database)
	for _, n := range nodes {
		d.nodes[n.ID] = n
	}
}

// SeedRelationships adds relationships directly, for test setup.
func (m *MemDriver) SeedRelationships(database string, rels ...graph.Relationship) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := m.db(database)
	d.rels = append(d.rels, rels...)
}

// SeedIndex registers a fulltext index directly, for test setup.
func (m *MemDriver) SeedIndex(database string, info IndexInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.db(database).indexes[info.Name] = info
}

// ForceDDLFailureOnce makes the next KindCreateIndexDDL for (database, name)
// fail, so the legacy-create fallback path in Connector.EnsureIndex runs.
func (m *MemDriver) ForceDDLFailureOnce(database, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceDDLFailure[database+"/"+name] = true
}

// ForceTransient makes every subsequent call against database fail with
// ErrTransient until cleared.
func (m *MemDriver) ForceTransient(database string, on bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.forceTransient[database] = on
}

// Execute implements Driver.
func (m *MemDriver) Execute(_ context.Context, database string, spec QuerySpec) ([]Row, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.forceTransient[database] {
		return nil, fmt.Errorf("connection lost to %s: %w", database, ErrTransient)
	}

	d := m.db(database)

	switch spec.Kind {
	case KindCatalogIndexesPrimary, KindCatalogIndexesFallback:
		return indexesToRows(d.indexes), nil

	case KindIndexExists:
		name, _ := spec.Params["name"].(string)
		if info, ok := d.indexes[name]; ok {
			return []Row{indexToRow(info)}, nil
		}
		return nil, nil

	case KindCreateIndexDDL:
		key := database + "/" + fmt.Sprint(spec.Params["name"])
		if m.forceDDLFailure[key] {
			delete(m.forceDDLFailure, key)
			return nil, fmt.Errorf("DDL create index failed (simulated)")
		}
		return m.createIndexLocked(d, spec)

	case KindCreateIndexLegacy:
		return m.createIndexLocked(d, spec)

	case KindNeighbors:
		return m.neighborsLocked(d, spec)

	case KindResourceLookup:
		return m.resourceLookupLocked(d, spec)

	case KindLabelCount:
		return m.labelCountLocked(d), nil

	case KindFulltextSearch:
		return m.fulltextSearchLocked(d, spec), nil

	case KindContainsSearch:
		return m.containsSearchLocked(d, spec), nil

	case KindEntityNames:
		return m.entityNamesLocked(d), nil

	case KindLoadGraph:
		return nil, fmt.Errorf("load graph must go through Loader.Load, not Execute")

	default:
		return nil, fmt.Errorf("unsupported query kind: %s", spec.Kind)
	}
}

func (m *MemDriver) entityNamesLocked(d *memDB) []Row {
	rows := make([]Row, 0, len(d.nodes))
	for _, n := range d.nodes {
		rows = append(rows, Row{"id": n.ID, "name": displayName(n)})
	}
	return rows
}

func (m *MemDriver) createIndexLocked(d *memDB, spec QuerySpec) ([]Row, error) {
	name, _ := spec.Params["name"].(string)
	labels := toStringSlice(spec.Params["labels"])
	properties := toStringSlice(spec.Params["properties"])
	d.indexes[name] = IndexInfo{Name: name, Labels: labels, Properties: properties}
	return []Row{{"created": true}}, nil
}

// neighborsLocked returns one row per distinct (relationship type, target)
// pair, each carrying the source entity alongside the neighbor so callers
// never need a second lookup (spec.md §4.10: "the entity and up to
// result_limit distinct neighbors with relationship type and target
// labels").
func (m *MemDriver) neighborsLocked(d *memDB, spec QuerySpec) ([]Row, error) {
	nodeID, _ := spec.Params["node_id"].(string)
	limit, _ := spec.Params["limit"].(int)
	if limit <= 0 {
		limit = 10
	}

	entity, ok := d.nodes[nodeID]
	if !ok {
		return nil, nil
	}

	seen := make(map[string]bool)
	var rows []Row
	for _, r := range d.rels {
		var otherID string
		switch {
		case r.SourceID == nodeID:
			otherID = r.TargetID
		case r.TargetID == nodeID:
			otherID = r.SourceID
		default:
			continue
		}
		dedupKey := r.Type + "|" + otherID
		if seen[dedupKey] {
			continue
		}
		seen[dedupKey] = true

		other, ok := d.nodes[otherID]
		targetName := otherID
		var labels []string
		if ok {
			targetName = displayName(other)
			labels = []string{other.Label}
		}
		rows = append(rows, Row{
			"entity_id":     entity.ID,
			"entity_name":   displayName(entity),
			"type":          r.Type,
			"target":        otherID,
			"target_name":   targetName,
			"target_labels": labels,
		})
		if len(rows) >= limit {
			break
		}
	}

	return rows, nil
}

func (m *MemDriver) resourceLookupLocked(d *memDB, spec QuerySpec) ([]Row, error) {
	nodeID, _ := spec.Params["node_id"].(string)
	node, ok := d.nodes[nodeID]
	if !ok {
		return nil, nil
	}
	uri, _ := node.Properties["uri"].(string)
	return []Row{{
		"id":    node.ID,
		"label": node.Label,
		"uri":   uri,
		"name":  displayName(node),
	}}, nil
}

var rdfLabels = map[string]bool{"resource": true, "class": true, "ontology": true, "individual": true}

func (m *MemDriver) labelCountLocked(d *memDB) []Row {
	counts := make(map[string]int)
	for _, n := range d.nodes {
		counts[n.Label]++
	}
	rows := make([]Row, 0, len(counts))
	for label, count := range counts {
		rows = append(rows, Row{"label": label, "count": count})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i]["label"].(string) < rows[j]["label"].(string) })
	return rows
}

func (m *MemDriver) fulltextSearchLocked(d *memDB, spec QuerySpec) []Row {
	indexName, _ := spec.Params["index"].(string)
	text, _ := spec.Params["text"].(string)
	limit, _ := spec.Params["limit"].(int)
	if limit <= 0 {
		limit = 10
	}
	info, ok := d.indexes[indexName]
	if !ok {
		return nil
	}
	text = strings.ToLower(text)

	var rows []Row
	for _, n := range d.nodes {
		if !labelInSet(n.Label, info.Labels) {
			continue
		}
		for _, prop := range info.Properties {
			v, ok := n.Properties[prop].(string)
			if !ok {
				continue
			}
			lv := strings.ToLower(v)
			if strings.Contains(lv, text) {
				score := 0.6
				if lv == text {
					score = 1.0
				}
				rows = append(rows, Row{
					"node_id": n.ID, "label": n.Label, "display_name": v, "score": score,
				})
				break
			}
		}
		if len(rows) >= limit {
			break
		}
	}
	return rows
}

func (m *MemDriver) containsSearchLocked(d *memDB, spec QuerySpec) []Row {
	properties := toStringSlice(spec.Params["properties"])
	text, _ := spec.Params["text"].(string)
	limit, _ := spec.Params["limit"].(int)
	if limit <= 0 {
		limit = 10
	}
	text = strings.ToLower(text)

	var rows []Row
	for _, n := range d.nodes {
		for _, prop := range properties {
			v, ok := n.Properties[prop].(string)
			if !ok {
				continue
			}
			if strings.Contains(strings.ToLower(v), text) {
				rows = append(rows, Row{
					"node_id": n.ID, "label": n.Label, "display_name": v, "score": 0.4,
				})
				break
			}
		}
		if len(rows) >= limit {
			break
		}
	}
	return rows
}

// Load implements Loader.
func (m *MemDriver) Load(_ context.Context, database, sourceID string, payload graph.Payload) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.forceTransient[database] {
		return fmt.Errorf("connection lost to %s: %w", database, ErrTransient)
	}

	d := m.db(database)
	for _, n := range payload.Nodes {
		if n.Properties == nil {
			n.Properties = map[string]any{}
		}
		n.Properties["_source_id"] = sourceID
		d.nodes[n.ID] = n
	}
	d.rels = append(d.rels, payload.Relationships...)
	return nil
}

func displayName(n graph.Node) string {
	for _, key := range []string{"name", "title", "display_name"} {
		if v, ok := n.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return n.ID
}

func labelInSet(label string, set []string) bool {
	if len(set) == 0 {
		return true
	}
	for _, s := range set {
		if strings.EqualFold(s, label) {
			return true
		}
	}
	return false
}

func indexesToRows(indexes map[string]IndexInfo) []Row {
	out := make([]Row, 0, len(indexes))
	for _, info := range indexes {
		out = append(out, indexToRow(info))
	}
	return out
}

func indexToRow(info IndexInfo) Row {
	return Row{"name": info.Name, "labels": info.Labels, "properties": info.Properties}
}

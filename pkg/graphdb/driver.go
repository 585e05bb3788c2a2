// Package graphdb implements the Graph Connector (C1): a single gateway
// that executes a query string against a named database and returns
// JSON-encoded rows or a typed error, with the actual graph-database engine
// abstracted behind the Driver interface (spec.md §1 lists the engine as an
// out-of-scope external collaborator).
package graphdb

import (
	"context"
	"errors"

	"github.com/graphqa/kgqa/pkg/graph"
)

// Kind discriminates the operation a QuerySpec performs. Every caller in
// this repo (fulltext index manager, specialist worker, entity resolver,
// LPG/RDF specialists, runtime ingestor) routes through Connector.Run with
// one of these kinds rather than hand-assembling a dialect-specific query
// string, which keeps the actual storage engine fully swappable behind
// Driver.
type Kind string

const (
	KindCatalogIndexesPrimary Kind = "catalog_indexes_primary"
	KindCatalogIndexesFallback Kind = "catalog_indexes_fallback"
	KindIndexExists            Kind = "index_exists"
	KindCreateIndexDDL         Kind = "create_index_ddl"
	KindCreateIndexLegacy      Kind = "create_index_legacy"
	KindNeighbors              Kind = "neighbors"
	KindResourceLookup         Kind = "resource_lookup"
	KindLabelCount             Kind = "label_count"
	KindFulltextSearch         Kind = "fulltext_search"
	KindContainsSearch         Kind = "contains_search"
	KindLoadGraph              Kind = "load_graph"
	KindEntityNames            Kind = "entity_names"
)

// QuerySpec is the opaque unit of work passed to Connector.Run. Text carries
// a human-readable description used only for tracing/logging; the actual
// behavior is dispatched on Kind + Params.
type QuerySpec struct {
	Kind   Kind
	Text   string
	Params map[string]any
}

// Row is one JSON-encodable result row.
type Row map[string]any

// IndexInfo describes a fulltext index as reported by the catalog.
type IndexInfo struct {
	Name       string   `json:"name"`
	Labels     []string `json:"labels"`
	Properties []string `json:"properties"`
}

// ErrTransient marks an error as an infrastructure-kind failure (connection
// lost, session expired) that the connector's caller should treat as
// retryable. Non-retryable data/syntax errors must NOT wrap this sentinel.
var ErrTransient = errors.New("transient graph-store error")

// Driver is the pluggable backend behind Connector. Concrete
// implementations: MemDriver (in-memory, used by tests and as the default)
// and PostgresDriver (pgx-backed property-graph store).
type Driver interface {
	// Execute runs one QuerySpec against database and returns JSON rows.
	// Implementations must wrap transient failures with ErrTransient and
	// leave data/syntax errors unwrapped so Connector can classify them.
	Execute(ctx context.Context, database string, spec QuerySpec) ([]Row, error)
}

// Loader is implemented by drivers that can bulk-load a validated graph
// payload under a source id (used by the runtime ingestor via
// Connector.LoadGraph).
type Loader interface {
	Load(ctx context.Context, database, sourceID string, payload graph.Payload) error
}

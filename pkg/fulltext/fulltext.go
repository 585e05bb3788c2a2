// Package fulltext implements the Fulltext Index Manager (C5): a thin,
// name-only convenience layer over Connector.ListIndexes/EnsureIndex so
// callers (entity resolver, runtime ingestor) never need to know about
// graphdb.Kind (spec.md §4.5).
package fulltext

import (
	"context"

	"github.com/graphqa/kgqa/pkg/graphdb"
)

// Manager wraps a graphdb.Connector for index discovery and creation.
type Manager struct {
	connector *graphdb.Connector
}

// New builds a Manager over connector.
func New(connector *graphdb.Connector) *Manager {
	return &Manager{connector: connector}
}

// List returns the union of the two catalog probes for database.
func (m *Manager) List(ctx context.Context, database string) ([]graphdb.IndexInfo, error) {
	return m.connector.ListIndexes(ctx, database)
}

// Ensure validates identifiers, checks existence, and if missing and
// createIfMissing is set, issues DDL (falling back to a legacy procedural
// create on DDL failure). Returns whether it was created and whether it
// now exists, regardless of which path ran.
func (m *Manager) Ensure(ctx context.Context, database, name string, labels, properties []string, createIfMissing bool) (created, exists bool, err error) {
	return m.connector.EnsureIndex(ctx, database, name, labels, properties, createIfMissing)
}

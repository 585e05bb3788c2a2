package graphdb

import (
	"context"
	"errors"
	"log/slog"

	"github.com/graphqa/kgqa/pkg/errs"
	"github.com/graphqa/kgqa/pkg/graph"
)

// Connector is the single gateway every other component uses to reach the
// graph store. It is safe for concurrent use by many specialist workers
// (spec.md §4.1).
type Connector struct {
	driver   Driver
	registry *graph.Registry
	log      *slog.Logger
}

// NewConnector builds a Connector over driver, validating every call
// against registry before it ever reaches the backend.
func NewConnector(driver Driver, registry *graph.Registry) *Connector {
	return &Connector{
		driver:   driver,
		registry: registry,
		log:      slog.With("component", "graph_connector"),
	}
}

// Run executes spec against database. If database is not registered, it
// returns an invalid-database validation error without contacting the
// backend at all (spec.md §4.1).
func (c *Connector) Run(ctx context.Context, database string, spec QuerySpec) ([]Row, error) {
	if !c.registry.IsValid(database) {
		return nil, errs.New(errs.KindValidation, "graph_connector", "invalid database: "+database)
	}

	var rows []Row
	err := withRetry(ctx, connectorRetry, func() error {
		r, execErr := c.driver.Execute(ctx, database, spec)
		if execErr != nil {
			return execErr
		}
		rows = r
		return nil
	})
	if err == nil {
		return rows, nil
	}

	var typed *errs.Error
	if errors.As(err, &typed) {
		// Driver already classified this error (e.g. validation of an
		// identifier inside Params); pass it through unchanged.
		return nil, err
	}
	if errors.Is(err, ErrTransient) {
		c.log.Warn("transient graph-store error", "database", database, "kind", spec.Kind, "error", err)
		return nil, errs.Wrap(errs.KindInfrastructure, "graph_connector", err)
	}
	// Data/syntax errors pass through as non-retryable pipeline errors.
	return nil, errs.Wrap(errs.KindPipeline, "graph_connector", err)
}

// ListIndexes returns the union of the two catalog probes the fulltext
// index manager issues (spec.md §4.5). It is a thin convenience wrapper so
// pkg/fulltext doesn't need to know about Kind at all.
func (c *Connector) ListIndexes(ctx context.Context, database string) ([]IndexInfo, error) {
	primary, err := c.Run(ctx, database, QuerySpec{Kind: KindCatalogIndexesPrimary, Text: "catalog: show fulltext indexes (primary)"})
	if err != nil {
		return nil, err
	}
	fallback, err := c.Run(ctx, database, QuerySpec{Kind: KindCatalogIndexesFallback, Text: "catalog: show fulltext indexes (fallback)"})
	if err != nil {
		return nil, err
	}
	return unionIndexes(rowsToIndexes(primary), rowsToIndexes(fallback)), nil
}

// EnsureIndex validates identifiers, checks existence, issues DDL (falling
// back to a legacy procedural create if the DDL path fails), then re-reads
// the catalog to report whether the index is now present (spec.md §4.5).
func (c *Connector) EnsureIndex(ctx context.Context, database, name string, labels, properties []string, createIfMissing bool) (created bool, exists bool, err error) {
	if err := graph.ValidateLabel(name); err != nil {
		return false, false, err
	}
	for _, l := range labels {
		if err := graph.ValidateLabel(l); err != nil {
			return false, false, err
		}
	}
	for _, p := range properties {
		if err := graph.ValidateLabel(p); err != nil {
			return false, false, err
		}
	}

	rows, err := c.Run(ctx, database, QuerySpec{
		Kind: KindIndexExists,
		Text: "catalog: index exists?",
		Params: map[string]any{"name": name},
	})
	if err != nil {
		return false, false, err
	}
	if len(rows) > 0 {
		return false, true, nil
	}
	if !createIfMissing {
		return false, false, nil
	}

	ddlParams := map[string]any{"name": name, "labels": labels, "properties": properties}
	_, ddlErr := c.Run(ctx, database, QuerySpec{Kind: KindCreateIndexDDL, Text: "DDL: create fulltext index", Params: ddlParams})
	if ddlErr != nil {
		c.log.Warn("DDL index create failed, falling back to legacy procedure", "database", database, "name", name, "error", ddlErr)
		if _, legacyErr := c.Run(ctx, database, QuerySpec{Kind: KindCreateIndexLegacy, Text: "legacy procedure: create fulltext index", Params: ddlParams}); legacyErr != nil {
			return false, false, legacyErr
		}
	}

	rows, err = c.Run(ctx, database, QuerySpec{Kind: KindIndexExists, Text: "catalog: index exists? (recheck)", Params: map[string]any{"name": name}})
	if err != nil {
		return false, false, err
	}
	return true, len(rows) > 0, nil
}

// LoadGraph pushes a validated payload to the connector under a new
// source id (spec.md §4.15 step 5).
func (c *Connector) LoadGraph(ctx context.Context, database, sourceID string, payload graph.Payload) error {
	if !c.registry.IsValid(database) {
		return errs.New(errs.KindValidation, "graph_connector", "invalid database: "+database)
	}
	if err := payload.ValidateAll(); err != nil {
		return err
	}
	if loader, ok := c.driver.(Loader); ok {
		err := withRetry(ctx, connectorRetry, func() error {
			return loader.Load(ctx, database, sourceID, payload)
		})
		if err != nil {
			if errors.Is(err, ErrTransient) {
				return errs.Wrap(errs.KindInfrastructure, "graph_connector", err)
			}
			return errs.Wrap(errs.KindPipeline, "graph_connector", err)
		}
		return nil
	}
	_, err := c.Run(ctx, database, QuerySpec{
		Kind: KindLoadGraph,
		Text: "load graph payload",
		Params: map[string]any{
			"nodes":         payload.Nodes,
			"relationships": payload.Relationships,
			"source_id":     sourceID,
		},
	})
	return err
}

// EntityNames returns the display names of every node currently stored in
// database, used by the runtime ingestor's relatedness check (spec.md
// §4.15 step 3).
func (c *Connector) EntityNames(ctx context.Context, database string) ([]string, error) {
	rows, err := c.Run(ctx, database, QuerySpec{Kind: KindEntityNames, Text: "entity names"})
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for _, r := range rows {
		if v, ok := r["name"].(string); ok && v != "" {
			names = append(names, v)
		}
	}
	return names, nil
}

func rowsToIndexes(rows []Row) []IndexInfo {
	out := make([]IndexInfo, 0, len(rows))
	for _, r := range rows {
		info := IndexInfo{}
		if v, ok := r["name"].(string); ok {
			info.Name = v
		}
		info.Labels = toStringSlice(r["labels"])
		info.Properties = toStringSlice(r["properties"])
		out = append(out, info)
	}
	return out
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// unionIndexes merges two index lists, de-duplicating by name.
func unionIndexes(a, b []IndexInfo) []IndexInfo {
	seen := make(map[string]bool, len(a)+len(b))
	out := make([]IndexInfo, 0, len(a)+len(b))
	for _, list := range [][]IndexInfo{a, b} {
		for _, idx := range list {
			if seen[idx.Name] {
				continue
			}
			seen[idx.Name] = true
			out = append(out, idx)
		}
	}
	return out
}

// Package dedup implements the Deduplicator (C14): exact-name and
// embedding-cosine-similarity canonicalization of incoming nodes, plus
// relationship endpoint remap and (source, target, type) dedup (spec.md
// §4.14). The bounded canonical table with oldest-eviction reuses the
// container/list + map idiom from pkg/memory's query cache, adapted from
// LRU-recency eviction to pure insertion-order (FIFO) eviction since
// spec.md calls for evicting the oldest registered canonical, not the
// least-recently-matched one.
package dedup

import (
	"container/list"
	"context"
	"math"
	"sync"

	"github.com/graphqa/kgqa/pkg/graph"
	"github.com/graphqa/kgqa/pkg/llmclient"
)

// DefaultThreshold is the cosine-similarity floor for merging into an
// existing canonical (spec.md §4.14 default 0.92).
const DefaultThreshold = 0.92

// DefaultCanonicalBound caps the canonical table before oldest-eviction
// kicks in.
const DefaultCanonicalBound = 5000

type canonicalEntry struct {
	id        string
	embedding []float64
}

// Deduplicator maintains name → canonical_id and canonical_id → embedding
// across an ingestion run (spec.md §4.14). Safe for concurrent use.
type Deduplicator struct {
	mu sync.Mutex

	nameToCanonical map[string]string
	order           *list.List               // front = oldest registered canonical
	elems           map[string]*list.Element // canonical_id -> list element

	threshold float64
	bound     int
	llm       llmclient.Client
}

// New builds a Deduplicator. threshold<=0 uses DefaultThreshold; bound<=0
// uses DefaultCanonicalBound.
func New(llm llmclient.Client, threshold float64, bound int) *Deduplicator {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	if bound <= 0 {
		bound = DefaultCanonicalBound
	}
	return &Deduplicator{
		nameToCanonical: make(map[string]string),
		order:           list.New(),
		elems:           make(map[string]*list.Element),
		threshold:       threshold,
		bound:           bound,
		llm:             llm,
	}
}

// Resolve canonicalizes name, returning the canonical id and whether this
// call registered a brand-new canonical (spec.md §4.14 steps 1-4).
func (d *Deduplicator) Resolve(ctx context.Context, name string) (canonicalID string, isNew bool, err error) {
	d.mu.Lock()
	if existing, ok := d.nameToCanonical[name]; ok {
		d.mu.Unlock()
		return existing, false, nil
	}
	d.mu.Unlock()

	embedding, err := d.llm.Embed(ctx, name)
	if err != nil {
		return "", false, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	best, bestScore := d.bestMatchLocked(embedding)
	if best != "" && bestScore >= d.threshold {
		d.nameToCanonical[name] = best
		return best, false, nil
	}

	d.registerCanonicalLocked(name, embedding)
	d.nameToCanonical[name] = name
	return name, true, nil
}

func (d *Deduplicator) bestMatchLocked(embedding []float64) (string, float64) {
	best := ""
	bestScore := -1.0
	for e := d.order.Front(); e != nil; e = e.Next() {
		entry := e.Value.(*canonicalEntry)
		score := cosineSimilarity(embedding, entry.embedding)
		if score > bestScore {
			best = entry.id
			bestScore = score
		}
	}
	return best, bestScore
}

func (d *Deduplicator) registerCanonicalLocked(id string, embedding []float64) {
	elem := d.order.PushBack(&canonicalEntry{id: id, embedding: embedding})
	d.elems[id] = elem

	if d.order.Len() > d.bound {
		oldest := d.order.Front()
		if oldest != nil {
			d.order.Remove(oldest)
			delete(d.elems, oldest.Value.(*canonicalEntry).id)
		}
	}
}

func cosineSimilarity(a, b []float64) float64 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// DedupNodes resolves each node's display name to a canonical id, dropping
// later duplicates and returning the id remap every relationship endpoint
// must be rewritten through.
func (d *Deduplicator) DedupNodes(ctx context.Context, nodes []graph.Node) ([]graph.Node, map[string]string, error) {
	remap := make(map[string]string, len(nodes))
	seenCanonical := make(map[string]bool)
	var out []graph.Node

	for _, n := range nodes {
		name := displayName(n)
		canonicalID, _, err := d.Resolve(ctx, name)
		if err != nil {
			return nil, nil, err
		}
		remap[n.ID] = canonicalID

		if seenCanonical[canonicalID] {
			continue
		}
		seenCanonical[canonicalID] = true
		merged := n
		merged.ID = canonicalID
		out = append(out, merged)
	}
	return out, remap, nil
}

// DedupRelationships remaps every relationship's endpoints through remap,
// then drops duplicates on (source, target, type).
func DedupRelationships(rels []graph.Relationship, remap map[string]string) []graph.Relationship {
	seen := make(map[string]bool, len(rels))
	var out []graph.Relationship
	for _, r := range rels {
		remapped := r
		if canonical, ok := remap[r.SourceID]; ok {
			remapped.SourceID = canonical
		}
		if canonical, ok := remap[r.TargetID]; ok {
			remapped.TargetID = canonical
		}
		key := remapped.SourceID + "\x00" + remapped.TargetID + "\x00" + remapped.Type
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, remapped)
	}
	return out
}

func displayName(n graph.Node) string {
	if name, ok := n.Properties["name"].(string); ok && name != "" {
		return name
	}
	return n.ID
}

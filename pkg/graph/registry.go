package graph

import (
	"regexp"
	"sort"
	"sync"

	"github.com/graphqa/kgqa/pkg/errs"
)

// dbNamePattern matches spec.md §4.4: letter-start, alphanumeric only (no
// underscore/hyphen — stricter than the label pattern).
var dbNamePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9]*$`)

// systemDatabases are excluded from Registry.ListUserDatabases (internal
// bookkeeping databases, if any are ever registered under this name).
var systemDatabases = map[string]bool{
	"system": true,
}

// Registry is the process-wide, append-only, lock-guarded set of valid
// database names (spec.md §4.4, §9 "shared mutable tables").
type Registry struct {
	mu    sync.RWMutex
	names map[string]bool
}

// NewRegistry creates a registry seeded with the given names. Invalid seed
// names are skipped rather than panicking, since seeds come from static
// configuration that should already have been validated by pkg/config.
func NewRegistry(seed ...string) *Registry {
	r := &Registry{names: make(map[string]bool)}
	for _, name := range seed {
		_ = r.Register(name)
	}
	return r
}

// Register validates and adds name to the registry. It is idempotent:
// registering an already-present name succeeds without error (spec.md §8
// "register-database is idempotent").
func (r *Registry) Register(name string) error {
	if !dbNamePattern.MatchString(name) {
		return errs.New(errs.KindValidation, "registry", "invalid database name: "+name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.names[name] = true
	return nil
}

// IsValid reports whether name is a registered database.
func (r *Registry) IsValid(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names[name]
}

// ListAll returns every registered name, sorted.
func (r *Registry) ListAll() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// ListUserDatabases returns sorted names excluding the system/internal set.
func (r *Registry) ListUserDatabases() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.names))
	for n := range r.names {
		if systemDatabases[n] {
			continue
		}
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

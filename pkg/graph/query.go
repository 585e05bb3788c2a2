package graph

import (
	"regexp"

	"github.com/graphqa/kgqa/pkg/errs"
)

// workspacePattern matches spec.md §3: letter-start, ≤64
// alphanumerics/underscore/hyphen.
var workspacePattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]{0,63}$`)

// ValidateWorkspaceID validates a workspace_id per spec.md §3.
func ValidateWorkspaceID(id string) error {
	if !workspacePattern.MatchString(id) {
		return errs.New(errs.KindValidation, "query", "invalid workspace_id: "+id)
	}
	return nil
}

// Query is the user's text plus workspace/session scoping, immutable per
// request (spec.md §3).
type Query struct {
	Text        string
	WorkspaceID string
	SessionID   string // optional
}

// Validate checks Text is non-empty and WorkspaceID matches the required
// pattern.
func (q Query) Validate() error {
	if q.Text == "" {
		return errs.New(errs.KindValidation, "query", "query text must not be empty")
	}
	return ValidateWorkspaceID(q.WorkspaceID)
}

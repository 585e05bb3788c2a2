// Package trace defines the orchestration-tree event shared by the
// resolver, router, specialists, and debate orchestrator: every stage of
// the Semantic Query Flow and the Parallel Debate appends steps to the
// same parent/child tree the UI renders (spec.md §3, §4.7).
package trace

// StepType discriminates a Trace Step's role in the orchestration tree.
type StepType string

const (
	StepUserInput  StepType = "USER_INPUT"
	StepThought    StepType = "THOUGHT"
	StepGeneration StepType = "GENERATION"
	StepToolCall   StepType = "TOOL_CALL"
	StepToolOutput StepType = "TOOL_OUTPUT"
	StepFanout     StepType = "FANOUT"
	StepDebate     StepType = "DEBATE"
	StepCollect    StepType = "COLLECT"
	StepSynthesis  StepType = "SYNTHESIS"
	StepSemantic   StepType = "SEMANTIC"
	StepRouter     StepType = "ROUTER"
	StepSpecialist StepType = "SPECIALIST"
)

// Step is one node in the orchestration tree displayed to the UI.
// ParentID is empty for root steps.
type Step struct {
	ID       string         `json:"id"`
	Type     StepType       `json:"type"`
	Agent    string         `json:"agent"`
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata,omitempty"`
	ParentID string         `json:"parent_id,omitempty"`
}

// Reparent returns a copy of steps with every step missing a ParentID
// assigned parentID, used to graft one stage's internal trace under
// another stage's node (spec.md §4.7 step 6: workers' steps re-parented
// under their DEBATE node).
func Reparent(steps []Step, parentID string) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		if s.ParentID == "" {
			s.ParentID = parentID
		}
		out[i] = s
	}
	return out
}

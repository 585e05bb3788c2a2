package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/graphqa/kgqa/pkg/graph"
)

func samplePayload() graph.Payload {
	return graph.Payload{
		Nodes: []graph.Node{
			{ID: "n1", Label: "Person", Properties: map[string]any{"name": "Ada", "age": 36.0, "status": "active"}},
			{ID: "n2", Label: "Person", Properties: map[string]any{"name": "Grace", "age": 85.0, "status": "active"}},
			{ID: "n3", Label: "Person", Properties: map[string]any{"name": "Alan", "age": 41.0, "status": "inactive"}},
		},
	}
}

func TestInfer_RequiredWhenComplete(t *testing.T) {
	profiles := Infer(samplePayload(), DefaultThresholds())

	var found bool
	for _, p := range profiles {
		if p.Property == "name" && p.Constraint == ConstraintRequired {
			found = true
		}
	}
	assert.True(t, found, "name is present on every node and should be required")
}

func TestInfer_DatatypeIntegerForAge(t *testing.T) {
	profiles := Infer(samplePayload(), DefaultThresholds())
	var datatype RuleProfile
	for _, p := range profiles {
		if p.Property == "age" && p.Constraint == ConstraintDatatype {
			datatype = p
		}
	}
	require.NotEmpty(t, datatype.Property)
	assert.Equal(t, "integer", datatype.Params["type"])
}

func TestInfer_RangeForNumericProperty(t *testing.T) {
	profiles := Infer(samplePayload(), DefaultThresholds())
	var found bool
	for _, p := range profiles {
		if p.Property == "age" && p.Constraint == ConstraintRange {
			assert.Equal(t, 36.0, p.Params["minInclusive"])
			assert.Equal(t, 85.0, p.Params["maxInclusive"])
			found = true
		}
	}
	assert.True(t, found)
}

func TestValidate_FlagsMissingRequiredProperty(t *testing.T) {
	payload := graph.Payload{Nodes: []graph.Node{
		{ID: "n1", Label: "Person", Properties: map[string]any{"name": "Ada"}},
		{ID: "n2", Label: "Person", Properties: map[string]any{}},
	}}
	profiles := []RuleProfile{{Label: "Person", Property: "name", Constraint: ConstraintRequired}}

	results, summary := Validate(payload, profiles)
	assert.Equal(t, "passed", results["n1"].Status)
	assert.Equal(t, "failed", results["n2"].Status)
	assert.Equal(t, Summary{Total: 2, Passed: 1, Failed: 1}, summary)
}

func TestValidate_FlagsOutOfRangeValue(t *testing.T) {
	payload := graph.Payload{Nodes: []graph.Node{
		{ID: "n1", Label: "Person", Properties: map[string]any{"age": 150.0}},
	}}
	profiles := []RuleProfile{{
		Label: "Person", Property: "age", Constraint: ConstraintRange,
		Params: map[string]any{"minInclusive": 0.0, "maxInclusive": 120.0},
	}}

	results, _ := Validate(payload, profiles)
	require.Len(t, results["n1"].Violations, 1)
	assert.Equal(t, ConstraintRange, results["n1"].Violations[0].Rule)
}

func TestValidate_EmptyStringTripsRequired(t *testing.T) {
	payload := graph.Payload{Nodes: []graph.Node{
		{ID: "n1", Label: "Company", Properties: map[string]any{"name": ""}},
	}}
	profiles := []RuleProfile{{Label: "Company", Property: "name", Constraint: ConstraintRequired}}

	results, _ := Validate(payload, profiles)
	require.Len(t, results["n1"].Violations, 1)
}

func TestValidate_NonNumericRangeValueIsAViolation(t *testing.T) {
	payload := graph.Payload{Nodes: []graph.Node{
		{ID: "n1", Label: "Company", Properties: map[string]any{"employees": "many"}},
	}}
	profiles := []RuleProfile{{
		Label: "Company", Property: "employees", Constraint: ConstraintRange,
		Params: map[string]any{"minInclusive": 0.0, "maxInclusive": 100000.0},
	}}

	results, _ := Validate(payload, profiles)
	require.Len(t, results["n1"].Violations, 1)
	assert.Contains(t, results["n1"].Violations[0].Message, "non-numeric")
}

func TestValidate_CompanyWithEmptyNameAndNonNumericEmployees_HasTwoViolations(t *testing.T) {
	payload := graph.Payload{Nodes: []graph.Node{
		{ID: "n1", Label: "Company", Properties: map[string]any{"name": "", "employees": "many"}},
	}}
	profiles := []RuleProfile{
		{Label: "Company", Property: "name", Constraint: ConstraintRequired},
		{
			Label: "Company", Property: "employees", Constraint: ConstraintRange,
			Params: map[string]any{"minInclusive": 0.0, "maxInclusive": 100000.0},
		},
	}

	results, _ := Validate(payload, profiles)
	assert.GreaterOrEqual(t, len(results["n1"].Violations), 2)
}

func TestExportDDL_PartitionsRequiredFromUnsupported(t *testing.T) {
	profiles := []RuleProfile{
		{Label: "Person", Property: "name", Constraint: ConstraintRequired},
		{Label: "Person", Property: "age", Constraint: ConstraintRange, Params: map[string]any{"minInclusive": 0.0, "maxInclusive": 120.0}},
	}
	export := ExportDDL(profiles)
	require.Len(t, export.NotNullColumns, 1)
	assert.Equal(t, "name", export.NotNullColumns[0].Property)
	require.Len(t, export.UnsupportedRules, 1)
	assert.Equal(t, ConstraintRange, export.UnsupportedRules[0].Constraint)
}

func TestExportSHACL_ProducesTurtleForEachShape(t *testing.T) {
	profiles := []RuleProfile{
		{Label: "Person", Property: "name", Constraint: ConstraintRequired},
	}
	export := ExportSHACL(profiles)
	require.Len(t, export.Shapes, 1)
	assert.Contains(t, export.Turtle, "ex:PersonShape")
	assert.Contains(t, export.Turtle, "sh:minCount 1")
}

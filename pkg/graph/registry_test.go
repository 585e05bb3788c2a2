package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterValidatesPattern(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register("kgnormal"))
	assert.True(t, r.IsValid("kgnormal"))

	err := r.Register("1bad")
	require.Error(t, err)
	assert.False(t, r.IsValid("1bad"))

	err = r.Register("bad-name")
	require.Error(t, err)
}

func TestRegistryIsIdempotentAndOrderIndependent(t *testing.T) {
	a := NewRegistry()
	require.NoError(t, a.Register("kgfibo"))
	require.NoError(t, a.Register("kgnormal"))
	require.NoError(t, a.Register("kgfibo")) // idempotent

	b := NewRegistry()
	require.NoError(t, b.Register("kgnormal"))
	require.NoError(t, b.Register("kgfibo"))

	assert.Equal(t, a.ListAll(), b.ListAll())
}

func TestRegistryListUserDatabasesExcludesSystem(t *testing.T) {
	r := NewRegistry("kgnormal", "kgfibo", "system")
	assert.Equal(t, []string{"kgfibo", "kgnormal"}, r.ListUserDatabases())
	assert.Equal(t, []string{"kgfibo", "kgnormal", "system"}, r.ListAll())
}

func TestValidateWorkspaceID(t *testing.T) {
	require.NoError(t, ValidateWorkspaceID("ws_abc-123"))
	require.Error(t, ValidateWorkspaceID("9bad"))
	require.Error(t, ValidateWorkspaceID(""))
}

func TestPayloadValidateAllRejectsBadLabel(t *testing.T) {
	p := Payload{Nodes: []Node{{ID: "1", Label: "bad label"}}}
	require.Error(t, p.ValidateAll())

	p2 := Payload{Nodes: []Node{{ID: "1", Label: "Company"}}}
	require.NoError(t, p2.ValidateAll())
}

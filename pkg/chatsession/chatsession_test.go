package chatsession

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_GetOrCreateStartsEmptyThenGoesActiveOnFirstTurn(t *testing.T) {
	m := NewManager(0)
	s := m.GetOrCreate("")
	assert.Equal(t, StateEmpty, s.State)

	s.AddTurn(RoleUser, "hello", nil)
	assert.Equal(t, StateActive, s.State)
	assert.Len(t, s.Turns, 1)
}

func TestManager_GetOrCreateReturnsSameSessionForKnownID(t *testing.T) {
	m := NewManager(0)
	s1 := m.GetOrCreate("")
	s1.AddTurn(RoleUser, "hi", nil)

	s2 := m.GetOrCreate(s1.ID)
	assert.Same(t, s1, s2)
	assert.Len(t, s2.Turns, 1)
}

func TestSession_AddTurnPrunesOldestPastCap(t *testing.T) {
	m := NewManager(3)
	s := m.GetOrCreate("")
	for i := 0; i < 5; i++ {
		s.AddTurn(RoleUser, fmt.Sprintf("turn %d", i), nil)
	}
	require.Len(t, s.Turns, 3)
	assert.Equal(t, "turn 2", s.Turns[0].Content)
	assert.Equal(t, "turn 4", s.Turns[2].Content)
}

func TestSession_ClearEmptiesHistoryAndMarksCleared(t *testing.T) {
	m := NewManager(0)
	s := m.GetOrCreate("")
	s.AddTurn(RoleUser, "hi", nil)

	s.Clear()
	assert.Equal(t, StateCleared, s.State)
	assert.Empty(t, s.Turns)

	s.AddTurn(RoleUser, "back again", nil)
	assert.Equal(t, StateActive, s.State)
	assert.Len(t, s.Turns, 1)
}

func TestManager_DeleteRemovesSession(t *testing.T) {
	m := NewManager(0)
	s := m.GetOrCreate("")

	require.NoError(t, m.Delete(s.ID))
	_, err := m.Get(s.ID)
	assert.Error(t, err)
}

func TestManager_ListReturnsClonedSnapshots(t *testing.T) {
	m := NewManager(0)
	s := m.GetOrCreate("")
	s.AddTurn(RoleUser, "hi", nil)

	list := m.List()
	require.Len(t, list, 1)
	assert.Equal(t, s.ID, list[0].ID)
	assert.Len(t, list[0].Turns, 1)
}

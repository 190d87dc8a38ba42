package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HemantKumar822/doodle-party/domain"
)

func testPlayers() []domain.Player {
	return []domain.Player{
		{ID: "p2", DisplayName: "charlie", TurnOrder: 2},
		{ID: "p0", DisplayName: "alice", TurnOrder: 0, IsHost: true},
		{ID: "p1", DisplayName: "bob", TurnOrder: 1},
	}
}

func TestRosterMergesPresence(t *testing.T) {
	r := NewRoster()
	r.SetPlayers(testPlayers())
	r.SetPresent([]string{"p0", "p2"})

	players := r.Players()
	require.Len(t, players, 3)
	assert.Equal(t, "alice", players[0].DisplayName, "sorted by turn order")
	assert.True(t, players[0].Connected)
	assert.False(t, players[1].Connected)
	assert.True(t, players[2].Connected)

	online := r.Online()
	require.Len(t, online, 2)
	assert.Equal(t, "p0", online[0].ID)
	assert.Equal(t, "p2", online[1].ID)
}

func TestRosterPresenceSurvivesPlayerRefresh(t *testing.T) {
	r := NewRoster()
	r.SetPresent([]string{"p1"})
	r.SetPlayers(testPlayers())

	p, ok := r.Get("p1")
	require.True(t, ok)
	assert.True(t, p.Connected)
}

func TestRosterLowestOrdinalPresent(t *testing.T) {
	r := NewRoster()
	r.SetPlayers(testPlayers())

	_, ok := r.LowestOrdinalPresent()
	assert.False(t, ok, "nobody connected")

	r.SetPresent([]string{"p1", "p2"})
	p, ok := r.LowestOrdinalPresent()
	require.True(t, ok)
	assert.Equal(t, "p1", p.ID)
}

func TestRosterFlaggedHost(t *testing.T) {
	r := NewRoster()
	r.SetPlayers(testPlayers())

	host, ok := r.FlaggedHost()
	require.True(t, ok)
	assert.Equal(t, "p0", host.ID)

	r.SetPlayers(nil)
	_, ok = r.FlaggedHost()
	assert.False(t, ok)
}

func TestRosterNextOrdinal(t *testing.T) {
	r := NewRoster()
	// Gaps from departed players are expected.
	r.SetPlayers([]domain.Player{
		{ID: "a", TurnOrder: 0},
		{ID: "c", TurnOrder: 3},
		{ID: "d", TurnOrder: 5},
	})

	next, wrapped, ok := r.NextOrdinal(0)
	require.True(t, ok)
	assert.Equal(t, 3, next)
	assert.False(t, wrapped)

	next, wrapped, ok = r.NextOrdinal(5)
	require.True(t, ok)
	assert.Equal(t, 0, next)
	assert.True(t, wrapped)

	_, _, ok = NewRoster().NextOrdinal(0)
	assert.False(t, ok)
}

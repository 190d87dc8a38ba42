package game

import (
	"sort"

	"github.com/HemantKumar822/doodle-party/domain"
)

// Roster merges the store's player rows with the live presence set into
// one view: who is in the room and who is actually connected right now.
// The connected flag is derived here and never written back.
type Roster struct {
	players []domain.Player
	present map[string]struct{}
}

func NewRoster() *Roster {
	return &Roster{present: make(map[string]struct{})}
}

// SetPlayers replaces the store-derived rows, kept sorted by turn order.
func (r *Roster) SetPlayers(players []domain.Player) {
	r.players = make([]domain.Player, len(players))
	copy(r.players, players)
	sort.Slice(r.players, func(i, j int) bool {
		return r.players[i].TurnOrder < r.players[j].TurnOrder
	})
	r.applyPresence()
}

// SetPresent replaces the live member-id set from the presence channel.
func (r *Roster) SetPresent(memberIDs []string) {
	r.present = make(map[string]struct{}, len(memberIDs))
	for _, id := range memberIDs {
		r.present[id] = struct{}{}
	}
	r.applyPresence()
}

func (r *Roster) applyPresence() {
	for i := range r.players {
		_, ok := r.present[r.players[i].ID]
		r.players[i].Connected = ok
	}
}

// Players returns all rows sorted by turn order, connected flags set.
func (r *Roster) Players() []domain.Player {
	out := make([]domain.Player, len(r.players))
	copy(out, r.players)
	return out
}

func (r *Roster) Online() []domain.Player {
	out := make([]domain.Player, 0, len(r.players))
	for _, p := range r.players {
		if p.Connected {
			out = append(out, p)
		}
	}
	return out
}

func (r *Roster) IsPresent(playerID string) bool {
	_, ok := r.present[playerID]
	return ok
}

func (r *Roster) Get(playerID string) (domain.Player, bool) {
	for _, p := range r.players {
		if p.ID == playerID {
			return p, true
		}
	}
	return domain.Player{}, false
}

// FlaggedHost returns the player currently carrying the host flag in
// the store, if any.
func (r *Roster) FlaggedHost() (domain.Player, bool) {
	for _, p := range r.players {
		if p.IsHost {
			return p, true
		}
	}
	return domain.Player{}, false
}

// LowestOrdinalPresent is the election tie-break: the connected player
// with the smallest turn-order ordinal.
func (r *Roster) LowestOrdinalPresent() (domain.Player, bool) {
	for _, p := range r.players {
		if p.Connected {
			return p, true
		}
	}
	return domain.Player{}, false
}

// ByOrdinal finds the player whose turn order matches exactly.
func (r *Roster) ByOrdinal(ordinal int) (domain.Player, bool) {
	for _, p := range r.players {
		if p.TurnOrder == ordinal {
			return p, true
		}
	}
	return domain.Player{}, false
}

// NextOrdinal returns the smallest turn order strictly greater than
// the given one; wrapped reports whether rotation wrapped to the
// smallest ordinal overall.
func (r *Roster) NextOrdinal(after int) (ordinal int, wrapped bool, ok bool) {
	if len(r.players) == 0 {
		return 0, false, false
	}
	for _, p := range r.players {
		if p.TurnOrder > after {
			return p.TurnOrder, false, true
		}
	}
	return r.players[0].TurnOrder, true, true
}

func (r *Roster) Len() int { return len(r.players) }

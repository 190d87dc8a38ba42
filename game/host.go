package game

import (
	"context"

	"github.com/rs/zerolog"
)

// HostCoordinator runs the leaderless self-election: every client
// evaluates the same deterministic predicate against the shared player
// rows and the live presence set, and only the single lowest-ordinal
// present client ever promotes itself. The check is idempotent, so
// concurrent evaluation on several clients converges once the first
// write lands and presence re-syncs.
type HostCoordinator struct {
	store  PlayerStore
	selfID string
	log    zerolog.Logger
}

func NewHostCoordinator(store PlayerStore, selfID string, log zerolog.Logger) *HostCoordinator {
	return &HostCoordinator{store: store, selfID: selfID, log: log}
}

// ShouldPromote is the election predicate, split out pure for tests:
// true when the flagged host is absent (or nobody is flagged) and self
// is the present player with the lowest turn-order ordinal.
func (hc *HostCoordinator) ShouldPromote(roster *Roster) bool {
	if flagged, ok := roster.FlaggedHost(); ok && roster.IsPresent(flagged.ID) {
		return false
	}
	lowest, ok := roster.LowestOrdinalPresent()
	return ok && lowest.ID == hc.selfID
}

// EnsureHost promotes self when the predicate holds. Demoting the stale
// previous host is best-effort: its row may be unreachable or already
// gone, and a failure there must not abort the promotion.
func (hc *HostCoordinator) EnsureHost(ctx context.Context, roster *Roster) (bool, error) {
	if !hc.ShouldPromote(roster) {
		return false, nil
	}

	if err := hc.store.SetHost(ctx, hc.selfID, true); err != nil {
		return false, err
	}
	hc.log.Info().Str("player", hc.selfID).Msg("promoted self to host")

	if stale, ok := roster.FlaggedHost(); ok && stale.ID != hc.selfID {
		if err := hc.store.SetHost(ctx, stale.ID, false); err != nil {
			hc.log.Warn().Err(err).Str("player", stale.ID).Msg("failed to demote stale host")
		}
	}

	return true, nil
}

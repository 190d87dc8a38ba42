package storage

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/HemantKumar822/doodle-party/domain"
)

// Change notifications ride postgres LISTEN/NOTIFY. Payloads carry row
// ids only; the listener re-reads the row, so a lost notification is
// recovered by the next one and payload size stays bounded.

const (
	roomChannel  = "room_changes"
	guessChannel = "guess_inserts"
)

// RoomUpdates streams the room row every time it changes. The returned
// cancel func releases the dedicated connection.
func (s *PostgresStore) RoomUpdates(ctx context.Context, roomID string, log zerolog.Logger) (<-chan domain.Room, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, nil, wrapDBErr(err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+roomChannel); err != nil {
		conn.Release()
		cancel()
		return nil, nil, wrapDBErr(err)
	}

	out := make(chan domain.Room, 16)
	go func() {
		defer close(out)
		defer conn.Release()
		for {
			notif, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("room change feed lost")
				}
				return
			}
			if notif.Payload != roomID {
				continue
			}
			room, err := s.GetRoom(ctx, roomID)
			if err != nil {
				log.Warn().Err(err).Msg("failed to re-read room after change")
				continue
			}
			select {
			case out <- room:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

// GuessInserts streams newly appended guess rows for one room.
func (s *PostgresStore) GuessInserts(ctx context.Context, roomID string, log zerolog.Logger) (<-chan domain.Guess, func(), error) {
	ctx, cancel := context.WithCancel(ctx)

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		cancel()
		return nil, nil, wrapDBErr(err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+guessChannel); err != nil {
		conn.Release()
		cancel()
		return nil, nil, wrapDBErr(err)
	}

	out := make(chan domain.Guess, 64)
	go func() {
		defer close(out)
		defer conn.Release()
		for {
			notif, err := conn.Conn().WaitForNotification(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Error().Err(err).Msg("guess insert feed lost")
				}
				return
			}
			guessID, notifRoomID, ok := strings.Cut(notif.Payload, ":")
			if !ok || notifRoomID != roomID {
				continue
			}
			guess, err := s.GetGuess(ctx, guessID)
			if err != nil {
				log.Warn().Err(err).Msg("failed to read inserted guess")
				continue
			}
			select {
			case out <- guess:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cancel, nil
}

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HemantKumar822/doodle-party/domain"
)

// PostgresStore is the durable side of the shared game state: room,
// player and guess rows. Coordination correctness leans on the store's
// last-write-wins row semantics, not on locks.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

const roomColumns = `id, room_code, status, current_round, max_rounds, current_drawer_index,
	current_word, word_selected_at, turn_ends_at, settings_json`

func scanRoom(row pgx.Row) (domain.Room, error) {
	var r domain.Room
	var settings []byte
	err := row.Scan(&r.ID, &r.RoomCode, &r.Status, &r.CurrentRound, &r.MaxRounds,
		&r.CurrentDrawerIndex, &r.CurrentWord, &r.WordSelectedAt, &r.TurnEndsAt, &settings)
	if err != nil {
		return domain.Room{}, err
	}
	if err := json.Unmarshal(settings, &r.Settings); err != nil {
		// Malformed settings fall back to defaults rather than failing
		// the session.
		r.Settings = domain.DefaultSettings()
	}
	return r, nil
}

func (s *PostgresStore) CreateRoom(ctx context.Context, code string, settings domain.Settings) (domain.Room, error) {
	settingsJSON, err := json.Marshal(settings)
	if err != nil {
		return domain.Room{}, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO rooms(room_code, max_rounds, settings_json) VALUES($1, $2, $3)
		 RETURNING `+roomColumns,
		code, settings.Rounds, settingsJSON)

	room, err := scanRoom(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Room{}, domain.ErrDuplicateCode
		}
		return domain.Room{}, wrapDBErr(err)
	}
	return room, nil
}

func (s *PostgresStore) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = $1`, id)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, wrapDBErr(err)
	}
	return room, nil
}

func (s *PostgresStore) GetRoomByCode(ctx context.Context, code string) (domain.Room, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+roomColumns+` FROM rooms WHERE room_code = $1`, code)
	room, err := scanRoom(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Room{}, domain.ErrCodeNotFound
		}
		return domain.Room{}, wrapDBErr(err)
	}
	return room, nil
}

func (s *PostgresStore) SetRoomStatus(ctx context.Context, id string, status domain.RoomStatus) error {
	_, err := s.pool.Exec(ctx, `UPDATE rooms SET status = $2 WHERE id = $1`, id, status)
	return wrapDBErr(err)
}

// SetTurnWord records the drawer's word choice and opens the drawing
// window in a single write, preserving the word/deadline invariant.
func (s *PostgresStore) SetTurnWord(ctx context.Context, id, word string, selectedAt, endsAt time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE rooms SET current_word = $2, word_selected_at = $3, turn_ends_at = $4 WHERE id = $1`,
		id, word, selectedAt, endsAt)
	return wrapDBErr(err)
}

// ForceTurnEnd pulls the deadline to now. The predicate makes the write
// idempotent under the duplicate triggers the at-least-once turn-end
// check can produce.
func (s *PostgresStore) ForceTurnEnd(ctx context.Context, id string, now time.Time) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE rooms SET turn_ends_at = $2 WHERE id = $1 AND turn_ends_at > $2`,
		id, now)
	return wrapDBErr(err)
}

// AdvanceTurn moves the room to the next drawer, clearing the word and
// both turn timestamps together.
func (s *PostgresStore) AdvanceTurn(ctx context.Context, id string, drawerIndex, round int, status domain.RoomStatus) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE rooms SET current_drawer_index = $2, current_round = $3, status = $4,
		 current_word = NULL, word_selected_at = NULL, turn_ends_at = NULL WHERE id = $1`,
		id, drawerIndex, round, status)
	return wrapDBErr(err)
}

// ResetRoom is the finished -> waiting transition: counters back to the
// start and every player score zeroed.
func (s *PostgresStore) ResetRoom(ctx context.Context, id string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return wrapDBErr(err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE rooms SET status = 'waiting', current_round = 1, current_drawer_index = 0,
		 current_word = NULL, word_selected_at = NULL, turn_ends_at = NULL WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(err)
	}
	_, err = tx.Exec(ctx, `UPDATE players SET score = 0 WHERE room_id = $1`, id)
	if err != nil {
		return wrapDBErr(err)
	}
	return wrapDBErr(tx.Commit(ctx))
}

// DeleteRoomIfEmpty garbage-collects a room once its last player left.
func (s *PostgresStore) DeleteRoomIfEmpty(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM rooms WHERE id = $1
		 AND NOT EXISTS (SELECT 1 FROM players WHERE room_id = $1)`, id)
	return wrapDBErr(err)
}

func wrapDBErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.DatabaseError, err)
}

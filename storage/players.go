package storage

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/HemantKumar822/doodle-party/domain"
)

const playerColumns = `id, room_id, display_name, score, is_host, turn_order, avatar_json`

func scanPlayer(row pgx.Row) (domain.Player, error) {
	var p domain.Player
	err := row.Scan(&p.ID, &p.RoomID, &p.DisplayName, &p.Score, &p.IsHost, &p.TurnOrder, &p.Avatar)
	return p, err
}

// CreatePlayer inserts a new player row. The (room_id, turn_order)
// unique index is what keeps the host-election tie-break sound: two
// players may never share an ordinal.
func (s *PostgresStore) CreatePlayer(ctx context.Context, roomID, displayName string, turnOrder int, isHost bool, avatar json.RawMessage) (domain.Player, error) {
	if len(avatar) == 0 {
		avatar = json.RawMessage(`{}`)
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO players(room_id, display_name, turn_order, is_host, avatar_json)
		 VALUES($1, $2, $3, $4, $5) RETURNING `+playerColumns,
		roomID, displayName, turnOrder, isHost, avatar)

	p, err := scanPlayer(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return domain.Player{}, domain.ErrTurnOrderTaken
			case "23503":
				return domain.Player{}, domain.ErrRoomNotFound
			}
		}
		return domain.Player{}, wrapDBErr(err)
	}
	return p, nil
}

func (s *PostgresStore) ListPlayers(ctx context.Context, roomID string) ([]domain.Player, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+playerColumns+` FROM players WHERE room_id = $1 ORDER BY turn_order`, roomID)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	players := make([]domain.Player, 0, 8)
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, wrapDBErr(err)
		}
		players = append(players, p)
	}
	return players, wrapDBErr(rows.Err())
}

func (s *PostgresStore) DeletePlayer(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM players WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *PostgresStore) SetHost(ctx context.Context, playerID string, isHost bool) error {
	tag, err := s.pool.Exec(ctx, `UPDATE players SET is_host = $2 WHERE id = $1`, playerID, isHost)
	if err != nil {
		return wrapDBErr(err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrPlayerNotFound
	}
	return nil
}

func (s *PostgresStore) AddScore(ctx context.Context, playerID string, delta int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE players SET score = GREATEST(score + $2, 0) WHERE id = $1`, playerID, delta)
	return wrapDBErr(err)
}

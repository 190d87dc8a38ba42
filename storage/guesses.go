package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/HemantKumar822/doodle-party/domain"
)

const guessColumns = `id, room_id, player_id, guess_text, is_correct, points_awarded, guessed_at`

func scanGuess(row pgx.Row) (domain.Guess, error) {
	var g domain.Guess
	err := row.Scan(&g.ID, &g.RoomID, &g.PlayerID, &g.GuessText, &g.IsCorrect, &g.PointsAwarded, &g.GuessedAt)
	return g, err
}

// InsertGuess appends to the guess log. Rows are never updated or
// deleted; correctness and points are fixed at insert time. Ids are
// generated client-side so a duplicate from a retried submit is
// rejected by the primary key instead of appearing twice.
func (s *PostgresStore) InsertGuess(ctx context.Context, g domain.Guess) (domain.Guess, error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	row := s.pool.QueryRow(ctx,
		`INSERT INTO guesses(id, room_id, player_id, guess_text, is_correct, points_awarded)
		 VALUES($1, $2, $3, $4, $5, $6) RETURNING `+guessColumns,
		g.ID, g.RoomID, g.PlayerID, g.GuessText, g.IsCorrect, g.PointsAwarded)

	out, err := scanGuess(row)
	if err != nil {
		return domain.Guess{}, wrapDBErr(err)
	}
	return out, nil
}

func (s *PostgresStore) GetGuess(ctx context.Context, id string) (domain.Guess, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+guessColumns+` FROM guesses WHERE id = $1`, id)
	g, err := scanGuess(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Guess{}, domain.ErrPlayerNotFound
		}
		return domain.Guess{}, wrapDBErr(err)
	}
	return g, nil
}

// CorrectGuessesSince answers the two turn queries: "has this player
// already solved" and "has everyone solved", both scoped to the current
// turn by word_selected_at.
func (s *PostgresStore) CorrectGuessesSince(ctx context.Context, roomID string, since time.Time) ([]domain.Guess, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+guessColumns+` FROM guesses
		 WHERE room_id = $1 AND is_correct AND guessed_at > $2
		 ORDER BY guessed_at`, roomID, since)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	guesses := make([]domain.Guess, 0, 8)
	for rows.Next() {
		g, err := scanGuess(rows)
		if err != nil {
			return nil, wrapDBErr(err)
		}
		guesses = append(guesses, g)
	}
	return guesses, wrapDBErr(rows.Err())
}

// ListGuesses returns the most recent chat history, oldest first.
func (s *PostgresStore) ListGuesses(ctx context.Context, roomID string, limit int) ([]domain.Guess, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT * FROM (
		   SELECT `+guessColumns+` FROM guesses WHERE room_id = $1
		   ORDER BY guessed_at DESC LIMIT $2
		 ) recent ORDER BY guessed_at`, roomID, limit)
	if err != nil {
		return nil, wrapDBErr(err)
	}
	defer rows.Close()

	guesses := make([]domain.Guess, 0, limit)
	for rows.Next() {
		g, err := scanGuess(rows)
		if err != nil {
			return nil, wrapDBErr(err)
		}
		guesses = append(guesses, g)
	}
	return guesses, wrapDBErr(rows.Err())
}

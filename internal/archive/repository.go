package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/sketchwager/internal/models"
	"github.com/rs/zerolog/log"
)

// Repository persists finished sessions to a device-local Postgres. This
// is deliberately a separate, narrower-scoped store: nothing in it is
// ever merged back into the replicated session state, it only records
// history for the local player.
type Repository struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS finished_sessions (
	session_code  TEXT PRIMARY KEY,
	winner        TEXT NOT NULL,
	wager_amount  TEXT NOT NULL,
	total_rounds  INT NOT NULL,
	payout_tx     TEXT NOT NULL DEFAULT '',
	scores        JSONB NOT NULL,
	players       JSONB NOT NULL,
	finished_at   TIMESTAMPTZ NOT NULL
)`

// New connects the archive pool and ensures the schema.
func New(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive pool: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure archive schema: %w", err)
	}
	log.Info().Msg("session archive ready")
	return &Repository{pool: pool}, nil
}

// SaveFinishedSession records a terminal session. Conflicts on the
// session code are ignored: FINISHED is reached exactly once, so a second
// save carries the same facts.
func (r *Repository) SaveFinishedSession(ctx context.Context, sess *models.GameSession, players map[models.PlayerID]models.Player) error {
	scores, err := json.Marshal(sess.Scores)
	if err != nil {
		return fmt.Errorf("failed to marshal scores: %w", err)
	}
	playerData, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("failed to marshal players: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO finished_sessions (session_code, winner, wager_amount, total_rounds, payout_tx, scores, players, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (session_code) DO NOTHING`,
		sess.SessionCode, string(sess.Winner), sess.WagerAmount, sess.TotalRounds,
		sess.PayoutTxHash, scores, playerData, time.Now())
	if err != nil {
		return fmt.Errorf("failed to archive session: %w", err)
	}
	return nil
}

// FinishedSession is one archived game.
type FinishedSession struct {
	SessionCode string
	Winner      models.PlayerID
	WagerAmount string
	TotalRounds int
	FinishedAt  time.Time
	Scores      map[models.PlayerID]int
}

// RecentSessions lists the most recently finished games.
func (r *Repository) RecentSessions(ctx context.Context, limit int) ([]FinishedSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_code, winner, wager_amount, total_rounds, finished_at, scores
		FROM finished_sessions
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var out []FinishedSession
	for rows.Next() {
		var fs FinishedSession
		var scores []byte
		if err := rows.Scan(&fs.SessionCode, &fs.Winner, &fs.WagerAmount, &fs.TotalRounds, &fs.FinishedAt, &scores); err != nil {
			return nil, fmt.Errorf("failed to scan archived session: %w", err)
		}
		if err := json.Unmarshal(scores, &fs.Scores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal archived scores: %w", err)
		}
		out = append(out, fs)
	}
	return out, rows.Err()
}

func (r *Repository) Close() {
	r.pool.Close()
}

// Package database persists round results and final standings to Postgres.
// The pool is optional: when Init was never called (or failed) every store
// helper is a no-op, so the engine runs fine without a database.
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the shared connection pool; nil when persistence is disabled.
var DB *pgxpool.Pool

// Init connects the pool and verifies the connection.
func Init(ctx context.Context, dsn string) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("ping postgres: %w", err)
	}
	DB = pool
	return nil
}

// EnsureSchema creates the result tables if they do not exist yet.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(ctx, `
CREATE TABLE IF NOT EXISTS round_results (
    id           BIGSERIAL PRIMARY KEY,
    room_id      TEXT        NOT NULL,
    round_number INT         NOT NULL,
    winner_id    UUID        NOT NULL,
    winner_name  TEXT        NOT NULL,
    pot          INT         NOT NULL,
    tiebreaker   BOOLEAN     NOT NULL,
    ended_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS game_results (
    id          BIGSERIAL PRIMARY KEY,
    room_id     TEXT        NOT NULL,
    winner_id   UUID        NOT NULL,
    winner_name TEXT        NOT NULL,
    final_chips JSONB       NOT NULL,
    ended_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`)
	return err
}

// RoundResult is one finished round's outcome.
type RoundResult struct {
	RoomID         string
	RoundNumber    int
	WinnerID       uuid.UUID
	WinnerName     string
	Pot            int
	TiebreakerUsed bool
}

// StoreRoundResult inserts one round outcome. No-op without a pool.
func StoreRoundResult(ctx context.Context, res RoundResult) error {
	if DB == nil {
		return nil
	}
	_, err := DB.Exec(ctx,
		`INSERT INTO round_results (room_id, round_number, winner_id, winner_name, pot, tiebreaker)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		res.RoomID, res.RoundNumber, res.WinnerID, res.WinnerName, res.Pot, res.TiebreakerUsed)
	return err
}

// StoreFinalStandings inserts the game outcome with every player's final
// chip count. No-op without a pool.
func StoreFinalStandings(ctx context.Context, roomID string, winnerID uuid.UUID, winnerName string, finalChips map[string]int) error {
	if DB == nil {
		return nil
	}
	chips, err := json.Marshal(finalChips)
	if err != nil {
		return err
	}
	_, err = DB.Exec(ctx,
		`INSERT INTO game_results (room_id, winner_id, winner_name, final_chips)
		 VALUES ($1, $2, $3, $4)`,
		roomID, winnerID, winnerName, chips)
	return err
}

// Close releases the pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}

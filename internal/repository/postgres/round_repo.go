package postgres

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avolkov/gemrush/backend/internal/domain"
	"github.com/avolkov/gemrush/backend/internal/game"
)

// RoundRepo stores finished rounds. Live rounds are never persisted;
// this is history only.
type RoundRepo struct {
	DB *sql.DB
}

func NewRoundRepo(db *sql.DB) *RoundRepo {
	return &RoundRepo{DB: db}
}

// RoundRecord is one finished round as read back from the database.
type RoundRecord struct {
	RoomID          string              `json:"roomId"`
	PlayerCount     int                 `json:"playerCount"`
	Winner          string              `json:"winner"`
	TopScore        int                 `json:"topScore"`
	DurationSeconds int                 `json:"durationSeconds"`
	Standings       []domain.PlayerInfo `json:"standings"`
	FinishedAt      time.Time           `json:"finishedAt"`
}

// SaveRound upserts one finished round. Upsert rather than insert: the
// deadline timer and a concurrent leave can both try to record the
// same room.
func (r *RoundRepo) SaveRound(summary game.RoundSummary) error {
	standingsJSON, err := json.Marshal(summary.Standings)
	if err != nil {
		return fmt.Errorf("failed to marshal standings: %v", err)
	}

	query := `
	INSERT INTO rounds (room_id, player_count, winner, top_score, duration_seconds, standings, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	ON CONFLICT (room_id) DO UPDATE SET
		player_count = EXCLUDED.player_count,
		winner = EXCLUDED.winner,
		top_score = EXCLUDED.top_score,
		duration_seconds = EXCLUDED.duration_seconds,
		standings = EXCLUDED.standings,
		finished_at = EXCLUDED.finished_at;
	`

	if _, err := r.DB.Exec(query, summary.RoomID, summary.PlayerCount, summary.Winner,
		summary.TopScore, summary.DurationSeconds, standingsJSON, summary.FinishedAt); err != nil {
		return fmt.Errorf("failed to upsert round record: %v", err)
	}
	return nil
}

// Recent returns the latest finished rounds, newest first.
func (r *RoundRepo) Recent(limit int) ([]RoundRecord, error) {
	query := `
	SELECT room_id, player_count, winner, top_score, duration_seconds, standings, finished_at
	FROM rounds
	ORDER BY finished_at DESC
	LIMIT $1;
	`

	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rounds: %v", err)
	}
	defer rows.Close()

	records := make([]RoundRecord, 0, limit)
	for rows.Next() {
		var rec RoundRecord
		var standingsJSON []byte
		if err := rows.Scan(&rec.RoomID, &rec.PlayerCount, &rec.Winner, &rec.TopScore,
			&rec.DurationSeconds, &standingsJSON, &rec.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round row: %v", err)
		}
		if err := json.Unmarshal(standingsJSON, &rec.Standings); err != nil {
			return nil, fmt.Errorf("failed to unmarshal standings: %v", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

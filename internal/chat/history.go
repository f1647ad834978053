package chat

import (
	"context"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// Recorder receives room lifecycle notifications. The coordinator invokes
// it outside its lock, from a single worker goroutine that preserves
// submission order; implementations may do I/O.
type Recorder interface {
	RoomCreated(roomID string, createdAt time.Time)
	RoomClosed(roomID, outcome string, createdAt, closedAt time.Time, friended bool)
}

// HistoryRecorder persists room lifecycle to Postgres and mirrors live
// counters to Redis for the status endpoint. Either backend may be nil.
type HistoryRecorder struct {
	db  *sqlx.DB
	rdb *redis.Client
}

func NewHistoryRecorder(db *sqlx.DB, rdb *redis.Client) *HistoryRecorder {
	return &HistoryRecorder{db: db, rdb: rdb}
}

func (h *HistoryRecorder) RoomCreated(roomID string, createdAt time.Time) {
	if h.db != nil {
		_, err := h.db.Exec(`
			INSERT INTO chat_sessions (room_id, created_at)
			VALUES ($1, $2)
			ON CONFLICT (room_id) DO NOTHING
		`, roomID, createdAt)
		if err != nil {
			log.Printf("[HISTORY] failed to record room %s: %v", roomID, err)
		}
	}
	if h.rdb != nil {
		h.rdb.Incr(context.Background(), "chat:rooms_created")
	}
}

func (h *HistoryRecorder) RoomClosed(roomID, outcome string, createdAt, closedAt time.Time, friended bool) {
	if h.db != nil {
		_, err := h.db.Exec(`
			UPDATE chat_sessions
			SET ended_at = $2, outcome = $3, friended = $4
			WHERE room_id = $1
		`, roomID, closedAt, outcome, friended)
		if err != nil {
			log.Printf("[HISTORY] failed to close room %s: %v", roomID, err)
		}
	}
	if h.rdb != nil && friended {
		h.rdb.Incr(context.Background(), "chat:friendships")
	}
}

// HistoryStats aggregates the session history table.
type HistoryStats struct {
	TotalSessions  int     `db:"total_sessions"`
	Friendships    int     `db:"friendships"`
	AvgDurationSec float64 `db:"avg_duration_sec"`
}

// Stats returns lifetime aggregates over recorded sessions.
func (h *HistoryRecorder) Stats() (*HistoryStats, error) {
	var stats HistoryStats
	if h.db == nil {
		return &stats, nil
	}
	err := h.db.Get(&stats, `
		SELECT COUNT(*) AS total_sessions,
		       COUNT(*) FILTER (WHERE friended) AS friendships,
		       COALESCE(AVG(EXTRACT(EPOCH FROM (ended_at - created_at))), 0) AS avg_duration_sec
		FROM chat_sessions
		WHERE ended_at IS NOT NULL
	`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

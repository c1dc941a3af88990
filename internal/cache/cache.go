// Package cache publishes game events to Redis for the audit/historian
// pipeline. Publication is fire-and-forget: the in-memory event log stays
// authoritative and a missing Redis connection disables publishing entirely.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. Nil when Redis is not configured;
// publishers must tolerate that.
var Rdb *redis.Client

// Init connects the shared client using a redis:// URL.
func Init(ctx context.Context, url string) error {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	Rdb = client
	return nil
}

// GameEventRecord is the flattened audit form of a room event.
type GameEventRecord struct {
	RoomID         string      `json:"roomId"`
	SequenceNumber uint64      `json:"sequenceNumber"`
	EventType      string      `json:"eventType"`
	PlayerID       uuid.UUID   `json:"playerId,omitempty"`
	Payload        interface{} `json:"payload,omitempty"`
	Timestamp      int64       `json:"timestamp"`
}

// eventsKey returns the per-room audit queue key.
func eventsKey(roomID string) string {
	return "sabacc:events:" + roomID
}

// PublishGameEvent appends one record to the room's audit queue.
// No-op when the client is not initialized.
func PublishGameEvent(ctx context.Context, rec GameEventRecord) error {
	if Rdb == nil {
		return nil
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal event record: %w", err)
	}
	if err := Rdb.RPush(ctx, eventsKey(rec.RoomID), data).Err(); err != nil {
		return fmt.Errorf("rpush event record: %w", err)
	}
	return nil
}

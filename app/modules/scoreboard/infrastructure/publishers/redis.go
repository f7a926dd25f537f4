package scoreboardpublishers

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/redis/go-redis/v9"
)

// RedisSink stores the documents under {prefix}:{contest}:ranking and
// {prefix}:{contest}:scroll and announces each update on {prefix}:updates.
type RedisSink struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// UpdateNotice is published after the documents are stored.
type UpdateNotice struct {
	ContestID     string    `json:"contest_id"`
	CycleID       string    `json:"cycle_id"`
	HighWaterMark int64     `json:"high_water_mark"`
	CapturedAt    time.Time `json:"captured_at"`
}

// NewRedisSink keeps documents forever when ttl is zero.
func NewRedisSink(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisSink {
	return &RedisSink{client: client, prefix: cmp.Or(prefix, "srk"), ttl: ttl}
}

func (s *RedisSink) Name() string { return "redis" }

func (s *RedisSink) RankingKey(contestID string) string {
	return fmt.Sprintf("%s:%s:ranking", s.prefix, contestID)
}

func (s *RedisSink) ScrollKey(contestID string) string {
	return fmt.Sprintf("%s:%s:scroll", s.prefix, contestID)
}

func (s *RedisSink) UpdatesChannel() string { return s.prefix + ":updates" }

func (s *RedisSink) Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error {
	docs, err := Encode(snap)
	if err != nil {
		return err
	}
	notice, err := json.Marshal(UpdateNotice{
		ContestID:     snap.ContestID,
		CycleID:       snap.CycleID,
		HighWaterMark: snap.HighWaterMark,
		CapturedAt:    snap.CapturedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to encode update notice: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.RankingKey(snap.ContestID), docs.Ranking, s.ttl)
		pipe.Set(ctx, s.ScrollKey(snap.ContestID), docs.Scroll, s.ttl)
		pipe.Publish(ctx, s.UpdatesChannel(), notice)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis publish for contest %s: %w", snap.ContestID, err)
	}
	return nil
}

// NewRedisClient dials addr and pings it.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

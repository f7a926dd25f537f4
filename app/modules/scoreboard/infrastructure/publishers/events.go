package scoreboardpublishers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
)

// SnapshotPublishedV1 is the topic of the snapshot event.
const SnapshotPublishedV1 = "scoreboard.snapshot.published.v1"

// SnapshotPublishedPayloadV1 is a summary; readers fetch the documents from
// the file or redis sinks.
type SnapshotPublishedPayloadV1 struct {
	ContestID     string    `json:"contest_id"`
	CycleID       string    `json:"cycle_id"`
	HighWaterMark int64     `json:"high_water_mark"`
	CapturedAt    time.Time `json:"captured_at"`
	TeamCount     int       `json:"team_count"`
}

// EventSink announces snapshots on a watermill publisher.
type EventSink struct {
	publisher message.Publisher
	topic     string
}

func NewEventSink(publisher message.Publisher, topic string) *EventSink {
	if topic == "" {
		topic = SnapshotPublishedV1
	}
	return &EventSink{publisher: publisher, topic: topic}
}

func (s *EventSink) Name() string { return "events" }

func (s *EventSink) Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error {
	payload := SnapshotPublishedPayloadV1{
		ContestID:     snap.ContestID,
		CycleID:       snap.CycleID,
		HighWaterMark: snap.HighWaterMark,
		CapturedAt:    snap.CapturedAt,
		TeamCount:     len(snap.Ranking.Rows),
	}
	payloadData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), payloadData)
	msg.Metadata.Set("subject", s.topic)
	msg.Metadata.Set("contest_id", snap.ContestID)
	msg.Metadata.Set("cycle_id", snap.CycleID)
	msg.SetContext(ctx)

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

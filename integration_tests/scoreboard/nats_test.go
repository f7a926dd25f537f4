package scoreboardintegrationtests

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/Black-And-White-Club/srk-board/app/eventbus"
	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboardpublishers "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/publishers"
	scoreboardsources "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/sources"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const judgeBatch = `{"submissions": [
	{"id": 1, "team_id": "t1", "problem_id": "A", "status": "WA", "submitted_at": 1760259660},
	{"id": 2, "team_id": "t1", "problem_id": "A", "status": "AC", "submitted_at": 1760259725},
	{"id": 3, "team_id": "t2", "problem_id": "B", "status": "Judging", "submitted_at": 1760260200}
]}`

func newDecoder(t *testing.T) scoreboardsources.Decoder {
	t.Helper()
	d, err := scoreboardsources.NewDecoder(scoreboardsources.FieldMapping{}, scoreboardsources.TimestampSeconds, nil)
	require.NoError(t, err)
	return d
}

func TestNATSSource_RequestReply(t *testing.T) {
	subject := "judge.regional.submissions"

	requests := make(chan scoreboardsources.FetchRequest, 4)
	sub, err := testEnv.NatsConn.Subscribe(subject, func(msg *nats.Msg) {
		var req scoreboardsources.FetchRequest
		_ = json.Unmarshal(msg.Data, &req)
		requests <- req
		_ = msg.Respond([]byte(judgeBatch))
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, testEnv.NatsConn.Flush())

	src, err := scoreboardsources.NewNATSSource("judge", scoreboardsources.NATSConfig{
		URL:     testEnv.Config.NATS.URL,
		Subject: subject,
		Timeout: 5 * time.Second,
	}, newDecoder(t), testEnv.Logger)
	require.NoError(t, err)
	defer src.Close()

	subs, err := src.Fetch(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, int64(2), subs[0].ID)
	assert.Equal(t, "AC", subs[0].Status)
	assert.Equal(t, int64(3), subs[1].ID)

	select {
	case req := <-requests:
		assert.Equal(t, scoreboardsources.FetchRequest{After: 1, Limit: 10}, req)
	case <-time.After(5 * time.Second):
		t.Fatal("responder never saw the request")
	}
}

func TestNATSSource_ResponderError(t *testing.T) {
	subject := "judge.broken.submissions"
	sub, err := testEnv.NatsConn.Subscribe(subject, func(msg *nats.Msg) {
		reply := nats.NewMsg(msg.Reply)
		reply.Header.Set("Error", "database unavailable")
		_ = msg.RespondMsg(reply)
	})
	require.NoError(t, err)
	defer sub.Unsubscribe()
	require.NoError(t, testEnv.NatsConn.Flush())

	src := scoreboardsources.NewNATSSourceFromConn("judge", testEnv.NatsConn, subject, time.Second, newDecoder(t), testEnv.Logger)
	_, err = src.Fetch(context.Background(), 0, 0)
	require.ErrorContains(t, err, "database unavailable")
}

func TestNATSSource_NoResponder(t *testing.T) {
	src := scoreboardsources.NewNATSSourceFromConn("judge", testEnv.NatsConn, "judge.nobody.home", 500*time.Millisecond, newDecoder(t), testEnv.Logger)
	_, err := src.Fetch(context.Background(), 0, 0)
	require.Error(t, err)
}

func TestEventSink_PublishesOverNATS(t *testing.T) {
	for _, jetStream := range []bool{false, true} {
		name := "core"
		if jetStream {
			name = "jetstream"
		}
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cfg := eventbus.Config{URL: testEnv.Config.NATS.URL, JetStream: jetStream}
			topic := "scoreboard.snapshot.published.v1." + name
			if jetStream {
				require.NoError(t, eventbus.ProvisionStream(ctx, cfg.URL, topic, testEnv.Logger))
			}

			subscriber, err := eventbus.NewSubscriber(cfg, "it-"+name, testEnv.Logger)
			require.NoError(t, err)
			defer subscriber.Close()

			messages, err := subscriber.Subscribe(ctx, topic)
			require.NoError(t, err)

			publisher, err := eventbus.NewPublisher(cfg, testEnv.Logger)
			require.NoError(t, err)
			defer publisher.Close()

			snap := scoreboarddomain.Snapshot{
				ContestID:     "regional-2025",
				CycleID:       "cycle-" + name,
				CapturedAt:    time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC),
				HighWaterMark: 17,
				Ranking: scoreboarddomain.RankingDocument{
					Rows: []scoreboarddomain.RowInfo{{User: scoreboarddomain.UserInfo{ID: "t1"}}},
				},
			}
			sink := scoreboardpublishers.NewEventSink(publisher, topic)
			require.NoError(t, sink.Publish(ctx, snap))

			// A core NATS subscription may still be in flight on the server, so
			// keep announcing until one arrives.
			retry := time.NewTicker(250 * time.Millisecond)
			defer retry.Stop()
			go func() {
				for {
					select {
					case <-ctx.Done():
						return
					case <-retry.C:
						_ = sink.Publish(ctx, snap)
					}
				}
			}()

			select {
			case msg := <-messages:
				msg.Ack()
				var payload scoreboardpublishers.SnapshotPublishedPayloadV1
				require.NoError(t, json.Unmarshal(msg.Payload, &payload))
				assert.Equal(t, "regional-2025", payload.ContestID)
				assert.Equal(t, snap.CycleID, payload.CycleID)
				assert.Equal(t, int64(17), payload.HighWaterMark)
				assert.Equal(t, 1, payload.TeamCount)
				assert.Equal(t, snap.CycleID, msg.Metadata.Get("cycle_id"))
			case <-ctx.Done():
				t.Fatal("snapshot event never arrived")
			}
			cancel()
		})
	}
}

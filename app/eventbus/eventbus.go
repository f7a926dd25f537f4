package eventbus

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// Config selects the NATS transport for scoreboard events.
type Config struct {
	URL string
	// JetStream publishes into streams created with ProvisionStream instead
	// of core NATS.
	JetStream bool
}

// StreamName derives a stream name from topic. Stream names may not contain dots.
func StreamName(topic string) string {
	return strings.ToUpper(strings.ReplaceAll(topic, ".", "_"))
}

// ProvisionStream creates or updates the stream that stores topic.
func ProvisionStream(ctx context.Context, url, topic string, logger *slog.Logger) error {
	conn, err := nc.Connect(url, nc.Name("srk-board provisioner"))
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}
	defer conn.Close()

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("failed to create JetStream context: %w", err)
	}

	name := StreamName(topic)
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  []string{topic},
		Retention: jetstream.LimitsPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   jetstream.FileStorage,
	}); err != nil {
		return fmt.Errorf("failed to provision stream %s: %w", name, err)
	}

	logger.InfoContext(ctx, "JetStream stream ready", slog.String("stream", name), slog.String("subject", topic))
	return nil
}

// NewPublisher creates a watermill publisher on NATS.
func NewPublisher(cfg Config, logger *slog.Logger) (message.Publisher, error) {
	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:       cfg.URL,
			Marshaler: &nats.NATSMarshaler{},
			NatsOptions: []nc.Option{
				nc.Name("srk-board events"),
				nc.RetryOnFailedConnect(true),
				nc.ReconnectWait(time.Second),
			},
			JetStream: nats.JetStreamConfig{
				Disabled: !cfg.JetStream,
			},
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		logger.Error("Failed to create Watermill publisher", slog.Any("error", err))
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}
	return publisher, nil
}

// NewSubscriber is the matching subscriber, used by readers and tests.
func NewSubscriber(cfg Config, queueGroup string, logger *slog.Logger) (message.Subscriber, error) {
	subscriber, err := nats.NewSubscriber(
		nats.SubscriberConfig{
			URL:              cfg.URL,
			QueueGroupPrefix: queueGroup,
			Unmarshaler:      &nats.NATSMarshaler{},
			NatsOptions: []nc.Option{
				nc.RetryOnFailedConnect(true),
			},
			JetStream: nats.JetStreamConfig{
				Disabled: !cfg.JetStream,
			},
			SubjectCalculator: nats.DefaultSubjectCalculator,
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Watermill subscriber: %w", err)
	}
	return subscriber, nil
}

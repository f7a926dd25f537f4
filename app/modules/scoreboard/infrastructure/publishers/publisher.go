package scoreboardpublishers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
)

// Sink is one destination of a snapshot.
type Sink interface {
	Name() string
	Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error
}

// Publisher fans a snapshot out to its sinks in order. Every sink is tried;
// their errors are joined.
type Publisher struct {
	sinks   []Sink
	logger  *slog.Logger
	metrics observability.ScoreboardMetrics
}

func NewPublisher(logger *slog.Logger, metrics observability.ScoreboardMetrics, sinks ...Sink) *Publisher {
	return &Publisher{sinks: sinks, logger: logger, metrics: metrics}
}

func (p *Publisher) Sinks() []Sink { return p.sinks }

func (p *Publisher) Publish(ctx context.Context, snap scoreboarddomain.Snapshot) error {
	var errs []error
	for _, sink := range p.sinks {
		if err := sink.Publish(ctx, snap); err != nil {
			p.metrics.RecordSinkFailure(ctx, sink.Name())
			p.logger.ErrorContext(ctx, "Snapshot sink failed",
				attr.String("sink", sink.Name()),
				attr.CycleIDFromContext(ctx),
				attr.Error(err),
			)
			errs = append(errs, fmt.Errorf("sink %s: %w", sink.Name(), err))
			continue
		}
		p.metrics.RecordSinkPublished(ctx, sink.Name())
	}
	return errors.Join(errs...)
}

// Documents is a snapshot rendered for readers.
type Documents struct {
	Ranking []byte
	Scroll  []byte
}

func Encode(snap scoreboarddomain.Snapshot) (Documents, error) {
	ranking, err := json.Marshal(snap.Ranking)
	if err != nil {
		return Documents{}, fmt.Errorf("failed to encode ranking: %w", err)
	}
	scroll, err := json.Marshal(snap.Scroll)
	if err != nil {
		return Documents{}, fmt.Errorf("failed to encode scroll: %w", err)
	}
	return Documents{Ranking: ranking, Scroll: scroll}, nil
}

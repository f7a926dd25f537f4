package scoreboardsources

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nkeys"
)

const defaultNATSTimeout = 5 * time.Second

type NATSConfig struct {
	URL     string
	Subject string
	// NKeySeed authenticates the connection when set.
	NKeySeed string
	Timeout  time.Duration
}

// FetchRequest is the body sent to the submissions responder.
type FetchRequest struct {
	After int64 `json:"after"`
	Limit int   `json:"limit,omitempty"`
}

// NATSSource asks a responder on Subject for submissions. The reply body uses
// the same JSON shapes as the HTTP source.
type NATSSource struct {
	name    string
	nc      *nats.Conn
	owned   bool
	subject string
	timeout time.Duration
	decoder Decoder
	logger  *slog.Logger
}

// NewNATSSource dials cfg.URL.
func NewNATSSource(name string, cfg NATSConfig, decoder Decoder, logger *slog.Logger) (*NATSSource, error) {
	opts := []nats.Option{nats.Name("srk-board " + name)}
	if cfg.NKeySeed != "" {
		opt, err := nkeyOption(cfg.NKeySeed)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}
		opts = append(opts, opt)
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("source %s: failed to connect to NATS: %w", name, err)
	}
	s := NewNATSSourceFromConn(name, nc, cfg.Subject, cfg.Timeout, decoder, logger)
	s.owned = true
	return s, nil
}

// NewNATSSourceFromConn shares an existing connection. Close leaves it open.
func NewNATSSourceFromConn(name string, nc *nats.Conn, subject string, timeout time.Duration, decoder Decoder, logger *slog.Logger) *NATSSource {
	return &NATSSource{
		name:    name,
		nc:      nc,
		subject: subject,
		timeout: cmp.Or(timeout, defaultNATSTimeout),
		decoder: decoder,
		logger:  logger,
	}
}

func nkeyOption(seed string) (nats.Option, error) {
	kp, err := nkeys.FromSeed([]byte(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nkey seed: %w", err)
	}
	pub, err := kp.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("failed to derive nkey public key: %w", err)
	}
	return nats.Nkey(pub, kp.Sign), nil
}

func (s *NATSSource) Name() string { return s.name }

func (s *NATSSource) Fetch(ctx context.Context, afterID int64, limit int) ([]scoreboarddomain.RawSubmission, error) {
	payload, err := json.Marshal(FetchRequest{After: afterID, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("failed to encode fetch request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg, err := s.nc.RequestWithContext(ctx, s.subject, payload)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", s.subject, err)
	}
	if errText := msg.Header.Get("Error"); errText != "" {
		return nil, fmt.Errorf("responder on %s failed: %s", s.subject, errText)
	}

	subs, err := s.decoder.DecodeBatch(msg.Data)
	if err != nil {
		return nil, err
	}
	subs = after(subs, afterID, limit)

	s.logger.DebugContext(ctx, "Fetched submissions",
		attr.Source(s.name),
		attr.CycleIDFromContext(ctx),
		attr.String("subject", s.subject),
		attr.Int("count", len(subs)),
	)
	return subs, nil
}

func (s *NATSSource) Close() {
	if s.owned {
		s.nc.Close()
	}
}

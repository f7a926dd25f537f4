package scoreboardsources

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	"github.com/Black-And-White-Club/srk-board/app/shared/observability/attr"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	defaultHTTPTimeout = 10 * time.Second
	maxResponseBytes   = 32 << 20
	userAgent          = "srk-board/1.0"
)

// OAuth2Config enables the client credentials flow.
type OAuth2Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	Scopes       []string
}

// HTTPConfig describes an upstream judge endpoint.
type HTTPConfig struct {
	BaseURL    string
	AfterParam string
	LimitParam string
	Headers    map[string]string

	// At most one of these is used, in this order.
	OAuth2      *OAuth2Config
	BearerToken string
	Cookie      string

	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
}

// HTTPSource polls an upstream JSON endpoint with ?after=X&limit=N.
type HTTPSource struct {
	name    string
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	decoder Decoder
	logger  *slog.Logger
}

// NewHTTPSource builds the client. ctx bounds token refreshes for OAuth2.
func NewHTTPSource(ctx context.Context, name string, cfg HTTPConfig, decoder Decoder, logger *slog.Logger) (*HTTPSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("source %s: base url is required", name)
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("source %s: invalid base url: %w", name, err)
	}
	cfg.AfterParam = cmp.Or(cfg.AfterParam, "after")
	cfg.LimitParam = cmp.Or(cfg.LimitParam, "limit")
	cfg.Timeout = cmp.Or(cfg.Timeout, defaultHTTPTimeout)

	client := &http.Client{Timeout: cfg.Timeout}
	if o := cfg.OAuth2; o != nil {
		cc := clientcredentials.Config{
			ClientID:     o.ClientID,
			ClientSecret: o.ClientSecret,
			TokenURL:     o.TokenURL,
			Scopes:       o.Scopes,
		}
		client = cc.Client(context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout}))
		client.Timeout = cfg.Timeout
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := max(cfg.Burst, 1)

	return &HTTPSource{
		name:    name,
		cfg:     cfg,
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		decoder: decoder,
		logger:  logger,
	}, nil
}

func (s *HTTPSource) Name() string { return s.name }

func (s *HTTPSource) Fetch(ctx context.Context, afterID int64, limit int) ([]scoreboarddomain.RawSubmission, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := s.newRequest(ctx, afterID, limit)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", s.cfg.BaseURL, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("upstream returned %s", resp.Status)
	}

	subs, err := s.decoder.DecodeBatch(body)
	if err != nil {
		return nil, err
	}
	subs = after(subs, afterID, limit)

	s.logger.DebugContext(ctx, "Fetched submissions",
		attr.Source(s.name),
		attr.CycleIDFromContext(ctx),
		attr.Int64("after", afterID),
		attr.Int("count", len(subs)),
		attr.Duration("elapsed", time.Since(start)),
	)
	return subs, nil
}

func (s *HTTPSource) newRequest(ctx context.Context, afterID int64, limit int) (*http.Request, error) {
	u, err := url.Parse(s.cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	q := u.Query()
	q.Set(s.cfg.AfterParam, strconv.FormatInt(afterID, 10))
	if limit > 0 {
		q.Set(s.cfg.LimitParam, strconv.Itoa(limit))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	for k, v := range s.cfg.Headers {
		req.Header.Set(k, v)
	}
	if s.cfg.OAuth2 == nil {
		switch {
		case s.cfg.BearerToken != "":
			req.Header.Set("Authorization", "Bearer "+s.cfg.BearerToken)
		case s.cfg.Cookie != "":
			req.Header.Set("Cookie", s.cfg.Cookie)
		}
	}
	return req, nil
}

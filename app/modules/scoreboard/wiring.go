package scoreboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	scoreboardservice "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/application"
	scoreboarddomain "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/domain"
	scoreboardpublishers "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/publishers"
	scoreboardsources "github.com/Black-And-White-Club/srk-board/app/modules/scoreboard/infrastructure/sources"
	"github.com/Black-And-White-Club/srk-board/config"
)

// buildContest resolves the contest start against now.
func buildContest(cfg config.ContestConfig, now time.Time) (scoreboarddomain.Contest, error) {
	startAt, err := cfg.ParseStartAt(now)
	if err != nil {
		return scoreboarddomain.Contest{}, err
	}
	contest := scoreboarddomain.Contest{
		ID:             cfg.ID,
		Title:          cfg.Title,
		StartAt:        startAt,
		Duration:       cfg.Duration,
		FrozenDuration: cfg.FrozenDuration,
		Penalty:        cfg.Penalty,
	}
	if err := contest.Validate(); err != nil {
		return scoreboarddomain.Contest{}, fmt.Errorf("invalid contest: %w", err)
	}
	return contest, nil
}

func buildSeries(cfgs []config.SeriesConfig) ([]scoreboarddomain.SeriesDefinition, error) {
	defs := make([]scoreboarddomain.SeriesDefinition, 0, len(cfgs))
	for _, c := range cfgs {
		def := scoreboarddomain.SeriesDefinition{
			Title: c.Title,
			Rule: scoreboarddomain.SeriesRule{
				OfficialOnly:         c.Rule.OfficialOnly,
				UniqueByOrganization: c.Rule.UniqueByOrganization,
				Marker:               scoreboarddomain.MarkerID(c.Rule.Marker),
			},
		}
		if c.Medals != nil {
			policy, err := medalPolicy(*c.Medals)
			if err != nil {
				return nil, fmt.Errorf("series %q: %w", c.Title, err)
			}
			def.Medals = &policy
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// medalPolicy starts from the preset, when one is named, and lets the
// explicit fields refine it.
func medalPolicy(c config.MedalsConfig) (scoreboarddomain.MedalPolicy, error) {
	var p scoreboarddomain.MedalPolicy
	switch strings.ToLower(c.Preset) {
	case "":
		p.MinScoringTeams = 1
	case "icpc", "ratio":
		p = scoreboarddomain.ICPCMedalPolicy()
	default:
		return p, fmt.Errorf("unknown medal preset %q", c.Preset)
	}

	if c.Kind != "" {
		p.Kind = scoreboarddomain.MedalPolicyKind(c.Kind)
	}
	if c.Counts != [3]int{} {
		p.Counts = c.Counts
		if c.Kind == "" && c.Preset == "" {
			p.Kind = scoreboarddomain.MedalPolicyCounts
		}
	}
	if c.Fractions != [3]float64{} {
		p.Fractions = c.Fractions
		if c.Kind == "" && c.Preset == "" {
			p.Kind = scoreboarddomain.MedalPolicyFractions
		}
	}
	if c.Rounding != "" {
		p.Rounding = scoreboarddomain.Rounding(c.Rounding)
	}
	if c.LargePopulationThreshold != 0 {
		p.LargePopulationThreshold = c.LargePopulationThreshold
		p.LargePopulationCounts = c.LargePopulationCounts
	}
	if c.MinScoringTeams != nil {
		p.MinScoringTeams = *c.MinScoringTeams
	}
	p.Reference = c.Reference
	p.MaxSolvedGap = c.MaxSolvedGap

	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

func buildNormalizer(cfg config.SourceConfig) (*scoreboarddomain.Normalizer, error) {
	vocab, err := scoreboarddomain.VocabularyPreset(cfg.Vocabulary)
	if err != nil {
		return nil, err
	}
	return scoreboarddomain.NewNormalizer(cfg.Name, vocab, cfg.StatusOverrides)
}

func buildDecoder(cfg config.SourceConfig, contestLoc *time.Location) (scoreboardsources.Decoder, error) {
	loc := contestLoc
	if cfg.Timezone != "" {
		l, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return scoreboardsources.Decoder{}, fmt.Errorf("failed to load source timezone %q: %w", cfg.Timezone, err)
		}
		loc = l
	}
	fields := scoreboardsources.FieldMapping{
		ID:        cfg.Fields.ID,
		Team:      cfg.Fields.Team,
		Problem:   cfg.Fields.Problem,
		Status:    cfg.Fields.Status,
		Timestamp: cfg.Fields.Timestamp,
	}
	return scoreboardsources.NewDecoder(fields, scoreboardsources.TimestampUnit(cfg.TimestampUnit), loc)
}

// buildSource returns the configured source and a function releasing it.
func buildSource(
	ctx context.Context,
	cfg *config.Config,
	decoder scoreboardsources.Decoder,
	logger *slog.Logger,
) (scoreboardservice.SubmissionSource, func(), error) {
	src := cfg.Source
	switch src.Kind {
	case config.SourceHTTP:
		httpCfg := scoreboardsources.HTTPConfig{
			BaseURL:           src.HTTP.BaseURL,
			AfterParam:        src.HTTP.AfterParam,
			LimitParam:        src.HTTP.LimitParam,
			Headers:           src.HTTP.Headers,
			BearerToken:       src.HTTP.BearerToken,
			Cookie:            src.HTTP.Cookie,
			RequestsPerSecond: src.HTTP.RequestsPerSecond,
			Burst:             src.HTTP.Burst,
			Timeout:           src.HTTP.Timeout,
		}
		if o := src.HTTP.OAuth2; o != nil {
			httpCfg.OAuth2 = &scoreboardsources.OAuth2Config{
				ClientID:     o.ClientID,
				ClientSecret: o.ClientSecret,
				TokenURL:     o.TokenURL,
				Scopes:       o.Scopes,
			}
		}
		s, err := scoreboardsources.NewHTTPSource(ctx, src.Name, httpCfg, decoder, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil

	case config.SourceNATS:
		s, err := scoreboardsources.NewNATSSource(src.Name, scoreboardsources.NATSConfig{
			URL:      cfg.NATS.URL,
			Subject:  src.NATS.Subject,
			NKeySeed: src.NATS.NKeySeed,
			Timeout:  src.NATS.Timeout,
		}, decoder, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil

	case config.SourceFile:
		return scoreboardsources.NewFileSource(src.Name, src.File.Path, decoder), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown source kind %q", src.Kind)
}

// buildFileSinks returns the sinks that need nothing but the filesystem.
func buildFileSinks(cfg config.PublishConfig) []scoreboardpublishers.Sink {
	var sinks []scoreboardpublishers.Sink
	if cfg.Dir != "" {
		sinks = append(sinks, scoreboardpublishers.NewFileSink(cfg.Dir))
	}
	if cfg.ChartPath != "" {
		sinks = append(sinks, scoreboardpublishers.NewChartSink(cfg.ChartPath))
	}
	return sinks
}

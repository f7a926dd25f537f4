package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Contest       ContestConfig       `yaml:"contest"`
	Roster        RosterConfig        `yaml:"roster"`
	Series        []SeriesConfig      `yaml:"series"`
	Source        SourceConfig        `yaml:"source"`
	Publish       PublishConfig       `yaml:"publish"`
	Scheduler     SchedulerConfig     `yaml:"scheduler"`
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	Redis         RedisConfig         `yaml:"redis"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ContestConfig holds the timing rules of the contest.
type ContestConfig struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	// StartAt is RFC3339, "2006-01-02 15:04:05" in Timezone, or a phrase
	// such as "today at 9:00".
	StartAt        string        `yaml:"start_at"`
	Timezone       string        `yaml:"timezone"`
	Duration       time.Duration `yaml:"duration"`
	FrozenDuration time.Duration `yaml:"frozen_duration"`
	Penalty        time.Duration `yaml:"penalty"`
}

// RosterConfig points at the team and problem definitions.
type RosterConfig struct {
	Path string `yaml:"path"`
	// TeamsPath replaces the teams of Path. It may be YAML or XLSX.
	TeamsPath string `yaml:"teams_path"`
}

// SeriesConfig is one ranking view.
type SeriesConfig struct {
	Title  string        `yaml:"title"`
	Rule   SeriesRule    `yaml:"rule"`
	Medals *MedalsConfig `yaml:"medals"`
}

type SeriesRule struct {
	OfficialOnly         bool   `yaml:"official_only"`
	UniqueByOrganization bool   `yaml:"unique_by_organization"`
	Marker               string `yaml:"marker"`
}

// MedalsConfig is either a preset ("icpc") or an explicit policy.
type MedalsConfig struct {
	Preset                   string     `yaml:"preset"`
	Kind                     string     `yaml:"kind"`
	Counts                   [3]int     `yaml:"counts"`
	Fractions                [3]float64 `yaml:"fractions"`
	Rounding                 string     `yaml:"rounding"`
	LargePopulationThreshold int        `yaml:"large_population_threshold"`
	LargePopulationCounts    [3]int     `yaml:"large_population_counts"`
	MinScoringTeams          *int       `yaml:"min_scoring_teams"`
	Reference                string     `yaml:"reference"`
	MaxSolvedGap             int        `yaml:"max_solved_gap"`
}

// SourceConfig selects where submissions come from.
type SourceConfig struct {
	Kind            string            `yaml:"kind"` // http|nats|file
	Name            string            `yaml:"name"`
	Vocabulary      string            `yaml:"vocabulary"`
	StatusOverrides map[string]string `yaml:"status_overrides"`
	FetchLimit      int               `yaml:"fetch_limit"`
	TimestampUnit   string            `yaml:"timestamp_unit"`
	Timezone        string            `yaml:"timezone"`
	Fields          FieldsConfig      `yaml:"fields"`
	HTTP            HTTPSourceConfig  `yaml:"http"`
	NATS            NATSSourceConfig  `yaml:"nats"`
	File            FileSourceConfig  `yaml:"file"`
}

type FieldsConfig struct {
	ID        string `yaml:"id"`
	Team      string `yaml:"team"`
	Problem   string `yaml:"problem"`
	Status    string `yaml:"status"`
	Timestamp string `yaml:"timestamp"`
}

type HTTPSourceConfig struct {
	BaseURL           string            `yaml:"base_url"`
	AfterParam        string            `yaml:"after_param"`
	LimitParam        string            `yaml:"limit_param"`
	Headers           map[string]string `yaml:"headers"`
	BearerToken       string            `yaml:"bearer_token"`
	Cookie            string            `yaml:"cookie"`
	RequestsPerSecond float64           `yaml:"requests_per_second"`
	Burst             int               `yaml:"burst"`
	Timeout           time.Duration     `yaml:"timeout"`
	OAuth2            *OAuth2Config     `yaml:"oauth2"`
}

type OAuth2Config struct {
	ClientID     string   `yaml:"client_id"`
	ClientSecret string   `yaml:"client_secret"`
	TokenURL     string   `yaml:"token_url"`
	Scopes       []string `yaml:"scopes"`
}

// NATSSourceConfig reuses the connection URL of NATSConfig.
type NATSSourceConfig struct {
	Subject  string        `yaml:"subject"`
	NKeySeed string        `yaml:"nkey_seed"`
	Timeout  time.Duration `yaml:"timeout"`
}

type FileSourceConfig struct {
	Path string `yaml:"path"`
}

// PublishConfig holds the snapshot sinks. The memory sink is always on.
type PublishConfig struct {
	Dir              string        `yaml:"dir"`
	ChartPath        string        `yaml:"chart_path"`
	IncludeSolutions bool          `yaml:"include_solutions"`
	ScrollWindow     time.Duration `yaml:"scroll_window"`
	Redis            RedisSink     `yaml:"redis"`
	Events           EventsSink    `yaml:"events"`
}

type RedisSink struct {
	Enabled bool          `yaml:"enabled"`
	Prefix  string        `yaml:"prefix"`
	TTL     time.Duration `yaml:"ttl"`
}

type EventsSink struct {
	Enabled   bool   `yaml:"enabled"`
	Topic     string `yaml:"topic"`
	JetStream bool   `yaml:"jetstream"`
}

// SchedulerConfig decides how cycles are driven.
type SchedulerConfig struct {
	Kind           string        `yaml:"kind"` // loop|river
	PollInterval   time.Duration `yaml:"poll_interval"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
	ReplayPageSize int           `yaml:"replay_page_size"`
}

// PostgresConfig holds Postgres configuration. An empty DSN keeps the ledger in memory.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// HTTPConfig holds the read API listener.
type HTTPConfig struct {
	Address           string  `yaml:"address"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	Secret     string        `yaml:"secret"`
	DefaultTTL time.Duration `yaml:"default_ttl"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment     string  `yaml:"environment"`
	LogLevel        string  `yaml:"log_level"`
	MetricsAddress  string  `yaml:"metrics_address"`
	OTLPEndpoint    string  `yaml:"otlp_endpoint"`
	OTLPInsecure    bool    `yaml:"otlp_insecure"`
	TraceSampleRate float64 `yaml:"trace_sample_rate"`
}

const (
	SourceHTTP = "http"
	SourceNATS = "nats"
	SourceFile = "file"

	SchedulerLoop  = "loop"
	SchedulerRiver = "river"
)

// LoadConfig loads the configuration from a YAML file.
func LoadConfig(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		// If the file is not found, try loading from environment variables
		return loadConfigFromEnv()
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnvOverrides(&cfg)
	cfg.applyDefaults()
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("SOURCE_URL"); v != "" {
		cfg.Source.HTTP.BaseURL = v
	}
	if v := os.Getenv("SOURCE_TOKEN"); v != "" {
		cfg.Source.HTTP.BearerToken = v
	}
}

// loadConfigFromEnv loads the configuration from environment variables.
func loadConfigFromEnv() (*Config, error) {
	var cfg Config

	cfg.Contest.ID = os.Getenv("CONTEST_ID")
	if cfg.Contest.ID == "" {
		return nil, fmt.Errorf("CONTEST_ID environment variable not set")
	}
	cfg.Contest.Title = os.Getenv("CONTEST_TITLE")
	cfg.Contest.StartAt = os.Getenv("CONTEST_START_AT")
	cfg.Contest.Timezone = os.Getenv("CONTEST_TIMEZONE")

	var err error
	if cfg.Contest.Duration, err = envDuration("CONTEST_DURATION"); err != nil {
		return nil, err
	}
	if cfg.Contest.FrozenDuration, err = envDuration("CONTEST_FROZEN_DURATION"); err != nil {
		return nil, err
	}

	cfg.Roster.Path = os.Getenv("ROSTER_PATH")
	if cfg.Roster.Path == "" {
		return nil, fmt.Errorf("ROSTER_PATH environment variable not set")
	}
	cfg.Roster.TeamsPath = os.Getenv("ROSTER_TEAMS_PATH")

	cfg.Source.Kind = os.Getenv("SOURCE_KIND")
	cfg.Source.Vocabulary = os.Getenv("SOURCE_VOCABULARY")
	cfg.Source.NATS.Subject = os.Getenv("SOURCE_SUBJECT")
	cfg.Source.File.Path = os.Getenv("SOURCE_FILE")
	cfg.Publish.Dir = os.Getenv("PUBLISH_DIR")
	cfg.HTTP.Address = os.Getenv("HTTP_ADDRESS")

	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("TRACE_SAMPLE_RATE"); v != "" {
		if cfg.Observability.TraceSampleRate, err = strconv.ParseFloat(v, 64); err != nil {
			return nil, fmt.Errorf("invalid TRACE_SAMPLE_RATE value: %v", err)
		}
	}

	applyEnvOverrides(&cfg)
	cfg.applyDefaults()
	return &cfg, nil
}

func envDuration(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value: %v", key, err)
	}
	return d, nil
}

func (c *Config) applyDefaults() {
	if c.Contest.Title == "" {
		c.Contest.Title = c.Contest.ID
	}
	if len(c.Series) == 0 {
		c.Series = []SeriesConfig{{
			Title:  "Official",
			Rule:   SeriesRule{OfficialOnly: true},
			Medals: &MedalsConfig{Preset: "icpc"},
		}}
	}
	if c.Source.Kind == "" {
		switch {
		case c.Source.File.Path != "":
			c.Source.Kind = SourceFile
		case c.Source.NATS.Subject != "":
			c.Source.Kind = SourceNATS
		default:
			c.Source.Kind = SourceHTTP
		}
	}
	if c.Source.Name == "" {
		c.Source.Name = c.Source.Kind
	}
	if c.Source.TimestampUnit == "" {
		c.Source.TimestampUnit = "s"
	}
	if c.Publish.ScrollWindow == 0 {
		c.Publish.ScrollWindow = 5 * time.Minute
	}
	if c.Publish.Events.Topic == "" {
		c.Publish.Events.Topic = "scoreboard.snapshot.published.v1"
	}
	if c.Scheduler.Kind == "" {
		c.Scheduler.Kind = SchedulerLoop
	}
	if c.Scheduler.PollInterval == 0 {
		c.Scheduler.PollInterval = 10 * time.Second
	}
	if c.Scheduler.RetryDelay == 0 {
		c.Scheduler.RetryDelay = 10 * time.Second
	}
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.JWT.DefaultTTL == 0 {
		c.JWT.DefaultTTL = 12 * time.Hour
	}
}

// Validate checks the fields a run cannot do without.
func (c *Config) Validate() error {
	var errs []error
	if c.Contest.ID == "" {
		errs = append(errs, errors.New("contest.id is required"))
	}
	if c.Contest.StartAt == "" {
		errs = append(errs, errors.New("contest.start_at is required"))
	}
	if c.Contest.Duration <= 0 {
		errs = append(errs, errors.New("contest.duration must be positive"))
	}
	if c.Contest.FrozenDuration < 0 || c.Contest.FrozenDuration > c.Contest.Duration {
		errs = append(errs, errors.New("contest.frozen_duration must be within the contest duration"))
	}
	if c.Roster.Path == "" {
		errs = append(errs, errors.New("roster.path is required"))
	}

	switch c.Source.Kind {
	case SourceHTTP:
		if c.Source.HTTP.BaseURL == "" {
			errs = append(errs, errors.New("source.http.base_url is required"))
		}
	case SourceNATS:
		if c.NATS.URL == "" || c.Source.NATS.Subject == "" {
			errs = append(errs, errors.New("nats.url and source.nats.subject are required for a nats source"))
		}
	case SourceFile:
		if c.Source.File.Path == "" {
			errs = append(errs, errors.New("source.file.path is required"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown source.kind %q", c.Source.Kind))
	}

	switch c.Scheduler.Kind {
	case SchedulerLoop:
	case SchedulerRiver:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("scheduler.kind river requires postgres.dsn"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown scheduler.kind %q", c.Scheduler.Kind))
	}

	if c.Publish.Redis.Enabled && c.Redis.Addr == "" {
		errs = append(errs, errors.New("publish.redis requires redis.addr"))
	}
	if c.Publish.Events.Enabled && c.NATS.URL == "" {
		errs = append(errs, errors.New("publish.events requires nats.url"))
	}

	seen := make(map[string]struct{}, len(c.Series))
	for i, s := range c.Series {
		if strings.TrimSpace(s.Title) == "" {
			errs = append(errs, fmt.Errorf("series[%d]: title is required", i))
		}
		if _, dup := seen[s.Title]; dup {
			errs = append(errs, fmt.Errorf("series[%d]: duplicate title %q", i, s.Title))
		}
		seen[s.Title] = struct{}{}
	}

	return errors.Join(errs...)
}

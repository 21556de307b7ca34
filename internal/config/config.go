package config

import (
	"errors"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone  = "Europe/Zurich"
	configPathEnv    = "HOUSING_ALERTS_CONFIG"
	databaseURLEnv   = "DATABASE_URL"
	resendAPIKeyEnv  = "RESEND_API_KEY"
	telegramTokenEnv = "TELEGRAM_BOT_TOKEN"
	logLevelEnv      = "LOG_LEVEL"
	httpAddrEnv      = "HTTP_ADDR"
	frontendURLEnv   = "FRONTEND_URL"
	geocoderURLEnv   = "GEOCODER_URL"
)

// Config holds high-level settings required across the application.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Logging   LoggingConfig   `yaml:"logging"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Ingestion IngestionConfig `yaml:"ingestion"`
	Sources   SourcesConfig   `yaml:"sources"`
	Dispatch  DispatchConfig  `yaml:"dispatch"`
	Delivery  DeliveryConfig  `yaml:"delivery"`
	Geocoder  GeocoderConfig  `yaml:"geocoder"`
	HTTP      HTTPConfig      `yaml:"http"`
}

// DatabaseConfig describes Postgres connection details. An empty DSN selects the in-memory store.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig selects slog level and handler format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// SchedulerConfig defines when each run kind triggers.
type SchedulerConfig struct {
	Timezone   string         `yaml:"timezone"`
	IngestCron string         `yaml:"ingestCron"`
	DailyCron  string         `yaml:"dailyCron"`
	WeeklyCron string         `yaml:"weeklyCron"`
	location   *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, err := time.LoadLocation(defaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IngestionConfig tunes the fetch/reconcile run.
type IngestionConfig struct {
	FreshnessWindow   Duration       `yaml:"freshnessWindow"`
	InterRequestDelay Duration       `yaml:"interRequestDelay"`
	AllowSyntheticIDs *bool          `yaml:"allowSyntheticIds"`
	Targets           []TargetConfig `yaml:"targets"`
}

// SyntheticIDsAllowed reports the effective synthetic identity policy (default true).
func (i IngestionConfig) SyntheticIDsAllowed() bool {
	return i.AllowSyntheticIDs == nil || *i.AllowSyntheticIDs
}

// TargetConfig is one source invocation of an ingestion run.
type TargetConfig struct {
	Source   string  `yaml:"source"`
	Location string  `yaml:"location"`
	RadiusKm float64 `yaml:"radiusKm"`
	MaxPrice int     `yaml:"maxPrice"`
	MinRooms float64 `yaml:"minRooms"`
}

// SourcesConfig groups per-adapter settings.
type SourcesConfig struct {
	Homegate HomegateConfig `yaml:"homegate"`
}

// HomegateConfig configures the Homegate adapter. Renderer is "http" or "chrome".
type HomegateConfig struct {
	BaseURL    string   `yaml:"baseUrl"`
	Renderer   string   `yaml:"renderer"`
	ChromePath string   `yaml:"chromePath"`
	Timeout    Duration `yaml:"timeout"`
}

// DispatchConfig tunes notification runs.
type DispatchConfig struct {
	InterUserDelay Duration `yaml:"interUserDelay"`
	MaxResults     int      `yaml:"maxResults"`
}

// DeliveryConfig selects and configures the outbound provider ("resend" or "telegram").
type DeliveryConfig struct {
	Provider string         `yaml:"provider"`
	Resend   ResendConfig   `yaml:"resend"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// ResendConfig wires the Resend email API.
type ResendConfig struct {
	Endpoint string `yaml:"endpoint"`
	APIKey   string `yaml:"apiKey"`
	From     string `yaml:"from"`
}

// TelegramConfig wires the bot used for chat deliveries.
type TelegramConfig struct {
	BotToken string `yaml:"botToken"`
}

// GeocoderConfig enables coordinate enrichment when URL is set.
type GeocoderConfig struct {
	URL      string   `yaml:"url"`
	Email    string   `yaml:"email"`
	Interval Duration `yaml:"interval"`
}

// HTTPConfig configures the ops HTTP surface.
type HTTPConfig struct {
	Addr          string `yaml:"addr"`
	AllowedOrigin string `yaml:"allowedOrigin"`
}

// Duration reads Go duration strings ("10s", "168h") from YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if strings.TrimSpace(raw) == "" {
		d.Duration = 0
		return nil
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// Load reads .env, the YAML configuration (if present) and applies environment overrides.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("config: cannot read .env: %v", err)
	}

	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else if fileCfg, err := Parse(raw); err != nil {
			log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
		} else {
			cfg = mergeConfig(cfg, fileCfg)
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Parse decodes a YAML document without merging defaults.
func Parse(raw []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databaseURLEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(resendAPIKeyEnv); v != "" {
		c.Delivery.Resend.APIKey = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Delivery.Telegram.BotToken = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(httpAddrEnv); v != "" {
		c.HTTP.Addr = v
	}

	if v := os.Getenv(frontendURLEnv); v != "" {
		c.HTTP.AllowedOrigin = v
	}

	if v := os.Getenv(geocoderURLEnv); v != "" {
		c.Geocoder.URL = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		tz = defaultTimezone
		if loc, err = time.LoadLocation(defaultTimezone); err != nil {
			loc = time.UTC
		}
	}
	c.Scheduler.Timezone = tz
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	if override.Database.DSN != "" {
		base.Database = override.Database
	}

	if override.Logging.Level != "" {
		base.Logging.Level = override.Logging.Level
	}
	if override.Logging.Format != "" {
		base.Logging.Format = override.Logging.Format
	}

	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}
	if override.Scheduler.IngestCron != "" {
		base.Scheduler.IngestCron = override.Scheduler.IngestCron
	}
	if override.Scheduler.DailyCron != "" {
		base.Scheduler.DailyCron = override.Scheduler.DailyCron
	}
	if override.Scheduler.WeeklyCron != "" {
		base.Scheduler.WeeklyCron = override.Scheduler.WeeklyCron
	}

	if override.Ingestion.FreshnessWindow.Duration > 0 {
		base.Ingestion.FreshnessWindow = override.Ingestion.FreshnessWindow
	}
	if override.Ingestion.InterRequestDelay.Duration > 0 {
		base.Ingestion.InterRequestDelay = override.Ingestion.InterRequestDelay
	}
	if override.Ingestion.AllowSyntheticIDs != nil {
		base.Ingestion.AllowSyntheticIDs = override.Ingestion.AllowSyntheticIDs
	}
	if len(override.Ingestion.Targets) > 0 {
		base.Ingestion.Targets = override.Ingestion.Targets
	}

	if override.Sources.Homegate.BaseURL != "" {
		base.Sources.Homegate.BaseURL = override.Sources.Homegate.BaseURL
	}
	if override.Sources.Homegate.Renderer != "" {
		base.Sources.Homegate.Renderer = override.Sources.Homegate.Renderer
	}
	if override.Sources.Homegate.ChromePath != "" {
		base.Sources.Homegate.ChromePath = override.Sources.Homegate.ChromePath
	}
	if override.Sources.Homegate.Timeout.Duration > 0 {
		base.Sources.Homegate.Timeout = override.Sources.Homegate.Timeout
	}

	if override.Dispatch.InterUserDelay.Duration > 0 {
		base.Dispatch.InterUserDelay = override.Dispatch.InterUserDelay
	}
	if override.Dispatch.MaxResults > 0 {
		base.Dispatch.MaxResults = override.Dispatch.MaxResults
	}

	if override.Delivery.Provider != "" {
		base.Delivery.Provider = override.Delivery.Provider
	}
	if override.Delivery.Resend.Endpoint != "" {
		base.Delivery.Resend.Endpoint = override.Delivery.Resend.Endpoint
	}
	if override.Delivery.Resend.APIKey != "" {
		base.Delivery.Resend.APIKey = override.Delivery.Resend.APIKey
	}
	if override.Delivery.Resend.From != "" {
		base.Delivery.Resend.From = override.Delivery.Resend.From
	}
	if override.Delivery.Telegram.BotToken != "" {
		base.Delivery.Telegram.BotToken = override.Delivery.Telegram.BotToken
	}

	if override.Geocoder.URL != "" {
		base.Geocoder.URL = override.Geocoder.URL
	}
	if override.Geocoder.Email != "" {
		base.Geocoder.Email = override.Geocoder.Email
	}
	if override.Geocoder.Interval.Duration > 0 {
		base.Geocoder.Interval = override.Geocoder.Interval
	}

	if override.HTTP.Addr != "" {
		base.HTTP.Addr = override.HTTP.Addr
	}
	if override.HTTP.AllowedOrigin != "" {
		base.HTTP.AllowedOrigin = override.HTTP.AllowedOrigin
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Scheduler: SchedulerConfig{
			Timezone:   defaultTimezone,
			IngestCron: "0 */6 * * *",
			DailyCron:  "0 8 * * *",
			WeeklyCron: "0 18 * * 1",
		},
		Ingestion: IngestionConfig{
			FreshnessWindow:   Duration{7 * 24 * time.Hour},
			InterRequestDelay: Duration{10 * time.Second},
			Targets: []TargetConfig{
				{Source: "homegate", Location: "1260", RadiusKm: 10, MaxPrice: 3500, MinRooms: 4},
				{Source: "homegate", Location: "1271", RadiusKm: 10, MaxPrice: 3000, MinRooms: 4},
			},
		},
		Sources: SourcesConfig{
			Homegate: HomegateConfig{
				BaseURL:  "https://www.homegate.ch",
				Renderer: "chrome",
				Timeout:  Duration{60 * time.Second},
			},
		},
		Dispatch: DispatchConfig{
			InterUserDelay: Duration{time.Second},
			MaxResults:     5,
		},
		Delivery: DeliveryConfig{
			Provider: "resend",
			Resend: ResendConfig{
				Endpoint: "https://api.resend.com/emails",
				From:     "Housing Alerts <alerts@resend.dev>",
			},
		},
		Geocoder: GeocoderConfig{Interval: Duration{time.Second}},
		HTTP: HTTPConfig{
			Addr:          ":8080",
			AllowedOrigin: "http://localhost:3000",
		},
	}
}

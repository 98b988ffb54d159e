package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	Bidding      BiddingConfig
	Ads          AdsConfig
	Sheets       SheetsConfig
	Redis        RedisConfig
	DB           DBConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	BigQuery     BigQueryConfig
	PubSub       PubSubConfig
	Cron         CronConfig
}

// Load reads the environment once and validates the result. The returned
// config is treated as read-only by every component.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.Bidding.CampaignLabels = normalizeLabels(cfg.Bidding.CampaignLabels)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"HOURBID_APP_ENV" default:"local"`
	LogLevel     string `envconfig:"HOURBID_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"HOURBID_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"HOURBID_LOG_FORMAT" default:"json" validate:"oneof=json console"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, AppEnvLocal)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"HOURBID_SERVICE_KIND" default:"bidder"`
}

// BiddingConfig carries the options of the hourly bidding run.
type BiddingConfig struct {
	Log            bool     `envconfig:"HOURBID_LOG" default:"true"`
	DateRange      string   `envconfig:"HOURBID_DATE_RANGE" default:"LAST_30_DAYS" validate:"required"`
	SpreadsheetURL string   `envconfig:"HOURBID_SPREADSHEET_URL" validate:"required,url"`
	CampaignLabels []string `envconfig:"HOURBID_CAMPAIGN_LABEL"`
	IncludeSearch  bool     `envconfig:"HOURBID_INCLUDE_SEARCH" default:"true"`
	IncludeShop    bool     `envconfig:"HOURBID_INCLUDE_SHOPPING" default:"true"`
	MinBid         float64  `envconfig:"HOURBID_MIN_BID" default:"0.75" validate:"gte=0.1,lte=1"`
	MaxBid         float64  `envconfig:"HOURBID_MAX_BID" default:"1.3" validate:"gte=1,lte=10"`
	TemplateSheet  string   `envconfig:"HOURBID_TEMPLATE_SHEET" default:"Template" validate:"required"`

	StrictManualBidding        bool `envconfig:"HOURBID_STRICT_MANUAL_BIDDING" default:"false"`
	CompareTodayConversionRate bool `envconfig:"HOURBID_COMPARE_TODAY_CONVERSION_RATE" default:"true"`
}

type AdsConfig struct {
	DeveloperToken  string        `envconfig:"HOURBID_ADS_DEVELOPER_TOKEN" validate:"required"`
	CustomerID      string        `envconfig:"HOURBID_ADS_CUSTOMER_ID" validate:"required"`
	LoginCustomerID string        `envconfig:"HOURBID_ADS_LOGIN_CUSTOMER_ID"`
	ClientID        string        `envconfig:"HOURBID_ADS_CLIENT_ID" validate:"required"`
	ClientSecret    string        `envconfig:"HOURBID_ADS_CLIENT_SECRET" validate:"required"`
	RefreshToken    string        `envconfig:"HOURBID_ADS_REFRESH_TOKEN" validate:"required"`
	APIVersion      string        `envconfig:"HOURBID_ADS_API_VERSION" default:"v17"`
	BaseURL         string        `envconfig:"HOURBID_ADS_BASE_URL" default:"https://googleads.googleapis.com" validate:"url"`
	Timeout         time.Duration `envconfig:"HOURBID_ADS_TIMEOUT" default:"30s"`
}

// NormalizedCustomerID strips the dashes the UI shows in customer IDs.
func (a AdsConfig) NormalizedCustomerID() string {
	return strings.ReplaceAll(strings.TrimSpace(a.CustomerID), "-", "")
}

func (a AdsConfig) NormalizedLoginCustomerID() string {
	return strings.ReplaceAll(strings.TrimSpace(a.LoginCustomerID), "-", "")
}

// SheetsConfig holds service-account credentials for the Sheets API. When both
// are empty the Ads OAuth token is reused.
type SheetsConfig struct {
	CredentialsJSON string `envconfig:"HOURBID_SHEETS_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"HOURBID_SHEETS_CREDENTIALS_FILE"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOURBID_REDIS_URL"`
	Address      string        `envconfig:"HOURBID_REDIS_ADDR"`
	Password     string        `envconfig:"HOURBID_REDIS_PASSWORD"`
	DB           int           `envconfig:"HOURBID_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOURBID_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"HOURBID_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"HOURBID_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOURBID_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"HOURBID_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// Enabled reports whether a Redis endpoint was configured.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

type DBConfig struct {
	DSN    string `envconfig:"HOURBID_DB_DSN"`
	Driver string `envconfig:"HOURBID_DB_DRIVER" default:"postgres" validate:"oneof=postgres sqlite"`

	MaxOpenConns    int           `envconfig:"HOURBID_DB_MAX_OPEN_CONNS" default:"5"`
	MaxIdleConns    int           `envconfig:"HOURBID_DB_MAX_IDLE_CONNS" default:"2"`
	ConnMaxLifetime time.Duration `envconfig:"HOURBID_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"HOURBID_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	SlowQueryThreshold time.Duration `envconfig:"HOURBID_DB_SLOW_QUERY" default:"500ms"`
}

// Enabled reports whether adjustment history should be persisted.
func (d DBConfig) Enabled() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"HOURBID_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"HOURBID_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"HOURBID_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"HOURBID_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset          string `envconfig:"HOURBID_BIGQUERY_DATASET"`
	AdjustmentsTable string `envconfig:"HOURBID_BIGQUERY_ADJUSTMENTS_TABLE" default:"bid_adjustments"`
	CreateTables     bool   `envconfig:"HOURBID_BIGQUERY_CREATE_TABLES" default:"false"`
}

// Enabled reports whether adjustments should also be streamed to BigQuery.
func (b BigQueryConfig) Enabled() bool {
	return strings.TrimSpace(b.Dataset) != ""
}

// PubSubConfig names the topic that receives run-completed events.
type PubSubConfig struct {
	RunsTopic string `envconfig:"HOURBID_PUBSUB_RUNS_TOPIC"`
}

func (p PubSubConfig) Enabled() bool {
	return strings.TrimSpace(p.RunsTopic) != ""
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"HOURBID_CRON_INTERVAL" default:"1h"`
	Align       bool          `envconfig:"HOURBID_CRON_ALIGN" default:"true"`
	JobTimeout  time.Duration `envconfig:"HOURBID_CRON_JOB_TIMEOUT" default:"50m" validate:"gte=0"`
	LockTTL     time.Duration `envconfig:"HOURBID_CRON_LOCK_TTL" default:"55m"`
	MetricsAddr string        `envconfig:"HOURBID_METRICS_ADDR" default:":9102"`

	HistoryRetentionDays int `envconfig:"HOURBID_HISTORY_RETENTION_DAYS" default:"90" validate:"gte=0"`
}

func normalizeLabels(labels []string) []string {
	out := make([]string, 0, len(labels))
	for _, label := range labels {
		if trimmed := strings.TrimSpace(label); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

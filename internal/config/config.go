package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	infraconfig "github.com/jonesrussell/sitelink-report/infrastructure/config"
	infraevents "github.com/jonesrussell/sitelink-report/infrastructure/events"
)

// Default report configuration values.
const (
	defaultStartDate       = "2022-05-01"
	defaultEndDate         = "2022-12-31"
	defaultDestinationPath = "reports/sitelinks.xlsx"
	defaultSheetName       = "ReportV1"
	maxSheetNameLength     = 31
)

// Default ads client configuration values.
const (
	defaultAdsBaseURL    = "https://googleads.googleapis.com"
	defaultAdsAPIVersion = "v17"
	defaultAdsTimeout    = 2 * time.Minute
)

// Default notification configuration values.
const (
	defaultSMTPPort       = 587
	defaultStreamMaxLen   = 10000
	defaultMetricsJobName = "sitelink_report"
	defaultScheduleCron   = "0 6 * * *"
	defaultLogLevel       = "info"
	defaultLogFormat      = "json"
)

// Default database configuration values.
const (
	defaultDBHost          = "localhost"
	defaultDBPort          = 5432
	defaultDBUser          = "postgres"
	defaultDBName          = "sitelink_report"
	defaultDBSSLMode       = "disable"
	defaultDBMaxConns      = 5
	defaultDBMaxIdleConns  = 2
	defaultDBConnLifetimeH = 1
)

// Config holds the application configuration.
type Config struct {
	Ads         AdsConfig         `yaml:"ads"`
	Report      ReportConfig      `yaml:"report"`
	Destination DestinationConfig `yaml:"destination"`
	Notify      NotifyConfig      `yaml:"notify"`
	Database    DatabaseConfig    `yaml:"database"`
	Metrics     MetricsConfig     `yaml:"metrics"`
	Schedule    ScheduleConfig    `yaml:"schedule"`
	Logging     LoggingConfig     `yaml:"logging"`
	Debug       bool              `env:"APP_DEBUG" yaml:"debug"`
}

// AdsConfig holds reporting API credentials. AccessToken is a pre-issued OAuth2 token.
type AdsConfig struct {
	BaseURL           string        `env:"GOOGLE_ADS_BASE_URL"          yaml:"base_url"`
	APIVersion        string        `env:"GOOGLE_ADS_API_VERSION"       yaml:"api_version"`
	DeveloperToken    string        `env:"GOOGLE_ADS_DEVELOPER_TOKEN"   yaml:"developer_token"`
	AccessToken       string        `env:"GOOGLE_ADS_ACCESS_TOKEN"      yaml:"access_token"` //nolint:gosec // credential from env
	ManagerCustomerID string        `env:"GOOGLE_ADS_LOGIN_CUSTOMER_ID" yaml:"manager_customer_id"`
	Timeout           time.Duration `yaml:"timeout"`
}

// ReportConfig holds the metrics query settings.
type ReportConfig struct {
	StartDate string `env:"REPORT_START_DATE" yaml:"start_date"`
	EndDate   string `env:"REPORT_END_DATE"   yaml:"end_date"`
	// Query replaces the generated metrics query entirely when set.
	Query string `yaml:"query"`
	// Accounts restricts runs to these account ids.
	Accounts []string `env:"REPORT_ACCOUNTS" yaml:"accounts"`
}

// DestinationConfig locates the output workbook.
type DestinationConfig struct {
	Path  string `env:"REPORT_DESTINATION_PATH" yaml:"path"`
	Sheet string `env:"REPORT_SHEET"            yaml:"sheet"`
}

// NotifyConfig holds notification settings.
type NotifyConfig struct {
	Recipient       string       `env:"REPORT_RECIPIENT"        yaml:"recipient"`
	ErrorsRecipient string       `env:"REPORT_ERRORS_RECIPIENT" yaml:"errors_recipient"`
	Email           EmailConfig  `yaml:"email"`
	Stream          StreamConfig `yaml:"stream"`
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Enabled  bool   `env:"SMTP_ENABLED"  yaml:"enabled"`
	Host     string `env:"SMTP_HOST"     yaml:"host"`
	Port     int    `env:"SMTP_PORT"     yaml:"port"`
	Username string `env:"SMTP_USERNAME" yaml:"username"`
	Password string `env:"SMTP_PASSWORD" yaml:"password"` //nolint:gosec // credential from env
	From     string `env:"SMTP_FROM"     yaml:"from"`
}

// StreamConfig holds Redis stream settings.
type StreamConfig struct {
	Enabled       bool   `env:"REDIS_STREAM_ENABLED" yaml:"enabled"`
	RedisAddress  string `env:"REDIS_ADDRESS"        yaml:"redis_address"`
	RedisPassword string `env:"REDIS_PASSWORD"       yaml:"redis_password"` //nolint:gosec // credential from env
	RedisDB       int    `env:"REDIS_DB"             yaml:"redis_db"`
	Name          string `yaml:"name"`
	MaxLen        int64  `yaml:"max_len"`
}

// DatabaseConfig holds PostgreSQL connection settings for run history.
type DatabaseConfig struct {
	Enabled               bool          `env:"POSTGRES_REPORT_ENABLED"  yaml:"enabled"`
	Host                  string        `env:"POSTGRES_REPORT_HOST"     yaml:"host"`
	Port                  int           `env:"POSTGRES_REPORT_PORT"     yaml:"port"`
	User                  string        `env:"POSTGRES_REPORT_USER"     yaml:"user"`
	Password              string        `env:"POSTGRES_REPORT_PASSWORD" yaml:"password"` //nolint:gosec // credential from env
	Database              string        `env:"POSTGRES_REPORT_DB"       yaml:"database"`
	SSLMode               string        `yaml:"sslmode"`
	MaxConnections        int           `yaml:"max_connections"`
	MaxIdleConns          int           `yaml:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `yaml:"connection_max_lifetime"`
}

// MetricsConfig holds Pushgateway settings. Metrics are pushed only when PushgatewayURL is set.
type MetricsConfig struct {
	PushgatewayURL string `env:"PUSHGATEWAY_URL" yaml:"pushgateway_url"`
	Job            string `yaml:"job"`
}

// ScheduleConfig holds the cron settings of the schedule command.
type ScheduleConfig struct {
	Cron       string `env:"REPORT_SCHEDULE" yaml:"cron"`
	RunOnStart bool   `yaml:"run_on_start"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"  yaml:"level"`
	Format string `env:"LOG_FORMAT" yaml:"format"`
}

// Load loads configuration from a YAML file, applies defaults, then env overrides.
func Load(path string) (*Config, error) {
	cfg, loadErr := infraconfig.LoadWithDefaults(path, setDefaults)
	if loadErr != nil {
		return nil, fmt.Errorf("load config: %w", loadErr)
	}

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, fmt.Errorf("validate config: %w", validateErr)
	}

	return cfg, nil
}

// DateRange returns the parsed inclusive report window.
func (r *ReportConfig) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse(time.DateOnly, r.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, &infraconfig.ValidationError{Field: "report.start_date", Message: err.Error()}
	}
	end, err = time.Parse(time.DateOnly, r.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, &infraconfig.ValidationError{Field: "report.end_date", Message: err.Error()}
	}
	return start, end, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	validators := []func() error{
		c.validateAds,
		c.validateReport,
		c.validateDestination,
		c.validateNotify,
		c.validateDatabase,
		c.validateMetrics,
		c.validateSchedule,
		func() error { return infraconfig.ValidateLogLevel(c.Logging.Level) },
	}
	for _, validate := range validators {
		if err := validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateAds() error {
	if err := infraconfig.ValidateRequired("ads.developer_token", c.Ads.DeveloperToken); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("ads.access_token", c.Ads.AccessToken); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("ads.manager_customer_id", c.Ads.ManagerCustomerID); err != nil {
		return err
	}
	return infraconfig.ValidateURL("ads.base_url", c.Ads.BaseURL)
}

func (c *Config) validateReport() error {
	if strings.TrimSpace(c.Report.Query) != "" {
		return nil
	}

	start, end, err := c.Report.DateRange()
	if err != nil {
		return err
	}
	if end.Before(start) {
		return &infraconfig.ValidationError{Field: "report.end_date", Message: "must not be before report.start_date"}
	}
	return nil
}

func (c *Config) validateDestination() error {
	if err := infraconfig.ValidateRequired("destination.path", c.Destination.Path); err != nil {
		return err
	}
	if err := infraconfig.ValidateRequired("destination.sheet", c.Destination.Sheet); err != nil {
		return err
	}
	if len([]rune(c.Destination.Sheet)) > maxSheetNameLength {
		return &infraconfig.ValidationError{
			Field:   "destination.sheet",
			Message: fmt.Sprintf("must be at most %d characters", maxSheetNameLength),
		}
	}
	return nil
}

func (c *Config) validateNotify() error {
	if err := validateAddressList("notify.recipient", c.Notify.Recipient); err != nil {
		return err
	}
	if err := validateAddressList("notify.errors_recipient", c.Notify.ErrorsRecipient); err != nil {
		return err
	}

	if email := c.Notify.Email; email.Enabled {
		if err := infraconfig.ValidateRequired("notify.email.host", email.Host); err != nil {
			return err
		}
		if err := infraconfig.ValidatePort("notify.email.port", email.Port); err != nil {
			return err
		}
		if err := infraconfig.ValidateEmail("notify.email.from", email.From); err != nil {
			return err
		}
		if err := infraconfig.ValidateRequired("notify.recipient", c.Notify.Recipient); err != nil {
			return err
		}
	}

	if c.Notify.Stream.Enabled {
		return infraconfig.ValidateRequired("notify.stream.redis_address", c.Notify.Stream.RedisAddress)
	}
	return nil
}

// validateAddressList accepts an empty value or comma-separated addresses.
func validateAddressList(field, value string) error {
	if value == "" {
		return nil
	}
	for addr := range strings.SplitSeq(value, ",") {
		if err := infraconfig.ValidateEmail(field, strings.TrimSpace(addr)); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if !c.Database.Enabled {
		return nil
	}
	if err := infraconfig.ValidateRequired("database.host", c.Database.Host); err != nil {
		return err
	}
	if err := infraconfig.ValidatePort("database.port", c.Database.Port); err != nil {
		return err
	}
	return infraconfig.ValidateRequired("database.database", c.Database.Database)
}

func (c *Config) validateMetrics() error {
	if c.Metrics.PushgatewayURL == "" {
		return nil
	}
	return infraconfig.ValidateURL("metrics.pushgateway_url", c.Metrics.PushgatewayURL)
}

func (c *Config) validateSchedule() error {
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		return &infraconfig.ValidationError{Field: "schedule.cron", Message: err.Error()}
	}
	return nil
}

// setDefaults applies default values to all configuration sections.
func setDefaults(cfg *Config) {
	setAdsDefaults(&cfg.Ads)
	setReportDefaults(&cfg.Report, &cfg.Destination)
	setNotifyDefaults(&cfg.Notify)
	setDatabaseDefaults(&cfg.Database)

	if cfg.Metrics.Job == "" {
		cfg.Metrics.Job = defaultMetricsJobName
	}
	if cfg.Schedule.Cron == "" {
		cfg.Schedule.Cron = defaultScheduleCron
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = defaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = defaultLogFormat
	}
}

func setAdsDefaults(a *AdsConfig) {
	if a.BaseURL == "" {
		a.BaseURL = defaultAdsBaseURL
	}

	if a.APIVersion == "" {
		a.APIVersion = defaultAdsAPIVersion
	}

	if a.Timeout == 0 {
		a.Timeout = defaultAdsTimeout
	}
}

func setReportDefaults(r *ReportConfig, d *DestinationConfig) {
	if r.StartDate == "" {
		r.StartDate = defaultStartDate
	}

	if r.EndDate == "" {
		r.EndDate = defaultEndDate
	}

	if d.Path == "" {
		d.Path = defaultDestinationPath
	}

	if d.Sheet == "" {
		d.Sheet = defaultSheetName
	}
}

func setNotifyDefaults(n *NotifyConfig) {
	if n.Email.Port == 0 {
		n.Email.Port = defaultSMTPPort
	}

	if n.Stream.Name == "" {
		n.Stream.Name = infraevents.StreamName
	}

	if n.Stream.MaxLen == 0 {
		n.Stream.MaxLen = defaultStreamMaxLen
	}
}

func setDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = defaultDBHost
	}

	if d.Port == 0 {
		d.Port = defaultDBPort
	}

	if d.User == "" {
		d.User = defaultDBUser
	}

	if d.Database == "" {
		d.Database = defaultDBName
	}

	if d.SSLMode == "" {
		d.SSLMode = defaultDBSSLMode
	}

	if d.MaxConnections == 0 {
		d.MaxConnections = defaultDBMaxConns
	}

	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = defaultDBMaxIdleConns
	}

	if d.ConnectionMaxLifetime == 0 {
		d.ConnectionMaxLifetime = defaultDBConnLifetimeH * time.Hour
	}
}

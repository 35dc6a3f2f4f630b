// internal/common/config/config.go
package config

import (
	"fmt"

	"program-matcher/internal/matcher"
)

// Config is the service configuration.
type Config struct {
	App           AppConfig               `mapstructure:"app"`
	HTTP          HTTPConfig              `mapstructure:"http"`
	Camunda       CamundaConfig           `mapstructure:"camunda"`
	Database      DatabaseConfig          `mapstructure:"database"`
	Dataset       DatasetConfig           `mapstructure:"dataset"`
	Matcher       matcher.Policy          `mapstructure:"matcher"`
	Leads         LeadsConfig             `mapstructure:"leads"`
	Sheets        SheetsConfig            `mapstructure:"sheets"`
	Workers       map[string]WorkerConfig `mapstructure:"workers"`
	Integrations  IntegrationConfig       `mapstructure:"integrations"`
	Logging       LoggingConfig           `mapstructure:"logging"`
	Notifications NotificationConfig      `mapstructure:"notifications"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int      `mapstructure:"port"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout int      `mapstructure:"shutdown_timeout"` // milliseconds
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// Enabled reports whether a lead store database is configured.
func (p PostgresConfig) Enabled() bool {
	return p.Host != "" && p.Database != ""
}

func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	Username     string   `mapstructure:"username"`
	Password     string   `mapstructure:"password"`
	ProgramIndex string   `mapstructure:"program_index"`
}

func (e ElasticsearchConfig) Enabled() bool {
	return len(e.Addresses) > 0
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	CacheTTL int    `mapstructure:"cache_ttl"` // seconds
}

func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// DatasetConfig selects where the program catalog is loaded from:
// "xlsx" reads Path, "elasticsearch" reads the program index.
type DatasetConfig struct {
	Source string `mapstructure:"source"`
	Path   string `mapstructure:"path"`
}

type LeadsConfig struct {
	DedupeWindow  int `mapstructure:"dedupe_window"` // seconds
	MatchedTopN   int `mapstructure:"matched_top_n"`
	SubmitTimeout int `mapstructure:"submit_timeout"` // milliseconds
}

// SheetsConfig holds the service account used to append lead rows.
type SheetsConfig struct {
	SpreadsheetID string `mapstructure:"spreadsheet_id"`
	SheetName     string `mapstructure:"sheet_name"`
	ClientEmail   string `mapstructure:"client_email"`
	PrivateKey    string `mapstructure:"private_key"`
	TokenURL      string `mapstructure:"token_url"`
	BaseURL       string `mapstructure:"base_url"` // API root, empty for Google's
	Timeout       int    `mapstructure:"timeout"`  // milliseconds
}

// Configured reports whether every credential for the sheet sink is set.
func (s SheetsConfig) Configured() bool {
	return s.SpreadsheetID != "" && s.ClientEmail != "" && s.PrivateKey != ""
}

// WorkerConfig holds the settings applicable to every job worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"` // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"`
	// TopN trims list outputs of workers that produce one. Zero means no trim.
	TopN int `mapstructure:"top_n"`
}

// IntegrationConfig holds CRM and AWS settings.
type IntegrationConfig struct {
	Zoho struct {
		Enabled   bool   `mapstructure:"enabled"`
		BaseURL   string `mapstructure:"base_url"`
		AuthToken string `mapstructure:"oauth_token"`
		Timeout   int    `mapstructure:"timeout"` // milliseconds
	} `mapstructure:"zoho"`

	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

// NotificationConfig controls who hears about a new lead.
type NotificationConfig struct {
	Email struct {
		Enabled    bool     `mapstructure:"enabled"`
		Recipients []string `mapstructure:"recipients"`
	} `mapstructure:"email"`
	SMS struct {
		Enabled bool   `mapstructure:"enabled"`
		Message string `mapstructure:"message"`
	} `mapstructure:"sms"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

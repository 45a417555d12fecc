package models

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultLinearEndpoint is the public Linear GraphQL endpoint
	DefaultLinearEndpoint = "https://api.linear.app/graphql"

	// MinIssueLimit and MaxIssueLimit bound board.issue_limit
	MinIssueLimit = 1
	MaxIssueLimit = 100
)

// DefaultColumnOrder is the column order used when board.column_order is not configured
var DefaultColumnOrder = []string{
	"Backlog",
	"A Fazer",
	"Em Progresso",
	"Aguardando",
	"Concluído",
	"Cancelado",
}

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatConsole LogFormat = "console"
	LogFormatJSON    LogFormat = "json"
)

// String returns the string representation of LogLevel
func (l LogLevel) String() string {
	return string(l)
}

// String returns the string representation of LogFormat
func (f LogFormat) String() string {
	return string(f)
}

// IsValid checks if the LogLevel is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError:
		return true
	default:
		return false
	}
}

// IsValid checks if the LogFormat is valid
func (f LogFormat) IsValid() bool {
	switch f {
	case LogFormatConsole, LogFormatJSON:
		return true
	default:
		return false
	}
}

// ParseLogLevel parses a case-insensitive log level name
func ParseLogLevel(str string) (LogLevel, error) {
	level := LogLevel(strings.ToLower(strings.TrimSpace(str)))
	if !level.IsValid() {
		return "", fmt.Errorf("invalid log level: %s. Valid options are: debug, info, warn, error", str)
	}
	return level, nil
}

// ParseLogFormat parses a case-insensitive log format name
func ParseLogFormat(str string) (LogFormat, error) {
	format := LogFormat(strings.ToLower(strings.TrimSpace(str)))
	if !format.IsValid() {
		return "", fmt.Errorf("invalid log format: %s. Valid options are: console, json", str)
	}
	return format, nil
}

// UnmarshalYAML implements custom unmarshaling for LogLevel
func (l *LogLevel) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	level, err := ParseLogLevel(str)
	if err != nil {
		return err
	}

	*l = level
	return nil
}

// UnmarshalYAML implements custom unmarshaling for LogFormat
func (f *LogFormat) UnmarshalYAML(value *yaml.Node) error {
	var str string
	if err := value.Decode(&str); err != nil {
		return err
	}

	format, err := ParseLogFormat(str)
	if err != nil {
		return err
	}

	*f = format
	return nil
}

// LinearConfig holds the settings for talking to the Linear GraphQL API
type LinearConfig struct {
	APIKey                string `yaml:"api_key" mapstructure:"api_key"`
	Endpoint              string `yaml:"endpoint" mapstructure:"endpoint" default:"https://api.linear.app/graphql"`
	TimeoutSeconds        int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds" default:"10"`
	StatusCacheTTLSeconds int    `yaml:"status_cache_ttl_seconds" mapstructure:"status_cache_ttl_seconds" default:"0"` // 0 rebuilds the status index for every update request
	KeyringService        string `yaml:"keyring_service" mapstructure:"keyring_service"`                               // Optional OS keyring service holding the API key
}

// BoardConfig holds the settings for the static board generator
type BoardConfig struct {
	ViewName    string   `yaml:"view_name" mapstructure:"view_name" default:"rr-intermediacoes"`
	IssueLimit  int      `yaml:"issue_limit" mapstructure:"issue_limit" default:"50"`
	WorkerURL   string   `yaml:"worker_url" mapstructure:"worker_url"` // Proxy base URL for drag-and-drop sync, empty disables sync
	OutputDir   string   `yaml:"output_dir" mapstructure:"output_dir" default:"docs"`
	AssetsDir   string   `yaml:"assets_dir" mapstructure:"assets_dir" default:"assets/png"`
	ColumnOrder []string `yaml:"column_order" mapstructure:"column_order"`

	RefreshIntervalSeconds int `yaml:"refresh_interval_seconds" mapstructure:"refresh_interval_seconds" default:"0"` // 0 generates once and exits
}

// Config represents the application configuration
type Config struct {
	// Server configuration
	Server struct {
		Port int `yaml:"port" mapstructure:"port" default:"8080"`
	} `yaml:"server" mapstructure:"server"`

	// Logging configuration
	Logging struct {
		Level  LogLevel  `yaml:"level" mapstructure:"level" default:"info"`
		Format LogFormat `yaml:"format" mapstructure:"format" default:"console"`
	} `yaml:"logging" mapstructure:"logging"`

	// Linear configuration
	Linear LinearConfig `yaml:"linear" mapstructure:"linear"`

	// Board generator configuration
	Board BoardConfig `yaml:"board" mapstructure:"board"`
}

// envBindings maps configuration keys to the environment variables that override them
var envBindings = map[string]string{
	"server.port":                     "PORT",
	"logging.level":                   "LOG_LEVEL",
	"logging.format":                  "LOG_FORMAT",
	"linear.api_key":                  "LINEAR_API_KEY",
	"linear.endpoint":                 "LINEAR_API_URL",
	"linear.timeout_seconds":          "LINEAR_TIMEOUT_SECONDS",
	"linear.status_cache_ttl_seconds": "LINEAR_STATUS_CACHE_TTL_SECONDS",
	"linear.keyring_service":          "LINEAR_KEYRING_SERVICE",
	"board.view_name":                 "LINEAR_VIEW_NAME",
	"board.issue_limit":               "LINEAR_ISSUE_LIMIT",
	"board.worker_url":                "WORKER_URL",
	"board.output_dir":                "BOARD_OUTPUT_DIR",
	"board.assets_dir":                "BOARD_ASSETS_DIR",
	"board.refresh_interval_seconds":  "BOARD_REFRESH_INTERVAL_SECONDS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", string(LogLevelInfo))
	v.SetDefault("logging.format", string(LogFormatConsole))
	v.SetDefault("linear.api_key", "")
	v.SetDefault("linear.endpoint", DefaultLinearEndpoint)
	v.SetDefault("linear.timeout_seconds", 10)
	v.SetDefault("linear.status_cache_ttl_seconds", 0)
	v.SetDefault("linear.keyring_service", "")
	v.SetDefault("board.view_name", "rr-intermediacoes")
	v.SetDefault("board.issue_limit", 50)
	v.SetDefault("board.worker_url", "")
	v.SetDefault("board.output_dir", "docs")
	v.SetDefault("board.assets_dir", "assets/png")
	v.SetDefault("board.column_order", DefaultColumnOrder)
	v.SetDefault("board.refresh_interval_seconds", 0)
}

// LoadConfig loads configuration from an optional YAML file, a .env file in the
// working directory, and the environment. Environment variables win over the file.
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env file is not an error
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("failed to bind %s to %s: %w", key, env, err)
		}
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", configPath, err)
		}
	}

	// Checked before decoding so a bad value yields a useful message
	if raw := strings.TrimSpace(v.GetString("board.issue_limit")); raw != "" {
		if _, err := strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("board.issue_limit must be an integer between %d and %d, got %q", MinIssueLimit, MaxIssueLimit, raw)
		}
	}

	var config Config
	hooks := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		logLevelHook,
		logFormatHook,
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&config, hooks); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	config.Board.IssueLimit = ClampIssueLimit(config.Board.IssueLimit)
	if len(config.Board.ColumnOrder) == 0 {
		config.Board.ColumnOrder = append([]string(nil), DefaultColumnOrder...)
	}

	if err := config.validateLogging(); err != nil {
		return nil, err
	}

	if err := config.validateLinear(); err != nil {
		return nil, err
	}

	if config.Board.RefreshIntervalSeconds < 0 {
		return nil, errors.New("board.refresh_interval_seconds cannot be negative")
	}

	return &config, nil
}

// ClampIssueLimit bounds the number of issues fetched for the board
func ClampIssueLimit(limit int) int {
	return max(MinIssueLimit, min(limit, MaxIssueLimit))
}

// HasAPIKey reports whether a Linear API key has been configured
func (c *Config) HasAPIKey() bool {
	return strings.TrimSpace(c.Linear.APIKey) != ""
}

func logLevelHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(LogLevel("")) || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseLogLevel(reflect.ValueOf(data).String())
}

func logFormatHook(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
	if to != reflect.TypeOf(LogFormat("")) || from.Kind() != reflect.String {
		return data, nil
	}
	return ParseLogFormat(reflect.ValueOf(data).String())
}

// validateLogging ensures logging configuration is valid
func (c *Config) validateLogging() error {
	if !c.Logging.Level.IsValid() {
		return fmt.Errorf("invalid log level: %s. Valid options are: debug, info, warn, error", c.Logging.Level)
	}
	if !c.Logging.Format.IsValid() {
		return fmt.Errorf("invalid log format: %s. Valid options are: console, json", c.Logging.Format)
	}
	return nil
}

// validateLinear ensures the Linear client settings are usable. The API key is
// not required here; the proxy reports its absence per request.
func (c *Config) validateLinear() error {
	if strings.TrimSpace(c.Linear.Endpoint) == "" {
		return errors.New("linear.endpoint cannot be empty")
	}
	if c.Linear.TimeoutSeconds <= 0 {
		return errors.New("linear.timeout_seconds must be greater than zero")
	}
	if c.Linear.StatusCacheTTLSeconds < 0 {
		return errors.New("linear.status_cache_ttl_seconds cannot be negative")
	}
	return nil
}

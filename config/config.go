// Package config provides configuration management for the label print service.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/guttosm/label-print-service/internal/printer"
	"github.com/spf13/viper"
)

// MaxCopies caps the copies of one label per job.
const MaxCopies = 100

// Config holds the complete application configuration.
type Config struct {
	Server         ServerConfig
	Log            LogConfig
	Print          PrintConfig
	Detection      DetectionConfig
	Database       DatabaseConfig
	Redis          RedisConfig
	CircuitBreaker CircuitBreakerConfig

	catalogErr error
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port       string
	RateLimit  int
	RateWindow time.Duration
	// SubmitRateLimit bounds submissions per X-Client-ID within RateWindow; zero disables it.
	SubmitRateLimit int
	CORSOrigins     []string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	SwaggerUser     string
	SwaggerPass     string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// PrintConfig holds label defaults and job manager tuning.
type PrintConfig struct {
	Dimensions      model.Dimensions
	Layout          model.LabelLayout
	Copies          int
	LabelTimeout    time.Duration
	Retention       time.Duration
	ReadGrace       time.Duration
	DurationSamples int
	JanitorInterval time.Duration
	// DrainOnShutdown lets printing jobs finish before the process exits.
	DrainOnShutdown bool
	SnowflakeNode   int64
}

// Settings returns the default print settings.
func (p PrintConfig) Settings() model.PrintSettings {
	return model.PrintSettings{Dimensions: p.Dimensions, Layout: p.Layout, Copies: p.Copies}
}

// DetectionConfig holds printer discovery configuration.
type DetectionConfig struct {
	ProbeTimeout     time.Duration
	RefreshInterval  time.Duration
	USBPattern       string
	BluetoothPattern string
	Printers         printer.Catalog
}

// DatabaseConfig holds MongoDB configuration.
type DatabaseConfig struct {
	URI          string
	DatabaseName string
	LogsTTL      time.Duration
	Enabled      bool
	// CircuitBreaker configuration
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration
	// Read-through cache in front of the transactions collection; size 0 disables it.
	TransactionCacheSize int
	TransactionCacheTTL  time.Duration
}

// RedisConfig holds the job status store configuration.
type RedisConfig struct {
	Enabled       bool
	Addr          string
	Password      string
	DB            int
	StatusTTL     time.Duration
	ChannelPrefix string
}

// BreakerConfig holds circuit breaker thresholds.
type BreakerConfig struct {
	FailureThreshold int
	SuccessThreshold int
	Timeout          time.Duration
}

// CircuitBreakerConfig holds the per-printer circuit breaker configuration.
type CircuitBreakerConfig struct {
	Printer BreakerConfig
}

var defaults = map[string]any{
	"server.port":              "8080",
	"server.rate_limit":        100,
	"server.rate_window":       time.Minute,
	"server.submit_rate_limit": 0,
	"server.cors_origins":      "",
	"server.request_timeout":   30 * time.Second,
	"server.shutdown_timeout":  30 * time.Second,
	"server.swagger_user":      "",
	"server.swagger_pass":      "",

	"log.level":  "info",
	"log.pretty": false,

	"print.default.width_inches":  4.0,
	"print.default.height_inches": 2.0,
	"print.default.dpi":           203,
	"print.default.margin_inches": 0.05,
	"print.default.qr_fraction":   0.44,
	"print.default.qr_position":   string(model.QRPositionLeft),
	"print.default.font_size_pt":  10.0,
	"print.default.copies":        1,
	"print.label_timeout":         30 * time.Second,
	"print.retention":             time.Hour,
	"print.read_grace":            5 * time.Minute,
	"print.duration_samples":      50,
	"print.janitor_interval":      30 * time.Second,
	"print.drain_on_shutdown":     true,
	"print.snowflake_node":        1,

	"detection.probe_timeout":     5 * time.Second,
	"detection.refresh_interval":  time.Minute,
	"detection.usb_pattern":       "/dev/usb/lp*",
	"detection.bluetooth_pattern": "/dev/rfcomm*",

	"database.uri":      "mongodb://localhost:27017",
	"database.name":     "label_print",
	"database.logs_ttl": 30 * 24 * time.Hour,
	"database.enabled":  false,
	"database.circuit_breaker.failure_threshold": 5,
	"database.circuit_breaker.success_threshold": 2,
	"database.circuit_breaker.timeout":           30 * time.Second,
	"database.transaction_cache.size":            1024,
	"database.transaction_cache.ttl":             5 * time.Minute,

	"redis.enabled":        false,
	"redis.addr":           "localhost:6379",
	"redis.password":       "",
	"redis.db":             0,
	"redis.status_ttl":     24 * time.Hour,
	"redis.channel_prefix": "print",

	"circuit_breaker.printer.failure_threshold": 3,
	"circuit_breaker.printer.success_threshold": 1,
	"circuit_breaker.printer.timeout":           time.Minute,
}

// Environment names kept from earlier releases.
var envAliases = map[string]string{
	"server.port":         "PORT",
	"server.rate_limit":   "RATE_LIMIT",
	"server.rate_window":  "RATE_WINDOW",
	"server.cors_origins": "CORS_ORIGINS",
	"database.uri":        "MONGODB_URI",
	"database.name":       "MONGODB_DATABASE",
	"database.enabled":    "MONGODB_ENABLED",
	"log.level":           "LOG_LEVEL",
	"log.pretty":          "LOG_PRETTY",
}

// New returns a viper instance with defaults, the optional config.yaml search paths and
// environment overrides (PRINT_DEFAULT_DPI for print.default.dpi).
func New() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	for key, env := range envAliases {
		_ = v.BindEnv(key, strings.ToUpper(strings.ReplaceAll(key, ".", "_")), env)
	}
	return v
}

// Load reads config.yaml when present and applies environment overrides.
// A config.yaml that exists but cannot be read or parsed is an error.
func Load() (Config, error) {
	v := New()
	if err := readConfig(v); err != nil {
		return Config{}, err
	}
	return FromViper(v), nil
}

func readConfig(v *viper.Viper) error {
	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if err == nil || errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("read config file: %w", err)
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) Config {
	cfg := Config{
		Server: ServerConfig{
			Port:            v.GetString("server.port"),
			RateLimit:       v.GetInt("server.rate_limit"),
			RateWindow:      v.GetDuration("server.rate_window"),
			SubmitRateLimit: v.GetInt("server.submit_rate_limit"),
			CORSOrigins:     parseCORSOrigins(v.GetStringSlice("server.cors_origins")),
			RequestTimeout:  v.GetDuration("server.request_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
			SwaggerUser:     v.GetString("server.swagger_user"),
			SwaggerPass:     v.GetString("server.swagger_pass"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Pretty: v.GetBool("log.pretty"),
		},
		Print: PrintConfig{
			Dimensions: model.Dimensions{
				WidthInches:  v.GetFloat64("print.default.width_inches"),
				HeightInches: v.GetFloat64("print.default.height_inches"),
				DPI:          v.GetInt("print.default.dpi"),
			},
			Layout: model.LabelLayout{
				MarginInches: v.GetFloat64("print.default.margin_inches"),
				QRFraction:   v.GetFloat64("print.default.qr_fraction"),
				QRPosition:   model.QRPosition(strings.ToLower(v.GetString("print.default.qr_position"))),
				FontSizePt:   v.GetFloat64("print.default.font_size_pt"),
			},
			Copies:          v.GetInt("print.default.copies"),
			LabelTimeout:    v.GetDuration("print.label_timeout"),
			Retention:       v.GetDuration("print.retention"),
			ReadGrace:       v.GetDuration("print.read_grace"),
			DurationSamples: v.GetInt("print.duration_samples"),
			JanitorInterval: v.GetDuration("print.janitor_interval"),
			DrainOnShutdown: v.GetBool("print.drain_on_shutdown"),
			SnowflakeNode:   v.GetInt64("print.snowflake_node"),
		},
		Detection: DetectionConfig{
			ProbeTimeout:     v.GetDuration("detection.probe_timeout"),
			RefreshInterval:  v.GetDuration("detection.refresh_interval"),
			USBPattern:       v.GetString("detection.usb_pattern"),
			BluetoothPattern: v.GetString("detection.bluetooth_pattern"),
		},
		Database: DatabaseConfig{
			URI:                            v.GetString("database.uri"),
			DatabaseName:                   v.GetString("database.name"),
			LogsTTL:                        v.GetDuration("database.logs_ttl"),
			Enabled:                        v.GetBool("database.enabled"),
			CircuitBreakerFailureThreshold: v.GetInt("database.circuit_breaker.failure_threshold"),
			CircuitBreakerSuccessThreshold: v.GetInt("database.circuit_breaker.success_threshold"),
			CircuitBreakerTimeout:          v.GetDuration("database.circuit_breaker.timeout"),
			TransactionCacheSize:           v.GetInt("database.transaction_cache.size"),
			TransactionCacheTTL:            v.GetDuration("database.transaction_cache.ttl"),
		},
		Redis: RedisConfig{
			Enabled:       v.GetBool("redis.enabled"),
			Addr:          v.GetString("redis.addr"),
			Password:      v.GetString("redis.password"),
			DB:            v.GetInt("redis.db"),
			StatusTTL:     v.GetDuration("redis.status_ttl"),
			ChannelPrefix: v.GetString("redis.channel_prefix"),
		},
		CircuitBreaker: CircuitBreakerConfig{
			Printer: BreakerConfig{
				FailureThreshold: v.GetInt("circuit_breaker.printer.failure_threshold"),
				SuccessThreshold: v.GetInt("circuit_breaker.printer.success_threshold"),
				Timeout:          v.GetDuration("circuit_breaker.printer.timeout"),
			},
		},
	}

	if err := v.UnmarshalKey("detection.printers", &cfg.Detection.Printers); err != nil {
		cfg.catalogErr = fmt.Errorf("detection.printers: %w", err)
	}
	return cfg
}

// Validate reports every invalid setting.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Server.Port != "", "server.port is required")
	check(c.Server.RateLimit > 0, "server.rate_limit must be positive")
	check(c.Server.RateWindow > 0, "server.rate_window must be positive")
	check(c.Server.SubmitRateLimit >= 0, "server.submit_rate_limit must not be negative")
	check(c.Server.RequestTimeout > 0, "server.request_timeout must be positive")

	p := c.Print
	check(p.Dimensions.WidthInches > 0, "print.default.width_inches must be positive")
	check(p.Dimensions.HeightInches > 0, "print.default.height_inches must be positive")
	check(p.Dimensions.DPI > 0, "print.default.dpi must be positive")
	check(p.Layout.MarginInches >= 0, "print.default.margin_inches must not be negative")
	check(p.Layout.QRFraction > 0 && p.Layout.QRFraction <= 1, "print.default.qr_fraction must be in (0,1]")
	check(p.Layout.QRPosition == model.QRPositionLeft || p.Layout.QRPosition == model.QRPositionRight,
		"print.default.qr_position must be left or right")
	check(p.Layout.FontSizePt > 0, "print.default.font_size_pt must be positive")
	check(p.Copies >= 1 && p.Copies <= MaxCopies, "print.default.copies must be between 1 and %d", MaxCopies)
	check(p.LabelTimeout > 0, "print.label_timeout must be positive")
	check(p.Retention > 0, "print.retention must be positive")
	check(p.ReadGrace > 0, "print.read_grace must be positive")
	check(p.DurationSamples > 0, "print.duration_samples must be positive")
	check(p.JanitorInterval > 0, "print.janitor_interval must be positive")
	check(p.SnowflakeNode >= 0 && p.SnowflakeNode <= 1023, "print.snowflake_node must be in 0..1023")

	check(c.Detection.ProbeTimeout > 0, "detection.probe_timeout must be positive")
	if c.catalogErr != nil {
		errs = append(errs, c.catalogErr)
	}
	seen := make(map[string]bool, len(c.Detection.Printers))
	for i, e := range c.Detection.Printers {
		check(e.Name != "", "detection.printers[%d].name is required", i)
		check(!seen[e.Name], "detection.printers[%d]: duplicate name %q", i, e.Name)
		seen[e.Name] = true
		switch e.Connection {
		case model.ConnectionUSB, model.ConnectionWiFi, model.ConnectionNetwork, model.ConnectionBluetooth:
		default:
			errs = append(errs, fmt.Errorf("detection.printers[%d]: unknown connection %q", i, e.Connection))
		}
		check(e.DPI >= 0, "detection.printers[%d].dpi must not be negative", i)
	}

	if c.Database.Enabled {
		check(c.Database.URI != "", "database.uri is required when the database is enabled")
		check(c.Database.DatabaseName != "", "database.name is required when the database is enabled")
		check(c.Database.TransactionCacheSize >= 0, "database.transaction_cache.size must be >= 0")
	}
	if c.Redis.Enabled {
		check(c.Redis.Addr != "", "redis.addr is required when redis is enabled")
	}
	check(c.CircuitBreaker.Printer.FailureThreshold > 0, "circuit_breaker.printer.failure_threshold must be positive")
	check(c.CircuitBreaker.Printer.Timeout > 0, "circuit_breaker.printer.timeout must be positive")

	return errors.Join(errs...)
}

func parseCORSOrigins(values []string) []string {
	// Default origins for local development
	result := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	for _, v := range values {
		for _, p := range strings.Split(v, ",") {
			if origin := strings.TrimSpace(p); origin != "" {
				result = append(result, origin)
			}
		}
	}
	return result
}

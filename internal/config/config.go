// Package config loads the m17-relay configuration from a YAML file
// overlaid with M17-prefixed environment variables, via spf13/viper.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config is the top-level relay configuration.
type Config struct {
	Server     ServerConfig                `mapstructure:"server"`
	Web        WebConfig                   `mapstructure:"web"`
	Reflectors map[string]ReflectorConfig  `mapstructure:"reflectors"`
	Bridges    map[string][]BridgeRule     `mapstructure:"bridges"`
	ACL        ACLConfig                   `mapstructure:"acl"`
	Directory  ReflectorDirectoryConfig    `mapstructure:"directory"`
	Events     EventsConfig                `mapstructure:"events"`
	Logging    LoggingConfig               `mapstructure:"logging"`
	Metrics    MetricsConfig               `mapstructure:"metrics"`
	Store      StoreConfig                 `mapstructure:"store"`
}

// ServerConfig identifies this relay instance.
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Callsign    string `mapstructure:"callsign"`
}

// WebConfig configures the monitoring dashboard.
type WebConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	AuthRequired bool   `mapstructure:"auth_required"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// ReflectorConfig describes one outbound connection to an M17
// reflector module.
type ReflectorConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Module         string `mapstructure:"module"`
	ConnectTimeout int    `mapstructure:"connect_timeout"` // seconds
	UseACL         bool   `mapstructure:"use_acl"`
	RegACL         string `mapstructure:"reg_acl"`
}

// BridgeRule routes traffic from one reflector module to another,
// with timer-based activation windows.
type BridgeRule struct {
	Reflector string `mapstructure:"reflector"`
	Module    string `mapstructure:"module"`
	Active    bool   `mapstructure:"active"`
	Timeout   int    `mapstructure:"timeout"` // minutes, 0 = no timeout
}

// ACLConfig holds the callsign permit/deny rule applied, when enabled,
// to every bridge link. A reflector's use_acl/reg_acl settings are
// validated but do not override it.
type ACLConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Rule    string `mapstructure:"rule"` // PERMIT:ALL, DENY:W2FBI, ...
}

// ReflectorDirectoryConfig configures the periodic known-reflector
// list sync.
type ReflectorDirectoryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	URL          string `mapstructure:"url"`
	SyncInterval int    `mapstructure:"sync_interval"` // minutes
}

// EventsConfig configures the (currently stub) event publisher.
type EventsConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
}

// LoggingConfig configures internal/logger.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig configures internal/metrics.
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig configures the Prometheus metrics exporter.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// StoreConfig configures the session-history/reflector-directory
// persistence layer.
type StoreConfig struct {
	DSN string `mapstructure:"dsn"` // sqlite file path
}

// Load reads configuration from configFile (or the default search
// path when empty), overlays M17-prefixed environment variables, and
// validates the result.
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/m17-relay")
	}

	viper.SetEnvPrefix("M17")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// no config file is fine, defaults apply
		} else if os.IsNotExist(err) {
			// explicitly named file missing is also fine
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.name", "m17-relay")
	viper.SetDefault("server.description", "Go M17 reflector relay")

	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)
	viper.SetDefault("web.auth_required", false)

	viper.SetDefault("acl.enabled", true)
	viper.SetDefault("acl.rule", "PERMIT:ALL")

	viper.SetDefault("directory.enabled", false)
	viper.SetDefault("directory.sync_interval", 60)

	viper.SetDefault("events.enabled", false)
	viper.SetDefault("events.topic_prefix", "m17/relay")
	viper.SetDefault("events.client_id", "m17-relay")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")

	viper.SetDefault("store.dsn", "m17-relay.db")
}

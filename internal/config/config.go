package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/givelotus/chronik-go/protos"
)

const ENV_PREFIX = "CHRONIK"

const (
	Debug   = "debug"
	Url     = "url"
	Schema  = "schema"
	Timeout = "timeout"

	WsAutoReconnect  = "ws.auto-reconnect"
	WsReconnectDelay = "ws.reconnect-delay"

	PrometheusEnabled = "prometheus.enabled"
	PrometheusPort    = "prometheus.port"
)

const (
	DefaultUrl            = "https://chronik.be.cash/xec"
	DefaultTimeout        = 30 * time.Second
	DefaultReconnectDelay = 2 * time.Second
	DefaultPrometheusPort = 2112
)

type Config struct {
	Debug            bool
	ChronikConfig    ChronikConfig
	WsConfig         WsConfig
	PrometheusConfig PrometheusConfig
}

type ChronikConfig struct {
	Url     string
	Schema  protos.Generation
	Timeout time.Duration
}

type WsConfig struct {
	AutoReconnect  bool
	ReconnectDelay time.Duration
}

type PrometheusConfig struct {
	Enabled bool
	Port    int
}

// NewConfig reads the configuration from viper. Flags and CHRONIK_*
// environment variables must already be bound.
func NewConfig() *Config {
	return &Config{
		Debug: viper.GetBool(normalizeFlagName(Debug)),

		ChronikConfig: ChronikConfig{
			Url:     strings.TrimSpace(viper.GetString(normalizeFlagName(Url))),
			Schema:  protos.Generation(viper.GetString(normalizeFlagName(Schema))),
			Timeout: viper.GetDuration(normalizeFlagName(Timeout)),
		},

		WsConfig: WsConfig{
			AutoReconnect:  viper.GetBool(normalizeFlagName(WsAutoReconnect)),
			ReconnectDelay: viper.GetDuration(normalizeFlagName(WsReconnectDelay)),
		},

		PrometheusConfig: PrometheusConfig{
			Enabled: viper.GetBool(normalizeFlagName(PrometheusEnabled)),
			Port:    viper.GetInt(normalizeFlagName(PrometheusPort)),
		},
	}
}

// SetDefaults registers the default of every key, for callers that do not
// go through the CLI flags.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(normalizeFlagName(Url), DefaultUrl)
	v.SetDefault(normalizeFlagName(Schema), string(protos.Latest))
	v.SetDefault(normalizeFlagName(Timeout), DefaultTimeout)
	v.SetDefault(normalizeFlagName(WsAutoReconnect), true)
	v.SetDefault(normalizeFlagName(WsReconnectDelay), DefaultReconnectDelay)
	v.SetDefault(normalizeFlagName(PrometheusPort), DefaultPrometheusPort)
}

// Validate checks the values a client cannot be built without.
func (c *Config) Validate() error {
	if c.ChronikConfig.Url == "" {
		return fmt.Errorf("--%s is required", Url)
	}
	gen, err := protos.ParseGeneration(string(c.ChronikConfig.Schema))
	if err != nil {
		return fmt.Errorf("--%s: %w", Schema, err)
	}
	c.ChronikConfig.Schema = gen
	if c.ChronikConfig.Timeout < 0 {
		return fmt.Errorf("--%s must not be negative", Timeout)
	}
	if c.WsConfig.ReconnectDelay < 0 {
		return fmt.Errorf("--%s must not be negative", WsReconnectDelay)
	}
	if c.PrometheusConfig.Enabled && (c.PrometheusConfig.Port <= 0 || c.PrometheusConfig.Port > 65535) {
		return fmt.Errorf("--%s must be a valid port, got %d", PrometheusPort, c.PrometheusConfig.Port)
	}
	return nil
}

func KebabToSnakeCase(str string) string {
	return strings.ReplaceAll(str, "-", "_")
}

func normalizeFlagName(name string) string {
	return KebabToSnakeCase(name)
}

package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/givelotus/chronik-go/protos"
)

func TestKebabToSnakeCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"debug", "debug"},
		{"ws.auto-reconnect", "ws.auto_reconnect"},
		{"ws.reconnect-delay", "ws.reconnect_delay"},
		{"a-b-c", "a_b_c"},
	}
	for _, test := range tests {
		if got := KebabToSnakeCase(test.input); got != test.expected {
			t.Errorf("KebabToSnakeCase(%s) = %s, want %s", test.input, got, test.expected)
		}
	}
}

func TestNewConfig_Defaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults(viper.GetViper())

	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.False(t, cfg.Debug)
	assert.Equal(t, DefaultUrl, cfg.ChronikConfig.Url)
	assert.Equal(t, protos.Latest, cfg.ChronikConfig.Schema)
	assert.Equal(t, DefaultTimeout, cfg.ChronikConfig.Timeout)
	assert.True(t, cfg.WsConfig.AutoReconnect)
	assert.Equal(t, DefaultReconnectDelay, cfg.WsConfig.ReconnectDelay)
	assert.False(t, cfg.PrometheusConfig.Enabled)
	assert.Equal(t, DefaultPrometheusPort, cfg.PrometheusConfig.Port)
}

func TestNewConfig_Environment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults(viper.GetViper())
	viper.SetEnvPrefix(ENV_PREFIX)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))

	t.Setenv("CHRONIK_URL", "http://localhost:7123")
	t.Setenv("CHRONIK_SCHEMA", "1")
	t.Setenv("CHRONIK_WS_RECONNECT_DELAY", "250ms")
	t.Setenv("CHRONIK_DEBUG", "true")

	cfg := NewConfig()
	require.NoError(t, cfg.Validate())

	assert.True(t, cfg.Debug)
	assert.Equal(t, "http://localhost:7123", cfg.ChronikConfig.Url)
	assert.Equal(t, protos.GenerationV1, cfg.ChronikConfig.Schema)
	assert.Equal(t, 250*time.Millisecond, cfg.WsConfig.ReconnectDelay)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			ChronikConfig: ChronikConfig{Url: DefaultUrl, Schema: "v2", Timeout: time.Second},
			WsConfig:      WsConfig{ReconnectDelay: time.Second},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing_url", func(c *Config) { c.ChronikConfig.Url = "" }, true},
		{"bad_schema", func(c *Config) { c.ChronikConfig.Schema = "v3" }, true},
		{"negative_timeout", func(c *Config) { c.ChronikConfig.Timeout = -time.Second }, true},
		{"negative_delay", func(c *Config) { c.WsConfig.ReconnectDelay = -1 }, true},
		{"bad_port", func(c *Config) { c.PrometheusConfig = PrometheusConfig{Enabled: true, Port: 70000} }, true},
		{"port_ignored_when_disabled", func(c *Config) { c.PrometheusConfig = PrometheusConfig{Port: 0} }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

package server

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the server configuration.
type Config struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	DataDir string `mapstructure:"data_dir"`
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadConfig reads configuration from file and environment variables.
func LoadConfig(configPath string) (*viper.Viper, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.data_dir", "./data")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/wardwatch.db")

	// Plugin defaults
	v.SetDefault("plugins.telemetry.enabled", true)
	v.SetDefault("plugins.telemetry.retention_window", "720h")
	v.SetDefault("plugins.telemetry.maintenance_interval", "1h")
	v.SetDefault("plugins.telemetry.device_stale_after", "10m")
	v.SetDefault("plugins.triage.enabled", true)
	v.SetDefault("plugins.triage.contamination", 0.1)
	v.SetDefault("plugins.triage.trees", 100)
	v.SetDefault("plugins.triage.sample_size", 256)
	v.SetDefault("plugins.triage.seed", 42)
	v.SetDefault("plugins.triage.clusters", 3)
	v.SetDefault("plugins.triage.cluster_sigma", 2.0)
	v.SetDefault("plugins.triage.history_window", 10)
	v.SetDefault("plugins.triage.trend_min_samples", 3)
	v.SetDefault("plugins.triage.trend_consecutive", 3)
	v.SetDefault("plugins.triage.min_training_samples", 50)
	v.SetDefault("plugins.triage.train_window", "168h")
	v.SetDefault("plugins.triage.anomaly_retention", "2160h")
	v.SetDefault("plugins.triage.maintenance_interval", "1h")
	v.SetDefault("plugins.ws.enabled", true)
	v.SetDefault("plugins.webhook.enabled", true)
	v.SetDefault("plugins.webhook.url", "")
	v.SetDefault("plugins.webhook.timeout", "10s")
	v.SetDefault("plugins.webhook.min_severity", "HIGH")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("wardwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/wardwatch")
	}

	// Environment variable support: WARDWATCH_SERVER_PORT=9090
	v.SetEnvPrefix("WARDWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "ROUTEMAP"

// GraphHopperConfig holds the routing API settings.
type GraphHopperConfig struct {
	BaseURL  string
	Timeout  time.Duration
	CacheTTL time.Duration
}

// RenderConfig tunes the render cycle.
type RenderConfig struct {
	// Yield is how long a cycle pauses after raising the loading indicator.
	Yield time.Duration
	// Concurrency caps in-flight route fetches per cycle; 0 means no cap.
	Concurrency int
}

// KafkaConfig holds the broker settings for the command consumer and the
// completion publisher.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	GroupPrefix string
}

// ServiceConfig holds all configuration for the route map service.
type ServiceConfig struct {
	Port        string
	AppEnv      string
	GraphHopper GraphHopperConfig
	Render      RenderConfig
	KafkaConfig KafkaConfig

	v *viper.Viper
}

// Load reads configuration from the environment, after loading an optional .env file.
func Load() (*ServiceConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("GH_BASE_URL", "https://graphhopper.com/api/1")
	v.SetDefault("GH_TIMEOUT", "10s")
	v.SetDefault("GH_CACHE_TTL", "10m")
	v.SetDefault("RENDER_YIELD", "10ms")
	v.SetDefault("FETCH_CONCURRENCY", 0)
	v.SetDefault("KAFKA_ENABLED", false)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "colectivo-")

	// The routing key is also accepted under its historical unprefixed name.
	_ = v.BindEnv("GH_API_KEY", envPrefix+"_GH_API_KEY", "GH_API_KEY")
	return v
}

// FromViper builds a ServiceConfig from an already populated viper instance.
func FromViper(v *viper.Viper) (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		Port:   servicePort(v.GetString("SERVICE_PORT")),
		AppEnv: v.GetString("APP_ENV"),
		GraphHopper: GraphHopperConfig{
			BaseURL:  v.GetString("GH_BASE_URL"),
			Timeout:  v.GetDuration("GH_TIMEOUT"),
			CacheTTL: v.GetDuration("GH_CACHE_TTL"),
		},
		Render: RenderConfig{
			Yield:       v.GetDuration("RENDER_YIELD"),
			Concurrency: v.GetInt("FETCH_CONCURRENCY"),
		},
		KafkaConfig: KafkaConfig{
			Enabled:     v.GetBool("KAFKA_ENABLED"),
			Brokers:     splitList(v.GetString("KAFKA_BROKERS")),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		v: v,
	}

	if cfg.Render.Concurrency < 0 {
		return nil, fmt.Errorf("%s_FETCH_CONCURRENCY must not be negative", envPrefix)
	}
	if cfg.KafkaConfig.Enabled && len(cfg.KafkaConfig.Brokers) == 0 {
		return nil, fmt.Errorf("%s_KAFKA_BROKERS is required when Kafka is enabled", envPrefix)
	}
	return cfg, nil
}

// APIKey returns the routing API credential. It is looked up on every call
// so a key rotated in the environment is picked up by the next render cycle.
func (c *ServiceConfig) APIKey() string {
	if c.v == nil {
		return ""
	}
	return strings.TrimSpace(c.v.GetString("GH_API_KEY"))
}

func servicePort(p string) string {
	if p == "" {
		return ":8080"
	}
	if !strings.HasPrefix(p, ":") && !strings.Contains(p, ":") {
		return ":" + p
	}
	return p
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

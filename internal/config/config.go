package config

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Limit is one rate-limit bucket: at most Requests per Window.
type Limit struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// Limits carries one bucket per operation category: create,
// public-lookup, join-by-ip, join-by-room, poll and mutation.
type Limits struct {
	Create   Limit `mapstructure:"create"`
	Lookup   Limit `mapstructure:"lookup"`
	JoinIP   Limit `mapstructure:"join_ip"`
	JoinRoom Limit `mapstructure:"join_room"`
	Poll     Limit `mapstructure:"poll"`
	Mutation Limit `mapstructure:"mutation"`
}

type Config struct {
	Mode             string        `mapstructure:"mode"`
	Port             int           `mapstructure:"port"`
	Storage          string        `mapstructure:"storage"` // actor | redis
	RedisAddr        string        `mapstructure:"redis_addr"`
	RedisReplicaAddr string        `mapstructure:"redis_replica_addr"`
	RoomTTL          time.Duration `mapstructure:"room_ttl"`
	ProtocolVersion  string        `mapstructure:"protocol_version"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	Limits           Limits        `mapstructure:"limits"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("storage", "actor")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_replica_addr", "")
	v.SetDefault("room_ttl", "30m")
	v.SetDefault("protocol_version", "1")
	v.SetDefault("allowed_origins", []string{})
	v.SetDefault("limits.create", map[string]any{"requests": 10, "window": "1m"})
	v.SetDefault("limits.lookup", map[string]any{"requests": 60, "window": "1m"})
	v.SetDefault("limits.join_ip", map[string]any{"requests": 20, "window": "1m"})
	v.SetDefault("limits.join_room", map[string]any{"requests": 10, "window": "1m"})
	v.SetDefault("limits.poll", map[string]any{"requests": 120, "window": "1m"})
	v.SetDefault("limits.mutation", map[string]any{"requests": 60, "window": "1m"})

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("file", fileName).Msg("config loaded")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Storage != "actor" && cfg.Storage != "redis" {
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage)
	}
	return &cfg, nil
}

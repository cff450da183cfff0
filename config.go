package main

import (
	"log"
	"math"
	"time"

	"github.com/spf13/viper"
)

// Config carries every tunable for the match server. Tick rate is explicit:
// all per-tick quantities are derived from it at runtime, never from a
// hardcoded divisor.
type Config struct {
	Addr string `mapstructure:"addr"`

	TickRate   int `mapstructure:"tick_rate"`
	MaxPlayers int `mapstructure:"max_players"`
	MaxRounds  int `mapstructure:"max_rounds"`

	CountdownSeconds   float64 `mapstructure:"countdown_seconds"`
	ExplorationSeconds float64 `mapstructure:"exploration_seconds"`

	BorderInitialRadius   float64 `mapstructure:"border_initial_radius"`
	BorderShrinkDelay     float64 `mapstructure:"border_shrink_delay_seconds"`
	BorderShrinkRate      float64 `mapstructure:"border_shrink_rate"`
	BorderMinRadius       float64 `mapstructure:"border_min_radius"`
	BorderDamagePerSecond float64 `mapstructure:"border_damage_per_second"`

	SpawnInvulnSeconds float64 `mapstructure:"spawn_invuln_seconds"`
	InteractionRadius  float64 `mapstructure:"interaction_radius"`
	MaxHitDamage       float64 `mapstructure:"max_hit_damage"`
	HeadshotMultiplier float64 `mapstructure:"headshot_multiplier"`

	ChestCount        int    `mapstructure:"chest_count"`
	LootRollsPerChest int    `mapstructure:"loot_rolls_per_chest"`
	LootTablePath     string `mapstructure:"loot_table_path"`

	HeartbeatTimeout  time.Duration `mapstructure:"heartbeat_timeout"`
	LivenessInterval  time.Duration `mapstructure:"liveness_interval"`
	RoomIdleTimeout   time.Duration `mapstructure:"room_idle_timeout"`
	SweepInterval     time.Duration `mapstructure:"sweep_interval"`
	KillFeedRetention time.Duration `mapstructure:"kill_feed_retention"`

	TokenSecret string        `mapstructure:"token_secret"`
	TokenTTL    time.Duration `mapstructure:"token_ttl"`
}

// LoadConfig reads configuration from environment variables (ZF_ prefix) and
// an optional config.yaml in the working directory, falling back to defaults.
func LoadConfig() Config {
	v := viper.New()

	v.SetDefault("addr", ":8080")
	v.SetDefault("tick_rate", 20)
	v.SetDefault("max_players", 8)
	v.SetDefault("max_rounds", 3)
	v.SetDefault("countdown_seconds", 5.0)
	v.SetDefault("exploration_seconds", 30.0)
	v.SetDefault("border_initial_radius", 250.0)
	v.SetDefault("border_shrink_delay_seconds", 20.0)
	v.SetDefault("border_shrink_rate", 2.5)
	v.SetDefault("border_min_radius", 20.0)
	v.SetDefault("border_damage_per_second", 5.0)
	v.SetDefault("spawn_invuln_seconds", 3.0)
	v.SetDefault("interaction_radius", 6.0)
	v.SetDefault("max_hit_damage", 50.0)
	v.SetDefault("headshot_multiplier", 2.0)
	v.SetDefault("chest_count", 12)
	v.SetDefault("loot_rolls_per_chest", 2)
	v.SetDefault("loot_table_path", "")
	v.SetDefault("heartbeat_timeout", time.Minute)
	v.SetDefault("liveness_interval", 10*time.Second)
	v.SetDefault("room_idle_timeout", 10*time.Minute)
	v.SetDefault("sweep_interval", time.Minute)
	v.SetDefault("kill_feed_retention", 10*time.Second)
	v.SetDefault("token_secret", "")
	v.SetDefault("token_ttl", 5*time.Minute)

	v.SetEnvPrefix("ZF")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config: ignoring unreadable config file: %v", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config: unable to decode: %v", err)
	}

	if cfg.TickRate < 1 {
		log.Printf("config: tick_rate %d out of range, using 20", cfg.TickRate)
		cfg.TickRate = 20
	}
	if cfg.MaxRounds < 1 {
		cfg.MaxRounds = 1
	}
	return cfg
}

// TickInterval is the wall-clock duration of one simulation step.
func (c Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRate)
}

// Ticks converts a duration in seconds to a whole number of ticks, rounding
// up so short phases still last at least one tick.
func (c Config) Ticks(seconds float64) int {
	if seconds <= 0 {
		return 0
	}
	return int(math.Ceil(seconds * float64(c.TickRate)))
}

// RoundsToWin is the round-win count that ends the match early.
func (c Config) RoundsToWin() int {
	return (c.MaxRounds + 1) / 2
}

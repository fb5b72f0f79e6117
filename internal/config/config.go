package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the scheduling service.
type Config struct {
	AppName           string
	AppEnv            string
	AppPort           string
	DatabaseURL       string
	RedisURL          string
	NATSURL           string
	JWTSecret         string
	SchedulerBaseURL  string
	SchedulerTimeout  time.Duration
	SeedTeacherIDs    []string
	ResolveTimeout    time.Duration
	FeedPollInterval  time.Duration
	FeedCacheTTL      time.Duration
	EventChannelBase  string
	FeedRetryAttempts int
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// IsSeedTeacher reports whether the principal id belongs to the configured
// teacher allow-list. The list replaces the single hardcoded identifier the
// first deployment shipped with; the assignment decision now lives in
// configuration where it can be audited and rotated.
func (c Config) IsSeedTeacher(principalID string) bool {
	for _, id := range c.SeedTeacherIDs {
		if id == principalID {
			return true
		}
	}
	return false
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TUTORLINK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "TutorLink API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("scheduler.base_url", "http://localhost:8000")
	v.SetDefault("scheduler.timeout", "15s")
	v.SetDefault("resolve.timeout", "3s")
	v.SetDefault("feed.poll_interval", "5s")
	v.SetDefault("feed.cache_ttl", "30m")
	v.SetDefault("feed.retry_attempts", 3)
	v.SetDefault("event.channel_base", "tutorlink")

	schedulerTimeout, err := time.ParseDuration(v.GetString("scheduler.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid scheduler timeout: %w", err)
	}

	resolveTimeout, err := time.ParseDuration(v.GetString("resolve.timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid resolve timeout: %w", err)
	}

	pollInterval, err := time.ParseDuration(v.GetString("feed.poll_interval"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid feed poll interval: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("feed.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid feed cache ttl: %w", err)
	}

	cfg := Config{
		AppName:           v.GetString("app.name"),
		AppEnv:            v.GetString("app.env"),
		AppPort:           v.GetString("app.port"),
		DatabaseURL:       v.GetString("database.url"),
		RedisURL:          v.GetString("redis.url"),
		NATSURL:           v.GetString("nats.url"),
		JWTSecret:         v.GetString("jwt.secret"),
		SchedulerBaseURL:  strings.TrimRight(v.GetString("scheduler.base_url"), "/"),
		SchedulerTimeout:  schedulerTimeout,
		SeedTeacherIDs:    splitList(v.GetString("seed.teacher_ids")),
		ResolveTimeout:    resolveTimeout,
		FeedPollInterval:  pollInterval,
		FeedCacheTTL:      cacheTTL,
		EventChannelBase:  v.GetString("event.channel_base"),
		FeedRetryAttempts: v.GetInt("feed.retry_attempts"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.SchedulerBaseURL == "" {
		return Config{}, fmt.Errorf("scheduler base url must be provided")
	}

	if cfg.FeedPollInterval < 2*time.Second {
		cfg.FeedPollInterval = 2 * time.Second
	}

	if cfg.FeedRetryAttempts <= 0 {
		cfg.FeedRetryAttempts = 3
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

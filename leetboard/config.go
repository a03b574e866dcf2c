package leetboard

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/leetboard/leetboard/leetboard/config"
)

func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

type Config struct {
	Log           LogConfig          `toml:"log"`
	DB            DBConfig           `toml:"db"`
	Upstream      UpstreamConfig     `toml:"upstream"`
	Schedule      ScheduleConfig     `toml:"schedule"`
	Analytics     AnalyticsConfig    `toml:"analytics"`
	Web           WebConfig          `toml:"web"`
	Notifications NotificationConfig `toml:"notifications"`
	Backup        BackupConfig       `toml:"backup"`
}

type LogConfig struct {
	Level     slog.Level `toml:"level"`
	Format    string     `toml:"format"`
	AddSource bool       `toml:"add_source"`
}

type DBConfig struct {
	Driver       string `toml:"driver"`
	Path         string `toml:"path"`
	Host         string `toml:"host"`
	Port         int    `toml:"port"`
	User         string `toml:"user"`
	Password     string `toml:"password"`
	Database     string `toml:"database"`
	PoolSize     int    `toml:"pool_size"`
	MaxIdleConns int    `toml:"max_idle_conns"`
	MaxLifetime  int    `toml:"max_lifetime"`
}

type UpstreamConfig struct {
	Endpoint              string  `toml:"endpoint"`
	Concurrency           int     `toml:"concurrency"`
	RequestTimeoutSeconds int     `toml:"request_timeout_seconds"`
	MaxRetries            int     `toml:"max_retries"`
	BackoffBaseMillis     int     `toml:"backoff_base_ms"`
	RatePerSecond         float64 `toml:"rate_per_second"`
	CacheSize             int     `toml:"cache_size"`
	ProfileTTLSeconds     int     `toml:"profile_ttl_seconds"`
	RecentTTLSeconds      int     `toml:"recent_ttl_seconds"`
	DailyTTLSeconds       int     `toml:"daily_ttl_seconds"`
}

// ScheduleConfig holds the cadences of the background jobs. Every field can be
// overridden at runtime from the system_settings table.
type ScheduleConfig struct {
	Timezone          string `toml:"timezone"`
	SnapshotDay       string `toml:"snapshot_day"`
	SnapshotTime      string `toml:"snapshot_time"`
	FetchTickInterval int    `toml:"fetch_tick_interval"`
	DailyDigestTime   string `toml:"daily_digest_time"`
	BackupTime        string `toml:"backup_time"`
}

type AnalyticsConfig struct {
	LiveFill        *bool `toml:"live_fill"`
	TrendTTLSeconds int   `toml:"trend_ttl_seconds"`
	DefaultWeeks    int   `toml:"default_weeks"`
}

type WebConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	DefaultTeam string `toml:"default_team"`
}

type NotificationConfig struct {
	Discord DiscordConfig `toml:"discord"`
	Kafka   KafkaConfig   `toml:"kafka"`
}

type DiscordConfig struct {
	Enabled      bool         `toml:"enabled"`
	WebhookID    snowflake.ID `toml:"webhook_id"`
	WebhookToken string       `toml:"webhook_token"`
}

type KafkaConfig struct {
	Enabled bool     `toml:"enabled"`
	Brokers []string `toml:"brokers"`
	Topic   string   `toml:"topic"`
}

type BackupConfig struct {
	Enabled  bool   `toml:"enabled"`
	Region   string `toml:"region"`
	Bucket   string `toml:"bucket"`
	Endpoint string `toml:"endpoint"`
	Key      string `toml:"key"`
	Secret   string `toml:"secret"`
	Prefix   string `toml:"prefix"`
}

// ApplyDefaults fills every zero value with its documented default.
func (c *Config) ApplyDefaults() {
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	if c.DB.Driver == "" {
		c.DB.Driver = "postgres"
	}
	if c.DB.Driver == "sqlite" && c.DB.Path == "" {
		c.DB.Path = "leetboard.db"
	}
	if c.DB.Port == 0 {
		c.DB.Port = 5432
	}

	u := &c.Upstream
	if u.Endpoint == "" {
		u.Endpoint = config.DefaultUpstreamEndpoint
	}
	if u.Concurrency <= 0 {
		u.Concurrency = config.DefaultUpstreamConcurrency
	}
	if u.RequestTimeoutSeconds <= 0 {
		u.RequestTimeoutSeconds = int(config.DefaultUpstreamTimeout / time.Second)
	}
	if u.MaxRetries <= 0 {
		u.MaxRetries = config.DefaultUpstreamMaxRetries
	}
	if u.BackoffBaseMillis <= 0 {
		u.BackoffBaseMillis = int(config.DefaultBackoffBase / time.Millisecond)
	}
	if u.CacheSize <= 0 {
		u.CacheSize = config.CacheSize
	}
	if u.ProfileTTLSeconds <= 0 {
		u.ProfileTTLSeconds = int(config.ProfileCacheTTL / time.Second)
	}
	if u.RecentTTLSeconds <= 0 {
		u.RecentTTLSeconds = int(config.RecentCacheTTL / time.Second)
	}
	if u.DailyTTLSeconds <= 0 {
		u.DailyTTLSeconds = int(config.DailyCacheTTL / time.Second)
	}

	s := &c.Schedule
	if s.Timezone == "" {
		s.Timezone = "UTC"
	}
	if s.SnapshotDay == "" {
		s.SnapshotDay = config.DefaultSnapshotDay
	}
	if s.SnapshotTime == "" {
		s.SnapshotTime = config.DefaultSnapshotTime
	}
	if s.FetchTickInterval <= 0 {
		s.FetchTickInterval = config.DefaultFetchTickMinutes
	}
	if s.DailyDigestTime == "" {
		s.DailyDigestTime = config.DefaultDigestTime
	}
	if s.BackupTime == "" {
		s.BackupTime = config.DefaultBackupTime
	}

	if c.Analytics.LiveFill == nil {
		enabled := true
		c.Analytics.LiveFill = &enabled
	}
	if c.Analytics.TrendTTLSeconds <= 0 {
		c.Analytics.TrendTTLSeconds = int(config.TrendCacheTTL / time.Second)
	}
	if c.Analytics.DefaultWeeks <= 0 {
		c.Analytics.DefaultWeeks = config.DefaultProgressWeeks
	}

	if c.Web.Host == "" {
		c.Web.Host = "0.0.0.0"
	}
	if c.Web.Port == 0 {
		c.Web.Port = 8080
	}
	if c.Web.DefaultTeam == "" {
		c.Web.DefaultTeam = "default"
	}

	if c.Notifications.Kafka.Topic == "" {
		c.Notifications.Kafka.Topic = "leetboard.notifications"
	}
	if c.Backup.Prefix == "" {
		c.Backup.Prefix = "backups"
	}
	c.Backup.Prefix = strings.Trim(c.Backup.Prefix, "/")
}

// Location resolves the configured scheduler zone, falling back to UTC.
func (s ScheduleConfig) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		slog.Warn("Unknown timezone, using UTC",
			slog.String("type", "sys"),
			slog.String("timezone", s.Timezone),
			slog.Any("error", err))
		return time.UTC
	}
	return loc
}

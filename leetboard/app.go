package leetboard

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leetboard/leetboard/internal/domain/analytics"
	"github.com/leetboard/leetboard/internal/domain/notifications"
	"github.com/leetboard/leetboard/internal/domain/roster"
	"github.com/leetboard/leetboard/internal/domain/snapshots"
	"github.com/leetboard/leetboard/internal/domain/streaks"
	"github.com/leetboard/leetboard/internal/gateways/backup"
	"github.com/leetboard/leetboard/internal/gateways/channels"
	"github.com/leetboard/leetboard/internal/gateways/database"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/leetboard/scheduler"
)

func New(cfg Config, version string, commit string) *App {
	return &App{
		Cfg:     cfg,
		Version: version,
		Commit:  commit,
	}
}

// App holds every long-lived component of one process. Components talk to
// each other only through the stores and the notification log.
type App struct {
	Cfg     Config
	Version string
	Commit  string
	DB      *database.DB

	Members       repositories.MemberRepository
	Snapshots     repositories.SnapshotRepository
	States        repositories.LastStateRepository
	Notifications repositories.NotificationRepository
	Settings      repositories.SettingsRepository
	APICache      repositories.APICacheRepository

	Upstream  *leetcode.Client
	Engine    *snapshots.Engine
	Roster    *roster.Service
	Analytics *analytics.Service
	Sink      *notifications.Sink
	Detector  *streaks.Detector
	Backup    *backup.S3Exporter
	Scheduler *scheduler.Scheduler

	closers []func() error
}

// Open connects the database, makes sure the schema exists and wires the
// components.
func (a *App) Open(ctx context.Context) error {
	start := time.Now()

	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	a.DB = db
	slog.Info("Database connected",
		slog.String("type", "db"),
		slog.String("driver", db.Driver()),
		slog.Duration("took", time.Since(start)))

	if err := db.InitializeSchema(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	bunDB := db.BunDB()
	a.Members = repositories.NewMemberRepository(bunDB)
	a.Snapshots = repositories.NewSnapshotRepository(bunDB)
	a.States = repositories.NewLastStateRepository(bunDB)
	a.Notifications = repositories.NewNotificationRepository(bunDB)
	a.Settings = repositories.NewSettingsRepository(bunDB)
	a.APICache = repositories.NewAPICacheRepository(bunDB)

	u := a.Cfg.Upstream
	a.Upstream = leetcode.New(leetcode.Options{
		Endpoint:       u.Endpoint,
		Concurrency:    u.Concurrency,
		RequestTimeout: time.Duration(u.RequestTimeoutSeconds) * time.Second,
		MaxRetries:     u.MaxRetries,
		BackoffBase:    time.Duration(u.BackoffBaseMillis) * time.Millisecond,
		RatePerSecond:  u.RatePerSecond,
		CacheSize:      u.CacheSize,
		ProfileTTL:     time.Duration(u.ProfileTTLSeconds) * time.Second,
		RecentTTL:      time.Duration(u.RecentTTLSeconds) * time.Second,
		DailyTTL:       time.Duration(u.DailyTTLSeconds) * time.Second,
	}, leetcode.WithPersistentCache(a.APICache))

	a.Engine = snapshots.NewEngine(a.Members, a.Snapshots, a.Upstream)
	a.Roster = roster.NewService(a.Members, a.Upstream, a.Engine)
	a.Analytics = analytics.NewService(a.Members, a.Snapshots, a.Upstream, analytics.Options{
		LiveFill:  *a.Cfg.Analytics.LiveFill,
		TrendTTL:  time.Duration(a.Cfg.Analytics.TrendTTLSeconds) * time.Second,
		CacheSize: u.CacheSize,
	})

	a.Sink = notifications.NewSink(a.Notifications, a.channels()...)
	a.Detector = streaks.NewDetector(a.Members, a.Snapshots, a.States, a.Upstream, a.Sink)

	opts := []scheduler.Option{
		scheduler.WithDigest(scheduler.NewDigest(a.Members, a.Analytics, a.Sink)),
	}
	if a.Cfg.Backup.Enabled {
		b := a.Cfg.Backup
		s3opts := backup.Options{
			Region:   b.Region,
			Bucket:   b.Bucket,
			Endpoint: b.Endpoint,
			Key:      b.Key,
			Secret:   b.Secret,
			Prefix:   b.Prefix,
		}
		client, err := backup.NewS3Client(ctx, s3opts)
		if err != nil {
			a.Close()
			return err
		}
		a.Backup = backup.NewS3Exporter(client, s3opts, a.Members, a.Snapshots, a.Notifications)
		opts = append(opts, scheduler.WithBackup(a.Backup))
	}

	s := a.Cfg.Schedule
	a.Scheduler = scheduler.New(scheduler.Settings{
		SnapshotDay:       s.SnapshotDay,
		SnapshotTime:      s.SnapshotTime,
		FetchTickInterval: s.FetchTickInterval,
		DailyDigestTime:   s.DailyDigestTime,
		BackupTime:        s.BackupTime,
	}, s.Location(), a.Settings, a.Engine, a.Detector, opts...)

	return nil
}

func (a *App) openDB(ctx context.Context) (*database.DB, error) {
	if a.Cfg.DB.Driver == "sqlite" {
		return database.NewSQLite(a.Cfg.DB.Path)
	}
	return database.New(ctx, database.DBConfig{
		Host:         a.Cfg.DB.Host,
		Port:         a.Cfg.DB.Port,
		User:         a.Cfg.DB.User,
		Password:     a.Cfg.DB.Password,
		Database:     a.Cfg.DB.Database,
		PoolSize:     a.Cfg.DB.PoolSize,
		MaxIdleConns: a.Cfg.DB.MaxIdleConns,
		MaxLifetime:  a.Cfg.DB.MaxLifetime,
	})
}

func (a *App) channels() []notifications.Channel {
	out := []notifications.Channel{channels.NewLog()}

	n := a.Cfg.Notifications
	if n.Discord.Enabled {
		out = append(out, channels.NewDiscord(n.Discord.WebhookID, n.Discord.WebhookToken))
	}
	if n.Kafka.Enabled && len(n.Kafka.Brokers) > 0 {
		k := channels.NewKafka(n.Kafka.Brokers, n.Kafka.Topic)
		a.closers = append(a.closers, k.Close)
		out = append(out, k)
	}

	names := make([]string, 0, len(out))
	for _, ch := range out {
		names = append(names, ch.Name())
	}
	slog.Info("Notification channels enabled",
		slog.String("type", "sys"),
		slog.Any("channels", names))
	return out
}

// Close releases the channels and the database.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	for _, c := range a.closers {
		if err := c(); err != nil {
			slog.Warn("Failed to close channel", slog.String("type", "sys"), slog.Any("error", err))
		}
	}
	a.closers = nil
	if a.DB != nil {
		a.DB.Close()
		a.DB = nil
	}
}

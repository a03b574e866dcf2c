// Package scheduler runs the background jobs on cron schedules read from the
// configuration and the system_settings table.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron"

	"github.com/leetboard/leetboard/internal/domain/snapshots"
	"github.com/leetboard/leetboard/internal/domain/streaks"
	"github.com/leetboard/leetboard/leetboard/config"
	"github.com/leetboard/leetboard/leetboard/logger"
)

type SettingsStore interface {
	All(ctx context.Context) (map[string]string, error)
}

type SnapshotRunner interface {
	RunTick(ctx context.Context) (*snapshots.TickResult, error)
}

type FetchRunner interface {
	Tick(ctx context.Context) (*streaks.TickResult, error)
}

type DigestRunner interface {
	Run(ctx context.Context) (int, error)
}

type Backuper interface {
	Backup(ctx context.Context) (string, error)
}

// Scheduler owns one cron instance. Every job, scheduled or forced, holds the
// same mutex, so no two ticks overlap.
type Scheduler struct {
	base     Settings
	location *time.Location
	store    SettingsStore
	snapshot SnapshotRunner
	fetch    FetchRunner
	digest   DigestRunner
	backup   Backuper

	jobMu sync.Mutex

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	active Settings
	specs  Specs
}

type job struct {
	name string
	spec string
	fn   func(context.Context) error
}

type Option func(*Scheduler)

func WithDigest(d DigestRunner) Option {
	return func(s *Scheduler) { s.digest = d }
}

func WithBackup(b Backuper) Option {
	return func(s *Scheduler) { s.backup = b }
}

func New(base Settings, location *time.Location, store SettingsStore, snapshot SnapshotRunner, fetch FetchRunner, opts ...Option) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	s := &Scheduler{
		base:     base,
		location: location,
		store:    store,
		snapshot: snapshot,
		fetch:    fetch,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start loads the settings and starts the cron. Jobs run with contexts
// derived from ctx.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}
	s.ctx = ctx
	return s.schedule(ctx)
}

// Reload re-reads system_settings and replaces every schedule.
func (s *Scheduler) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return errors.New("scheduler not started")
	}
	s.cron.Stop()
	s.cron = nil
	logger.LogSystem("Scheduler reloading")
	return s.schedule(ctx)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.mu.Unlock()

	// wait for a running job
	s.jobMu.Lock()
	s.jobMu.Unlock()
	logger.LogSystem("Scheduler stopped")
}

// Base returns the file settings before any stored override.
func (s *Scheduler) Base() Settings {
	return s.base
}

// Active returns the settings and cron expressions in use.
func (s *Scheduler) Active() (Settings, Specs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active, s.specs
}

func (s *Scheduler) schedule(ctx context.Context) error {
	settings := s.base
	if s.store != nil {
		overrides, err := s.store.All(ctx)
		if err != nil {
			logger.LogError("Failed to read system settings, using configuration file", err)
		} else {
			settings = settings.Merge(overrides)
		}
	}

	specs, problems := settings.Specs()
	for _, p := range problems {
		var cfgErr *ConfigError
		if errors.As(p, &cfgErr) {
			slog.Warn("Invalid schedule setting",
				slog.String("type", "sys"),
				slog.String("key", cfgErr.Key),
				slog.String("value", cfgErr.Value),
				slog.String("fallback", cfgErr.Fallback))
		}
	}

	c := cron.NewWithLocation(s.location)
	jobs := []job{
		{"snapshot", specs.Snapshot, s.runSnapshot},
		{"fetch", specs.Fetch, s.runFetch},
	}
	if s.digest != nil {
		jobs = append(jobs, job{"digest", specs.Digest, s.runDigest})
	}
	if s.backup != nil {
		jobs = append(jobs, job{"backup", specs.Backup, s.runBackup})
	}

	for _, j := range jobs {
		if err := c.AddFunc(j.spec, func() { s.run(j.name, j.fn) }); err != nil {
			return fmt.Errorf("failed to schedule %s job %q: %w", j.name, j.spec, err)
		}
	}

	c.Start()
	s.cron = c
	s.active = settings
	s.specs = specs

	logger.LogSystem("Scheduler started",
		slog.String("timezone", s.location.String()),
		slog.String("snapshot", specs.Snapshot),
		slog.String("fetch", specs.Fetch),
		slog.String("digest", specs.Digest),
		slog.String("backup", specs.Backup))
	return nil
}

func (s *Scheduler) jobContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return context.Background()
	}
	return s.ctx
}

func (s *Scheduler) run(name string, fn func(context.Context) error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	parent := s.jobContext()
	if parent.Err() != nil {
		return
	}
	ctx, cancel := context.WithTimeout(parent, config.TickTimeout)
	defer cancel()

	start := time.Now()
	err := fn(ctx)
	logger.LogJob(name, time.Since(start), err)
}

// RunSnapshotNow forces one snapshot tick outside the schedule. It waits for
// any running job first.
func (s *Scheduler) RunSnapshotNow(ctx context.Context) (*snapshots.TickResult, error) {
	s.jobMu.Lock()
	defer s.jobMu.Unlock()

	start := time.Now()
	res, err := s.snapshot.RunTick(ctx)
	logger.LogJob("snapshot", time.Since(start), err, slog.Bool("forced", true))
	return res, err
}

func (s *Scheduler) runSnapshot(ctx context.Context) error {
	_, err := s.snapshot.RunTick(ctx)
	return err
}

func (s *Scheduler) runFetch(ctx context.Context) error {
	_, err := s.fetch.Tick(ctx)
	return err
}

func (s *Scheduler) runDigest(ctx context.Context) error {
	_, err := s.digest.Run(ctx)
	return err
}

func (s *Scheduler) runBackup(ctx context.Context) error {
	_, err := s.backup.Backup(ctx)
	return err
}

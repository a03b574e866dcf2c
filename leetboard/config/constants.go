package config

import "time"

// Application-wide constants organized by domain

// Database and Performance Constants
const (
	// Timeouts
	DefaultQueryTimeout = 30 * time.Second
	BatchQueryTimeout   = 60 * time.Second
	TickTimeout         = 10 * time.Minute
	ShutdownTimeout     = 15 * time.Second
	NetworkDialTimeout  = 5 * time.Second

	// Cache settings
	CacheSize       = 10000
	ProfileCacheTTL = time.Hour
	RecentCacheTTL  = time.Minute
	DailyCacheTTL   = time.Hour
	TrendCacheTTL   = time.Hour
)

// Upstream Constants
const (
	DefaultUpstreamEndpoint    = "https://leetcode.com/graphql"
	DefaultUpstreamConcurrency = 10
	DefaultUpstreamTimeout     = 15 * time.Second
	DefaultUpstreamMaxRetries  = 3
	DefaultBackoffBase         = time.Second

	// RecentAcceptedLimit is the window of the recent-accepted stream used for
	// daily trends and daily-challenge completions.
	RecentAcceptedLimit = 200
	// EventTimestampLimit is the window used to timestamp new_solves events.
	EventTimestampLimit = 20
)

// Scheduling Constants
const (
	// The platform resets at 00:00 UTC; the 30 minute buffer absorbs clock skew.
	DefaultSnapshotDay      = "monday"
	DefaultSnapshotTime     = "00:30"
	DefaultFetchTickMinutes = 15
	DefaultDigestTime       = "09:00"
	DefaultBackupTime       = "03:00"
)

// Analytics Constants
const (
	DefaultProgressWeeks = 12
	MaxProgressWeeks     = 104
	DefaultWoWWeeks      = 1
	DefaultTrendDays     = 14
	MaxTrendDays         = 90
	DefaultDailyHistory  = 7

	// AtRiskWindowDays is how long a member may go without an active week
	// before their streak status degrades from at_risk to broken.
	AtRiskWindowDays = 14
)

// Milestones are the total-solved thresholds that fire a milestone event
// when crossed upward.
var Milestones = []int{10, 25, 50, 100, 200, 500, 1000}

// Notification Constants
const (
	DefaultNotificationPage = 50
	MaxNotificationPage     = 500
)

package leetcode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

//go:generate mockgen -destination=mock/api.go -package=mock github.com/leetboard/leetboard/internal/gateways/leetcode API

// API is the upstream contract the domain packages depend on.
type API interface {
	FetchProfile(ctx context.Context, username string) (*Profile, error)
	FetchProfiles(ctx context.Context, usernames []string) []ProfileResult
	RecentAccepted(ctx context.Context, username string, limit int) ([]RecentSubmission, error)
	DailyChallenge(ctx context.Context) (*DailyChallenge, error)
	DailyChallengeOn(ctx context.Context, date time.Time) (*DailyChallenge, error)
}

// PersistentCache keeps daily-challenge month records across restarts.
type PersistentCache interface {
	Get(ctx context.Context, key string) (*models.APICache, error)
	Put(ctx context.Context, key, data string) error
}

type Options struct {
	Endpoint       string
	Concurrency    int
	RequestTimeout time.Duration
	MaxRetries     int
	BackoffBase    time.Duration
	// RatePerSecond caps outbound attempts; zero disables the limiter.
	RatePerSecond float64
	CacheSize     int
	ProfileTTL    time.Duration
	RecentTTL     time.Duration
	DailyTTL      time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithPersistentCache(store PersistentCache) Option {
	return func(c *Client) { c.store = store }
}

// WithSleep replaces the backoff sleep, mainly for tests.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Client) { c.sleep = sleep }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client is a bounded-concurrency GraphQL client for the platform API.
type Client struct {
	opts       Options
	httpClient *http.Client
	sem        *semaphore.Weighted
	limiter    *rate.Limiter
	cache      *ttlCache
	store      PersistentCache
	sleep      func(ctx context.Context, d time.Duration) error
	now        func() time.Time
}

var _ API = (*Client)(nil)

func New(opts Options, options ...Option) *Client {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = time.Second
	}

	c := &Client{
		opts:       opts,
		httpClient: &http.Client{},
		sem:        semaphore.NewWeighted(int64(opts.Concurrency)),
		limiter:    rate.NewLimiter(rate.Inf, 1),
		sleep:      sleepContext,
		now:        time.Now,
	}
	if opts.RatePerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Concurrency)
	}
	for _, o := range options {
		o(c)
	}
	c.cache = newTTLCache(opts.CacheSize, c.now)
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *Client) FetchProfile(ctx context.Context, username string) (*Profile, error) {
	const op = "getUserProfile"
	key := "profile:" + username
	if v, ok := c.cache.get(key, c.opts.ProfileTTL); ok {
		p := *v.(*Profile)
		return &p, nil
	}

	resp, err := c.do(ctx, op, username, graphQLRequest{
		OperationName: op,
		Query:         profileQuery,
		Variables:     map[string]interface{}{"username": username},
	})
	if err != nil {
		return nil, err
	}

	profile, found, err := decodeProfile(resp.Data)
	if err != nil {
		return nil, newError(op, username, ErrMalformed, 0, err)
	}
	if !found {
		var cause error = errors.New("user not found")
		if len(resp.Errors) > 0 {
			cause = resp.Errors
		}
		return nil, newError(op, username, ErrRejected, 0, cause)
	}

	c.cache.put(key, profile)
	p := *profile
	return &p, nil
}

// FetchProfiles fetches every username concurrently. The semaphore bounds
// in-flight calls; each result carries its own error.
func (c *Client) FetchProfiles(ctx context.Context, usernames []string) []ProfileResult {
	results := make([]ProfileResult, len(usernames))

	g, gctx := errgroup.WithContext(ctx)
	for i, username := range usernames {
		g.Go(func() error {
			profile, err := c.FetchProfile(gctx, username)
			results[i] = ProfileResult{Username: username, Profile: profile, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// RecentAccepted returns up to limit accepted submissions, most recent first.
func (c *Client) RecentAccepted(ctx context.Context, username string, limit int) ([]RecentSubmission, error) {
	const op = "recentAcSubmissions"
	key := fmt.Sprintf("recent:%s:%d", username, limit)
	if v, ok := c.cache.get(key, c.opts.RecentTTL); ok {
		return append([]RecentSubmission(nil), v.([]RecentSubmission)...), nil
	}

	resp, err := c.do(ctx, op, username, graphQLRequest{
		OperationName: op,
		Query:         recentAcceptedQuery,
		Variables:     map[string]interface{}{"username": username, "limit": limit},
	})
	if err != nil {
		return nil, err
	}

	subs, err := decodeRecent(resp.Data)
	if err != nil {
		return nil, newError(op, username, ErrMalformed, 0, err)
	}

	c.cache.put(key, subs)
	return append([]RecentSubmission(nil), subs...), nil
}

func (c *Client) DailyChallenge(ctx context.Context) (*DailyChallenge, error) {
	const op = "questionOfToday"
	key := "daily:" + c.now().UTC().Format(time.DateOnly)
	if v, ok := c.cache.get(key, c.opts.DailyTTL); ok {
		d := *v.(*DailyChallenge)
		return &d, nil
	}

	resp, err := c.do(ctx, op, "", graphQLRequest{OperationName: op, Query: dailyQuery})
	if err != nil {
		return nil, err
	}
	daily, err := decodeDaily(resp.Data)
	if err != nil {
		return nil, newError(op, "", ErrMalformed, 0, err)
	}

	c.cache.put(key, daily)
	d := *daily
	return &d, nil
}

// DailyChallengeOn looks date up in the platform's month of daily records.
func (c *Client) DailyChallengeOn(ctx context.Context, date time.Time) (*DailyChallenge, error) {
	date = date.UTC()
	records, err := c.dailyMonth(ctx, date.Year(), date.Month())
	if err != nil {
		return nil, err
	}

	want := date.Format(time.DateOnly)
	for i := range records {
		if records[i].Date == want {
			d := records[i]
			return &d, nil
		}
	}
	return nil, newError("dailyCodingQuestionRecords", "", ErrRejected, 0, fmt.Errorf("no challenge on %s", want))
}

func (c *Client) dailyMonth(ctx context.Context, year int, month time.Month) ([]DailyChallenge, error) {
	const op = "dailyCodingQuestionRecords"
	key := fmt.Sprintf("daily_month:%04d-%02d", year, int(month))
	if v, ok := c.cache.get(key, c.opts.DailyTTL); ok {
		return v.([]DailyChallenge), nil
	}

	if records, ok := c.loadPersisted(ctx, key, year, month); ok {
		c.cache.put(key, records)
		return records, nil
	}

	resp, err := c.do(ctx, op, "", graphQLRequest{
		OperationName: op,
		Query:         dailyRecordsQuery,
		Variables:     map[string]interface{}{"year": year, "month": int(month)},
	})
	if err != nil {
		return nil, err
	}
	records, err := decodeDailyRecords(resp.Data)
	if err != nil {
		return nil, newError(op, "", ErrMalformed, 0, err)
	}

	c.cache.put(key, records)
	c.persist(ctx, key, records)
	return records, nil
}

// loadPersisted returns a stored month. Past months never change; the
// current month is only trusted for DailyTTL.
func (c *Client) loadPersisted(ctx context.Context, key string, year int, month time.Month) ([]DailyChallenge, bool) {
	if c.store == nil {
		return nil, false
	}
	entry, err := c.store.Get(ctx, key)
	if err != nil {
		return nil, false
	}

	now := c.now().UTC()
	pastMonth := year < now.Year() || (year == now.Year() && month < now.Month())
	if !pastMonth && now.Sub(entry.Timestamp) >= c.opts.DailyTTL {
		return nil, false
	}

	var records []DailyChallenge
	if err := json.Unmarshal([]byte(entry.Data), &records); err != nil {
		slog.Warn("Discarding unreadable cached daily records",
			slog.String("type", "net"),
			slog.String("key", key),
			slog.Any("error", err))
		return nil, false
	}
	return records, true
}

func (c *Client) persist(ctx context.Context, key string, records []DailyChallenge) {
	if c.store == nil {
		return
	}
	data, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := c.store.Put(ctx, key, string(data)); err != nil {
		slog.Warn("Failed to persist daily records",
			slog.String("type", "net"),
			slog.String("key", key),
			slog.Any("error", err))
	}
}

// do performs one logical request, retrying transient failures with
// exponential backoff. At most 1+MaxRetries attempts are sent.
func (c *Client) do(ctx context.Context, op, username string, req graphQLRequest) (*graphQLResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, newError(op, username, ErrRejected, 0, err)
	}

	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, newError(op, username, ErrUnavailable, 0, err)
	}
	defer c.sem.Release(1)

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, newError(op, username, ErrUnavailable, 0, err)
		}

		start := time.Now()
		resp, status, retryAfter, err := c.send(ctx, body)
		if err == nil {
			slog.Debug("Upstream call succeeded",
				slog.String("type", "net"),
				slog.String("op", op),
				slog.String("username", username),
				slog.Int("attempt", attempt+1),
				slog.Duration("took", time.Since(start)))
			return c.checkResponse(op, username, resp)
		}

		if errors.Is(err, ErrMalformed) {
			return nil, newError(op, username, ErrMalformed, status, err)
		}
		if !retryable(status) {
			return nil, newError(op, username, ErrRejected, status, err)
		}
		if ctx.Err() != nil {
			return nil, newError(op, username, ErrUnavailable, status, ctx.Err())
		}
		if attempt >= c.opts.MaxRetries {
			slog.Warn("Upstream call failed after retries",
				slog.String("type", "net"),
				slog.String("op", op),
				slog.String("username", username),
				slog.Int("attempts", attempt+1),
				slog.Any("error", err))
			return nil, newError(op, username, ErrUnavailable, status, err)
		}

		wait := c.opts.BackoffBase << attempt
		if retryAfter > wait {
			wait = retryAfter
		}
		slog.Debug("Retrying upstream call",
			slog.String("type", "net"),
			slog.String("op", op),
			slog.String("username", username),
			slog.Int("status", status),
			slog.Duration("backoff", wait),
			slog.Any("error", err))
		if err := c.sleep(ctx, wait); err != nil {
			return nil, newError(op, username, ErrUnavailable, status, err)
		}
	}
}

// retryable reports whether an attempt that ended with status may be
// retried. Status 0 means the request never got a response.
func retryable(status int) bool {
	return status == 0 || status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) checkResponse(op, username string, resp *graphQLResponse) (*graphQLResponse, error) {
	if resp.hasData() {
		return resp, nil
	}
	if len(resp.Errors) > 0 {
		return nil, newError(op, username, ErrRejected, http.StatusOK, resp.Errors)
	}
	return nil, newError(op, username, ErrMalformed, http.StatusOK, errors.New("response has no data"))
}

// send performs a single HTTP attempt under the per-attempt timeout.
func (c *Client) send(ctx context.Context, body []byte) (*graphQLResponse, int, time.Duration, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, http.StatusBadRequest, 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Referer", "https://leetcode.com")
	httpReq.Header.Set("User-Agent", "leetboard/1.0")

	res, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, 0, 0, err
	}
	defer res.Body.Close()

	payload, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, 0, 0, err
	}

	if res.StatusCode != http.StatusOK {
		return nil, res.StatusCode, parseRetryAfter(res.Header.Get("Retry-After")),
			fmt.Errorf("unexpected status %s", res.Status)
	}

	var resp graphQLResponse
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, res.StatusCode, 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &resp, res.StatusCode, 0, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

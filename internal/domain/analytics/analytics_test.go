package analytics

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/leetboard/leetboard/internal/gateways/database"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/internal/gateways/leetcode/mock"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type env struct {
	t         *testing.T
	members   repositories.MemberRepository
	snapshots repositories.SnapshotRepository
	api       *mock.MockAPI
	now       time.Time
}

func newEnv(t *testing.T, now time.Time) *env {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.InitializeSchema(context.Background()))

	return &env{
		t:         t,
		members:   repositories.NewMemberRepository(db.BunDB()),
		snapshots: repositories.NewSnapshotRepository(db.BunDB()),
		api:       mock.NewMockAPI(gomock.NewController(t)),
		now:       now,
	}
}

func (e *env) service(liveFill bool) *Service {
	return NewService(e.members, e.snapshots, e.api, Options{
		LiveFill: liveFill,
		TrendTTL: time.Hour,
		Now:      func() time.Time { return e.now },
	})
}

func (e *env) member(names ...string) {
	e.t.Helper()
	base := day(2024, 12, 1)
	for i, n := range names {
		require.NoError(e.t, e.members.Add(context.Background(), &models.Member{
			Username: n, TeamOwner: "team", Name: n, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
}

func (e *env) snapshot(name string, week time.Time, total int) {
	e.t.Helper()
	_, err := e.snapshots.UpsertCurrentWeek(context.Background(), name, week, models.Totals{Total: total, Easy: total}, week)
	require.NoError(e.t, err)
	require.NoError(e.t, e.snapshots.AssignRanks(context.Background(), week))
}

func TestPctChange(t *testing.T) {
	tests := []struct {
		previous, current int
		want              float64
	}{
		{10, 25, 150},
		{20, 22, 10},
		{0, 5, 100},
		{0, 0, 0},
		{5, 5, 0},
		{3, 4, 33.33},
	}
	for _, tt := range tests {
		if got := PctChange(tt.previous, tt.current); got != tt.want {
			t.Errorf("PctChange(%d, %d) got = %v, want %v", tt.previous, tt.current, got, tt.want)
		}
	}
}

func TestService_WeekOverWeekDeltaAndRankMove(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 13, 12, 0, 0, 0, time.UTC))
	e.member("alice", "bob")
	e.snapshot("alice", day(2025, 1, 6), 10)
	e.snapshot("bob", day(2025, 1, 6), 20)
	e.snapshot("alice", day(2025, 1, 13), 25)
	e.snapshot("bob", day(2025, 1, 13), 22)

	got, err := e.service(true).WeekOverWeek(context.Background(), "team", 1)
	require.NoError(t, err)

	one, two := 1, 2
	want := []WeekOverWeek{
		{Week: "2025-01-13", Member: "alice", Name: "alice", Previous: 10, Current: 25, Delta: 15, PctChange: 150, Rank: 1, PreviousRank: &two, RankDelta: 1},
		{Week: "2025-01-13", Member: "bob", Name: "bob", Previous: 20, Current: 22, Delta: 2, PctChange: 10, Rank: 2, PreviousRank: &one, RankDelta: -1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Service.WeekOverWeek() got = %+v, want %+v", got, want)
	}
}

func TestService_MissingMiddleWeek(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 20, 9, 0, 0, 0, time.UTC))
	e.member("carol")
	e.snapshot("carol", day(2025, 1, 6), 5)
	e.snapshot("carol", day(2025, 1, 20), 5)
	s := e.service(true)

	progress, err := s.WeeklyProgress(context.Background(), "team", 3, models.MetricTotal)
	require.NoError(t, err)
	if want := []string{"2025-01-06", "2025-01-13", "2025-01-20"}; !reflect.DeepEqual(progress.Weeks, want) {
		t.Errorf("weeks got = %v, want %v", progress.Weeks, want)
	}
	if got := progress.Members["carol"].Data; !reflect.DeepEqual(got, []int{5, 5, 5}) {
		t.Errorf("carol series got = %v, want [5 5 5]", got)
	}

	wow, err := s.WeekOverWeek(context.Background(), "team", 2)
	require.NoError(t, err)
	require.Len(t, wow, 2)
	middle := wow[1]
	if middle.Week != "2025-01-13" || middle.Previous != 5 || middle.Current != 5 || middle.Delta != 0 {
		t.Errorf("middle week record = %+v", middle)
	}
}

func TestService_NewMemberMidWindow(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 14, 9, 0, 0, 0, time.UTC))
	e.member("alice", "dave")
	e.snapshot("alice", day(2025, 1, 6), 10)
	e.snapshot("alice", day(2025, 1, 13), 12)
	e.snapshot("dave", day(2025, 1, 13), 3)

	progress, err := e.service(true).WeeklyProgress(context.Background(), "team", 2, models.MetricTotal)
	require.NoError(t, err)
	if got := progress.Members["dave"].Data; !reflect.DeepEqual(got, []int{0, 3}) {
		t.Errorf("dave series got = %v, want [0 3]", got)
	}

	wow, err := e.service(true).WeekOverWeek(context.Background(), "team", 1)
	require.NoError(t, err)
	for _, rec := range wow {
		if rec.Member == "dave" && (rec.PreviousRank != nil || rec.RankDelta != 0 || rec.PctChange != 100) {
			t.Errorf("dave record = %+v", rec)
		}
	}
}

func TestService_WeeklyProgressMonotonic(t *testing.T) {
	e := newEnv(t, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC))
	e.member("alice", "bob")
	totals := map[string][]int{
		"alice": {1, 0, 4, 4, 0, 9, 12, 0, 15, 20},
		"bob":   {0, 0, 2, 0, 0, 0, 3, 8, 8, 0},
	}
	first := day(2024, 12, 30)
	for name, series := range totals {
		for i, v := range series {
			if v > 0 {
				e.snapshot(name, first.AddDate(0, 0, 7*i), v)
			}
		}
	}

	progress, err := e.service(false).WeeklyProgress(context.Background(), "team", 10, models.MetricEasy)
	require.NoError(t, err)
	for name, series := range progress.Members {
		for i := 1; i < len(series.Data); i++ {
			if series.Data[i] < series.Data[i-1] {
				t.Errorf("%s series not monotonic: %v", name, series.Data)
			}
		}
	}
	if got := progress.Members["bob"].Data[9]; got != 8 {
		t.Errorf("bob last cell got = %d, want 8", got)
	}
}

func TestService_WeeklyProgressInvalidMetric(t *testing.T) {
	e := newEnv(t, day(2025, 1, 6))
	_, err := e.service(false).WeeklyProgress(context.Background(), "team", 4, "points")
	if !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("WeeklyProgress() error = %v, want ErrInvalidArgument", err)
	}
}

func TestService_LiveFill(t *testing.T) {
	tests := []struct {
		name     string
		enabled  bool
		setup    func(api *mock.MockAPI)
		wantLast int
		wantLive bool
	}{
		{
			name:    "fills empty current cell",
			enabled: true,
			setup: func(api *mock.MockAPI) {
				api.EXPECT().FetchProfile(gomock.Any(), "eve").
					Return(&leetcode.Profile{Username: "eve", Totals: models.Totals{Total: 7}}, nil)
			},
			wantLast: 7,
			wantLive: true,
		},
		{
			name:     "disabled never fetches",
			enabled:  false,
			setup:    func(api *mock.MockAPI) {},
			wantLast: 0,
		},
		{
			name:    "upstream failure keeps forward-filled value",
			enabled: true,
			setup: func(api *mock.MockAPI) {
				api.EXPECT().FetchProfile(gomock.Any(), "eve").
					Return(nil, &leetcode.Error{Op: "getUserProfile", Kind: leetcode.ErrUnavailable})
			},
			wantLast: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC))
			e.member("eve")
			tt.setup(e.api)

			progress, err := e.service(tt.enabled).WeeklyProgress(context.Background(), "team", 2, models.MetricTotal)
			require.NoError(t, err)
			series := progress.Members["eve"]
			if series.Data[1] != tt.wantLast || series.LiveFilled != tt.wantLive {
				t.Errorf("eve series = %+v, want last %d live %v", series, tt.wantLast, tt.wantLive)
			}
		})
	}
}

func TestService_WeekOverWeekLiveFillsZeroRow(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC))
	e.member("frank")
	e.snapshot("frank", day(2025, 1, 6), 4)
	_, err := e.snapshots.UpsertCurrentWeek(context.Background(), "frank", day(2025, 1, 13), models.Totals{}, day(2025, 1, 13))
	require.NoError(t, err)

	e.api.EXPECT().FetchProfile(gomock.Any(), "frank").
		Return(&leetcode.Profile{Username: "frank", Totals: models.Totals{Total: 6}}, nil)

	wow, err := e.service(true).WeekOverWeek(context.Background(), "team", 1)
	require.NoError(t, err)
	require.Len(t, wow, 1)
	if wow[0].Current != 6 || wow[0].Delta != 2 || !wow[0].LiveFilled {
		t.Errorf("frank record = %+v", wow[0])
	}

	// the stored row is untouched by the live read
	row, err := e.snapshots.Get(context.Background(), "frank", day(2025, 1, 13))
	require.NoError(t, err)
	if row.Total != 0 {
		t.Errorf("stored total got = %d, want 0", row.Total)
	}
}

func TestService_WeekOverWeekExcludesSuspended(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC))
	e.member("alice", "bob")
	e.snapshot("alice", day(2025, 1, 13), 5)
	e.snapshot("bob", day(2025, 1, 13), 9)
	require.NoError(t, e.members.UpdateStatus(context.Background(), "team", "bob", models.MemberSuspended))

	wow, err := e.service(true).WeekOverWeek(context.Background(), "team", 1)
	require.NoError(t, err)
	if len(wow) != 1 || wow[0].Member != "alice" || wow[0].Rank != 1 {
		t.Errorf("Service.WeekOverWeek() got = %+v", wow)
	}
}

func sub(slug string, ts time.Time) leetcode.RecentSubmission {
	return leetcode.RecentSubmission{Title: slug, TitleSlug: slug, Timestamp: ts}
}

func TestService_AcceptedTrend(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 7, 18, 0, 0, 0, time.UTC))
	e.member("alice")

	e.api.EXPECT().RecentAccepted(gomock.Any(), "alice", 200).Return([]leetcode.RecentSubmission{
		sub("two-sum", time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)),
		sub("two-sum", time.Date(2025, 1, 7, 8, 0, 0, 0, time.UTC)),
		sub("lru-cache", time.Date(2025, 1, 7, 7, 0, 0, 0, time.UTC)),
		sub("two-sum", time.Date(2025, 1, 6, 23, 59, 0, 0, time.UTC)),
		sub("jump-game", time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)),
	}, nil).Times(1)

	s := e.service(false)
	got, err := s.AcceptedTrend(context.Background(), "team", 2)
	require.NoError(t, err)
	want := []TrendPoint{
		{Member: "alice", Date: "2025-01-06", Count: 1},
		{Member: "alice", Date: "2025-01-07", Count: 2},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Service.AcceptedTrend() got = %v, want %v", got, want)
	}

	// served from cache within the ttl
	again, err := s.AcceptedTrend(context.Background(), "team", 2)
	require.NoError(t, err)
	if !reflect.DeepEqual(again, want) {
		t.Errorf("cached AcceptedTrend() got = %v, want %v", again, want)
	}
}

func TestService_DailyCompletions(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 7, 18, 0, 0, 0, time.UTC))
	e.member("alice", "bob", "carol")

	e.api.EXPECT().DailyChallenge(gomock.Any()).Return(&leetcode.DailyChallenge{
		Date:     "2025-01-07",
		Question: leetcode.Question{TitleSlug: "two-sum"},
	}, nil)
	e.api.EXPECT().RecentAccepted(gomock.Any(), "alice", 200).
		Return([]leetcode.RecentSubmission{sub("two-sum", time.Date(2025, 1, 7, 3, 0, 0, 0, time.UTC))}, nil)
	e.api.EXPECT().RecentAccepted(gomock.Any(), "bob", 200).
		Return([]leetcode.RecentSubmission{sub("two-sum", time.Date(2025, 1, 6, 3, 0, 0, 0, time.UTC))}, nil)
	e.api.EXPECT().RecentAccepted(gomock.Any(), "carol", 200).
		Return(nil, &leetcode.Error{Op: "recentAcSubmissions", Kind: leetcode.ErrUnavailable})

	got, err := e.service(false).DailyCompletions(context.Background(), "team", time.Time{})
	require.NoError(t, err)
	if !reflect.DeepEqual(got.Completed, []string{"alice"}) || !reflect.DeepEqual(got.Pending, []string{"bob"}) {
		t.Errorf("Service.DailyCompletions() got = %+v", got)
	}
}

func TestService_DailyHistory(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 7, 18, 0, 0, 0, time.UTC))
	e.member("alice")

	e.api.EXPECT().RecentAccepted(gomock.Any(), "alice", 200).
		Return([]leetcode.RecentSubmission{sub("a", time.Date(2025, 1, 6, 3, 0, 0, 0, time.UTC))}, nil)
	e.api.EXPECT().DailyChallenge(gomock.Any()).
		Return(&leetcode.DailyChallenge{Date: "2025-01-07", Question: leetcode.Question{TitleSlug: "b"}}, nil)
	e.api.EXPECT().DailyChallengeOn(gomock.Any(), day(2025, 1, 6)).
		Return(&leetcode.DailyChallenge{Date: "2025-01-06", Question: leetcode.Question{TitleSlug: "a"}}, nil)

	got, err := e.service(false).DailyHistory(context.Background(), "team", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	if got[0].Date != "2025-01-07" || len(got[0].Completed) != 0 {
		t.Errorf("today = %+v", got[0])
	}
	if got[1].Date != "2025-01-06" || !reflect.DeepEqual(got[1].Completed, []string{"alice"}) {
		t.Errorf("yesterday = %+v", got[1])
	}
}

func TestService_History(t *testing.T) {
	e := newEnv(t, time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC))
	e.member("alice")
	e.snapshot("alice", day(2025, 1, 6), 3)
	e.snapshot("alice", day(2025, 1, 13), 5)
	e.snapshot("outsider", day(2025, 1, 13), 50)

	rows, err := e.service(false).History(context.Background(), "team", 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	if rows[0].Total != 5 || rows[1].Total != 3 {
		t.Errorf("Service.History() got = %v, %v", rows[0].Total, rows[1].Total)
	}
}

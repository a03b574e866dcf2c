package snapshots

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/leetboard/leetboard/internal/gateways/database"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
	"github.com/leetboard/leetboard/internal/gateways/leetcode/mock"
)

type fixture struct {
	members   repositories.MemberRepository
	snapshots repositories.SnapshotRepository
	api       *mock.MockAPI
	now       time.Time
	engine    *Engine
}

func newFixture(t *testing.T, usernames ...string) *fixture {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.InitializeSchema(context.Background()))

	f := &fixture{
		members:   repositories.NewMemberRepository(db.BunDB()),
		snapshots: repositories.NewSnapshotRepository(db.BunDB()),
		api:       mock.NewMockAPI(gomock.NewController(t)),
	}
	f.engine = NewEngine(f.members, f.snapshots, f.api, WithClock(func() time.Time { return f.now }))

	created := time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range usernames {
		require.NoError(t, f.members.Add(context.Background(), &models.Member{
			Username:  name,
			TeamOwner: "team",
			Name:      name,
			CreatedAt: created.Add(time.Duration(i) * time.Minute),
		}))
	}
	return f
}

func profiles(totals map[string]models.Totals, failing ...string) func(context.Context, []string) []leetcode.ProfileResult {
	return func(_ context.Context, usernames []string) []leetcode.ProfileResult {
		out := make([]leetcode.ProfileResult, 0, len(usernames))
		for _, u := range usernames {
			res := leetcode.ProfileResult{Username: u}
			failed := false
			for _, f := range failing {
				if f == u {
					failed = true
				}
			}
			if failed {
				res.Err = &leetcode.Error{Op: "getUserProfile", Username: u, Kind: leetcode.ErrUnavailable}
			} else {
				res.Profile = &leetcode.Profile{Username: u, DisplayName: u, Totals: totals[u]}
			}
			out = append(out, res)
		}
		return out
	}
}

func rankOf(t *testing.T, s *models.Snapshot) int {
	t.Helper()
	require.NotNil(t, s.Rank)
	return *s.Rank
}

func TestEngine_RunTickBaseline(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	f.now = time.Date(2025, 1, 6, 0, 30, 0, 0, time.UTC)

	f.api.EXPECT().FetchProfiles(gomock.Any(), []string{"alice", "bob"}).
		DoAndReturn(profiles(map[string]models.Totals{
			"alice": {Total: 10, Easy: 5, Medium: 3, Hard: 2},
			"bob":   {Total: 20, Easy: 10, Medium: 7, Hard: 3},
		}))

	res, err := f.engine.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.True(t, res.WeekStart.Equal(time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)))
	assert.NotEmpty(t, res.TickID)

	rows, err := f.snapshots.ListWeek(ctx, res.WeekStart)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, 2, rankOf(t, rows[0]))
	assert.Equal(t, 1, rankOf(t, rows[1]))
}

func TestEngine_RunTickIsIdempotentWithinWeek(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice")

	f.now = time.Date(2025, 1, 6, 0, 30, 0, 0, time.UTC)
	f.api.EXPECT().FetchProfiles(gomock.Any(), gomock.Any()).
		DoAndReturn(profiles(map[string]models.Totals{"alice": {Total: 10}})).Times(2)
	_, err := f.engine.RunTick(ctx)
	require.NoError(t, err)

	f.now = f.now.Add(48 * time.Hour)
	_, err = f.engine.RunTick(ctx)
	require.NoError(t, err)

	rows, err := f.snapshots.ListForMember(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].CapturedAt.Equal(f.now), "captured_at may advance")
}

func TestEngine_RunTickNeverTouchesPastWeeks(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice")

	f.now = time.Date(2025, 1, 6, 0, 30, 0, 0, time.UTC)
	f.api.EXPECT().FetchProfiles(gomock.Any(), gomock.Any()).
		DoAndReturn(profiles(map[string]models.Totals{"alice": {Total: 10}}))
	_, err := f.engine.RunTick(ctx)
	require.NoError(t, err)

	f.now = time.Date(2025, 1, 13, 0, 30, 0, 0, time.UTC)
	f.api.EXPECT().FetchProfiles(gomock.Any(), gomock.Any()).
		DoAndReturn(profiles(map[string]models.Totals{"alice": {Total: 25}}))
	_, err = f.engine.RunTick(ctx)
	require.NoError(t, err)

	first, err := f.snapshots.Get(ctx, "alice", time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 10, first.Total)

	second, err := f.snapshots.Get(ctx, "alice", time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 25, second.Total)
}

func TestEngine_RunTickSkipsFailedMembers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob", "carol")
	f.now = time.Date(2025, 1, 6, 0, 30, 0, 0, time.UTC)

	f.api.EXPECT().FetchProfiles(gomock.Any(), gomock.Any()).
		DoAndReturn(profiles(map[string]models.Totals{"alice": {Total: 4}, "carol": {Total: 9}}, "bob"))

	res, err := f.engine.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, []string{"bob"}, res.Failed)

	_, err = f.snapshots.Get(ctx, "bob", res.WeekStart)
	assert.True(t, repositories.IsNotFound(err), "no row for a failed member")

	carol, err := f.snapshots.Get(ctx, "carol", res.WeekStart)
	require.NoError(t, err)
	assert.Equal(t, 1, rankOf(t, carol))
}

func TestEngine_RunTickExcludesSuspendedAndDedupes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "alice", "bob")
	require.NoError(t, f.members.Add(ctx, &models.Member{Username: "alice", TeamOwner: "other", Name: "alice"}))
	require.NoError(t, f.members.UpdateStatus(ctx, "team", "bob", models.MemberSuspended))
	f.now = time.Date(2025, 1, 6, 0, 30, 0, 0, time.UTC)

	f.api.EXPECT().FetchProfiles(gomock.Any(), []string{"alice"}).
		DoAndReturn(profiles(map[string]models.Totals{"alice": {Total: 4}}))

	res, err := f.engine.RunTick(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)
}

func TestEngine_CaptureMember(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, "dave")
	f.now = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	f.api.EXPECT().FetchProfile(gomock.Any(), "dave").
		Return(&leetcode.Profile{Username: "dave", Totals: models.Totals{Total: 3}}, nil)

	snap, err := f.engine.CaptureMember(ctx, "dave")
	require.NoError(t, err)
	assert.Equal(t, 3, snap.Total)
	assert.True(t, snap.WeekStart.Equal(time.Date(2025, 1, 13, 0, 0, 0, 0, time.UTC)))

	f.api.EXPECT().FetchProfile(gomock.Any(), "ghost").
		Return(nil, &leetcode.Error{Op: "getUserProfile", Username: "ghost", Kind: leetcode.ErrRejected})
	_, err = f.engine.CaptureMember(ctx, "ghost")
	assert.True(t, errors.Is(err, leetcode.ErrRejected))
}

package notifications

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leetboard/leetboard/internal/gateways/database"
	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
)

type fakeChannel struct {
	name string
	err  error

	mu   sync.Mutex
	sent []int64
}

func (c *fakeChannel) Name() string { return c.name }

func (c *fakeChannel) Send(_ context.Context, n *models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, n.ID)
	return c.err
}

func newRepo(t *testing.T) repositories.NotificationRepository {
	t.Helper()
	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.InitializeSchema(context.Background()))
	return repositories.NewNotificationRepository(db.BunDB())
}

func TestSink_Emit(t *testing.T) {
	ctx := context.Background()
	ok := &fakeChannel{name: "ok"}
	sink := NewSink(newRepo(t), ok)

	n, err := sink.Emit(ctx, Event{Kind: KindMilestone, Title: "100 solved", Body: "frank reached 100", Recipient: "team",
		Metadata: map[string]interface{}{"member": "frank", "threshold": 100}})
	require.NoError(t, err)

	if n.Status != models.NotificationSent || n.SentAt == nil {
		t.Errorf("Sink.Emit() status = %s, sent_at = %v", n.Status, n.SentAt)
	}
	if !reflect.DeepEqual(ok.sent, []int64{n.ID}) {
		t.Errorf("channel got %v, want [%d]", ok.sent, n.ID)
	}

	stored, err := sink.List(ctx, repositories.NotificationFilter{})
	require.NoError(t, err)
	require.Len(t, stored, 1)
	if stored[0].Status != models.NotificationSent || stored[0].Metadata["member"] != "frank" {
		t.Errorf("stored notification = %+v", stored[0])
	}
}

func TestSink_ChannelFailureDoesNotBlockOthers(t *testing.T) {
	ctx := context.Background()
	bad := &fakeChannel{name: "bad", err: errors.New("webhook down")}
	good := &fakeChannel{name: "good"}
	sink := NewSink(newRepo(t), bad, good)

	n, err := sink.Emit(ctx, Event{Kind: KindNewSolves, Title: "t", Body: "b", Recipient: "team"})
	require.NoError(t, err)
	if n.Status != models.NotificationFailed {
		t.Errorf("Sink.Emit() status = %s, want failed", n.Status)
	}
	if len(good.sent) != 1 || len(bad.sent) != 1 {
		t.Errorf("every channel should be attempted: good=%v bad=%v", good.sent, bad.sent)
	}

	bad.err = nil
	resent, err := sink.Resend(ctx, n.ID)
	require.NoError(t, err)
	if resent.Status != models.NotificationSent {
		t.Errorf("Sink.Resend() status = %s, want sent", resent.Status)
	}
	if len(good.sent) != 2 {
		t.Errorf("resend should repeat fan-out, good=%v", good.sent)
	}

	_, err = sink.Resend(ctx, 4242)
	if !repositories.IsNotFound(err) {
		t.Errorf("Sink.Resend() unknown id error = %v", err)
	}
}

func TestSink_ListIsStablePrefix(t *testing.T) {
	ctx := context.Background()
	sink := NewSink(newRepo(t))

	for i := 0; i < 5; i++ {
		_, err := sink.Emit(ctx, Event{Kind: KindNewSolves, Title: "t", Body: "b", Recipient: "team"})
		require.NoError(t, err)
	}

	first, err := sink.List(ctx, repositories.NotificationFilter{Limit: -1})
	require.NoError(t, err)
	second, err := sink.List(ctx, repositories.NotificationFilter{Limit: -1})
	require.NoError(t, err)
	if len(first) != 5 {
		t.Fatalf("Sink.List() len = %d, want 5", len(first))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Errorf("Sink.List() order changed at %d: %d vs %d", i, first[i].ID, second[i].ID)
		}
		if i > 0 && first[i].ID > first[i-1].ID {
			t.Errorf("Sink.List() is not newest first: %d after %d", first[i].ID, first[i-1].ID)
		}
	}

	page, err := sink.List(ctx, repositories.NotificationFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	if len(page) != 2 || page[0].ID != first[1].ID {
		t.Errorf("Sink.List() page = %v", page)
	}
}

type failingRepo struct {
	repositories.NotificationRepository
	err error
}

func (r *failingRepo) InsertAll(context.Context, []*models.Notification) error {
	return r.err
}

func TestSink_EmitAll(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{name: "ok"}
	repo := newRepo(t)
	sink := NewSink(repo, ch)

	ns, err := sink.EmitAll(ctx, []Event{
		{Kind: KindNewSolves, Title: "t", Body: "b", Recipient: "team"},
		{Kind: KindMilestone, Title: "t", Body: "b", Recipient: "team"},
	})
	require.NoError(t, err)
	if len(ns) != 2 || ns[0].ID == 0 || ns[1].ID <= ns[0].ID {
		t.Fatalf("Sink.EmitAll() got = %+v", ns)
	}
	if !reflect.DeepEqual(ch.sent, []int64{ns[0].ID, ns[1].ID}) {
		t.Errorf("channel got %v, want delivery in event order", ch.sent)
	}

	ns, err = sink.EmitAll(ctx, nil)
	if err != nil || ns != nil {
		t.Errorf("Sink.EmitAll(nil) got = %v, %v", ns, err)
	}
}

func TestSink_EmitAllStoreFailureDeliversNothing(t *testing.T) {
	ctx := context.Background()
	ch := &fakeChannel{name: "ok"}
	repo := newRepo(t)
	sink := NewSink(&failingRepo{NotificationRepository: repo, err: errors.New("database is locked")}, ch)

	_, err := sink.EmitAll(ctx, []Event{
		{Kind: KindNewSolves, Title: "t", Body: "b", Recipient: "team"},
		{Kind: KindMilestone, Title: "t", Body: "b", Recipient: "team"},
	})
	if err == nil {
		t.Fatal("Sink.EmitAll() error = nil, want store failure")
	}
	if len(ch.sent) != 0 {
		t.Errorf("channel got %v after a failed store", ch.sent)
	}
	stored, err := repo.List(ctx, repositories.NotificationFilter{})
	require.NoError(t, err)
	if len(stored) != 0 {
		t.Errorf("stored %d notifications after a failed store", len(stored))
	}
}

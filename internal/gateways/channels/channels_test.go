package channels

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/segmentio/kafka-go"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

func notification() *models.Notification {
	return &models.Notification{
		ID:        7,
		Kind:      "milestone",
		Title:     "frank reached 100 solved",
		Body:      "frank crossed 100 (now 103)",
		Recipient: "team-a",
		Metadata:  map[string]interface{}{"member": "frank", "threshold": 100, "tick_id": "abc"},
		CreatedAt: time.Date(2025, 1, 13, 0, 30, 0, 0, time.UTC),
	}
}

type fakeWebhook struct {
	embeds []discord.Embed
	err    error
}

func (f *fakeWebhook) CreateEmbeds(embeds []discord.Embed, _ ...rest.RequestOpt) (*discord.Message, error) {
	f.embeds = append(f.embeds, embeds...)
	if f.err != nil {
		return nil, f.err
	}
	return &discord.Message{}, nil
}

func TestDiscord_Send(t *testing.T) {
	hook := &fakeWebhook{}
	ch := NewDiscordWithClient(hook)

	if err := ch.Send(context.Background(), notification()); err != nil {
		t.Fatalf("Discord.Send() error = %v", err)
	}
	if len(hook.embeds) != 1 {
		t.Fatalf("Discord.Send() embeds = %d, want 1", len(hook.embeds))
	}

	embed := hook.embeds[0]
	if embed.Title != "frank reached 100 solved" || embed.Description != "frank crossed 100 (now 103)" {
		t.Errorf("Discord.Send() embed = %+v", embed)
	}
	if embed.Color != kindColors["milestone"] {
		t.Errorf("Discord.Send() color got = %x, want %x", embed.Color, kindColors["milestone"])
	}
	if len(embed.Fields) != 2 || embed.Fields[0].Name != "member" || embed.Fields[1].Name != "threshold" {
		t.Errorf("Discord.Send() fields = %+v", embed.Fields)
	}
}

func TestDiscord_SendError(t *testing.T) {
	ch := NewDiscordWithClient(&fakeWebhook{err: errors.New("unknown webhook")})
	if err := ch.Send(context.Background(), notification()); err == nil {
		t.Error("Discord.Send() expected error")
	}
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafka_Send(t *testing.T) {
	w := &fakeWriter{}
	ch := NewKafkaWithWriter(w)

	if err := ch.Send(context.Background(), notification()); err != nil {
		t.Fatalf("Kafka.Send() error = %v", err)
	}
	if len(w.msgs) != 1 {
		t.Fatalf("Kafka.Send() messages = %d, want 1", len(w.msgs))
	}
	if string(w.msgs[0].Key) != "team-a" {
		t.Errorf("Kafka.Send() key got = %s, want team-a", w.msgs[0].Key)
	}

	var ev kafkaEvent
	if err := json.Unmarshal(w.msgs[0].Value, &ev); err != nil {
		t.Fatalf("Kafka.Send() value is not JSON: %v", err)
	}
	if ev.ID != 7 || ev.Type != "milestone" || ev.Metadata["member"] != "frank" {
		t.Errorf("Kafka.Send() event = %+v", ev)
	}

	if err := ch.Close(); err != nil || !w.closed {
		t.Errorf("Kafka.Close() error = %v, closed = %v", err, w.closed)
	}
}

func TestKafka_SendError(t *testing.T) {
	ch := NewKafkaWithWriter(&fakeWriter{err: errors.New("broker down")})
	if err := ch.Send(context.Background(), notification()); err == nil {
		t.Error("Kafka.Send() expected error")
	}
}

func TestLog_Send(t *testing.T) {
	ch := NewLog()
	if ch.Name() != "log" {
		t.Errorf("Log.Name() got = %s, want log", ch.Name())
	}
	if err := ch.Send(context.Background(), notification()); err != nil {
		t.Errorf("Log.Send() error = %v", err)
	}
}

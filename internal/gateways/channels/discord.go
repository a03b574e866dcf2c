package channels

import (
	"context"
	"fmt"
	"sort"

	"github.com/disgoorg/disgo/discord"
	"github.com/disgoorg/disgo/rest"
	"github.com/disgoorg/disgo/webhook"
	"github.com/disgoorg/snowflake/v2"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// WebhookClient is the part of the disgo webhook client the channel uses.
type WebhookClient interface {
	CreateEmbeds(embeds []discord.Embed, opts ...rest.RequestOpt) (*discord.Message, error)
}

// Embed colors per notification kind.
var kindColors = map[string]int{
	"new_solves":     0x2ecc71,
	"milestone":      0xf1c40f,
	"first_hard":     0xe74c3c,
	"streak_at_risk": 0xe67e22,
	"daily_digest":   0x3498db,
}

const defaultColor = 0x2b2d31

// Discord posts notifications as embeds to a channel webhook.
type Discord struct {
	client WebhookClient
}

func NewDiscord(id snowflake.ID, token string) *Discord {
	return &Discord{client: webhook.New(id, token)}
}

func NewDiscordWithClient(client WebhookClient) *Discord {
	return &Discord{client: client}
}

func (*Discord) Name() string { return "discord" }

func (d *Discord) Send(ctx context.Context, n *models.Notification) error {
	if _, err := d.client.CreateEmbeds([]discord.Embed{buildEmbed(n)}, rest.WithCtx(ctx)); err != nil {
		return fmt.Errorf("failed to post discord webhook: %w", err)
	}
	return nil
}

func buildEmbed(n *models.Notification) discord.Embed {
	color, ok := kindColors[n.Kind]
	if !ok {
		color = defaultColor
	}

	embed := discord.NewEmbedBuilder().
		SetTitle(n.Title).
		SetDescription(n.Body).
		SetColor(color).
		SetFooterText(fmt.Sprintf("%s • %s", n.Kind, n.Recipient)).
		SetTimestamp(n.CreatedAt)

	keys := make([]string, 0, len(n.Metadata))
	for k := range n.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "tick_id" {
			continue
		}
		embed.AddField(k, fmt.Sprint(n.Metadata[k]), true)
	}

	return embed.Build()
}

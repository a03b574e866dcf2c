package models

import (
	"time"

	"github.com/uptrace/bun"
)

type NotificationStatus string

const (
	NotificationQueued NotificationStatus = "queued"
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

type Notification struct {
	bun.BaseModel `bun:"table:notifications,alias:n"`

	ID        int64                  `bun:"id,pk,autoincrement" json:"id"`
	Kind      string                 `bun:"type,notnull" json:"type"`
	Title     string                 `bun:"title,notnull" json:"title"`
	Body      string                 `bun:"message,notnull" json:"message"`
	Recipient string                 `bun:"recipient,notnull" json:"recipient"`
	Status    NotificationStatus     `bun:"status,notnull" json:"status"`
	Metadata  map[string]interface{} `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt time.Time              `bun:"created_at,notnull" json:"created_at"`
	SentAt    *time.Time             `bun:"sent_at" json:"sent_at,omitempty"`
}

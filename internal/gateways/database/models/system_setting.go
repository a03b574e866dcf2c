package models

import (
	"time"

	"github.com/uptrace/bun"
)

type SystemSetting struct {
	bun.BaseModel `bun:"table:system_settings,alias:ss"`

	Key       string    `bun:"key,pk"`
	Value     string    `bun:"value,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

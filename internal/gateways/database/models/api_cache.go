package models

import (
	"time"

	"github.com/uptrace/bun"
)

// APICache persists upstream payloads that are expensive to refetch, keyed by
// operation and arguments.
type APICache struct {
	bun.BaseModel `bun:"table:api_cache,alias:ac"`

	Key       string    `bun:"key,pk"`
	Data      string    `bun:"data,notnull"`
	Timestamp time.Time `bun:"timestamp,notnull"`
}

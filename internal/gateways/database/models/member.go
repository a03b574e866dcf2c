package models

import (
	"strings"
	"time"

	"github.com/uptrace/bun"
)

type MemberStatus string

const (
	MemberActive    MemberStatus = "active"
	MemberSuspended MemberStatus = "suspended"
)

func (s MemberStatus) Valid() bool {
	return s == MemberActive || s == MemberSuspended
}

// Member is a tracked platform profile on a team's roster. The same username
// may be on several rosters; snapshots are keyed by username alone.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`

	Username  string       `bun:"username,pk" json:"username"`
	TeamOwner string       `bun:"team_owner,pk" json:"team_owner"`
	Name      string       `bun:"name,notnull" json:"name"`
	Avatar    *string      `bun:"avatar" json:"avatar,omitempty"`
	Status    MemberStatus `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time    `bun:"created_at,notnull" json:"created_at"`
}

// CanonicalUsername is the stored form of a platform username.
func CanonicalUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (m *Member) DisplayName() string {
	if m.Name != "" {
		return m.Name
	}
	return m.Username
}

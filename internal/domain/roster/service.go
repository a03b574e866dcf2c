package roster

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
	"github.com/leetboard/leetboard/internal/gateways/database/repositories"
	"github.com/leetboard/leetboard/internal/gateways/leetcode"
)

var (
	ErrInvalidUsername = errors.New("invalid username")
	ErrInvalidTeam     = errors.New("invalid team")
	ErrInvalidStatus   = errors.New("invalid member status")
)

// Capturer writes a member's baseline snapshot.
type Capturer interface {
	CaptureMember(ctx context.Context, username string) (*models.Snapshot, error)
}

// Service manages team rosters. Usernames are validated upstream before they
// are stored, and every new member gets a baseline row in the joining week.
type Service struct {
	members  repositories.MemberRepository
	upstream leetcode.API
	capturer Capturer
}

func NewService(members repositories.MemberRepository, upstream leetcode.API, capturer Capturer) *Service {
	return &Service{members: members, upstream: upstream, capturer: capturer}
}

func (s *Service) List(ctx context.Context, team string) ([]*models.Member, error) {
	return s.members.List(ctx, team)
}

func (s *Service) ListActive(ctx context.Context, team string) ([]*models.Member, error) {
	return s.members.ListActive(ctx, team)
}

func (s *Service) Teams(ctx context.Context) ([]string, error) {
	return s.members.Teams(ctx)
}

// Add validates username against the platform and adds it to team. Unknown
// usernames surface leetcode.ErrRejected.
func (s *Service) Add(ctx context.Context, team, username string) (*models.Member, error) {
	team = strings.TrimSpace(team)
	username = models.CanonicalUsername(username)
	if team == "" {
		return nil, ErrInvalidTeam
	}
	if username == "" || strings.ContainsAny(username, " /\t") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidUsername, username)
	}

	if _, err := s.members.Get(ctx, team, username); err == nil {
		return nil, &repositories.ConflictError{Entity: "member", Field: "username", Value: username}
	} else if !repositories.IsNotFound(err) {
		return nil, err
	}

	profile, err := s.upstream.FetchProfile(ctx, username)
	if err != nil {
		return nil, err
	}

	member := &models.Member{
		Username:  username,
		TeamOwner: team,
		Name:      profile.DisplayName,
		Status:    models.MemberActive,
	}
	if member.Name == "" {
		member.Name = username
	}
	if profile.Avatar != "" {
		avatar := profile.Avatar
		member.Avatar = &avatar
	}

	if err := s.members.Add(ctx, member); err != nil {
		return nil, err
	}

	if s.capturer != nil {
		if _, err := s.capturer.CaptureMember(ctx, username); err != nil {
			slog.Warn("Baseline capture failed",
				slog.String("type", "sys"),
				slog.String("team", team),
				slog.String("username", username),
				slog.Any("error", err))
		}
	}
	return member, nil
}

// Remove deletes the membership. Snapshots stay.
func (s *Service) Remove(ctx context.Context, team, username string) error {
	return s.members.Remove(ctx, team, models.CanonicalUsername(username))
}

func (s *Service) SetStatus(ctx context.Context, team, username string, status models.MemberStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.members.UpdateStatus(ctx, team, models.CanonicalUsername(username), status)
}

type memberSource []*models.Member

func (m memberSource) String(i int) string { return m[i].Username + " " + m[i].Name }
func (m memberSource) Len() int            { return len(m) }

// Search fuzzy-matches query against usernames and display names, best
// match first.
func (s *Service) Search(ctx context.Context, team, query string) ([]*models.Member, error) {
	members, err := s.members.List(ctx, team)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return members, nil
	}

	matches := fuzzy.FindFrom(query, memberSource(members))
	out := make([]*models.Member, 0, len(matches))
	for _, match := range matches {
		out = append(out, members[match.Index])
	}
	return out, nil
}

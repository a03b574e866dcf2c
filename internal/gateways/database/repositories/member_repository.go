package repositories

import (
	"context"
	"log/slog"
	"time"

	"github.com/uptrace/bun"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

type MemberRepository interface {
	List(ctx context.Context, team string) ([]*models.Member, error)
	ListActive(ctx context.Context, team string) ([]*models.Member, error)
	ListAllActive(ctx context.Context) ([]*models.Member, error)
	Teams(ctx context.Context) ([]string, error)
	Get(ctx context.Context, team, username string) (*models.Member, error)
	Add(ctx context.Context, member *models.Member) error
	Remove(ctx context.Context, team, username string) error
	UpdateStatus(ctx context.Context, team, username string, status models.MemberStatus) error
	UpdateProfile(ctx context.Context, team, username, name string, avatar *string) error
}

type memberRepository struct {
	*BaseRepository
}

func NewMemberRepository(db *bun.DB) MemberRepository {
	return &memberRepository{BaseRepository: NewBaseRepository(db)}
}

// List returns every member of a team in insertion order.
func (r *memberRepository) List(ctx context.Context, team string) ([]*models.Member, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var members []*models.Member
	err := r.db.NewSelect().
		Model(&members).
		Where("team_owner = ?", team).
		Order("created_at ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list", "member", err)
	}
	return members, nil
}

func (r *memberRepository) ListActive(ctx context.Context, team string) ([]*models.Member, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var members []*models.Member
	err := r.db.NewSelect().
		Model(&members).
		Where("team_owner = ?", team).
		Where("status = ?", models.MemberActive).
		Order("created_at ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list_active", "member", err)
	}
	return members, nil
}

// ListAllActive returns the active members of every team, ordered by team
// then insertion time.
func (r *memberRepository) ListAllActive(ctx context.Context) ([]*models.Member, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var members []*models.Member
	err := r.db.NewSelect().
		Model(&members).
		Where("status = ?", models.MemberActive).
		Order("team_owner ASC", "created_at ASC", "username ASC").
		Scan(ctx)
	if err != nil {
		return nil, r.HandleError("list_all_active", "member", err)
	}
	return members, nil
}

func (r *memberRepository) Teams(ctx context.Context) ([]string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var teams []string
	err := r.db.NewSelect().
		Model((*models.Member)(nil)).
		ColumnExpr("DISTINCT team_owner").
		Order("team_owner ASC").
		Scan(ctx, &teams)
	if err != nil {
		return nil, r.HandleError("teams", "member", err)
	}
	return teams, nil
}

func (r *memberRepository) Get(ctx context.Context, team, username string) (*models.Member, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	member := new(models.Member)
	err := r.db.NewSelect().
		Model(member).
		Where("team_owner = ?", team).
		Where("username = ?", username).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "member", username, err)
	}
	return member, nil
}

func (r *memberRepository) Add(ctx context.Context, member *models.Member) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	if member.CreatedAt.IsZero() {
		member.CreatedAt = time.Now().UTC()
	}
	if member.Status == "" {
		member.Status = models.MemberActive
	}

	_, err := r.db.NewInsert().Model(member).Exec(ctx)
	if err != nil {
		if isConstraintViolation(err) {
			return &ConflictError{Entity: "member", Field: "username", Value: member.Username, Err: err}
		}
		return r.HandleError("add", "member", err)
	}

	slog.Info("Member added",
		slog.String("type", "db"),
		slog.String("team", member.TeamOwner),
		slog.String("username", member.Username))
	return nil
}

// Remove deletes the roster membership only; snapshots are keyed by username
// and survive.
func (r *memberRepository) Remove(ctx context.Context, team, username string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewDelete().
		Model((*models.Member)(nil)).
		Where("team_owner = ?", team).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return r.HandleError("remove", "member", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "member", ID: username}
	}
	return nil
}

func (r *memberRepository) UpdateStatus(ctx context.Context, team, username string, status models.MemberStatus) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	res, err := r.db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("status = ?", status).
		Where("team_owner = ?", team).
		Where("username = ?", username).
		Exec(ctx)
	if err != nil {
		return r.HandleError("update_status", "member", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "member", ID: username}
	}
	return nil
}

func (r *memberRepository) UpdateProfile(ctx context.Context, team, username, name string, avatar *string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewUpdate().
		Model((*models.Member)(nil)).
		Set("name = ?", name).
		Set("avatar = ?", avatar).
		Where("team_owner = ?", team).
		Where("username = ?", username).
		Exec(ctx)
	return r.HandleError("update_profile", "member", err)
}

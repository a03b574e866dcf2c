package repositories

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

type LastStateRepository interface {
	Get(ctx context.Context, owner, member string) (*models.LastState, error)
	Upsert(ctx context.Context, state *models.LastState) error
	Delete(ctx context.Context, owner, member string) error
}

type lastStateRepository struct {
	*BaseRepository
}

func NewLastStateRepository(db *bun.DB) LastStateRepository {
	return &lastStateRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *lastStateRepository) Get(ctx context.Context, owner, member string) (*models.LastState, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	state := new(models.LastState)
	err := r.db.NewSelect().
		Model(state).
		Where("owner = ?", owner).
		Where("member = ?", member).
		Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "last_state", member, err)
	}
	return state, nil
}

func (r *lastStateRepository) Upsert(ctx context.Context, state *models.LastState) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	state.ObservedAt = state.ObservedAt.UTC()
	_, err := r.db.NewInsert().
		Model(state).
		On("CONFLICT (owner, member) DO UPDATE").
		Set("total_solved = EXCLUDED.total_solved").
		Set("easy = EXCLUDED.easy").
		Set("medium = EXCLUDED.medium").
		Set("hard = EXCLUDED.hard").
		Set("streak_status = EXCLUDED.streak_status").
		Set("current_streak = EXCLUDED.current_streak").
		Set("observed_at = EXCLUDED.observed_at").
		Exec(ctx)
	return r.HandleErrorWithID("upsert", "last_state", state.Member, err)
}

func (r *lastStateRepository) Delete(ctx context.Context, owner, member string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	_, err := r.db.NewDelete().
		Model((*models.LastState)(nil)).
		Where("owner = ?", owner).
		Where("member = ?", member).
		Exec(ctx)
	return r.HandleErrorWithID("delete", "last_state", member, err)
}

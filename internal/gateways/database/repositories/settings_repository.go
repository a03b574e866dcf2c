package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// SettingsRepository stores runtime overrides of the schedule configuration.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	All(ctx context.Context) (map[string]string, error)
}

type settingsRepository struct {
	*BaseRepository
}

func NewSettingsRepository(db *bun.DB) SettingsRepository {
	return &settingsRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *settingsRepository) Get(ctx context.Context, key string) (string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	setting := new(models.SystemSetting)
	if err := r.db.NewSelect().Model(setting).Where("key = ?", key).Scan(ctx); err != nil {
		return "", r.HandleErrorWithID("get", "setting", key, err)
	}
	return setting.Value, nil
}

func (r *settingsRepository) Set(ctx context.Context, key, value string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	setting := &models.SystemSetting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := r.db.NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return r.HandleErrorWithID("set", "setting", key, err)
}

func (r *settingsRepository) All(ctx context.Context) (map[string]string, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var settings []models.SystemSetting
	if err := r.db.NewSelect().Model(&settings).Order("key ASC").Scan(ctx); err != nil {
		return nil, r.HandleError("all", "setting", err)
	}
	out := make(map[string]string, len(settings))
	for _, s := range settings {
		out[s.Key] = s.Value
	}
	return out, nil
}

package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// APICacheRepository persists upstream responses across restarts.
type APICacheRepository interface {
	Get(ctx context.Context, key string) (*models.APICache, error)
	Put(ctx context.Context, key, data string) error
}

type apiCacheRepository struct {
	*BaseRepository
}

func NewAPICacheRepository(db *bun.DB) APICacheRepository {
	return &apiCacheRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *apiCacheRepository) Get(ctx context.Context, key string) (*models.APICache, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := new(models.APICache)
	if err := r.db.NewSelect().Model(entry).Where("key = ?", key).Scan(ctx); err != nil {
		return nil, r.HandleErrorWithID("get", "api_cache", key, err)
	}
	return entry, nil
}

func (r *apiCacheRepository) Put(ctx context.Context, key, data string) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	entry := &models.APICache{Key: key, Data: data, Timestamp: time.Now().UTC()}
	_, err := r.db.NewInsert().
		Model(entry).
		On("CONFLICT (key) DO UPDATE").
		Set("data = EXCLUDED.data").
		Set(`"timestamp" = EXCLUDED."timestamp"`).
		Exec(ctx)
	return r.HandleErrorWithID("put", "api_cache", key, err)
}

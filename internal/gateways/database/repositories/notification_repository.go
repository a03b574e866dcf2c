package repositories

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/leetboard/leetboard/internal/gateways/database/models"
)

// NotificationFilter narrows List. Empty fields match everything.
type NotificationFilter struct {
	Kind      string
	Status    models.NotificationStatus
	Recipient string
	Limit     int
	Offset    int
}

type NotificationRepository interface {
	InsertAll(ctx context.Context, ns []*models.Notification) error
	Get(ctx context.Context, id int64) (*models.Notification, error)
	UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus, sentAt *time.Time) error
	List(ctx context.Context, filter NotificationFilter) ([]*models.Notification, error)
}

type notificationRepository struct {
	*BaseRepository
}

func NewNotificationRepository(db *bun.DB) NotificationRepository {
	return &notificationRepository{BaseRepository: NewBaseRepository(db)}
}

// InsertAll stores ns in one transaction. Either every row gets an ID or
// none is stored.
func (r *notificationRepository) InsertAll(ctx context.Context, ns []*models.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	for _, n := range ns {
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}
		n.CreatedAt = n.CreatedAt.UTC()
		if n.Status == "" {
			n.Status = models.NotificationQueued
		}
	}

	err := r.Transaction(ctx, func(ctx context.Context, tx bun.Tx) error {
		for _, n := range ns {
			if _, err := tx.NewInsert().Model(n).Returning("id").Exec(ctx); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		// ids handed out inside the rolled back transaction are void
		for _, n := range ns {
			n.ID = 0
		}
	}
	return r.HandleError("insert", "notification", err)
}

func (r *notificationRepository) Get(ctx context.Context, id int64) (*models.Notification, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	n := new(models.Notification)
	err := r.db.NewSelect().Model(n).Where("id = ?", id).Scan(ctx)
	if err != nil {
		return nil, r.HandleErrorWithID("get", "notification", id, err)
	}
	return n, nil
}

func (r *notificationRepository) UpdateStatus(ctx context.Context, id int64, status models.NotificationStatus, sentAt *time.Time) error {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	q := r.db.NewUpdate().
		Model((*models.Notification)(nil)).
		Set("status = ?", status).
		Where("id = ?", id)
	if sentAt != nil {
		q = q.Set("sent_at = ?", sentAt.UTC())
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return r.HandleErrorWithID("update_status", "notification", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{Entity: "notification", ID: id}
	}
	return nil
}

// List returns notifications newest first.
func (r *notificationRepository) List(ctx context.Context, filter NotificationFilter) ([]*models.Notification, error) {
	ctx, cancel := r.WithTimeout(ctx)
	defer cancel()

	var out []*models.Notification
	q := r.db.NewSelect().Model(&out)
	if filter.Kind != "" {
		q = q.Where("type = ?", filter.Kind)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Recipient != "" {
		q = q.Where("recipient = ?", filter.Recipient)
	}
	q = q.Order("created_at DESC", "id DESC")
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, r.HandleError("list", "notification", err)
	}
	return out, nil
}

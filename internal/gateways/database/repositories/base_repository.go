package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/leetboard/leetboard/leetboard/config"
)

// BaseRepository provides common repository functionality
type BaseRepository struct {
	db             *bun.DB
	defaultTimeout time.Duration
}

// NewBaseRepository creates a new base repository
func NewBaseRepository(db *bun.DB) *BaseRepository {
	return &BaseRepository{
		db:             db,
		defaultTimeout: config.DefaultQueryTimeout,
	}
}

// RepositoryError represents a repository-level error
type RepositoryError struct {
	Operation string
	Entity    string
	Err       error
}

func (re *RepositoryError) Error() string {
	return fmt.Sprintf("repository error during %s for %s: %v", re.Operation, re.Entity, re.Err)
}

func (re *RepositoryError) Unwrap() error {
	return re.Err
}

// NotFoundError represents an entity not found error
type NotFoundError struct {
	Entity string
	ID     interface{}
}

func (nfe *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %v not found", nfe.Entity, nfe.ID)
}

// ConflictError is raised when a uniqueness or other constraint rejects a
// write.
type ConflictError struct {
	Entity string
	Field  string
	Value  interface{}
	Err    error
}

func (ce *ConflictError) Error() string {
	return fmt.Sprintf("%s with %s %v already exists", ce.Entity, ce.Field, ce.Value)
}

func (ce *ConflictError) Unwrap() error {
	return ce.Err
}

// WithTimeout creates a context with the default timeout
func (br *BaseRepository) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, br.defaultTimeout)
}

// HandleError standardizes error handling across repositories
func (br *BaseRepository) HandleError(operation, entity string, err error) error {
	return br.HandleErrorWithID(operation, entity, "unknown", err)
}

// HandleErrorWithID standardizes error handling with specific ID
func (br *BaseRepository) HandleErrorWithID(operation, entity string, id interface{}, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{Entity: entity, ID: id}
	}

	if isConstraintViolation(err) {
		return &ConflictError{Entity: entity, Field: "key", Value: id, Err: err}
	}

	return &RepositoryError{
		Operation: operation,
		Entity:    entity,
		Err:       err,
	}
}

// Transaction executes a function within a database transaction
func (br *BaseRepository) Transaction(ctx context.Context, fn func(context.Context, bun.Tx) error) error {
	timeoutCtx, cancel := br.WithTimeout(ctx)
	defer cancel()

	return br.db.RunInTx(timeoutCtx, nil, fn)
}

// GetDB returns the underlying database connection
func (br *BaseRepository) GetDB() *bun.DB {
	return br.db
}

func isConstraintViolation(err error) bool {
	var pgErr pgdriver.Error
	if errors.As(err, &pgErr) {
		return pgErr.IntegrityViolation()
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// IsNotFound checks if an error is a NotFoundError
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}

// IsConflict checks if an error is a ConflictError
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}

package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/leetboard/leetboard/backend/models"
)

// Query collects typed query parameters and the errors found while reading
// them.
type Query struct {
	c    *fiber.Ctx
	Errs []models.ValidationError
}

func NewQuery(c *fiber.Ctx) *Query {
	return &Query{c: c}
}

// Int reads a non-negative integer, returning def when absent.
func (q *Query) Int(name string, def int) int {
	raw := q.c.Query(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		q.Errs = append(q.Errs, models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%s must be a non-negative integer", name),
		})
		return def
	}
	return n
}

// Date reads a YYYY-MM-DD date, returning the zero time when absent.
func (q *Query) Date(name string) time.Time {
	raw := q.c.Query(name)
	if raw == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		q.Errs = append(q.Errs, models.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%s must be a YYYY-MM-DD date", name),
		})
		return time.Time{}
	}
	return t
}

func (q *Query) String(name, def string) string {
	if v := q.c.Query(name); v != "" {
		return v
	}
	return def
}

func (q *Query) Valid() bool {
	return len(q.Errs) == 0
}

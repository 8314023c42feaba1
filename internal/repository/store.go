// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"famefeed/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store groups the repositories that share one connection or transaction.
type Store struct {
	db *gorm.DB

	Users   UserRepository
	Posts   PostRepository
	Fame    FameRepository
	Catalog CatalogRepository
	Graph   GraphRepository
	Ratings RatingRepository
}

// NewStore binds every repository to db.
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:      db,
		Users:   NewUserRepository(db),
		Posts:   NewPostRepository(db),
		Fame:    NewFameRepository(db),
		Catalog: NewCatalogRepository(db),
		Graph:   NewGraphRepository(db),
		Ratings: NewRatingRepository(db),
	}
}

// DB exposes the underlying handle for health checks and tooling.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn against a Store bound to a single transaction. Any
// error returned by fn rolls back every change made through tx.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

// forUpdate adds a row lock on dialects that support it. SQLite serializes
// writers on its own.
func forUpdate(db *gorm.DB) *gorm.DB {
	if db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// lookupError maps a single-row lookup failure to the app error taxonomy.
func lookupError(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// paginate applies an inclusive-end window. Unbounded windows are sliced in
// memory by window() because not every dialect accepts OFFSET without LIMIT.
func paginate(q *gorm.DB, page models.Page) *gorm.DB {
	if limit := page.Limit(); limit > 0 {
		return q.Offset(page.Start).Limit(limit)
	}
	return q
}

func window[T any](rows []T, page models.Page) []T {
	if page.Limit() > 0 {
		return rows
	}
	if page.Start >= len(rows) {
		return []T{}
	}
	return rows[page.Start:]
}

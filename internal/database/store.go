package database

import (
	"errors"
	"sync"
	"time"

	"inventrobil-pos/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Store implements the user store, product catalog and sale ledger on one gorm handle.
//
// writeMu is the single-writer lock for the catalog and ledger: checkout, catalog
// mutations and bulk replace all hold it for the whole transaction. Row locks are
// requested as well but sqlite ignores them, so the mutex is what guarantees that two
// checkouts never both pass the stock check for the same unit.
type Store struct {
	db      *gorm.DB
	log     *zap.Logger
	writeMu sync.Mutex
	now     func() time.Time
}

func NewStore(db *gorm.DB, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		db:  db,
		log: log,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Ping checks the underlying connection.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// translate maps gorm errors onto the domain sentinels.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &notFoundError{what: what}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &conflictError{what: what}
	}
	return err
}

type notFoundError struct{ what string }

func (e *notFoundError) Error() string { return e.what + " not found" }
func (e *notFoundError) Unwrap() error { return models.ErrNotFound }

type conflictError struct{ what string }

func (e *conflictError) Error() string { return e.what + " already exists" }
func (e *conflictError) Unwrap() error { return models.ErrConflict }

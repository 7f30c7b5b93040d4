package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// ============================================
// TRANSACTIONS, HEALTH & LIFECYCLE
// ============================================

// WithTransaction runs fn against a transactional view of the store. Every
// store call made through the view joins the same database transaction; fn
// returning an error rolls everything back.
func (s *GORMStore) WithTransaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(txdb *gorm.DB) error {
		return fn(&GORMStore{db: txdb, config: s.config})
	})
}

func (s *GORMStore) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GORMStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

// Compile-time interface check
var _ Store = (*GORMStore)(nil)

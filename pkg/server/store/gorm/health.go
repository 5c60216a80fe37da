package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"
)

const healthCheckTimeout = 2 * time.Second

// HealthStore provides health check operations using GORM
type HealthStore struct {
	db *gorm.DB
}

// NewHealthStore creates a new HealthStore
func NewHealthStore(db *gorm.DB) *HealthStore {
	return &HealthStore{db: db}
}

// CheckConnectivity pings the underlying connection pool
func (s *HealthStore) CheckConnectivity() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()
	return sqlDB.PingContext(ctx)
}

package main

import (
	"context"
	"errors"
	"time"

	"code.cloudfoundry.org/clock"
	"gorm.io/gorm"
)

const (
	defaultDeliveryLimit = 50
	maxDeliveryLimit     = 500
)

// DeliveryStore persists the delivery log and prunes it on every insert.
type DeliveryStore struct {
	db        *gorm.DB
	retention time.Duration
	clock     clock.Clock
}

func NewDeliveryStore(db *gorm.DB, retention time.Duration, clk clock.Clock) *DeliveryStore {
	if clk == nil {
		clk = clock.NewClock()
	}
	return &DeliveryStore{db: db, retention: retention, clock: clk}
}

func (s *DeliveryStore) Record(ctx context.Context, d Delivery) error {
	if d.RequestID == "" || d.Outcome == "" {
		return errors.New("missing request ID or outcome")
	}

	now := s.clock.Now()
	db := s.db.WithContext(ctx)
	if s.retention > 0 {
		cutoff := now.Add(-s.retention)
		if err := db.Where("created_at < ?", cutoff).Delete(&Delivery{}).Error; err != nil {
			return err
		}
	}

	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	return db.Create(&d).Error
}

// List returns the newest deliveries first.
func (s *DeliveryStore) List(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = defaultDeliveryLimit
	}
	if limit > maxDeliveryLimit {
		limit = maxDeliveryLimit
	}
	var out []Delivery
	err := s.db.WithContext(ctx).Order("created_at desc").Order("id desc").Limit(limit).Find(&out).Error
	return out, err
}

func (s *DeliveryStore) PingContext(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

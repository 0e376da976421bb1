package service

import (
	"context"
	"fmt"
	"time"

	"landrop/share-api/internal/model"
	"landrop/share-api/storage"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper reconciles logical expiry with physical storage: expired records
// get their tombstone set, then their ciphertext removed. Tombstone first,
// so a download racing the sweep sees not-found rather than a half-deleted
// blob. Running it twice in a row is a no-op the second time.
type Sweeper struct {
	db    *gorm.DB
	store *storage.Store
}

func NewSweeper(db *gorm.DB, store *storage.Store) *Sweeper {
	return &Sweeper{db: db, store: store}
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Expired   int64 `json:"expired"`
	Reclaimed int64 `json:"reclaimed"`
}

type sweepTarget struct {
	ID         string
	StoredName string
}

// Sweep tombstones every expired, not-yet-deleted record and deletes its
// blob. Blob deletion failures are logged and skipped; the tombstone stands
// either way and the next sweep won't retry (the record is already
// deleted), leaving at worst an unreachable blob.
func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	now := time.Now().Unix()

	var targets []sweepTarget
	err := s.db.
		Model(model.File{}).
		Where("is_deleted = ? AND expires_at IS NOT NULL AND expires_at <= ?", false, now).
		Select("id", "stored_name").
		Find(&targets).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to query expired files, %w", err)
	}

	report := &SweepReport{}

	for _, t := range targets {
		res := s.db.
			Model(model.File{}).
			Where("id = ? AND is_deleted = ?", t.ID, false).
			UpdateColumn("is_deleted", true)
		if res.Error != nil {
			zap.L().Error("Failed to tombstone expired file",
				zap.String("id", t.ID), zap.Error(res.Error))
			continue
		}

		if res.RowsAffected == 0 {
			// Someone else (an explicit delete) got there first
			continue
		}

		report.Expired++

		if err := s.store.Delete(ctx, t.StoredName); err != nil {
			zap.L().Error("Failed to reclaim blob for expired file",
				zap.String("id", t.ID), zap.Error(err))
			continue
		}

		report.Reclaimed++
	}

	if report.Expired > 0 {
		zap.L().Info("Expiry sweep finished",
			zap.Int64("expired", report.Expired),
			zap.Int64("reclaimed", report.Reclaimed))
	}

	return report, nil
}

// Attach schedules the sweep on the given cron runner.
func (s *Sweeper) Attach(c *cron.Cron, schedule string) error {
	_, err := c.AddFunc(schedule, func() {
		if _, err := s.Sweep(context.Background()); err != nil {
			zap.L().Error("Scheduled sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup sweep, %w", err)
	}

	zap.L().Debug("Cleanup sweep attached", zap.String("schedule", schedule))
	return nil
}

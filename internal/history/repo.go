package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/hourbid/pkg/db"
	"github.com/angelmondragon/hourbid/pkg/db/models"
	pkgerrors "github.com/angelmondragon/hourbid/pkg/errors"
)

const insertBatchSize = 100

// Repository persists adjustment history via GORM.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) (*Repository, error) {
	if db == nil {
		return nil, fmt.Errorf("db required")
	}
	return &Repository{db: db}, nil
}

// Record inserts the rows, assigning IDs where missing. Rerunning the same
// run for the same slot is a no-op.
func (r *Repository) Record(ctx context.Context, rows []models.BidAdjustment) error {
	if len(rows) == 0 {
		return nil
	}
	batch := make([]models.BidAdjustment, len(rows))
	copy(batch, rows)
	for i := range batch {
		if batch[i].ID == "" {
			batch[i].ID = uuid.NewString()
		}
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "run_id"}, {Name: "campaign_id"}, {Name: "day_of_week"}, {Name: "hour"}},
			DoNothing: true,
		}).
		CreateInBatches(&batch, insertBatchSize).Error
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "bid adjustment id already recorded")
	}
	if err != nil {
		return fmt.Errorf("insert bid adjustments: %w", err)
	}
	return nil
}

// ListByCampaign returns the campaign's adjustments applied at or after since,
// newest first.
func (r *Repository) ListByCampaign(ctx context.Context, campaignID int64, since time.Time, limit int) ([]models.BidAdjustment, error) {
	var rows []models.BidAdjustment
	query := r.db.WithContext(ctx).
		Where("campaign_id = ? AND applied_at >= ?", campaignID, since).
		Order("applied_at DESC").
		Order("hour ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list bid adjustments: %w", err)
	}
	return rows, nil
}

// ListByRun returns every adjustment written by one run in insertion order.
func (r *Repository) ListByRun(ctx context.Context, runID string) ([]models.BidAdjustment, error) {
	var rows []models.BidAdjustment
	if err := r.db.WithContext(ctx).
		Where("run_id = ?", runID).
		Order("campaign_id ASC").
		Order("hour ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list run adjustments: %w", err)
	}
	return rows, nil
}

// DeleteAppliedBefore removes adjustments applied strictly before cutoff using
// the caller's transaction.
func (r *Repository) DeleteAppliedBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	conn := tx
	if conn == nil {
		conn = r.db
	}
	res := conn.WithContext(ctx).
		Where("applied_at < ?", cutoff).
		Delete(&models.BidAdjustment{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete bid adjustments: %w", res.Error)
	}
	return res.RowsAffected, nil
}

var _ Recorder = (*Repository)(nil)

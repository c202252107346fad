package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
)

const maxDLQErrorLen = 1024

// DLQRepository stores outbox rows the publisher gave up on. event_id is
// unique, so a replayed event that fails again refreshes its entry.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// RecordTx writes entry inside tx and reports whether a new row was created.
func (r *DLQRepository) RecordTx(tx *gorm.DB, entry models.OutboxDLQ) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	if entry.ErrorMessage != nil {
		msg := clampUTF8(*entry.ErrorMessage, maxDLQErrorLen)
		entry.ErrorMessage = &msg
	}

	existing, err := r.FindByEventIDTx(tx, entry.EventID)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return true, tx.Create(&entry).Error
	}
	err = tx.Model(&models.OutboxDLQ{}).
		Where("id = ?", existing.ID).
		Updates(map[string]any{
			"error_reason":  entry.ErrorReason,
			"error_message": entry.ErrorMessage,
			"attempt_count": entry.AttemptCount,
			"failed_at":     entry.FailedAt,
			"payload_json":  entry.Payload,
		}).Error
	return false, err
}

// FindByEventIDTx returns nil, nil when the event never reached the DLQ.
func (r *DLQRepository) FindByEventIDTx(tx *gorm.DB, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	var row models.OutboxDLQ
	err := tx.Where("event_id = ?", eventID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *DLQRepository) FindByEventID(ctx context.Context, eventID uuid.UUID) (*models.OutboxDLQ, error) {
	return r.FindByEventIDTx(r.db.WithContext(ctx), eventID)
}

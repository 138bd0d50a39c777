package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/models"
)

type ingestStateRepository struct {
	db *gorm.DB
}

func NewIngestStateRepository(db *gorm.DB) interfaces.IngestStateRepository {
	return &ingestStateRepository{db: db}
}

func (r *ingestStateRepository) GetLastUID(ctx context.Context, sourceType, mailbox string) (uint32, error) {
	var state models.IngestState
	err := r.db.WithContext(ctx).
		Where("source_type = ? AND mailbox = ?", sourceType, mailbox).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to get ingest state")
	}
	return state.LastUID, nil
}

func (r *ingestStateRepository) SaveLastUID(ctx context.Context, sourceType, mailbox string, lastUID uint32) error {
	now := time.Now().UTC()

	// Guarded update: the watermark only moves forward.
	result := r.db.WithContext(ctx).
		Model(&models.IngestState{}).
		Where("source_type = ? AND mailbox = ? AND last_uid < ?", sourceType, mailbox, lastUID).
		Updates(map[string]interface{}{
			"last_uid":   lastUID,
			"updated_at": now,
		})
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update ingest state")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	// Nothing updated: either no cursor yet, or the stored one is already
	// at or past lastUID.
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.IngestState{}).
		Where("source_type = ? AND mailbox = ?", sourceType, mailbox).
		Count(&count).Error
	if err != nil {
		return errors.Wrap(err, "failed to check ingest state")
	}
	if count > 0 {
		return nil
	}

	state := &models.IngestState{
		SourceType: sourceType,
		Mailbox:    mailbox,
		LastUID:    lastUID,
		UpdatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(state).Error; err != nil {
		return errors.Wrap(err, "failed to create ingest state")
	}
	return nil
}

package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/models"
)

type aiCacheRepository struct {
	db *gorm.DB
}

func NewAICacheRepository(db *gorm.DB) interfaces.AICacheRepository {
	return &aiCacheRepository{db: db}
}

func (r *aiCacheRepository) Get(ctx context.Context, contentID string) (*models.AICacheEntry, error) {
	var entry models.AICacheEntry
	err := r.db.WithContext(ctx).
		Where("content_id = ?", contentID).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get ai cache entry")
	}
	return &entry, nil
}

// Upsert merges valid fields into the row. Absent fields keep their stored
// values, so independent back-fills never clobber each other.
func (r *aiCacheRepository) Upsert(ctx context.Context, entry *models.AICacheEntry) error {
	now := time.Now().UTC()

	updates := map[string]interface{}{"updated_at": now}
	if entry.SummaryMD.Valid {
		updates["summary_md"] = entry.SummaryMD.String
	}
	if entry.Category.Valid {
		updates["category"] = entry.Category.String
	}
	if entry.TopicTags.Valid {
		updates["topic_tags_json"] = entry.TopicTags.String
	}

	result := r.db.WithContext(ctx).
		Model(&models.AICacheEntry{}).
		Where("content_id = ?", entry.ContentID).
		Updates(updates)
	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to update ai cache entry")
	}

	if result.RowsAffected == 0 {
		entry.UpdatedAt = now
		if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
			return errors.Wrap(err, "failed to create ai cache entry")
		}
	}
	return nil
}

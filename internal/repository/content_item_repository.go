package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/models"
)

type contentItemRepository struct {
	db *gorm.DB
}

func NewContentItemRepository(db *gorm.DB) interfaces.ContentItemRepository {
	return &contentItemRepository{db: db}
}

func (r *contentItemRepository) Insert(ctx context.Context, item *models.ContentItem) error {
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return translateInsertError(err)
	}
	return nil
}

func (r *contentItemRepository) ExistsByMessageID(ctx context.Context, messageID string) (bool, error) {
	if messageID == "" {
		return false, nil
	}
	return r.exists(ctx, "message_id = ?", messageID)
}

func (r *contentItemRepository) ExistsBySourceUID(ctx context.Context, sourceUID string) (bool, error) {
	return r.exists(ctx, "source_uid = ?", sourceUID)
}

func (r *contentItemRepository) ExistsByContentID(ctx context.Context, contentID string) (bool, error) {
	return r.exists(ctx, "content_id = ?", contentID)
}

func (r *contentItemRepository) exists(ctx context.Context, query string, arg interface{}) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ContentItem{}).
		Where(query, arg).
		Limit(1).
		Count(&count).Error
	if err != nil {
		return false, errors.Wrap(err, "existence check failed")
	}
	return count > 0, nil
}

func (r *contentItemRepository) GetByContentIDs(ctx context.Context, contentIDs []string) ([]*models.ContentItem, error) {
	if len(contentIDs) == 0 {
		return nil, nil
	}

	var items []*models.ContentItem
	err := r.db.WithContext(ctx).
		Where("content_id IN ?", contentIDs).
		Order("created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to load content items by id")
	}
	return items, nil
}

func (r *contentItemRepository) List(ctx context.Context, since *time.Time, maxItems int) ([]*models.ContentItem, error) {
	query := r.db.WithContext(ctx).Model(&models.ContentItem{})
	if since != nil {
		query = query.Where("created_at >= ?", *since)
	}
	query = query.Order("created_at DESC")
	if maxItems > 0 {
		query = query.Limit(maxItems)
	}

	var items []*models.ContentItem
	if err := query.Find(&items).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list content items")
	}
	return items, nil
}

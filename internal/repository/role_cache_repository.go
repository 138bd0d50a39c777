package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/models"
)

type roleCacheRepository struct {
	db *gorm.DB
}

func NewRoleCacheRepository(db *gorm.DB) interfaces.RoleCacheRepository {
	return &roleCacheRepository{db: db}
}

func (r *roleCacheRepository) Get(ctx context.Context, contentID, roleName string) (*models.RoleCacheEntry, error) {
	var entry models.RoleCacheEntry
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND role_name = ?", contentID, roleName).
		First(&entry).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get role cache entry")
	}
	return &entry, nil
}

func (r *roleCacheRepository) InsertIfAbsent(ctx context.Context, entry *models.RoleCacheEntry) (*models.RoleCacheEntry, error) {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(entry).Error
	if err != nil && !isUniqueViolation(err) {
		return nil, errors.Wrap(err, "failed to insert role cache entry")
	}

	// Re-read so a lost race still returns the row that actually won.
	stored, err := r.Get(ctx, entry.ContentID, entry.RoleName)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, errors.New("role cache entry missing after insert")
	}
	return stored, nil
}

package repository

import (
	"gorm.io/gorm"

	"github.com/briefstack/maildigest/interfaces"
	"github.com/briefstack/maildigest/internal/models"
)

type Repositories struct {
	ContentItems interfaces.ContentItemRepository
	AICache      interfaces.AICacheRepository
	RoleCache    interfaces.RoleCacheRepository
	IngestState  interfaces.IngestStateRepository
}

func InitRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		ContentItems: NewContentItemRepository(db),
		AICache:      NewAICacheRepository(db),
		RoleCache:    NewRoleCacheRepository(db),
		IngestState:  NewIngestStateRepository(db),
	}
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.ContentItem{},
		&models.AICacheEntry{},
		&models.RoleCacheEntry{},
		&models.IngestState{},
	)
	if err != nil {
		return err
	}

	// AutoMigrate cannot express a partial unique index: message_id must be
	// unique only when present, because many messages carry none.
	return db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_content_items_message_id
		 ON content_items(message_id) WHERE message_id IS NOT NULL`,
	).Error
}

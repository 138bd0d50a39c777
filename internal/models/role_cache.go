package models

import "time"

// RoleCacheEntry holds the two generated commentary sentences for one
// (content, role) pair. Write-once: once present it is never regenerated,
// even if the role's configuration changes afterwards.
type RoleCacheEntry struct {
	ContentID    string    `gorm:"column:content_id;type:varchar(64);primaryKey"`
	RoleName     string    `gorm:"column:role_name;type:varchar(100);primaryKey"`
	StartupAngle string    `gorm:"column:startup_angle;type:text"`
	RoleAngle    string    `gorm:"column:role_angle;type:text"`
	CreatedAt    time.Time `gorm:"column:created_at"`
}

func (RoleCacheEntry) TableName() string {
	return "role_cache"
}

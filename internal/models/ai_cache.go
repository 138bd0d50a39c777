package models

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"
)

// AICacheEntry caches generated artifacts per content identity. Fields are
// back-filled independently: an upsert only touches the columns it carries.
//
// The presence rules are deliberately asymmetric. summary_md and category
// count as cached only when non-NULL and non-blank; topic_tags_json counts
// as cached whenever the column holds parseable JSON, including "[]", so a
// classifier that legitimately found zero tags is not re-run forever.
type AICacheEntry struct {
	ContentID string         `gorm:"column:content_id;type:varchar(64);primaryKey"`
	SummaryMD sql.NullString `gorm:"column:summary_md;type:text"`
	Category  sql.NullString `gorm:"column:category;type:varchar(100)"`
	TopicTags sql.NullString `gorm:"column:topic_tags_json;type:text"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (AICacheEntry) TableName() string {
	return "ai_cache"
}

func (e *AICacheEntry) HasSummary() bool {
	return e.SummaryMD.Valid && strings.TrimSpace(e.SummaryMD.String) != ""
}

func (e *AICacheEntry) HasCategory() bool {
	return e.Category.Valid && strings.TrimSpace(e.Category.String) != ""
}

// Tags returns the cached topic tags and whether they count as cached.
// An unparseable column reports not-cached, forcing regeneration.
func (e *AICacheEntry) Tags() ([]string, bool) {
	if !e.TopicTags.Valid {
		return nil, false
	}
	var tags []string
	if err := json.Unmarshal([]byte(e.TopicTags.String), &tags); err != nil {
		return nil, false
	}
	return tags, true
}

func (e *AICacheEntry) SetTags(tags []string) {
	if tags == nil {
		tags = []string{}
	}
	raw, _ := json.Marshal(tags)
	e.TopicTags = sql.NullString{String: string(raw), Valid: true}
}

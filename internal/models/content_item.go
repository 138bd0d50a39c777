package models

import "time"

// ContentItem is one ingested unit of content. Rows are created once at
// ingestion time and never mutated or deleted.
type ContentItem struct {
	ID         uint64  `gorm:"column:id;primaryKey;autoIncrement"`
	ContentID  string  `gorm:"column:content_id;type:varchar(64);uniqueIndex:idx_content_items_content_id;not null"`
	SourceType string  `gorm:"column:source_type;type:varchar(50);not null"`
	SourceUID  string  `gorm:"column:source_uid;type:varchar(255);index:idx_content_items_source_uid"`
	MessageID  *string `gorm:"column:message_id;type:varchar(255)"` // partial unique index created in Migrate

	Subject string `gorm:"column:subject;type:varchar(1000)"`
	Sender  string `gorm:"column:sender;type:varchar(255)"`
	// Date is the raw header value, stored unparsed. Parsing sender-supplied
	// dates would change the bytes that feed the content hash.
	Date          string     `gorm:"column:date;type:varchar(255)"`
	ExtractedText string     `gorm:"column:extracted_text;type:text"`
	Links         StringList `gorm:"column:links_json;type:text"`
	LinkContent   StringMap  `gorm:"column:link_content_json;type:text"`
	CreatedAt     time.Time  `gorm:"column:created_at;index:idx_content_items_created_at"`
}

func (ContentItem) TableName() string {
	return "content_items"
}

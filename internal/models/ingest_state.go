package models

import "time"

// IngestState tracks the highest transport UID inspected per mailbox, so
// repeated runs only consider new messages. The watermark is monotonically
// non-decreasing.
type IngestState struct {
	SourceType string    `gorm:"column:source_type;type:varchar(50);primaryKey"`
	Mailbox    string    `gorm:"column:mailbox;type:varchar(100);primaryKey"`
	LastUID    uint32    `gorm:"column:last_uid;not null"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (IngestState) TableName() string {
	return "ingest_state"
}

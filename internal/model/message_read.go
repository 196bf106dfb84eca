package model

import "time"

// MessageRead is the per-reader watermark for one project conversation.
// LastReadMessageID only ever increases; ReadAt refreshes on every call.
type MessageRead struct {
	ID                uint64    `gorm:"primaryKey;autoIncrement"`
	ProjectID         uint64    `gorm:"column:project_id;uniqueIndex:uniq_project_reader"`
	ReaderType        ActorKind `gorm:"column:reader_type;size:32;uniqueIndex:uniq_project_reader"`
	ReaderID          uint64    `gorm:"column:reader_id;uniqueIndex:uniq_project_reader"`
	LastReadMessageID uint64    `gorm:"column:last_read_message_id"`
	ReadAt            time.Time `gorm:"column:read_at"`
	CreatedAt         time.Time `gorm:"autoCreateTime"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime"`
}

func (MessageRead) TableName() string {
	return "project_message_reads"
}

func (r *MessageRead) Reader() Actor {
	return Actor{Kind: r.ReaderType, ID: r.ReaderID}
}

package model

import "time"

// Reaction is one emoji reaction stored inline on the message row.
type Reaction struct {
	Emoji      string    `json:"emoji"`
	AuthorType ActorKind `json:"author_type"`
	AuthorID   uint64    `json:"author_id"`
	At         time.Time `json:"at"`
}

type Message struct {
	ID               uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectID        uint64     `gorm:"column:project_id;index" json:"projectId"`
	AuthorType       ActorKind  `gorm:"column:author_type;size:32;index:idx_author" json:"authorType"`
	AuthorID         uint64     `gorm:"column:author_id;index:idx_author" json:"authorId"`
	Body             *string    `gorm:"type:text" json:"body"`
	AttachmentPath   *string    `gorm:"column:attachment_path;size:512" json:"attachmentPath,omitempty"`
	ReplyToMessageID *uint64    `gorm:"column:reply_to_message_id" json:"replyToMessageId,omitempty"`
	IsPinned         bool       `gorm:"column:is_pinned;default:false" json:"isPinned"`
	PinnedByType     *ActorKind `gorm:"column:pinned_by_type;size:32" json:"pinnedByType,omitempty"`
	PinnedByID       *uint64    `gorm:"column:pinned_by_id" json:"pinnedById,omitempty"`
	PinnedAt         *time.Time `gorm:"column:pinned_at" json:"pinnedAt,omitempty"`
	Reactions        []Reaction `gorm:"serializer:json" json:"reactions"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Message) TableName() string {
	return "project_messages"
}

func (m *Message) Author() Actor {
	return Actor{Kind: m.AuthorType, ID: m.AuthorID}
}

// BodyText returns the body or "" for attachment-only messages.
func (m *Message) BodyText() string {
	if m.Body == nil {
		return ""
	}
	return *m.Body
}

package model

import "time"

type ActivityType string

const (
	ActivityComment ActivityType = "comment"
	ActivityLink    ActivityType = "link"
	ActivityUpload  ActivityType = "upload"
)

// TaskActivity is the append-only task-feed variant of Message. Rows are
// immutable after creation.
type TaskActivity struct {
	ID             uint64       `gorm:"primaryKey;autoIncrement" json:"id"`
	ProjectTaskID  uint64       `gorm:"column:project_task_id;index" json:"projectTaskId"`
	ActorType      ActorKind    `gorm:"column:actor_type;size:32" json:"actorType"`
	ActorID        uint64       `gorm:"column:actor_id" json:"actorId"`
	Type           ActivityType `gorm:"column:type;size:16" json:"type"`
	Body           *string      `gorm:"type:text" json:"body"`
	LinkURL        *string      `gorm:"column:link_url;size:2048" json:"linkUrl,omitempty"`
	LinkHost       *string      `gorm:"column:link_host;size:255" json:"linkHost,omitempty"`
	AttachmentPath *string      `gorm:"column:attachment_path;size:512" json:"attachmentPath,omitempty"`
	CreatedAt      time.Time    `gorm:"autoCreateTime" json:"createdAt"`
}

func (TaskActivity) TableName() string {
	return "project_task_activities"
}

func (a *TaskActivity) Actor() Actor {
	return Actor{Kind: a.ActorType, ID: a.ActorID}
}

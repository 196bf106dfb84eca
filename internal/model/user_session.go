package model

import "time"

// UserSession rows are owned by the auth subsystem. This core only reads the
// most recent active row per actor and touches LastSeenAt on heartbeat.
type UserSession struct {
	ID         uint64     `gorm:"primaryKey;autoIncrement"`
	ActorType  ActorKind  `gorm:"column:actor_type;size:32;index:idx_session_actor"`
	ActorID    uint64     `gorm:"column:actor_id;index:idx_session_actor"`
	LoginAt    time.Time  `gorm:"column:login_at"`
	LogoutAt   *time.Time `gorm:"column:logout_at"`
	LastSeenAt time.Time  `gorm:"column:last_seen_at"`
}

func (UserSession) TableName() string {
	return "user_sessions"
}

package repository

import (
	"context"
	"time"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
)

type SessionRepository interface {
	// LastSeenActive returns actor key -> most recent last_seen_at over the
	// actor's sessions that have not logged out. Actors with no active
	// session are absent from the map.
	LastSeenActive(ctx context.Context, actors []model.Actor) (map[string]time.Time, error)
	// Touch refreshes last_seen_at on the actor's most recent active session.
	// A no-op when the actor has no active session.
	Touch(ctx context.Context, actor model.Actor, now time.Time) error
	SetDB(db *gorm.DB)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *sessionRepository) LastSeenActive(ctx context.Context, actors []model.Actor) (map[string]time.Time, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	seen := make(map[string]time.Time, len(actors))
	if len(actors) == 0 {
		return seen, nil
	}

	// One grouped query per actor kind rather than one per actor.
	byKind := map[model.ActorKind][]uint64{}
	for _, actor := range actors {
		if actor.Zero() {
			continue
		}
		byKind[actor.Kind] = append(byKind[actor.Kind], actor.ID)
	}

	for kind, ids := range byKind {
		var rows []struct {
			ActorID  uint64
			LastSeen time.Time
		}
		if err := r.db.WithContext(ctx).
			Model(&model.UserSession{}).
			Select("actor_id, MAX(last_seen_at) AS last_seen").
			Where("actor_type = ? AND actor_id IN ? AND logout_at IS NULL", kind, ids).
			Group("actor_id").
			Find(&rows).Error; err != nil {
			return nil, err
		}
		for _, row := range rows {
			seen[model.Actor{Kind: kind, ID: row.ActorID}.Key()] = row.LastSeen
		}
	}
	return seen, nil
}

func (r *sessionRepository) Touch(ctx context.Context, actor model.Actor, now time.Time) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	if actor.Zero() {
		return nil
	}
	var session model.UserSession
	err := r.db.WithContext(ctx).
		Where("actor_type = ? AND actor_id = ? AND logout_at IS NULL", actor.Kind, actor.ID).
		Order("login_at DESC").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil
		}
		return err
	}
	return r.db.WithContext(ctx).
		Model(&session).
		Update("last_seen_at", now).Error
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrDBNotReady = errors.New("database not initialized")

type MessageRepository interface {
	Create(ctx context.Context, msg *model.Message) error
	FindInProject(ctx context.Context, projectID, id uint64) (*model.Message, error)
	Page(ctx context.Context, projectID uint64, limit int, afterID, beforeID *uint64) ([]model.Message, error)
	MaxID(ctx context.Context, projectID uint64) (uint64, error)
	Exists(ctx context.Context, projectID, id uint64) (bool, error)
	UpdateBody(ctx context.Context, msg *model.Message, body *string) error
	Delete(ctx context.Context, msg *model.Message) error
	TogglePin(ctx context.Context, projectID, messageID uint64, by model.Actor, now time.Time) (previousPinnedID, pinnedID uint64, err error)
	ToggleReaction(ctx context.Context, messageID uint64, reactor model.Actor, emoji string, now time.Time) (*model.Message, error)
	FindRecentDuplicate(ctx context.Context, projectID uint64, author model.Actor, body string, since time.Time) (*model.Message, error)
	DistinctAuthors(ctx context.Context, projectID uint64) ([]model.Actor, error)
	CountAfter(ctx context.Context, projectID, afterID uint64) (int64, error)
	SetDB(db *gorm.DB)
}

type messageRepository struct {
	db *gorm.DB
}

func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *messageRepository) Create(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(msg).Error
}

func (r *messageRepository) FindInProject(ctx context.Context, projectID, id uint64) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		First(&msg, id).Error; err != nil {
		return nil, err
	}
	return &msg, nil
}

// Page returns up to limit messages in ascending id order. With afterID
// present it pages forward from that cursor, so a crawl starting at 0 walks
// the conversation from the beginning; with beforeID present it fetches the
// window below the cursor descending and reverses it; with neither it returns
// the latest window. A nil cursor means absent, not zero.
func (r *messageRepository) Page(ctx context.Context, projectID uint64, limit int, afterID, beforeID *uint64) ([]model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	query := r.db.WithContext(ctx).Where("project_id = ?", projectID)

	descending := afterID == nil
	switch {
	case afterID != nil:
		query = query.Where("id > ?", *afterID).Order("id ASC")
	case beforeID != nil:
		query = query.Where("id < ?", *beforeID).Order("id DESC")
	default:
		query = query.Order("id DESC")
	}

	var msgs []model.Message
	if err := query.Limit(limit).Find(&msgs).Error; err != nil {
		return nil, err
	}
	if descending {
		for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
			msgs[i], msgs[j] = msgs[j], msgs[i]
		}
	}
	return msgs, nil
}

func (r *messageRepository) MaxID(ctx context.Context, projectID uint64) (uint64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var maxID *uint64
	if err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("project_id = ?", projectID).
		Select("MAX(id)").
		Scan(&maxID).Error; err != nil {
		return 0, err
	}
	if maxID == nil {
		return 0, nil
	}
	return *maxID, nil
}

func (r *messageRepository) Exists(ctx context.Context, projectID, id uint64) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("project_id = ? AND id = ?", projectID, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *messageRepository) UpdateBody(ctx context.Context, msg *model.Message, body *string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	msg.Body = body
	return r.db.WithContext(ctx).
		Model(msg).
		Update("body", body).Error
}

func (r *messageRepository) Delete(ctx context.Context, msg *model.Message) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Delete(msg).Error
}

// TogglePin keeps the at-most-one-pinned invariant: unpin-previous and pin-new
// happen inside a single transaction. Toggling the currently pinned message
// unpins it and returns pinnedID 0.
func (r *messageRepository) TogglePin(ctx context.Context, projectID, messageID uint64, by model.Actor, now time.Time) (uint64, uint64, error) {
	if r.db == nil {
		return 0, 0, ErrDBNotReady
	}

	var previousPinnedID, pinnedID uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var msg model.Message
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ?", projectID).
			First(&msg, messageID).Error; err != nil {
			return err
		}

		var prev model.Message
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND is_pinned = ?", projectID, true).
			First(&prev).Error
		switch {
		case err == nil:
			previousPinnedID = prev.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return err
		}

		unpin := map[string]interface{}{
			"is_pinned":      false,
			"pinned_by_type": nil,
			"pinned_by_id":   nil,
			"pinned_at":      nil,
		}

		if msg.IsPinned {
			return tx.Model(&msg).Updates(unpin).Error
		}

		if previousPinnedID > 0 {
			if err := tx.Model(&model.Message{}).
				Where("project_id = ? AND is_pinned = ?", projectID, true).
				Updates(unpin).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&msg).Updates(map[string]interface{}{
			"is_pinned":      true,
			"pinned_by_type": by.Kind,
			"pinned_by_id":   by.ID,
			"pinned_at":      now,
		}).Error; err != nil {
			return err
		}
		pinnedID = msg.ID
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return previousPinnedID, pinnedID, nil
}

// ToggleReaction adds the reactor's reaction for emoji, or removes it when it
// already exists, under a row lock. Returns the refreshed message.
func (r *messageRepository) ToggleReaction(ctx context.Context, messageID uint64, reactor model.Actor, emoji string, now time.Time) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}

	var updated model.Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&updated, messageID).Error; err != nil {
			return err
		}

		next := make([]model.Reaction, 0, len(updated.Reactions)+1)
		removed := false
		for _, reaction := range updated.Reactions {
			if reaction.Emoji == emoji &&
				reaction.AuthorType == reactor.Kind &&
				reaction.AuthorID == reactor.ID {
				removed = true
				continue
			}
			next = append(next, reaction)
		}
		if !removed {
			next = append(next, model.Reaction{
				Emoji:      emoji,
				AuthorType: reactor.Kind,
				AuthorID:   reactor.ID,
				At:         now,
			})
		}

		updated.Reactions = next
		return tx.Model(&updated).Update("reactions", next).Error
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *messageRepository) FindRecentDuplicate(ctx context.Context, projectID uint64, author model.Actor, body string, since time.Time) (*model.Message, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var msg model.Message
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Where("author_type = ? AND author_id = ?", author.Kind, author.ID).
		Where("body = ?", body).
		Where("created_at >= ?", since).
		Order("id DESC").
		First(&msg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (r *messageRepository) DistinctAuthors(ctx context.Context, projectID uint64) ([]model.Actor, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []struct {
		AuthorType model.ActorKind
		AuthorID   uint64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("project_id = ?", projectID).
		Distinct("author_type", "author_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	authors := make([]model.Actor, 0, len(rows))
	for _, row := range rows {
		if row.AuthorID == 0 || !row.AuthorType.Valid() {
			continue
		}
		authors = append(authors, model.Actor{Kind: row.AuthorType, ID: row.AuthorID})
	}
	return authors, nil
}

func (r *messageRepository) CountAfter(ctx context.Context, projectID, afterID uint64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("project_id = ? AND id > ?", projectID, afterID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

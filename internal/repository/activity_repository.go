package repository

import (
	"context"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	// CreateAll persists a comment plus its derived link entries in one
	// transaction so a page never shows a comment without its links.
	CreateAll(ctx context.Context, activities []*model.TaskActivity) error
	FindInTask(ctx context.Context, taskID, id uint64) (*model.TaskActivity, error)
	// Page follows the message store's cursor semantics: a nil cursor is
	// absent, an afterID of 0 walks the trail from the beginning.
	Page(ctx context.Context, taskID uint64, limit int, afterID, beforeID *uint64) ([]model.TaskActivity, error)
	SetDB(db *gorm.DB)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *activityRepository) CreateAll(ctx context.Context, activities []*model.TaskActivity) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	if len(activities) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, activity := range activities {
			if err := tx.Create(activity).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *activityRepository) FindInTask(ctx context.Context, taskID, id uint64) (*model.TaskActivity, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var activity model.TaskActivity
	if err := r.db.WithContext(ctx).
		Where("project_task_id = ?", taskID).
		First(&activity, id).Error; err != nil {
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) Page(ctx context.Context, taskID uint64, limit int, afterID, beforeID *uint64) ([]model.TaskActivity, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	query := r.db.WithContext(ctx).Where("project_task_id = ?", taskID)

	descending := afterID == nil
	switch {
	case afterID != nil:
		query = query.Where("id > ?", *afterID).Order("id ASC")
	case beforeID != nil:
		query = query.Where("id < ?", *beforeID).Order("id DESC")
	default:
		query = query.Order("id DESC")
	}

	var activities []model.TaskActivity
	if err := query.Limit(limit).Find(&activities).Error; err != nil {
		return nil, err
	}
	if descending {
		for i, j := 0, len(activities)-1; i < j; i, j = i+1, j-1 {
			activities[i], activities[j] = activities[j], activities[i]
		}
	}
	return activities, nil
}

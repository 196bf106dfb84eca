package repository

import (
	"context"
	"errors"
	"time"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReadRepository interface {
	// MarkRead stores max(previous watermark, lastReadID) for the reader and
	// refreshes read_at. The row is created on first call. The effective
	// watermark after the call is returned.
	MarkRead(ctx context.Context, projectID uint64, reader model.Actor, lastReadID uint64, at time.Time) (uint64, error)
	// ReadsAtOrAbove returns every watermark row in the project whose
	// last_read_message_id is >= minID.
	ReadsAtOrAbove(ctx context.Context, projectID, minID uint64) ([]model.MessageRead, error)
	// WatermarkMap returns actor key -> watermark for the whole project.
	WatermarkMap(ctx context.Context, projectID uint64) (map[string]uint64, error)
	SetDB(db *gorm.DB)
}

type readRepository struct {
	db *gorm.DB
}

func NewReadRepository(db *gorm.DB) ReadRepository {
	return &readRepository{db: db}
}

func (r *readRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *readRepository) MarkRead(ctx context.Context, projectID uint64, reader model.Actor, lastReadID uint64, at time.Time) (uint64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}

	var effective uint64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row model.MessageRead
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("project_id = ? AND reader_type = ? AND reader_id = ?",
				projectID, reader.Kind, reader.ID).
			First(&row).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = model.MessageRead{
				ProjectID:         projectID,
				ReaderType:        reader.Kind,
				ReaderID:          reader.ID,
				LastReadMessageID: lastReadID,
				ReadAt:            at,
			}
			effective = lastReadID
			return tx.Create(&row).Error
		}
		if err != nil {
			return err
		}

		effective = row.LastReadMessageID
		if lastReadID > effective {
			effective = lastReadID
		}
		return tx.Model(&row).Updates(map[string]interface{}{
			"last_read_message_id": effective,
			"read_at":              at,
		}).Error
	})
	if err != nil {
		return 0, err
	}
	return effective, nil
}

func (r *readRepository) ReadsAtOrAbove(ctx context.Context, projectID, minID uint64) ([]model.MessageRead, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []model.MessageRead
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND last_read_message_id >= ?", projectID, minID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *readRepository) WatermarkMap(ctx context.Context, projectID uint64) (map[string]uint64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []model.MessageRead
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	marks := make(map[string]uint64, len(rows))
	for _, row := range rows {
		key := row.Reader().Key()
		if row.LastReadMessageID > marks[key] {
			marks[key] = row.LastReadMessageID
		}
	}
	return marks, nil
}

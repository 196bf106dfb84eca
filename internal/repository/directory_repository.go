package repository

import (
	"context"
	"errors"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
)

type DirectoryRepository interface {
	// Names resolves display names for a batch of actors in at most one query
	// per actor kind. Unknown actors are absent from the result.
	Names(ctx context.Context, actors []model.Actor) (map[string]string, error)
	// ActorByAuthUID maps a verified auth UID to the actor it belongs to,
	// honoring the employee > sales rep > user precedence.
	ActorByAuthUID(ctx context.Context, uid string) (model.Actor, error)
	SetDB(db *gorm.DB)
}

type directoryRepository struct {
	db *gorm.DB
}

func NewDirectoryRepository(db *gorm.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) SetDB(db *gorm.DB) {
	r.db = db
}

func (r *directoryRepository) Names(ctx context.Context, actors []model.Actor) (map[string]string, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	names := make(map[string]string, len(actors))
	if len(actors) == 0 {
		return names, nil
	}

	byKind := map[model.ActorKind][]uint64{}
	for _, actor := range actors {
		if actor.Zero() {
			continue
		}
		byKind[actor.Kind] = append(byKind[actor.Kind], actor.ID)
	}

	type namedRow struct {
		ID   uint64
		Name string
	}
	fetch := func(kind model.ActorKind, ids []uint64, table string) error {
		var rows []namedRow
		if err := r.db.WithContext(ctx).
			Table(table).
			Select("id, name").
			Where("id IN ?", ids).
			Find(&rows).Error; err != nil {
			return err
		}
		for _, row := range rows {
			names[model.Actor{Kind: kind, ID: row.ID}.Key()] = row.Name
		}
		return nil
	}

	for kind, ids := range byKind {
		var table string
		switch kind {
		case model.ActorUser:
			table = model.User{}.TableName()
		case model.ActorEmployee:
			table = model.Employee{}.TableName()
		case model.ActorSalesRep:
			table = model.SalesRepresentative{}.TableName()
		default:
			continue
		}
		if err := fetch(kind, ids, table); err != nil {
			return nil, err
		}
	}
	return names, nil
}

func (r *directoryRepository) ActorByAuthUID(ctx context.Context, uid string) (model.Actor, error) {
	if r.db == nil {
		return model.Actor{}, ErrDBNotReady
	}

	var employee model.Employee
	err := r.db.WithContext(ctx).Where("auth_uid = ?", uid).First(&employee).Error
	if err == nil {
		return model.Actor{Kind: model.ActorEmployee, ID: employee.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Actor{}, err
	}

	var rep model.SalesRepresentative
	err = r.db.WithContext(ctx).Where("auth_uid = ?", uid).First(&rep).Error
	if err == nil {
		return model.Actor{Kind: model.ActorSalesRep, ID: rep.ID}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Actor{}, err
	}

	var user model.User
	err = r.db.WithContext(ctx).Where("auth_uid = ?", uid).First(&user).Error
	if err != nil {
		return model.Actor{}, err
	}
	return model.Actor{Kind: model.ActorUser, ID: user.ID}, nil
}

package service

import (
	"context"
	"sort"
	"time"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
)

// In-memory doubles mirroring the repository contracts, so the services can
// be exercised without a database.

type fakeMessageRepo struct {
	nextID uint64
	msgs   []*model.Message
	now    func() time.Time
}

func newFakeMessageRepo(now func() time.Time) *fakeMessageRepo {
	return &fakeMessageRepo{now: now}
}

func (r *fakeMessageRepo) SetDB(*gorm.DB) {}

func (r *fakeMessageRepo) Create(_ context.Context, msg *model.Message) error {
	r.nextID++
	msg.ID = r.nextID
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = r.now()
	}
	msg.UpdatedAt = msg.CreatedAt
	clone := *msg
	r.msgs = append(r.msgs, &clone)
	return nil
}

func (r *fakeMessageRepo) find(projectID, id uint64) *model.Message {
	for _, m := range r.msgs {
		if m.ProjectID == projectID && m.ID == id {
			return m
		}
	}
	return nil
}

func (r *fakeMessageRepo) FindInProject(_ context.Context, projectID, id uint64) (*model.Message, error) {
	if m := r.find(projectID, id); m != nil {
		clone := *m
		return &clone, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeMessageRepo) Page(_ context.Context, projectID uint64, limit int, afterID, beforeID *uint64) ([]model.Message, error) {
	var ids []uint64
	for _, m := range r.msgs {
		if m.ProjectID != projectID {
			continue
		}
		if afterID != nil && m.ID <= *afterID {
			continue
		}
		if afterID == nil && beforeID != nil && m.ID >= *beforeID {
			continue
		}
		ids = append(ids, m.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	if afterID != nil {
		if len(ids) > limit {
			ids = ids[:limit]
		}
	} else if len(ids) > limit {
		ids = ids[len(ids)-limit:]
	}
	out := make([]model.Message, 0, len(ids))
	for _, id := range ids {
		out = append(out, *r.find(projectID, id))
	}
	return out, nil
}

func (r *fakeMessageRepo) MaxID(_ context.Context, projectID uint64) (uint64, error) {
	var maxID uint64
	for _, m := range r.msgs {
		if m.ProjectID == projectID && m.ID > maxID {
			maxID = m.ID
		}
	}
	return maxID, nil
}

func (r *fakeMessageRepo) Exists(_ context.Context, projectID, id uint64) (bool, error) {
	return r.find(projectID, id) != nil, nil
}

func (r *fakeMessageRepo) UpdateBody(_ context.Context, msg *model.Message, body *string) error {
	stored := r.find(msg.ProjectID, msg.ID)
	if stored == nil {
		return gorm.ErrRecordNotFound
	}
	stored.Body = body
	stored.UpdatedAt = r.now()
	msg.Body = body
	msg.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *fakeMessageRepo) Delete(_ context.Context, msg *model.Message) error {
	for i, m := range r.msgs {
		if m.ID == msg.ID {
			r.msgs = append(r.msgs[:i], r.msgs[i+1:]...)
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeMessageRepo) TogglePin(_ context.Context, projectID, messageID uint64, by model.Actor, now time.Time) (uint64, uint64, error) {
	target := r.find(projectID, messageID)
	if target == nil {
		return 0, 0, gorm.ErrRecordNotFound
	}
	var previous uint64
	for _, m := range r.msgs {
		if m.ProjectID == projectID && m.IsPinned {
			previous = m.ID
		}
	}
	unpin := func(m *model.Message) {
		m.IsPinned = false
		m.PinnedByType = nil
		m.PinnedByID = nil
		m.PinnedAt = nil
	}
	if target.IsPinned {
		unpin(target)
		return previous, 0, nil
	}
	for _, m := range r.msgs {
		if m.ProjectID == projectID && m.IsPinned {
			unpin(m)
		}
	}
	kind := by.Kind
	id := by.ID
	at := now
	target.IsPinned = true
	target.PinnedByType = &kind
	target.PinnedByID = &id
	target.PinnedAt = &at
	return previous, target.ID, nil
}

func (r *fakeMessageRepo) ToggleReaction(_ context.Context, messageID uint64, reactor model.Actor, emoji string, now time.Time) (*model.Message, error) {
	var stored *model.Message
	for _, m := range r.msgs {
		if m.ID == messageID {
			stored = m
			break
		}
	}
	if stored == nil {
		return nil, gorm.ErrRecordNotFound
	}
	next := make([]model.Reaction, 0, len(stored.Reactions)+1)
	removed := false
	for _, reaction := range stored.Reactions {
		if reaction.Emoji == emoji && reaction.AuthorType == reactor.Kind && reaction.AuthorID == reactor.ID {
			removed = true
			continue
		}
		next = append(next, reaction)
	}
	if !removed {
		next = append(next, model.Reaction{Emoji: emoji, AuthorType: reactor.Kind, AuthorID: reactor.ID, At: now})
	}
	stored.Reactions = next
	clone := *stored
	return &clone, nil
}

func (r *fakeMessageRepo) FindRecentDuplicate(_ context.Context, projectID uint64, author model.Actor, body string, since time.Time) (*model.Message, error) {
	var latest *model.Message
	for _, m := range r.msgs {
		if m.ProjectID != projectID || m.AuthorType != author.Kind || m.AuthorID != author.ID {
			continue
		}
		if m.Body == nil || *m.Body != body || m.CreatedAt.Before(since) {
			continue
		}
		if latest == nil || m.ID > latest.ID {
			latest = m
		}
	}
	if latest == nil {
		return nil, nil
	}
	clone := *latest
	return &clone, nil
}

func (r *fakeMessageRepo) DistinctAuthors(_ context.Context, projectID uint64) ([]model.Actor, error) {
	seen := map[string]bool{}
	var authors []model.Actor
	for _, m := range r.msgs {
		if m.ProjectID != projectID {
			continue
		}
		author := m.Author()
		if author.Zero() || seen[author.Key()] {
			continue
		}
		seen[author.Key()] = true
		authors = append(authors, author)
	}
	return authors, nil
}

func (r *fakeMessageRepo) CountAfter(_ context.Context, projectID, afterID uint64) (int64, error) {
	var count int64
	for _, m := range r.msgs {
		if m.ProjectID == projectID && m.ID > afterID {
			count++
		}
	}
	return count, nil
}

type fakeReadRepo struct {
	rows []*model.MessageRead
}

func (r *fakeReadRepo) SetDB(*gorm.DB) {}

func (r *fakeReadRepo) find(projectID uint64, reader model.Actor) *model.MessageRead {
	for _, row := range r.rows {
		if row.ProjectID == projectID && row.ReaderType == reader.Kind && row.ReaderID == reader.ID {
			return row
		}
	}
	return nil
}

func (r *fakeReadRepo) MarkRead(_ context.Context, projectID uint64, reader model.Actor, lastReadID uint64, at time.Time) (uint64, error) {
	row := r.find(projectID, reader)
	if row == nil {
		row = &model.MessageRead{
			ProjectID:  projectID,
			ReaderType: reader.Kind,
			ReaderID:   reader.ID,
		}
		r.rows = append(r.rows, row)
	}
	if lastReadID > row.LastReadMessageID {
		row.LastReadMessageID = lastReadID
	}
	row.ReadAt = at
	return row.LastReadMessageID, nil
}

func (r *fakeReadRepo) ReadsAtOrAbove(_ context.Context, projectID, minID uint64) ([]model.MessageRead, error) {
	var out []model.MessageRead
	for _, row := range r.rows {
		if row.ProjectID == projectID && row.LastReadMessageID >= minID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (r *fakeReadRepo) WatermarkMap(_ context.Context, projectID uint64) (map[string]uint64, error) {
	marks := map[string]uint64{}
	for _, row := range r.rows {
		if row.ProjectID != projectID {
			continue
		}
		reader := row.Reader()
		if !reader.Zero() {
			marks[reader.Key()] = row.LastReadMessageID
		}
	}
	return marks, nil
}

type fakeSessionRepo struct {
	lastSeen map[string]time.Time
	touched  []model.Actor
}

func (r *fakeSessionRepo) SetDB(*gorm.DB) {}

func (r *fakeSessionRepo) LastSeenActive(_ context.Context, actors []model.Actor) (map[string]time.Time, error) {
	out := map[string]time.Time{}
	for _, actor := range actors {
		if t, ok := r.lastSeen[actor.Key()]; ok {
			out[actor.Key()] = t
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, actor model.Actor, _ time.Time) error {
	r.touched = append(r.touched, actor)
	return nil
}

type fakeDirectoryRepo struct {
	names map[string]string
}

func (r *fakeDirectoryRepo) SetDB(*gorm.DB) {}

func (r *fakeDirectoryRepo) Names(_ context.Context, actors []model.Actor) (map[string]string, error) {
	out := map[string]string{}
	for _, actor := range actors {
		if name, ok := r.names[actor.Key()]; ok {
			out[actor.Key()] = name
		}
	}
	return out, nil
}

func (r *fakeDirectoryRepo) ActorByAuthUID(context.Context, string) (model.Actor, error) {
	return model.Actor{}, gorm.ErrRecordNotFound
}

type fakeActivityRepo struct {
	nextID uint64
	rows   []*model.TaskActivity
	now    func() time.Time
}

func (r *fakeActivityRepo) SetDB(*gorm.DB) {}

func (r *fakeActivityRepo) CreateAll(_ context.Context, activities []*model.TaskActivity) error {
	for _, a := range activities {
		r.nextID++
		a.ID = r.nextID
		if a.CreatedAt.IsZero() {
			a.CreatedAt = r.now()
		}
		clone := *a
		r.rows = append(r.rows, &clone)
	}
	return nil
}

func (r *fakeActivityRepo) FindInTask(_ context.Context, taskID, id uint64) (*model.TaskActivity, error) {
	for _, a := range r.rows {
		if a.ProjectTaskID == taskID && a.ID == id {
			clone := *a
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeActivityRepo) Page(_ context.Context, taskID uint64, limit int, afterID, beforeID *uint64) ([]model.TaskActivity, error) {
	var out []model.TaskActivity
	for _, a := range r.rows {
		if a.ProjectTaskID != taskID {
			continue
		}
		if afterID != nil && a.ID <= *afterID {
			continue
		}
		if afterID == nil && beforeID != nil && a.ID >= *beforeID {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if afterID != nil {
		if len(out) > limit {
			out = out[:limit]
		}
	} else if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func ptr(v uint64) *uint64 { return &v }

type denyAll struct{}

func (denyAll) Allowed(context.Context, model.Actor, Action, model.Scope) bool { return false }

package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/atlasworks/projectfeed/internal/blob"
	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/atlasworks/projectfeed/internal/presence"
	"github.com/atlasworks/projectfeed/internal/repository"
	"gorm.io/gorm"
)

var linkPattern = regexp.MustCompile(`(?i)https?://[^\s<]+`)

// ActivityItem is one assembled task-activity entry.
type ActivityItem struct {
	ID                uint64    `json:"id"`
	Type              string    `json:"type"`
	AuthorName        string    `json:"author_name"`
	AuthorType        string    `json:"author_type"`
	AuthorID          uint64    `json:"author_id"`
	AuthorStatus      string    `json:"author_status"`
	Body              string    `json:"body,omitempty"`
	LinkURL           string    `json:"link_url,omitempty"`
	LinkHost          string    `json:"link_host,omitempty"`
	AttachmentRef     string    `json:"attachment_ref,omitempty"`
	AttachmentName    string    `json:"attachment_name,omitempty"`
	AttachmentIsImage bool      `json:"attachment_is_image"`
	CreatedAt         time.Time `json:"created_at"`
}

// ActivityPage is one page of task activities with follow-up cursors.
type ActivityPage struct {
	Items        []ActivityItem `json:"items"`
	NextAfterID  uint64         `json:"next_after_id"`
	NextBeforeID uint64         `json:"next_before_id"`
}

type ActivityService interface {
	PostComment(ctx context.Context, taskID uint64, actor model.Actor, body string) ([]ActivityItem, error)
	Upload(ctx context.Context, taskID uint64, actor model.Actor, upload *AttachmentUpload) (*ActivityItem, error)
	ListActivities(ctx context.Context, taskID uint64, viewer model.Actor, limit int, afterID, beforeID *uint64) (*ActivityPage, error)
	OpenAttachment(ctx context.Context, taskID, activityID uint64, actor model.Actor) (blob.Attachment, io.ReadCloser, error)
	EditActivity(ctx context.Context, taskID, activityID uint64, actor model.Actor) error
	DeleteActivity(ctx context.Context, taskID, activityID uint64, actor model.Actor) error
}

type activityService struct {
	activities repository.ActivityRepository
	directory  repository.DirectoryRepository
	presence   *presence.Aggregator
	blobs      blob.Store
	perm       PermissionChecker
	now        func() time.Time
}

func NewActivityService(
	activities repository.ActivityRepository,
	directory repository.DirectoryRepository,
	agg *presence.Aggregator,
	blobs blob.Store,
	perm PermissionChecker,
) ActivityService {
	return &activityService{
		activities: activities,
		directory:  directory,
		presence:   agg,
		blobs:      blobs,
		perm:       perm,
		now:        time.Now,
	}
}

func (s *activityService) authorize(ctx context.Context, actor model.Actor, action Action, taskID uint64) error {
	if !s.perm.Allowed(ctx, actor, action, model.Scope{Kind: model.ScopeTask, ID: taskID}) {
		return ErrForbidden
	}
	return nil
}

// PostComment records the comment and one link activity per distinct URL
// found in the body, all in a single transaction.
func (s *activityService) PostComment(ctx context.Context, taskID uint64, actor model.Actor, body string) ([]ActivityItem, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionComment, taskID); err != nil {
		return nil, err
	}

	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}

	comment := &model.TaskActivity{
		ProjectTaskID: taskID,
		ActorType:     actor.Kind,
		ActorID:       actor.ID,
		Type:          model.ActivityComment,
		Body:          &body,
	}
	activities := []*model.TaskActivity{comment}
	for _, link := range extractLinks(body) {
		u, host := link.url, link.host
		activities = append(activities, &model.TaskActivity{
			ProjectTaskID: taskID,
			ActorType:     actor.Kind,
			ActorID:       actor.ID,
			Type:          model.ActivityLink,
			LinkURL:       &u,
			LinkHost:      &host,
		})
	}

	if err := s.activities.CreateAll(ctx, activities); err != nil {
		return nil, err
	}

	rows := make([]model.TaskActivity, len(activities))
	for i := range activities {
		rows[i] = *activities[i]
	}
	return s.assemble(ctx, rows)
}

func (s *activityService) Upload(ctx context.Context, taskID uint64, actor model.Actor, upload *AttachmentUpload) (*ActivityItem, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionUpload, taskID); err != nil {
		return nil, err
	}
	if upload == nil {
		return nil, ErrEmptyMessage
	}
	if !blob.AllowedExtension(upload.Filename) {
		return nil, ErrUnsupportedAttachment
	}

	ref := blob.BuildRef("project-task-activities/"+itoa(taskID), upload.Filename)
	if err := s.blobs.Put(ctx, ref, upload.ContentType, upload.Content); err != nil {
		return nil, err
	}

	activity := &model.TaskActivity{
		ProjectTaskID:  taskID,
		ActorType:      actor.Kind,
		ActorID:        actor.ID,
		Type:           model.ActivityUpload,
		AttachmentPath: &ref,
	}
	if err := s.activities.CreateAll(ctx, []*model.TaskActivity{activity}); err != nil {
		return nil, err
	}
	items, err := s.assemble(ctx, []model.TaskActivity{*activity})
	if err != nil {
		return nil, err
	}
	return &items[0], nil
}

func (s *activityService) ListActivities(ctx context.Context, taskID uint64, viewer model.Actor, limit int, afterID, beforeID *uint64) (*ActivityPage, error) {
	if err := s.authorize(ctx, viewer, ActionView, taskID); err != nil {
		return nil, err
	}
	if afterID != nil && beforeID != nil {
		return nil, ErrInvalidMessageReference
	}

	rows, err := s.activities.Page(ctx, taskID, clampLimit(limit), afterID, beforeID)
	if err != nil {
		return nil, err
	}

	page := &ActivityPage{Items: []ActivityItem{}}
	if afterID != nil {
		page.NextAfterID = *afterID
	}
	if beforeID != nil {
		page.NextBeforeID = *beforeID
	}
	if len(rows) == 0 {
		return page, nil
	}
	page.NextAfterID = rows[len(rows)-1].ID
	page.NextBeforeID = rows[0].ID
	page.Items, err = s.assemble(ctx, rows)
	if err != nil {
		return nil, err
	}
	return page, nil
}

func (s *activityService) OpenAttachment(ctx context.Context, taskID, activityID uint64, actor model.Actor) (blob.Attachment, io.ReadCloser, error) {
	if err := s.authorize(ctx, actor, ActionView, taskID); err != nil {
		return blob.Attachment{}, nil, err
	}

	activity, err := s.activities.FindInTask(ctx, taskID, activityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return blob.Attachment{}, nil, ErrNotFound
		}
		return blob.Attachment{}, nil, err
	}
	if activity.AttachmentPath == nil {
		return blob.Attachment{}, nil, ErrNotFound
	}
	att, err := blob.Resolve(ctx, s.blobs, *activity.AttachmentPath)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return att, nil, ErrNotFound
		}
		return att, nil, err
	}
	rc, err := s.blobs.OpenForRead(ctx, att.Ref)
	if err != nil {
		if errors.Is(err, blob.ErrNotFound) {
			return att, nil, ErrNotFound
		}
		return att, nil, err
	}
	return att, rc, nil
}

// Task activities form an immutable audit trail. Both mutations exist only
// to report that uniformly.
func (s *activityService) EditActivity(ctx context.Context, taskID, activityID uint64, actor model.Actor) error {
	if actor.Zero() {
		return ErrIdentityUnavailable
	}
	return ErrNotEditable
}

func (s *activityService) DeleteActivity(ctx context.Context, taskID, activityID uint64, actor model.Actor) error {
	if actor.Zero() {
		return ErrIdentityUnavailable
	}
	return ErrNotEditable
}

func (s *activityService) assemble(ctx context.Context, rows []model.TaskActivity) ([]ActivityItem, error) {
	actors := make([]model.Actor, 0, len(rows))
	seen := map[string]bool{}
	for i := range rows {
		actor := rows[i].Actor()
		if actor.Zero() || seen[actor.Key()] {
			continue
		}
		seen[actor.Key()] = true
		actors = append(actors, actor)
	}

	names, err := s.directory.Names(ctx, actors)
	if err != nil {
		return nil, err
	}
	statuses, err := s.presence.StatusFor(ctx, actors)
	if err != nil {
		return nil, err
	}

	items := make([]ActivityItem, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		actor := row.Actor()
		item := ActivityItem{
			ID:           row.ID,
			Type:         string(row.Type),
			AuthorName:   displayName(names, actor),
			AuthorType:   string(row.ActorType),
			AuthorID:     row.ActorID,
			AuthorStatus: string(statusOr(statuses, actor)),
			CreatedAt:    row.CreatedAt,
		}
		if row.Body != nil {
			item.Body = *row.Body
		}
		if row.LinkURL != nil {
			item.LinkURL = *row.LinkURL
		}
		if row.LinkHost != nil {
			item.LinkHost = *row.LinkHost
		}
		if row.AttachmentPath != nil {
			item.AttachmentRef = *row.AttachmentPath
			item.AttachmentName = blob.DownloadName(*row.AttachmentPath)
			item.AttachmentIsImage = blob.IsImage(*row.AttachmentPath)
		}
		items = append(items, item)
	}
	return items, nil
}

type extractedLink struct {
	url  string
	host string
}

// extractLinks returns each distinct URL in the text, in order of first
// appearance, with its host.
func extractLinks(text string) []extractedLink {
	matches := linkPattern.FindAllString(text, -1)
	seen := map[string]bool{}
	var links []extractedLink
	for _, match := range matches {
		if seen[match] {
			continue
		}
		seen[match] = true
		host := ""
		if u, err := url.Parse(match); err == nil {
			host = u.Host
		}
		links = append(links, extractedLink{url: match, host: host})
	}
	return links
}

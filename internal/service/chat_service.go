package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/atlasworks/projectfeed/internal/blob"
	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/atlasworks/projectfeed/internal/presence"
	"github.com/atlasworks/projectfeed/internal/repository"
	"gorm.io/gorm"
)

// editableWindow bounds how long a project-chat message stays editable and
// deletable by its author.
const editableWindow = 30 * time.Second

// duplicateWindow is the trailing window the duplicate-suppression filter
// scans. Retried attachmentless posts inside it echo the existing row.
const duplicateWindow = 5 * time.Second

var allowedEmojis = map[string]bool{
	"👍": true, "❤️": true, "😂": true, "😮": true, "🙏": true,
}

// AttachmentUpload carries one inbound attachment.
type AttachmentUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

type PostMessageInput struct {
	Body             string
	Attachment       *AttachmentUpload
	ReplyToMessageID uint64
}

type ChatService interface {
	PostMessage(ctx context.Context, projectID uint64, actor model.Actor, in PostMessageInput) (*FeedItem, error)
	// ListMessages cursors are nil when absent; an explicit afterID of 0
	// pages the conversation from the beginning.
	ListMessages(ctx context.Context, projectID uint64, viewer model.Actor, limit int, afterID, beforeID *uint64) (*FeedPage, error)
	EditMessage(ctx context.Context, projectID, messageID uint64, actor model.Actor, newBody string) (*FeedItem, error)
	DeleteMessage(ctx context.Context, projectID, messageID uint64, actor model.Actor) error
	TogglePin(ctx context.Context, projectID, messageID uint64, actor model.Actor) (*PinResult, error)
	ToggleReaction(ctx context.Context, projectID, messageID uint64, actor model.Actor, emoji string) ([]ReactionSummary, error)
	MarkRead(ctx context.Context, projectID uint64, actor model.Actor, lastReadID uint64) (*ReadResult, error)
	ReportPresence(ctx context.Context, actor model.Actor, status string) error
	OpenAttachment(ctx context.Context, projectID, messageID uint64, actor model.Actor) (blob.Attachment, io.ReadCloser, error)
}

type chatService struct {
	messages  repository.MessageRepository
	reads     repository.ReadRepository
	directory repository.DirectoryRepository
	sessions  repository.SessionRepository
	presence  *presence.Aggregator
	blobs     blob.Store
	perm      PermissionChecker
	now       func() time.Time
}

func NewChatService(
	messages repository.MessageRepository,
	reads repository.ReadRepository,
	directory repository.DirectoryRepository,
	sessions repository.SessionRepository,
	agg *presence.Aggregator,
	blobs blob.Store,
	perm PermissionChecker,
) ChatService {
	return &chatService{
		messages:  messages,
		reads:     reads,
		directory: directory,
		sessions:  sessions,
		presence:  agg,
		blobs:     blobs,
		perm:      perm,
		now:       time.Now,
	}
}

func (s *chatService) scope(projectID uint64) model.Scope {
	return model.Scope{Kind: model.ScopeProject, ID: projectID}
}

func (s *chatService) authorize(ctx context.Context, actor model.Actor, action Action, projectID uint64) error {
	if !s.perm.Allowed(ctx, actor, action, s.scope(projectID)) {
		return ErrForbidden
	}
	return nil
}

func (s *chatService) PostMessage(ctx context.Context, projectID uint64, actor model.Actor, in PostMessageInput) (*FeedItem, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionPost, projectID); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(in.Body)
	hasBody := body != ""

	if in.Attachment == nil && hasBody {
		dup, err := s.messages.FindRecentDuplicate(ctx, projectID, actor, body, s.now().Add(-duplicateWindow))
		if err != nil {
			return nil, err
		}
		if dup != nil {
			// Retried double-submit: echo the existing row instead of
			// writing a new one.
			return s.assembleOne(ctx, projectID, actor, dup)
		}
	}

	var attachmentRef *string
	if in.Attachment != nil {
		ref, err := s.storeAttachment(ctx, projectID, in.Attachment)
		if err != nil {
			return nil, err
		}
		attachmentRef = &ref
	}

	if !hasBody && attachmentRef == nil {
		return nil, ErrEmptyMessage
	}

	var replyTo *uint64
	if in.ReplyToMessageID > 0 {
		exists, err := s.messages.Exists(ctx, projectID, in.ReplyToMessageID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrInvalidMessageReference
		}
		id := in.ReplyToMessageID
		replyTo = &id
	}

	msg := &model.Message{
		ProjectID:        projectID,
		AuthorType:       actor.Kind,
		AuthorID:         actor.ID,
		AttachmentPath:   attachmentRef,
		ReplyToMessageID: replyTo,
	}
	if hasBody {
		msg.Body = &body
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return s.assembleOne(ctx, projectID, actor, msg)
}

func (s *chatService) storeAttachment(ctx context.Context, projectID uint64, upload *AttachmentUpload) (string, error) {
	if s.blobs == nil {
		return "", ErrNotFound
	}
	if !blob.AllowedExtension(upload.Filename) {
		return "", ErrUnsupportedAttachment
	}
	ref := blob.BuildRef(attachmentScope(projectID), upload.Filename)
	if err := s.blobs.Put(ctx, ref, upload.ContentType, upload.Content); err != nil {
		return "", err
	}
	return ref, nil
}

func attachmentScope(projectID uint64) string {
	return "project-messages/" + itoa(projectID)
}

func (s *chatService) ListMessages(ctx context.Context, projectID uint64, viewer model.Actor, limit int, afterID, beforeID *uint64) (*FeedPage, error) {
	if err := s.authorize(ctx, viewer, ActionView, projectID); err != nil {
		return nil, err
	}
	if afterID != nil && beforeID != nil {
		return nil, ErrInvalidMessageReference
	}
	limit = clampLimit(limit)

	msgs, err := s.messages.Page(ctx, projectID, limit, afterID, beforeID)
	if err != nil {
		return nil, err
	}
	return s.assemblePage(ctx, projectID, viewer, msgs, afterID, beforeID)
}

func (s *chatService) EditMessage(ctx context.Context, projectID, messageID uint64, actor model.Actor, newBody string) (*FeedItem, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionEdit, projectID); err != nil {
		return nil, err
	}

	msg, err := s.findInProject(ctx, projectID, messageID)
	if err != nil {
		return nil, err
	}
	if err := s.mutationGuard(msg, actor); err != nil {
		return nil, err
	}

	body := strings.TrimSpace(newBody)
	if body == "" && msg.AttachmentPath == nil {
		return nil, ErrEmptyMessage
	}
	var next *string
	if body != "" {
		next = &body
	}
	if err := s.messages.UpdateBody(ctx, msg, next); err != nil {
		return nil, err
	}
	return s.assembleOne(ctx, projectID, actor, msg)
}

func (s *chatService) DeleteMessage(ctx context.Context, projectID, messageID uint64, actor model.Actor) error {
	if actor.Zero() {
		return ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionDelete, projectID); err != nil {
		return err
	}

	msg, err := s.findInProject(ctx, projectID, messageID)
	if err != nil {
		return err
	}
	if err := s.mutationGuard(msg, actor); err != nil {
		return err
	}
	return s.messages.Delete(ctx, msg)
}

// mutationGuard enforces the original policy: only the author may edit or
// delete, and only within the editable window of sending.
func (s *chatService) mutationGuard(msg *model.Message, actor model.Actor) error {
	if msg.AuthorType != actor.Kind || msg.AuthorID != actor.ID {
		return ErrForbidden
	}
	if s.now().Sub(msg.CreatedAt) >= editableWindow {
		return ErrNotEditable
	}
	return nil
}

func (s *chatService) TogglePin(ctx context.Context, projectID, messageID uint64, actor model.Actor) (*PinResult, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionPin, projectID); err != nil {
		return nil, err
	}

	previous, pinned, err := s.messages.TogglePin(ctx, projectID, messageID, actor, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &PinResult{
		MessageID:        messageID,
		PreviousPinnedID: previous,
		PinnedMessageID:  pinned,
	}, nil
}

func (s *chatService) ToggleReaction(ctx context.Context, projectID, messageID uint64, actor model.Actor, emoji string) ([]ReactionSummary, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionReact, projectID); err != nil {
		return nil, err
	}
	if !allowedEmojis[emoji] {
		return nil, ErrInvalidMessageReference
	}

	if _, err := s.findInProject(ctx, projectID, messageID); err != nil {
		return nil, err
	}
	msg, err := s.messages.ToggleReaction(ctx, messageID, actor, emoji, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return reactionSummary(msg, actor), nil
}

func (s *chatService) MarkRead(ctx context.Context, projectID uint64, actor model.Actor, lastReadID uint64) (*ReadResult, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if err := s.authorize(ctx, actor, ActionRead, projectID); err != nil {
		return nil, err
	}

	if lastReadID > 0 {
		exists, err := s.messages.Exists(ctx, projectID, lastReadID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrInvalidMessageReference
		}
	} else {
		maxID, err := s.messages.MaxID(ctx, projectID)
		if err != nil {
			return nil, err
		}
		lastReadID = maxID
	}

	effective, err := s.reads.MarkRead(ctx, projectID, actor, lastReadID, s.now())
	if err != nil {
		return nil, err
	}
	unread, err := s.messages.CountAfter(ctx, projectID, effective)
	if err != nil {
		return nil, err
	}
	return &ReadResult{LastReadID: effective, UnreadCount: unread}, nil
}

func (s *chatService) ReportPresence(ctx context.Context, actor model.Actor, status string) error {
	if actor.Zero() {
		return ErrIdentityUnavailable
	}
	s.presence.Report(actor, status)
	return s.sessions.Touch(ctx, actor, s.now())
}

func (s *chatService) OpenAttachment(ctx context.Context, projectID, messageID uint64, actor model.Actor) (blob.Attachment, io.ReadCloser, error) {
	if err := s.authorize(ctx, actor, ActionView, projectID); err != nil {
		return blob.Attachment{}, nil, err
	}

	msg, err := s.findInProject(ctx, projectID, messageID)
	if err != nil {
		return blob.Attachment{}, nil, err
	}
	if msg.AttachmentPath == nil {
		return blob.Attachment{}, nil, ErrNotFound
	}
	att, err := blob.Resolve(ctx, s.blobs, *msg.AttachmentPath)
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

func (s *chatService) findInProject(ctx context.Context, projectID, messageID uint64) (*model.Message, error) {
	msg, err := s.messages.FindInProject(ctx, projectID, messageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return msg, nil
}

// assemblePage decorates a page of messages with receipts, presence, and
// author names using one batched lookup per concern.
func (s *chatService) assemblePage(ctx context.Context, projectID uint64, viewer model.Actor, msgs []model.Message, afterID, beforeID *uint64) (*FeedPage, error) {
	latestID, err := s.messages.MaxID(ctx, projectID)
	if err != nil {
		return nil, err
	}

	page := &FeedPage{
		Items:           make([]FeedItem, 0, len(msgs)),
		LatestMessageID: latestID,
	}
	if afterID != nil {
		page.NextAfterID = *afterID
	}
	if beforeID != nil {
		page.NextBeforeID = *beforeID
	}
	if latestID > 0 {
		mark, err := s.allParticipantsReadUpTo(ctx, projectID, viewer)
		if err != nil {
			return nil, err
		}
		page.AllParticipantsReadUpTo = mark
	}
	if len(msgs) == 0 {
		return page, nil
	}

	minID := msgs[0].ID
	maxID := msgs[len(msgs)-1].ID
	page.NextAfterID = maxID
	page.NextBeforeID = minID

	readers, marks, err := s.receiptsFor(ctx, projectID, minID, viewer)
	if err != nil {
		return nil, err
	}

	authors := distinctAuthors(msgs)
	statuses, err := s.presence.StatusFor(ctx, authors)
	if err != nil {
		return nil, err
	}
	names, err := s.directory.Names(ctx, append(authors, readers...))
	if err != nil {
		return nil, err
	}

	replyBodies, err := s.replyBodies(ctx, projectID, msgs)
	if err != nil {
		return nil, err
	}

	for i := range msgs {
		item := s.feedItem(&msgs[i], viewer, names, statuses, replyBodies)
		item.SeenBy = seenByNames(msgs[i].ID, readers, marks, names)
		page.Items = append(page.Items, item)
	}
	return page, nil
}

func (s *chatService) assembleOne(ctx context.Context, projectID uint64, viewer model.Actor, msg *model.Message) (*FeedItem, error) {
	page, err := s.assemblePage(ctx, projectID, viewer, []model.Message{*msg}, nil, nil)
	if err != nil {
		return nil, err
	}
	item := page.Items[0]
	return &item, nil
}

func (s *chatService) feedItem(
	msg *model.Message,
	viewer model.Actor,
	names map[string]string,
	statuses map[string]presence.Status,
	replyBodies map[uint64]string,
) FeedItem {
	author := msg.Author()
	item := FeedItem{
		ID:           msg.ID,
		AuthorName:   displayName(names, author),
		AuthorType:   string(msg.AuthorType),
		AuthorID:     msg.AuthorID,
		AuthorStatus: string(statusOr(statuses, author)),
		Body:         msg.BodyText(),
		CreatedAt:    msg.CreatedAt,
		UpdatedAt:    msg.UpdatedAt,
		IsPinned:     msg.IsPinned,
		SeenBy:       []string{},
		Reactions:    reactionSummary(msg, viewer),
		CanEdit:      msg.AuthorType == viewer.Kind && msg.AuthorID == viewer.ID,
	}
	if msg.AttachmentPath != nil {
		item.AttachmentRef = *msg.AttachmentPath
		item.AttachmentName = blob.DownloadName(*msg.AttachmentPath)
		item.AttachmentIsImage = blob.IsImage(*msg.AttachmentPath)
	}
	if msg.ReplyToMessageID != nil {
		item.ReplyToMessageID = *msg.ReplyToMessageID
		item.ReplyToMessageText = replyBodies[*msg.ReplyToMessageID]
	}
	return item
}

// receiptsFor returns the readers whose watermark reaches into the page and
// their per-reader watermarks. The viewer is excluded.
func (s *chatService) receiptsFor(ctx context.Context, projectID, minID uint64, viewer model.Actor) ([]model.Actor, map[string]uint64, error) {
	reads, err := s.reads.ReadsAtOrAbove(ctx, projectID, minID)
	if err != nil {
		return nil, nil, err
	}

	marks := map[string]uint64{}
	var readers []model.Actor
	for _, read := range reads {
		reader := read.Reader()
		if reader.Zero() {
			continue
		}
		if !viewer.Zero() && reader == viewer {
			continue
		}
		key := reader.Key()
		if _, ok := marks[key]; !ok {
			readers = append(readers, reader)
		}
		if read.LastReadMessageID > marks[key] {
			marks[key] = read.LastReadMessageID
		}
	}
	return readers, marks, nil
}

// seenByNames lists the readers whose watermark covers the given message.
func seenByNames(messageID uint64, readers []model.Actor, marks map[string]uint64, names map[string]string) []string {
	seen := make([]string, 0, len(readers))
	for _, reader := range readers {
		if marks[reader.Key()] >= messageID {
			seen = append(seen, displayName(names, reader))
		}
	}
	return seen
}

func (s *chatService) allParticipantsReadUpTo(ctx context.Context, projectID uint64, viewer model.Actor) (*ReadUpToMark, error) {
	authors, err := s.messages.DistinctAuthors(ctx, projectID)
	if err != nil {
		return nil, err
	}

	participants := authors[:0]
	for _, author := range authors {
		if !viewer.Zero() && author == viewer {
			continue
		}
		participants = append(participants, author)
	}
	if len(participants) == 0 {
		return nil, nil
	}

	marks, err := s.reads.WatermarkMap(ctx, projectID)
	if err != nil {
		return nil, err
	}

	var minMark uint64
	for i, participant := range participants {
		mark, ok := marks[participant.Key()]
		if !ok {
			// One participant never acknowledged anything: no universal
			// catch-up claim can be made.
			return nil, nil
		}
		if i == 0 || mark < minMark {
			minMark = mark
		}
	}
	if minMark == 0 {
		return nil, nil
	}

	msg, err := s.messages.FindInProject(ctx, projectID, minMark)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ReadUpToMark{
		MessageID: msg.ID,
		Label:     msg.CreatedAt.Format(time.RFC3339),
	}, nil
}

func (s *chatService) replyBodies(ctx context.Context, projectID uint64, msgs []model.Message) (map[uint64]string, error) {
	bodies := map[uint64]string{}
	for i := range msgs {
		id := msgs[i].ReplyToMessageID
		if id == nil {
			continue
		}
		if _, ok := bodies[*id]; ok {
			continue
		}
		parent, err := s.messages.FindInProject(ctx, projectID, *id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		bodies[*id] = parent.BodyText()
	}
	return bodies, nil
}

func reactionSummary(msg *model.Message, viewer model.Actor) []ReactionSummary {
	byEmoji := map[string]*ReactionSummary{}
	for _, reaction := range msg.Reactions {
		if reaction.Emoji == "" {
			continue
		}
		entry, ok := byEmoji[reaction.Emoji]
		if !ok {
			entry = &ReactionSummary{Emoji: reaction.Emoji}
			byEmoji[reaction.Emoji] = entry
		}
		entry.Count++
		if reaction.AuthorType == viewer.Kind && reaction.AuthorID == viewer.ID {
			entry.Reacted = true
		}
	}
	summaries := make([]ReactionSummary, 0, len(byEmoji))
	for _, entry := range byEmoji {
		summaries = append(summaries, *entry)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Emoji < summaries[j].Emoji
	})
	return summaries
}

func distinctAuthors(msgs []model.Message) []model.Actor {
	seen := map[string]bool{}
	var authors []model.Actor
	for i := range msgs {
		author := msgs[i].Author()
		if author.Zero() || seen[author.Key()] {
			continue
		}
		seen[author.Key()] = true
		authors = append(authors, author)
	}
	return authors
}

func displayName(names map[string]string, actor model.Actor) string {
	if name, ok := names[actor.Key()]; ok && name != "" {
		return name
	}
	switch actor.Kind {
	case model.ActorEmployee:
		return "Employee #" + itoa(actor.ID)
	case model.ActorSalesRep:
		return "Sales Rep #" + itoa(actor.ID)
	default:
		return "User #" + itoa(actor.ID)
	}
}

func statusOr(statuses map[string]presence.Status, actor model.Actor) presence.Status {
	if status, ok := statuses[actor.Key()]; ok {
		return status
	}
	return presence.StatusOffline
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return 30
	}
	if limit > 100 {
		return 100
	}
	return limit
}

func itoa(v uint64) string {
	return strconv.FormatUint(v, 10)
}

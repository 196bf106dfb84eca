package service

import (
	"context"

	"github.com/atlasworks/projectfeed/internal/ai"
	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/atlasworks/projectfeed/internal/repository"
	"github.com/atlasworks/projectfeed/internal/reqctx"
)

const digestMaxMessages = 100

// Summarizer produces a digest from a prepared transcript.
type Summarizer interface {
	Summarize(ctx context.Context, tone string, lines []ai.TranscriptLine) (ai.Digest, error)
}

// DigestResult is the conversation digest returned to the caller.
type DigestResult struct {
	Summary       string   `json:"summary"`
	ActionItems   []string `json:"action_items"`
	MessageCount  int      `json:"message_count"`
	FromMessageID uint64   `json:"from_message_id"`
	ToMessageID   uint64   `json:"to_message_id"`
}

type SummaryService interface {
	// DigestUnread summarizes the caller's unread messages, or the latest
	// page of the conversation when nothing is unread.
	DigestUnread(ctx context.Context, projectID uint64, actor model.Actor, tone string) (*DigestResult, error)
}

type summaryService struct {
	messages   repository.MessageRepository
	reads      repository.ReadRepository
	directory  repository.DirectoryRepository
	summarizer Summarizer
	perm       PermissionChecker
}

func NewSummaryService(
	messages repository.MessageRepository,
	reads repository.ReadRepository,
	directory repository.DirectoryRepository,
	summarizer Summarizer,
	perm PermissionChecker,
) SummaryService {
	return &summaryService{
		messages:   messages,
		reads:      reads,
		directory:  directory,
		summarizer: summarizer,
		perm:       perm,
	}
}

func (s *summaryService) DigestUnread(ctx context.Context, projectID uint64, actor model.Actor, tone string) (*DigestResult, error) {
	if actor.Zero() {
		return nil, ErrIdentityUnavailable
	}
	if !s.perm.Allowed(ctx, actor, ActionView, model.Scope{Kind: model.ScopeProject, ID: projectID}) {
		return nil, ErrForbidden
	}

	marks, err := s.reads.WatermarkMap(ctx, projectID)
	if err != nil {
		return nil, err
	}
	watermark := marks[actor.Key()]

	msgs, err := s.messages.Page(ctx, projectID, digestMaxMessages, &watermark, nil)
	if err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		msgs, err = s.messages.Page(ctx, projectID, 30, nil, nil)
		if err != nil {
			return nil, err
		}
	}
	if len(msgs) == 0 {
		return nil, ErrNotFound
	}

	names, err := s.directory.Names(ctx, distinctAuthors(msgs))
	if err != nil {
		return nil, err
	}

	lines := make([]ai.TranscriptLine, 0, len(msgs))
	for i := range msgs {
		body := msgs[i].BodyText()
		if body == "" {
			continue
		}
		lines = append(lines, ai.TranscriptLine{
			Author: displayName(names, msgs[i].Author()),
			SentAt: msgs[i].CreatedAt,
			Body:   body,
		})
	}
	if len(lines) == 0 {
		return nil, ErrNotFound
	}

	ctx = reqctx.WithProjectID(ctx, projectID)
	digest, err := s.summarizer.Summarize(ctx, tone, lines)
	if err != nil {
		return nil, err
	}

	result := &DigestResult{
		Summary:       digest.Summary,
		ActionItems:   digest.ActionItems,
		MessageCount:  len(lines),
		FromMessageID: msgs[0].ID,
		ToMessageID:   msgs[len(msgs)-1].ID,
	}
	if result.ActionItems == nil {
		result.ActionItems = []string{}
	}
	return result, nil
}

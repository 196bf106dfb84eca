package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atlasworks/projectfeed/internal/ai"
)

type fakeSummarizer struct {
	gotTone  string
	gotLines []ai.TranscriptLine
	digest   ai.Digest
	err      error
}

func (s *fakeSummarizer) Summarize(_ context.Context, tone string, lines []ai.TranscriptLine) (ai.Digest, error) {
	s.gotTone = tone
	s.gotLines = lines
	return s.digest, s.err
}

func TestDigestUnread(t *testing.T) {
	setup := func(t *testing.T) (*chatFixture, *fakeSummarizer, SummaryService) {
		f := newChatFixture(t)
		sum := &fakeSummarizer{digest: ai.Digest{Summary: "three updates", ActionItems: []string{"reply to bob"}}}
		directory := &fakeDirectoryRepo{names: map[string]string{alice.Key(): "Alice", bob.Key(): "Bob"}}
		svc := NewSummaryService(f.msgs, f.reads, directory, sum, AllowAll{})
		return f, sum, svc
	}

	t.Run("summarizes only unread", func(t *testing.T) {
		f, sum, svc := setup(t)
		f.post(t, alice, "old news")
		f.now = f.now.Add(10 * time.Second)
		if _, err := f.svc.MarkRead(context.Background(), 1, bob, 0); err != nil {
			t.Fatalf("mark: %v", err)
		}
		f.post(t, alice, "fresh update")

		res, err := svc.DigestUnread(context.Background(), 1, bob, "brief")
		if err != nil {
			t.Fatalf("digest: %v", err)
		}
		if len(sum.gotLines) != 1 || sum.gotLines[0].Body != "fresh update" {
			t.Fatalf("lines=%+v", sum.gotLines)
		}
		if sum.gotLines[0].Author != "Alice" {
			t.Fatalf("author=%q", sum.gotLines[0].Author)
		}
		if res.Summary != "three updates" || len(res.ActionItems) != 1 || res.MessageCount != 1 {
			t.Fatalf("res=%+v", res)
		}
	})

	t.Run("falls back to recent when caught up", func(t *testing.T) {
		f, sum, svc := setup(t)
		f.post(t, alice, "only message")
		if _, err := f.svc.MarkRead(context.Background(), 1, bob, 0); err != nil {
			t.Fatalf("mark: %v", err)
		}

		if _, err := svc.DigestUnread(context.Background(), 1, bob, "detailed"); err != nil {
			t.Fatalf("digest: %v", err)
		}
		if len(sum.gotLines) != 1 || sum.gotTone != "detailed" {
			t.Fatalf("lines=%d tone=%q", len(sum.gotLines), sum.gotTone)
		}
	})

	t.Run("empty conversation", func(t *testing.T) {
		_, _, svc := setup(t)
		if _, err := svc.DigestUnread(context.Background(), 1, bob, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err=%v want ErrNotFound", err)
		}
	})

	t.Run("summarizer failure propagates", func(t *testing.T) {
		f, sum, svc := setup(t)
		sum.err = errors.New("quota exceeded")
		sum.digest = ai.Digest{}
		f.post(t, alice, "something")
		if _, err := svc.DigestUnread(context.Background(), 1, bob, ""); err == nil {
			t.Fatal("expected error")
		}
	})
}

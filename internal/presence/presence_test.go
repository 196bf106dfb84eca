package presence

import (
	"context"
	"testing"
	"time"

	"github.com/atlasworks/projectfeed/internal/model"
	"gorm.io/gorm"
)

type stubSessions struct {
	lastSeen map[string]time.Time
}

func (s *stubSessions) SetDB(*gorm.DB) {}

func (s *stubSessions) LastSeenActive(_ context.Context, actors []model.Actor) (map[string]time.Time, error) {
	out := map[string]time.Time{}
	for _, actor := range actors {
		if t, ok := s.lastSeen[actor.Key()]; ok {
			out[actor.Key()] = t
		}
	}
	return out, nil
}

func (s *stubSessions) Touch(context.Context, model.Actor, time.Time) error { return nil }

func TestStatusFor(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	active := model.Actor{Kind: model.ActorEmployee, ID: 1}
	idle := model.Actor{Kind: model.ActorEmployee, ID: 2}
	stale := model.Actor{Kind: model.ActorUser, ID: 3}
	recentSession := model.Actor{Kind: model.ActorUser, ID: 4}
	oldSession := model.Actor{Kind: model.ActorSalesRep, ID: 5}
	ancient := model.Actor{Kind: model.ActorSalesRep, ID: 6}
	unknown := model.Actor{Kind: model.ActorUser, ID: 7}

	sessions := &stubSessions{lastSeen: map[string]time.Time{
		recentSession.Key(): now.Add(-time.Minute),
		oldSession.Key():    now.Add(-5 * time.Minute),
		ancient.Key():       now.Add(-time.Hour),
	}}
	agg := NewAggregator(sessions)
	agg.now = func() time.Time { return now }

	agg.Report(active, "active")
	agg.Report(idle, "idle")
	agg.now = func() time.Time { return now.Add(-2 * time.Minute) }
	agg.Report(stale, "active")
	agg.now = func() time.Time { return now }

	got, err := agg.StatusFor(context.Background(), []model.Actor{
		active, idle, stale, recentSession, oldSession, ancient, unknown,
	})
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}

	want := map[string]Status{
		active.Key():        StatusOnline,
		idle.Key():          StatusAway,
		stale.Key():         StatusOffline,
		recentSession.Key(): StatusOnline,
		oldSession.Key():    StatusAway,
		ancient.Key():       StatusOffline,
		unknown.Key():       StatusOffline,
	}
	for key, status := range want {
		if got[key] != status {
			t.Errorf("%s: got %s want %s", key, got[key], status)
		}
	}
}

func TestReportExpiry(t *testing.T) {
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	actor := model.Actor{Kind: model.ActorEmployee, ID: 1}
	sessions := &stubSessions{lastSeen: map[string]time.Time{}}
	agg := NewAggregator(sessions)
	agg.now = func() time.Time { return now }
	agg.Report(actor, "active")

	// Past the cache TTL the report is dropped and the session table, which
	// has nothing, decides.
	agg.now = func() time.Time { return now.Add(6 * time.Minute) }
	got, err := agg.StatusFor(context.Background(), []model.Actor{actor})
	if err != nil {
		t.Fatalf("StatusFor: %v", err)
	}
	if got[actor.Key()] != StatusOffline {
		t.Fatalf("status=%s want offline", got[actor.Key()])
	}
	if len(agg.reports) != 0 {
		t.Fatalf("reports=%d want 0", len(agg.reports))
	}
}

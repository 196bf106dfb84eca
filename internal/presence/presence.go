// Package presence classifies actors as online, away, or offline.
//
// Two inputs feed the classification: statuses the clients report explicitly
// (kept in a short-lived in-process cache) and, for actors with no recent
// report, the session table's last_seen_at. Presence is advisory feed
// decoration; it never blocks a message operation.
package presence

import (
	"context"
	"sync"
	"time"

	"github.com/atlasworks/projectfeed/internal/model"
	"github.com/atlasworks/projectfeed/internal/repository"
)

type Status string

const (
	StatusOnline  Status = "online"
	StatusAway    Status = "away"
	StatusOffline Status = "offline"
)

const (
	reportTTL    = 5 * time.Minute
	reportGrace  = 30 * time.Second
	onlineWindow = 90 * time.Second
	awayWindow   = 15 * time.Minute
)

type report struct {
	status   Status
	lastSeen time.Time
}

type Aggregator struct {
	sessions repository.SessionRepository
	now      func() time.Time

	mu      sync.Mutex
	reports map[string]report
}

func NewAggregator(sessions repository.SessionRepository) *Aggregator {
	return &Aggregator{
		sessions: sessions,
		now:      time.Now,
		reports:  make(map[string]report),
	}
}

// Report records a client-declared status for the actor. "idle" maps to away,
// anything else to online.
func (a *Aggregator) Report(actor model.Actor, declared string) {
	if actor.Zero() {
		return
	}
	status := StatusOnline
	if declared == "idle" {
		status = StatusAway
	}
	a.mu.Lock()
	a.reports[actor.Key()] = report{status: status, lastSeen: a.now()}
	a.mu.Unlock()
}

// StatusFor classifies each actor. Reported statuses win while fresh; stale
// ones within the cache TTL degrade to offline; actors without any report
// fall back to their most recent active session.
func (a *Aggregator) StatusFor(ctx context.Context, actors []model.Actor) (map[string]Status, error) {
	now := a.now()
	statuses := make(map[string]Status, len(actors))
	var missing []model.Actor

	a.mu.Lock()
	for _, actor := range actors {
		if actor.Zero() {
			continue
		}
		key := actor.Key()
		entry, ok := a.reports[key]
		if !ok || now.Sub(entry.lastSeen) > reportTTL {
			delete(a.reports, key)
			missing = append(missing, actor)
			continue
		}
		if now.Sub(entry.lastSeen) > reportGrace {
			statuses[key] = StatusOffline
			continue
		}
		statuses[key] = entry.status
	}
	a.mu.Unlock()

	if len(missing) == 0 {
		return statuses, nil
	}

	seen, err := a.sessions.LastSeenActive(ctx, missing)
	if err != nil {
		return nil, err
	}
	for _, actor := range missing {
		statuses[actor.Key()] = classify(seen, actor, now)
	}
	return statuses, nil
}

func classify(seen map[string]time.Time, actor model.Actor, now time.Time) Status {
	lastSeen, ok := seen[actor.Key()]
	if !ok {
		return StatusOffline
	}
	age := now.Sub(lastSeen)
	switch {
	case age <= onlineWindow:
		return StatusOnline
	case age <= awayWindow:
		return StatusAway
	default:
		return StatusOffline
	}
}

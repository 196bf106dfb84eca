package model

// ScopeKind distinguishes project-level chat from task-level activity.
type ScopeKind string

const (
	ScopeProject ScopeKind = "project"
	ScopeTask    ScopeKind = "task"
)

// Scope names one conversation. Messages never move between scopes.
type Scope struct {
	Kind ScopeKind
	ID   uint64
}

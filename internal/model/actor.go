package model

import "fmt"

// ActorKind is the closed set of principals that can author or read feed
// entries. Switches over it must be exhaustive.
type ActorKind string

const (
	ActorUser     ActorKind = "user"
	ActorEmployee ActorKind = "employee"
	ActorSalesRep ActorKind = "sales_rep"
)

func (k ActorKind) Valid() bool {
	switch k {
	case ActorUser, ActorEmployee, ActorSalesRep:
		return true
	}
	return false
}

// Actor is a canonical (kind, id) authorship pair.
type Actor struct {
	Kind ActorKind
	ID   uint64
}

// Key returns the "kind:id" form used for presence and receipt maps.
func (a Actor) Key() string {
	return fmt.Sprintf("%s:%d", a.Kind, a.ID)
}

func (a Actor) Zero() bool {
	return a.ID == 0 || !a.Kind.Valid()
}

// Package identity maps an inbound request's authenticated principals to one
// canonical actor. A request may carry at most one employee, one sales rep,
// and one end-user; precedence is employee > sales rep > user.
package identity

import (
	"errors"

	"github.com/atlasworks/projectfeed/internal/model"
)

var ErrIdentityUnavailable = errors.New("identity unavailable")

// Context carries the principals the auth layer resolved for a request.
// Zero values mean "not present".
type Context struct {
	EmployeeID uint64
	SalesRepID uint64
	UserID     uint64
}

// Resolve returns the canonical actor for the request, or
// ErrIdentityUnavailable when no principal is present.
func Resolve(ctx Context) (model.Actor, error) {
	if ctx.EmployeeID > 0 {
		return model.Actor{Kind: model.ActorEmployee, ID: ctx.EmployeeID}, nil
	}
	if ctx.SalesRepID > 0 {
		return model.Actor{Kind: model.ActorSalesRep, ID: ctx.SalesRepID}, nil
	}
	if ctx.UserID > 0 {
		return model.Actor{Kind: model.ActorUser, ID: ctx.UserID}, nil
	}
	return model.Actor{}, ErrIdentityUnavailable
}

// ResolveOptional is Resolve for view-only calls: a missing identity yields a
// zero actor instead of an error. The zero actor is only ever used to exclude
// "self" from receipt lists.
func ResolveOptional(ctx Context) model.Actor {
	actor, err := Resolve(ctx)
	if err != nil {
		return model.Actor{}
	}
	return actor
}

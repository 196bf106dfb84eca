package service

import (
	"context"

	"github.com/atlasworks/projectfeed/internal/model"
)

// Action names the operation a permission check guards.
type Action string

const (
	ActionView    Action = "view"
	ActionPost    Action = "post"
	ActionEdit    Action = "edit"
	ActionDelete  Action = "delete"
	ActionPin     Action = "pin"
	ActionReact   Action = "react"
	ActionRead    Action = "read"
	ActionComment Action = "comment"
	ActionUpload  Action = "upload"
)

// PermissionChecker is the opaque authorization capability. Policy evaluation
// lives outside this core; every operation consults it before touching the
// store.
type PermissionChecker interface {
	Allowed(ctx context.Context, actor model.Actor, action Action, scope model.Scope) bool
}

// AllowAll grants everything. Default wiring for deployments that enforce
// authorization at the gateway.
type AllowAll struct{}

func (AllowAll) Allowed(context.Context, model.Actor, Action, model.Scope) bool {
	return true
}

package service

import "errors"

// Terminal, caller-visible outcomes. None are retried internally.
var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("forbidden")
	ErrEmptyMessage            = errors.New("message cannot be empty")
	ErrNotEditable             = errors.New("entry is not editable")
	ErrInvalidMessageReference = errors.New("invalid message reference")
	ErrUnsupportedAttachment   = errors.New("attachment type is not supported")
	ErrIdentityUnavailable     = errors.New("identity unavailable")
)

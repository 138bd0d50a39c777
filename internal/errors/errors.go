package errors

import "github.com/pkg/errors"

var (
	// configuration errors
	ErrMissingConfig = errors.New("missing required configuration")
	ErrRoleNotFound  = errors.New("role not found")

	// store errors
	ErrDuplicate = errors.New("record already exists")

	// transport errors
	ErrNotConnected = errors.New("imap session not connected")
)

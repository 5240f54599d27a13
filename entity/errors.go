package entity

import "errors"

var (
	// ErrNotFound is returned by store lookups when no row matches.
	ErrNotFound = errors.New("not found")

	// ErrRecipientUnreachable marks private sends that fail because the
	// recipient never started a conversation with the bot (or blocked it).
	// Callers show the "start a conversation first" guidance for this class.
	ErrRecipientUnreachable = errors.New("recipient unreachable")

	// ErrPermissionDenied marks sends rejected by chat permissions.
	ErrPermissionDenied = errors.New("permission denied")
)

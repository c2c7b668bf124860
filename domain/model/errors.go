package model

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidAccount      = errors.New("invalid account")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrInvalidToken        = errors.New("invalid token")
	ErrUnsupportedPlatform = errors.New("unsupported platform")
	ErrNotConfigured       = errors.New("not configured")
	ErrUnsupportedContent  = errors.New("unsupported content")
	ErrSignatureMismatch   = errors.New("signature mismatch")

	// OAuth state failures. ErrStateMissing usually means the platform's
	// authorize page was opened directly rather than from the app.
	ErrStateMissing = errors.New("authorization was not initiated through the app")
	ErrStateInvalid = errors.New("state invalid")
	ErrStateExpired = errors.New("state expired")
)

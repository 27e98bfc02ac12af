package domain

import "errors"

var (
	ErrSessionBusy     = errors.New("a session is already starting or active")
	ErrNoActiveSession = errors.New("no active session")
	ErrSurfaceMissing  = errors.New("no drawing surface bound")
	ErrStreamMetadata  = errors.New("invalid stream metadata")
)

package web

import "errors"

var (
	ErrServerAlreadyStarted = errors.New("web: server already started")
	ErrServerNotStarted     = errors.New("web: server not started")
)

package event

import "errors"

var (
	ErrMissingActor = errors.New("missing actor login")
	ErrUnroutable   = errors.New("unroutable event")
)

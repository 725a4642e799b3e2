package models

import (
	"errors"

	"livelox_dl/internal/geo"
	"livelox_dl/internal/render"
)

var (
	// ErrMissingIdentifier means the input URL has no usable classId.
	ErrMissingIdentifier = errors.New("missing class identifier")
	// ErrUpstreamUnreachable means Livelox or the map host could not be reached
	// or answered with an error status.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")
	// ErrMalformedUpstreamData means a Livelox response lacked expected fields.
	ErrMalformedUpstreamData = errors.New("malformed upstream data")

	ErrInvalidGeometry = geo.ErrInvalidGeometry
	ErrRenderFailure   = render.ErrRenderFailure
)

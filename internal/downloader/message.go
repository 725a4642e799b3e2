package downloader

import (
	"context"
	"errors"

	"livelox_dl/internal/models"
)

// Message turns an error from Run into a short sentence for the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, models.ErrMissingIdentifier):
		return "could not find a class id, the URL must include classId=xxxxxx"
	case errors.Is(err, context.DeadlineExceeded):
		return "Livelox did not answer in time"
	case errors.Is(err, context.Canceled):
		return "download cancelled"
	case errors.Is(err, models.ErrUpstreamUnreachable):
		return "could not reach Livelox, check the URL and your connection"
	case errors.Is(err, models.ErrMalformedUpstreamData):
		return "could not understand the data returned by Livelox"
	case errors.Is(err, models.ErrInvalidGeometry):
		return "the map has an invalid georeference and cannot be drawn on"
	case errors.Is(err, models.ErrRenderFailure):
		return "could not render the map"
	default:
		return "unexpected error: " + err.Error()
	}
}

package livelox

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/cavaliergopher/grab/v3"
	_ "golang.org/x/image/webp"

	"livelox_dl/internal/logging"
	"livelox_dl/internal/models"
	"livelox_dl/internal/version"
)

// ImageLoader downloads map images into memory and decodes them.
type ImageLoader struct {
	client *grab.Client
}

// NewImageLoader returns a loader sharing c's HTTP client and request
// pacing.
func NewImageLoader(c *Client) *ImageLoader {
	gc := grab.NewClient()
	gc.HTTPClient = c.doer()
	gc.UserAgent = version.UserAgent()
	return &ImageLoader{client: gc}
}

// Load downloads the image at mapURL. formatHint is the format Livelox
// announced and is only used for logging when it disagrees with the data.
func (l *ImageLoader) Load(ctx context.Context, mapURL, formatHint string) (image.Image, error) {
	log := logging.GetFromContext(ctx)

	req, err := grab.NewRequest("", mapURL)
	if err != nil {
		return nil, fmt.Errorf("%w: map url: %v", models.ErrMalformedUpstreamData, err)
	}
	req.NoStore = true
	req = req.WithContext(ctx)

	log.Debug().Str("url", mapURL).Msg("downloading map image")
	resp := l.client.Do(req)
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("%w: map image: %w", models.ErrUpstreamUnreachable, err)
	}
	data, err := resp.Bytes()
	if err != nil {
		return nil, fmt.Errorf("%w: map image: %v", models.ErrUpstreamUnreachable, err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding map image: %v", models.ErrMalformedUpstreamData, err)
	}
	if formatHint != "" && !sameFormat(formatHint, format) {
		log.Debug().Str("announced", formatHint).Str("decoded", format).Msg("map image format mismatch")
	}

	b := img.Bounds()
	log.Info().
		Int("width", b.Dx()).
		Int("height", b.Dy()).
		Str("format", format).
		Int("bytes", len(data)).
		Msg("map image downloaded")
	return img, nil
}

func sameFormat(hint, decoded string) bool {
	switch hint {
	case "jpg":
		hint = "jpeg"
	}
	return hint == decoded
}

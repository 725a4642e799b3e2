// Package downloader turns a Livelox viewer URL into a rendered map file.
package downloader

import (
	"context"
	"fmt"
	"image"

	"livelox_dl/internal/livelox"
	"livelox_dl/internal/logging"
	"livelox_dl/internal/models"
	"livelox_dl/internal/output"
	"livelox_dl/internal/publish"
	"livelox_dl/internal/render"
)

type EventFetcher interface {
	FetchEvent(ctx context.Context, classID int) (*models.Event, error)
}

type ImageLoader interface {
	Load(ctx context.Context, mapURL, formatHint string) (image.Image, error)
}

type FileWriter interface {
	Write(ctx context.Context, name string, data []byte) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, m publish.Map) error
}

// Settings tunes a Downloader. Publisher may be nil.
type Settings struct {
	Render    render.Options
	Quality   int
	Publisher Publisher
}

type Downloader struct {
	events   EventFetcher
	images   ImageLoader
	files    FileWriter
	settings Settings
}

func New(events EventFetcher, images ImageLoader, files FileWriter, settings Settings) *Downloader {
	return &Downloader{
		events:   events,
		images:   images,
		files:    files,
		settings: settings,
	}
}

// Run downloads and renders the map of the class referenced by viewerURL
// and returns the path of the written file. Nothing is written unless
// rendering and encoding succeed. A failed publish is logged only.
func (d *Downloader) Run(ctx context.Context, viewerURL string) (string, error) {
	log := logging.GetFromContext(ctx)

	classID, err := livelox.ParseClassID(viewerURL)
	if err != nil {
		return "", err
	}
	log.Info().Int("classId", classID).Msg("class id found")

	event, err := d.events.FetchEvent(ctx, classID)
	if err != nil {
		return "", fmt.Errorf("fetching class %d: %w", classID, err)
	}
	for _, c := range event.Courses {
		log.Debug().Str("course", c.Name).Int("controls", len(c.Controls)).Msg("course")
	}

	src, err := d.images.Load(ctx, event.MapURL, event.ImageFormat)
	if err != nil {
		return "", fmt.Errorf("loading map %q: %w", event.MapName, err)
	}

	result, err := render.Render(src, event.Quad, event.Resolution, event.Routes(), d.settings.Render)
	if err != nil {
		return "", fmt.Errorf("rendering map %q: %w", event.MapName, err)
	}

	data, err := output.EncodeJPEG(result.Image, d.settings.Quality)
	if err != nil {
		return "", err
	}

	name := output.Filename(event.MapName, result.Bounds)
	path, err := d.files.Write(ctx, name, data)
	if err != nil {
		return "", err
	}

	if d.settings.Publisher != nil {
		m := publish.Map{
			ClassID:   event.ClassID,
			EventName: event.EventName,
			MapName:   event.MapName,
			Courses:   courseNames(event.Courses),
			Bounds:    result.Bounds,
			Filename:  name,
			Data:      data,
		}
		if err := d.settings.Publisher.Publish(ctx, m); err != nil {
			log.Warn().Err(err).Msg("failed to publish map")
		}
	}

	return path, nil
}

func courseNames(courses []models.Course) []string {
	names := make([]string, 0, len(courses))
	for _, c := range courses {
		if c.Name != "" {
			names = append(names, c.Name)
		}
	}
	return names
}

// Package livelox talks to the Livelox viewer backend: it resolves a class
// id into event metadata and downloads the map image.
package livelox

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"livelox_dl/internal/geo"
	"livelox_dl/internal/logging"
	"livelox_dl/internal/models"
	"livelox_dl/internal/version"
)

const (
	// DefaultBaseURL is the public Livelox site.
	DefaultBaseURL = "https://www.livelox.com"

	classInfoPath = "/Data/ClassInfo"

	// maxPayloadSize bounds ClassInfo and class blob bodies.
	maxPayloadSize = 64 << 20
)

// ParseClassID extracts the classId query parameter from a Livelox viewer
// URL. The id must be a positive integer.
func ParseClassID(raw string) (int, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", models.ErrMissingIdentifier, err)
	}
	value := u.Query().Get("classId")
	if value == "" {
		return 0, fmt.Errorf("%w: no classId in %q", models.ErrMissingIdentifier, raw)
	}
	id, err := strconv.Atoi(value)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: classId %q is not a positive integer", models.ErrMissingIdentifier, value)
	}
	return id, nil
}

// Client fetches event data from Livelox.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *hostLimiter
	validate   *validator.Validate
	userAgent  string
}

// NewClient returns a client for the Livelox instance at baseURL. An empty
// baseURL selects DefaultBaseURL. timeout bounds every request and
// requestsPerSecond paces requests to each host, zero means unpaced.
func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(timeout),
		limiter:    newHostLimiter(requestsPerSecond),
		validate:   validator.New(),
		userAgent:  version.UserAgent(),
	}
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		},
	}
}

// doer returns the paced HTTP client shared with the image loader.
func (c *Client) doer() *pacedDoer {
	return &pacedDoer{client: c.httpClient, limiter: c.limiter}
}

// FetchEvent resolves classID into the event, its map metadata and the
// controls of every course.
func (c *Client) FetchEvent(ctx context.Context, classID int) (*models.Event, error) {
	log := logging.GetFromContext(ctx)

	info, err := c.fetchClassInfo(ctx, classID)
	if err != nil {
		return nil, err
	}
	eventName := "unknown"
	if info.General.Event != nil && info.General.Event.Name != "" {
		eventName = info.General.Event.Name
	}
	log.Info().Int("classId", classID).Str("event", eventName).Msg("class info fetched")
	log.Debug().Str("url", info.General.ClassBlobURL).Msg("fetching class blob")

	blob, err := c.fetchClassBlob(ctx, info.General.ClassBlobURL)
	if err != nil {
		return nil, err
	}

	event, err := toEvent(classID, eventName, blob)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("map", event.MapName).
		Str("format", event.ImageFormat).
		Int("courses", len(event.Courses)).
		Msg("class blob parsed")
	return event, nil
}

func (c *Client) fetchClassInfo(ctx context.Context, classID int) (*classInfoResponse, error) {
	body, err := json.Marshal(classInfoRequest{
		ClassIDs:         []string{strconv.Itoa(classID)},
		RelayLegs:        []int{},
		RelayLegGroupIDs: []int{},
		IncludeMap:       true,
		IncludeCourses:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode class info request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+classInfoPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var info classInfoResponse
	if err := c.doJSON(req, &info); err != nil {
		return nil, fmt.Errorf("class info for class %d: %w", classID, err)
	}
	return &info, nil
}

func (c *Client) fetchClassBlob(ctx context.Context, blobURL string) (*classBlob, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, blobURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstreamUnreachable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var blob classBlob
	if err := c.doJSON(req, &blob); err != nil {
		return nil, fmt.Errorf("class blob: %w", err)
	}
	return &blob, nil
}

// doJSON sends req and decodes and validates the JSON response into dst.
func (c *Client) doJSON(req *http.Request, dst any) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.doer().Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", models.ErrUpstreamUnreachable, req.Method, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s %s: status %s", models.ErrUpstreamUnreachable, req.Method, req.URL.Redacted(), resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", models.ErrUpstreamUnreachable, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedUpstreamData, err)
	}
	if err := c.validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", models.ErrMalformedUpstreamData, err)
	}
	return nil
}

func toEvent(classID int, eventName string, blob *classBlob) (*models.Event, error) {
	m := blob.Map
	vertices := m.BoundingQuadrilateral.Vertices
	if len(vertices) != 4 {
		return nil, fmt.Errorf("%w: bounding quadrilateral has %d vertices, want 4", geo.ErrInvalidGeometry, len(vertices))
	}
	// Livelox lists the corners counter-clockwise from the bottom left.
	quad := geo.Quad{
		geo.TopLeft:     toGeoPoint(vertices[3]),
		geo.TopRight:    toGeoPoint(vertices[2]),
		geo.BottomRight: toGeoPoint(vertices[1]),
		geo.BottomLeft:  toGeoPoint(vertices[0]),
	}

	courses := make([]models.Course, 0, len(blob.Courses))
	for _, bc := range blob.Courses {
		route := make(geo.Route, 0, len(bc.Controls))
		for _, ctl := range bc.Controls {
			route = append(route, toGeoPoint(*ctl.Control.Position))
		}
		courses = append(courses, models.Course{Name: bc.Name, Controls: route})
	}

	return &models.Event{
		ClassID:     classID,
		EventName:   eventName,
		MapName:     m.Name,
		MapURL:      m.URL,
		ImageFormat: strings.ToLower(m.ImageFormat),
		Quad:        quad,
		Resolution:  geo.Resolution(*m.Resolution),
		Courses:     courses,
	}, nil
}

func toGeoPoint(p wirePoint) geo.GeoPoint {
	return geo.GeoPoint{Lat: p.Latitude, Lon: p.Longitude}
}

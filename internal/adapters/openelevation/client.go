package openelevation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/pkg/telemetry"
)

// DefaultURL is the public Open-Elevation lookup endpoint.
const DefaultURL = "https://api.open-elevation.com/api/v1/lookup"

// maxBody guards against runaway responses.
const maxBody = 8 << 20

// Client implements ports.ElevationProvider against the Open-Elevation API.
type Client struct {
	url  string
	http *http.Client
}

// New creates a client. An empty url selects DefaultURL.
func New(endpoint string, timeout time.Duration) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{url: endpoint, http: &http.Client{Timeout: timeout}}
}

type location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type lookupRequest struct {
	Locations []location `json:"locations"`
}

type lookupResponse struct {
	Results []struct {
		Latitude  float64  `json:"latitude"`
		Longitude float64  `json:"longitude"`
		Elevation *float64 `json:"elevation"`
	} `json:"results"`
}

// Lookup issues GET ?locations=lat,lon.
func (c *Client) Lookup(ctx context.Context, coord domain.Coordinate) (float64, error) {
	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "openelevation.lookup")
	defer span.End()
	span.SetAttributes(attribute.Float64("lat", coord.Lat), attribute.Float64("lon", coord.Lon))

	q := url.Values{}
	q.Set("locations", formatLocation(coord))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+"?"+q.Encode(), nil)
	if err != nil {
		return 0, &domain.LookupError{Coordinate: coord, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	elevations, status, err := c.do(req, 1)
	if err != nil {
		return 0, &domain.LookupError{Coordinate: coord, Status: status, Err: err}
	}
	return elevations[0], nil
}

// LookupBatch issues one POST for all coordinates. Any failure fails the
// whole batch.
func (c *Client) LookupBatch(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
	if len(coords) == 0 {
		return nil, nil
	}

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "openelevation.lookup_batch")
	defer span.End()
	span.SetAttributes(attribute.Int("locations", len(coords)))

	body := lookupRequest{Locations: make([]location, len(coords))}
	for i, co := range coords {
		body.Locations[i] = location{Latitude: co.Lat, Longitude: co.Lon}
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, &domain.BatchLookupError{Size: len(coords), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(data))
	if err != nil {
		return nil, &domain.BatchLookupError{Size: len(coords), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	elevations, status, err := c.do(req, len(coords))
	if err != nil {
		return nil, &domain.BatchLookupError{Size: len(coords), Status: status, Err: err}
	}
	return elevations, nil
}

// do executes req and decodes want elevations. status is non-zero when the
// server answered with something other than 200.
func (c *Client) do(req *http.Request, want int) ([]float64, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var out lookupResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(&out); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}
	if len(out.Results) < want {
		return nil, 0, fmt.Errorf("malformed response: %d results for %d locations", len(out.Results), want)
	}

	elevations := make([]float64, want)
	for i := 0; i < want; i++ {
		if out.Results[i].Elevation == nil {
			return nil, 0, fmt.Errorf("malformed response: result %d has no elevation", i)
		}
		elevations[i] = *out.Results[i].Elevation
	}
	return elevations, 0, nil
}

func formatLocation(c domain.Coordinate) string {
	return strconv.FormatFloat(c.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(c.Lon, 'f', -1, 64)
}

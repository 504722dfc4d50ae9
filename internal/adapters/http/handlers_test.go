package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"

	handler "github.com/samirrijal/relief/internal/adapters/http"
	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/usecases"
)

// ---- Mock ports ----

type mockProvider struct {
	lookupFn      func(ctx context.Context, c domain.Coordinate) (float64, error)
	lookupBatchFn func(ctx context.Context, coords []domain.Coordinate) ([]float64, error)
}

func (m *mockProvider) Lookup(ctx context.Context, c domain.Coordinate) (float64, error) {
	if m.lookupFn != nil {
		return m.lookupFn(ctx, c)
	}
	return 0, nil
}

func (m *mockProvider) LookupBatch(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
	if m.lookupBatchFn != nil {
		return m.lookupBatchFn(ctx, coords)
	}
	return make([]float64, len(coords)), nil
}

type mockRegionSource struct {
	namesFn  func(ctx context.Context, group string) ([]string, error)
	regionFn func(ctx context.Context, name string) (*domain.Polygon, error)
}

func (m *mockRegionSource) Names(ctx context.Context, group string) ([]string, error) {
	if m.namesFn != nil {
		return m.namesFn(ctx, group)
	}
	return nil, nil
}

func (m *mockRegionSource) Region(ctx context.Context, name string) (*domain.Polygon, error) {
	if m.regionFn != nil {
		return m.regionFn(ctx, name)
	}
	return nil, fmt.Errorf("%w: %q", domain.ErrRegionNotFound, name)
}

// ---- Test helpers ----

func quellon(t *testing.T) *domain.Polygon {
	t.Helper()
	p, err := domain.NewPolygon("Quellón", "Chiloe", orb.Polygon{{
		{-73.7, -43.1}, {-73.6, -43.1}, {-73.6, -43.0}, {-73.7, -43.0}, {-73.7, -43.1},
	}})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func knownRegions(t *testing.T) *mockRegionSource {
	q := quellon(t)
	return &mockRegionSource{
		namesFn: func(ctx context.Context, group string) ([]string, error) {
			return []string{"Ancud", "Castro", "Chonchi", "Dalcahue", "Quellón"}, nil
		},
		regionFn: func(ctx context.Context, name string) (*domain.Polygon, error) {
			if name == q.Name() {
				return q, nil
			}
			return nil, fmt.Errorf("%w: %q", domain.ErrRegionNotFound, name)
		},
	}
}

func makeDeps(provider *mockProvider, regions *mockRegionSource, opts ...func(*handler.Dependencies)) *handler.Dependencies {
	d := &handler.Dependencies{
		Analyses: usecases.NewAnalysisService(usecases.NewSampler(provider, 0), regions, nil),
		Profiles: usecases.NewProfileService(provider, regions, nil),
		Regions:  usecases.NewRegionService(regions, ""),
		Language: "es",
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

func postJSON(t *testing.T, app *fiber.App, path, body string) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, readBody(t, resp.Body)
}

func get(t *testing.T, app *fiber.App, path string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest("GET", path, nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, readBody(t, resp.Body)
}

func apiErrorCode(t *testing.T, body []byte) string {
	t.Helper()
	var apiErr struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil {
		t.Fatalf("decode error body %s: %v", body, err)
	}
	return apiErr.Code
}

// ---- Health ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))
	status, _ := get(t, app, "/v1/health")
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
}

func TestReady_RegionSourceDown(t *testing.T) {
	regions := &mockRegionSource{
		namesFn: func(ctx context.Context, group string) ([]string, error) {
			return nil, errors.New("connection refused")
		},
	}
	app := setupApp(makeDeps(&mockProvider{}, regions))

	status, body := get(t, app, "/v1/ready")
	if status != 503 {
		t.Fatalf("expected 503, got %d: %s", status, body)
	}
}

// ---- Regions ----

func TestListRegions_Pagination(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/regions?group=Chiloe&offset=2&limit=2", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []string `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 5 || result.Pagination.Offset != 2 {
		t.Errorf("unexpected pagination %+v", result.Pagination)
	}
	if len(result.Data) != 2 || result.Data[0] != "Chonchi" {
		t.Errorf("unexpected page %v", result.Data)
	}

	link := resp.Header.Get("Link")
	if !strings.Contains(link, `rel="next"`) || !strings.Contains(link, "group=Chiloe") {
		t.Errorf("unexpected Link header %q", link)
	}
}

func TestGetRegion_Feature(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t), func(d *handler.Dependencies) {
		d.NameKey, d.GroupKey = "comuna", "region"
	}))

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/regions/Quell%C3%B3n", nil), -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/geo+json") {
		t.Errorf("unexpected content type %q", ct)
	}

	var feature struct {
		Type       string            `json:"type"`
		Properties map[string]string `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&feature); err != nil {
		t.Fatal(err)
	}
	if feature.Type != "Feature" || feature.Properties["comuna"] != "Quellón" {
		t.Errorf("unexpected feature %+v", feature)
	}
}

func TestGetRegion_NotFound(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))

	status, body := get(t, app, "/v1/regions/Atlantis")
	if status != 404 {
		t.Fatalf("expected 404, got %d", status)
	}
	if code := apiErrorCode(t, body); code != "not_found" {
		t.Errorf("expected not_found, got %s", code)
	}
}

// ---- Classify ----

func TestClassify(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))

	tests := []struct {
		query    string
		category string
		label    string
	}{
		{"elevation=99.9", "plain", "Planicie"},
		{"elevation=100", "hill", "Cerro"},
		{"elevation=400", "hill", "Cerro"},
		{"elevation=400.1", "mountain", "Montaña"},
		{"elevation=-20&lang=en", "plain", "plain"},
	}
	for _, tt := range tests {
		status, body := get(t, app, "/v1/classify?"+tt.query)
		if status != 200 {
			t.Fatalf("%s: expected 200, got %d", tt.query, status)
		}
		var out struct {
			Category string `json:"category"`
			Label    string `json:"label"`
		}
		_ = json.Unmarshal(body, &out)
		if out.Category != tt.category || out.Label != tt.label {
			t.Errorf("%s: got %+v, want %s/%s", tt.query, out, tt.category, tt.label)
		}
	}
}

func TestClassify_BadInput(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))
	for _, q := range []string{"", "?elevation=high", "?elevation=NaN"} {
		if status, _ := get(t, app, "/v1/classify"+q); status != 400 {
			t.Errorf("%q: expected 400, got %d", q, status)
		}
	}
}

func TestResolutions(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))
	_, body := get(t, app, "/v1/resolutions")

	var res []domain.Resolution
	if err := json.Unmarshal(body, &res); err != nil {
		t.Fatal(err)
	}
	if len(res) != 3 || res[0].Name != "fine" {
		t.Errorf("unexpected resolutions %+v", res)
	}
}

// ---- Analyses ----

func TestAnalysis_Rectangle(t *testing.T) {
	provider := &mockProvider{
		lookupFn: func(ctx context.Context, c domain.Coordinate) (float64, error) { return 500, nil },
	}
	app := setupApp(makeDeps(provider, knownRegions(t)))

	status, body := postJSON(t, app, "/v1/analyses", `{
		"rectangle": {"lat_min": -43.1, "lat_max": -43.0, "lon_min": -73.7, "lon_max": -73.6},
		"step": 0.05, "cell_area_km2": 1
	}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result domain.AnalysisResult
	if err := json.Unmarshal(body, &result); err != nil {
		t.Fatal(err)
	}
	if result.Tally.Total != 9 || result.Tally.Mountain != 9 {
		t.Errorf("unexpected tally %+v", result.Tally)
	}
	if len(result.Samples) != 0 {
		t.Errorf("samples should be omitted by default, got %d", len(result.Samples))
	}
}

func TestAnalysis_RegionWithSamples(t *testing.T) {
	provider := &mockProvider{
		lookupFn: func(ctx context.Context, c domain.Coordinate) (float64, error) {
			if c.Lon < -73.675 {
				return 50, nil
			}
			return 0, &domain.LookupError{Coordinate: c, Status: 503}
		},
	}
	app := setupApp(makeDeps(provider, knownRegions(t)))

	status, body := postJSON(t, app, "/v1/analyses",
		`{"region": "Quellón", "step": 0.05, "cell_area_km2": 10, "include_samples": true}`)
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}

	var result domain.AnalysisResult
	_ = json.Unmarshal(body, &result)
	if len(result.Samples) != 9 {
		t.Fatalf("expected 9 samples, got %d", len(result.Samples))
	}
	if result.Tally.Failed != 6 || result.Tally.Plain != 30 || result.Tally.Total != 30 {
		t.Errorf("unexpected tally %+v", result.Tally)
	}
}

func TestAnalysis_Errors(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t), func(d *handler.Dependencies) {
		d.MaxPoints = 4
	}))

	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"empty", `{}`, 400, "bad_request"},
		{"malformed", `{`, 400, "bad_request"},
		{"unknown region", `{"region": "Atlantis"}`, 404, "not_found"},
		{"unknown resolution", `{"region": "Quellón", "resolution": "ultra"}`, 400, "bad_request"},
		{"inverted rectangle", `{"rectangle": {"lat_min": 1, "lat_max": 0, "lon_min": 0, "lon_max": 1}}`, 400, "bad_request"},
		{"zero step", `{"region": "Quellón", "step": 0, "cell_area_km2": 1}`, 400, "bad_request"},
		{"too many points", `{"region": "Quellón", "step": 0.05, "cell_area_km2": 1}`, 400, "bad_request"},
		{"both", `{"region": "Quellón", "rectangle": {"lat_min": 0, "lat_max": 1, "lon_min": 0, "lon_max": 1}}`, 400, "bad_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postJSON(t, app, "/v1/analyses", tt.body)
			if status != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, status, body)
			}
			if code := apiErrorCode(t, body); code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, code)
			}
		})
	}
}

// ---- Profiles ----

func TestProfile_Coordinates(t *testing.T) {
	provider := &mockProvider{
		lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
			out := make([]float64, len(coords))
			for i := range coords {
				out[i] = float64(i) * 10
			}
			return out, nil
		},
	}
	app := setupApp(makeDeps(provider, knownRegions(t)))

	status, body := get(t, app, "/v1/profiles?lat=-43.05&lon_min=-73.7&lon_max=-73.6&points=3")
	if status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	var prof domain.Profile
	if err := json.Unmarshal(body, &prof); err != nil {
		t.Fatal(err)
	}
	if len(prof.Points) != 3 || prof.Points[2].Elevation != 20 || math.Abs(prof.Points[2].Lon+73.6) > 1e-9 {
		t.Errorf("unexpected profile %+v", prof)
	}
}

func TestProfile_RegionUsesDefaultPoints(t *testing.T) {
	var got int
	provider := &mockProvider{
		lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
			got = len(coords)
			return make([]float64, len(coords)), nil
		},
	}
	app := setupApp(makeDeps(provider, knownRegions(t), func(d *handler.Dependencies) { d.Points = 7 }))

	if status, body := get(t, app, "/v1/profiles?region=Quell%C3%B3n"); status != 200 {
		t.Fatalf("expected 200, got %d: %s", status, body)
	}
	if got != 7 {
		t.Errorf("expected 7 points, got %d", got)
	}
}

func TestProfile_BatchFailure(t *testing.T) {
	provider := &mockProvider{
		lookupBatchFn: func(ctx context.Context, coords []domain.Coordinate) ([]float64, error) {
			return nil, &domain.BatchLookupError{Size: len(coords), Status: 500}
		},
	}
	app := setupApp(makeDeps(provider, knownRegions(t)))

	status, body := get(t, app, "/v1/profiles?region=Quell%C3%B3n")
	if status != 502 {
		t.Fatalf("expected 502, got %d", status)
	}
	if code := apiErrorCode(t, body); code != "bad_gateway" {
		t.Errorf("expected bad_gateway, got %s", code)
	}
}

func TestProfile_MissingParams(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))
	if status, _ := get(t, app, "/v1/profiles?lat=-43"); status != 400 {
		t.Errorf("expected 400, got %d", status)
	}
}

// ---- GraphQL ----

func graphQL(t *testing.T, app *fiber.App, query string) map[string]any {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"query": query})
	status, resp := postJSON(t, app, "/graphql", string(bytes.TrimSpace(body)))
	if status != 200 {
		t.Fatalf("expected 200, got %d", status)
	}
	var out struct {
		Data   map[string]any `json:"data"`
		Errors []any          `json:"errors"`
	}
	if err := json.Unmarshal(resp, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Errors) > 0 {
		t.Fatalf("graphql errors: %v", out.Errors)
	}
	return out.Data
}

func TestGraphQL_RegionsAndClassify(t *testing.T) {
	app := setupApp(makeDeps(&mockProvider{}, knownRegions(t)))

	data := graphQL(t, app, `{ regions(group: "Chiloe") classify(elevation: 250) { category label } region(name: "Quellón") { group polygons bounds { minLat } } }`)

	if regions := data["regions"].([]any); len(regions) != 5 {
		t.Errorf("expected 5 regions, got %v", regions)
	}
	classify := data["classify"].(map[string]any)
	if classify["category"] != "hill" || classify["label"] != "Cerro" {
		t.Errorf("unexpected classification %v", classify)
	}
	region := data["region"].(map[string]any)
	if region["group"] != "Chiloe" || region["polygons"].(float64) != 1 {
		t.Errorf("unexpected region %v", region)
	}
}

func TestGraphQL_Analyze(t *testing.T) {
	provider := &mockProvider{
		lookupFn: func(ctx context.Context, c domain.Coordinate) (float64, error) { return 150, nil },
	}
	app := setupApp(makeDeps(provider, knownRegions(t)))

	data := graphQL(t, app, `mutation { analyze(latMin: -43.1, latMax: -43.0, lonMin: -73.7, lonMax: -73.6, resolution: "coarse") { region tally { total hill points } } }`)

	tally := data["analyze"].(map[string]any)["tally"].(map[string]any)
	if tally["total"].(float64) != 400 || tally["hill"].(float64) != 400 || tally["points"].(float64) != 4 {
		t.Errorf("unexpected tally %v", tally)
	}
}

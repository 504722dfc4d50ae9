package http

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/relief/internal/adapters/boundaries"
	"github.com/samirrijal/relief/internal/core/domain"
	"github.com/samirrijal/relief/internal/core/usecases"
)

// DefaultMaxPoints bounds the grid of a synchronous analysis. Larger runs
// go through /ws/analyses.
const DefaultMaxPoints = 2500

// rectangleBody is an explicit bounding box in degrees.
type rectangleBody struct {
	LatMin float64 `json:"lat_min"`
	LatMax float64 `json:"lat_max"`
	LonMin float64 `json:"lon_min"`
	LonMax float64 `json:"lon_max"`
}

// analysisBody is the request for an area analysis. Either Region or
// Rectangle must be set. Step and CellArea override Resolution.
type analysisBody struct {
	Region         string         `json:"region"`
	Rectangle      *rectangleBody `json:"rectangle"`
	Resolution     string         `json:"resolution"`
	Step           float64        `json:"step"`
	CellArea       float64        `json:"cell_area_km2"`
	IncludeSamples bool           `json:"include_samples"`
}

// request resolves the body into a validated analysis request.
func (b analysisBody) request(ctx context.Context, regions *usecases.RegionService) (domain.AnalysisRequest, error) {
	var region domain.Region
	switch {
	case b.Region != "" && b.Rectangle != nil:
		return domain.AnalysisRequest{}, fmt.Errorf("%w: set either region or rectangle, not both", domain.ErrInvalidConfiguration)
	case b.Region != "":
		p, err := regions.Get(ctx, b.Region)
		if err != nil {
			return domain.AnalysisRequest{}, err
		}
		region = p
	case b.Rectangle != nil:
		r := b.Rectangle
		rect, err := domain.NewRectangle(r.LatMin, r.LatMax, r.LonMin, r.LonMax)
		if err != nil {
			return domain.AnalysisRequest{}, err
		}
		region = rect
	default:
		return domain.AnalysisRequest{}, fmt.Errorf("%w: region or rectangle is required", domain.ErrInvalidConfiguration)
	}

	var req domain.AnalysisRequest
	if b.Step != 0 || b.CellArea != 0 {
		req = domain.AnalysisRequest{Region: region, Step: b.Step, CellArea: b.CellArea}
	} else {
		name := b.Resolution
		if name == "" {
			name = domain.Coarse.Name
		}
		res, err := domain.ResolutionByName(name)
		if err != nil {
			return domain.AnalysisRequest{}, err
		}
		req = domain.NewAnalysisRequest(region, res)
	}
	return req, req.Validate()
}

// checkGridSize rejects requests whose grid exceeds limit points.
func checkGridSize(req domain.AnalysisRequest, limit int) error {
	if limit <= 0 {
		limit = DefaultMaxPoints
	}
	g, err := usecases.NewGrid(req.Region.Bounds(), req.Step)
	if err != nil {
		return err
	}
	if g.Len() > limit {
		return fmt.Errorf("%w: grid of %d points exceeds the limit of %d, use a coarser resolution or /ws/analyses",
			domain.ErrInvalidConfiguration, g.Len(), limit)
	}
	return nil
}

// ListRegionsHandler returns region names, optionally filtered by group.
func ListRegionsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names, err := deps.Regions.List(c.UserContext(), c.Query("group"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(paginate(c, names, 100, 500))
	}
}

// GetRegionHandler returns one region boundary as a GeoJSON feature.
func GetRegionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		name, err := url.PathUnescape(c.Params("name"))
		if err != nil || strings.TrimSpace(name) == "" {
			return errBadRequest(c, "region name is required")
		}

		region, err := deps.Regions.Get(c.UserContext(), name)
		if err != nil {
			return errFromDomain(c, err)
		}

		return c.JSON(boundaries.Feature(region, deps.NameKey, deps.GroupKey), "application/geo+json")
	}
}

// AnalysisHandler runs a synchronous area analysis.
func AnalysisHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body analysisBody
		if err := c.BodyParser(&body); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		ctx := c.UserContext()
		req, err := body.request(ctx, deps.Regions)
		if err != nil {
			return errFromDomain(c, err)
		}
		if err := checkGridSize(req, deps.MaxPoints); err != nil {
			return errFromDomain(c, err)
		}

		result, err := deps.Analyses.Analyze(ctx, req, nil)
		if err != nil {
			return errFromDomain(c, err)
		}

		if !body.IncludeSamples {
			trimmed := *result
			trimmed.Samples = nil
			result = &trimmed
		}
		return c.JSON(result)
	}
}

// ProfileHandler samples an elevation profile across a region or an explicit
// latitude band.
func ProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		points := c.QueryInt("points", deps.Points)
		ctx := c.UserContext()

		var (
			profile *domain.Profile
			err     error
		)
		if region := c.Query("region"); region != "" {
			profile, err = deps.Profiles.ProfileRegion(ctx, region, points)
		} else {
			lat, errLat := queryFloat(c, "lat")
			lonMin, errMin := queryFloat(c, "lon_min")
			lonMax, errMax := queryFloat(c, "lon_max")
			if errLat != nil || errMin != nil || errMax != nil {
				return errBadRequest(c, "region or lat, lon_min and lon_max are required")
			}
			profile, err = deps.Profiles.Profile(ctx, c.Query("label"), lat, lonMin, lonMax, points)
		}
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(profile)
	}
}

// ClassifyHandler classifies a single elevation.
func ClassifyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		e, err := queryFloat(c, "elevation")
		if err != nil || math.IsNaN(e) || math.IsInf(e, 0) {
			return errBadRequest(c, "elevation must be a number")
		}
		cat, _ := domain.Classify(&e)

		lang := c.Query("lang", deps.Language)
		c.Set("Cache-Control", "public, max-age=86400")
		return c.JSON(fiber.Map{
			"elevation": e,
			"category":  cat,
			"label":     cat.Label(lang),
		})
	}
}

// ResolutionsHandler lists the grid presets.
func ResolutionsHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(domain.Resolutions)
	}
}

func queryFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	return strconv.ParseFloat(raw, 64)
}

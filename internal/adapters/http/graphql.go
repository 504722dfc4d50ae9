package http

import (
	"fmt"
	"math"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/relief/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"minLat": &graphql.Field{Type: graphql.Float},
			"minLon": &graphql.Field{Type: graphql.Float},
			"maxLat": &graphql.Field{Type: graphql.Float},
			"maxLon": &graphql.Field{Type: graphql.Float},
		},
	})

	regionType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Region",
		Fields: graphql.Fields{
			"name":     &graphql.Field{Type: graphql.String},
			"group":    &graphql.Field{Type: graphql.String},
			"polygons": &graphql.Field{Type: graphql.Int},
			"bounds":   &graphql.Field{Type: boundsType},
		},
	})

	classificationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Classification",
		Fields: graphql.Fields{
			"elevation": &graphql.Field{Type: graphql.Float},
			"category":  &graphql.Field{Type: graphql.String},
			"label":     &graphql.Field{Type: graphql.String},
		},
	})

	tallyType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AreaTally",
		Fields: graphql.Fields{
			"total":    &graphql.Field{Type: graphql.Float},
			"mountain": &graphql.Field{Type: graphql.Float},
			"hill":     &graphql.Field{Type: graphql.Float},
			"plain":    &graphql.Field{Type: graphql.Float},
			"points":   &graphql.Field{Type: graphql.Int},
			"failed":   &graphql.Field{Type: graphql.Int},
		},
	})

	analysisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Analysis",
		Fields: graphql.Fields{
			"region":     &graphql.Field{Type: graphql.String},
			"step":       &graphql.Field{Type: graphql.Float},
			"cellArea":   &graphql.Field{Type: graphql.Float},
			"tally":      &graphql.Field{Type: tallyType},
			"startedAt":  &graphql.Field{Type: graphql.DateTime},
			"durationMs": &graphql.Field{Type: graphql.Float},
		},
	})

	profilePointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ProfilePoint",
		Fields: graphql.Fields{
			"lat":       &graphql.Field{Type: graphql.Float},
			"lon":       &graphql.Field{Type: graphql.Float},
			"elevation": &graphql.Field{Type: graphql.Float},
		},
	})

	profileType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Profile",
		Fields: graphql.Fields{
			"region":   &graphql.Field{Type: graphql.String},
			"latitude": &graphql.Field{Type: graphql.Float},
			"min":      &graphql.Field{Type: graphql.Float},
			"max":      &graphql.Field{Type: graphql.Float},
			"points":   &graphql.Field{Type: graphql.NewList(profilePointType)},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"regions": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "List region names, optionally within a group",
				Args: graphql.FieldConfigArgument{
					"group": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: ""},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Regions.List(p.Context, p.Args["group"].(string))
				},
			},
			"region": &graphql.Field{
				Type:        regionType,
				Description: "Get a region by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					r, err := deps.Regions.Get(p.Context, p.Args["name"].(string))
					if err != nil {
						return nil, err
					}
					return regionToGraphQL(r), nil
				},
			},
			"classify": &graphql.Field{
				Type:        classificationType,
				Description: "Classify an elevation in meters",
				Args: graphql.FieldConfigArgument{
					"elevation": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lang":      &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					e := p.Args["elevation"].(float64)
					if math.IsNaN(e) || math.IsInf(e, 0) {
						return nil, fmt.Errorf("elevation must be finite")
					}
					lang, _ := p.Args["lang"].(string)
					if lang == "" {
						lang = deps.Language
					}
					cat, _ := domain.Classify(&e)
					return map[string]interface{}{
						"elevation": e,
						"category":  cat.String(),
						"label":     cat.Label(lang),
					}, nil
				},
			},
			"profile": &graphql.Field{
				Type:        profileType,
				Description: "Elevation profile across a region, or along lat between lonMin and lonMax",
				Args: graphql.FieldConfigArgument{
					"region": &graphql.ArgumentConfig{Type: graphql.String},
					"lat":    &graphql.ArgumentConfig{Type: graphql.Float},
					"lonMin": &graphql.ArgumentConfig{Type: graphql.Float},
					"lonMax": &graphql.ArgumentConfig{Type: graphql.Float},
					"points": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					points := p.Args["points"].(int)
					if points == 0 {
						points = deps.Points
					}
					if region, _ := p.Args["region"].(string); region != "" {
						prof, err := deps.Profiles.ProfileRegion(p.Context, region, points)
						if err != nil {
							return nil, err
						}
						return profileToGraphQL(prof), nil
					}
					lat, okLat := p.Args["lat"].(float64)
					lonMin, okMin := p.Args["lonMin"].(float64)
					lonMax, okMax := p.Args["lonMax"].(float64)
					if !okLat || !okMin || !okMax {
						return nil, fmt.Errorf("%w: region or lat, lonMin and lonMax are required", domain.ErrInvalidConfiguration)
					}
					prof, err := deps.Profiles.Profile(p.Context, "", lat, lonMin, lonMax, points)
					if err != nil {
						return nil, err
					}
					return profileToGraphQL(prof), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"analyze": &graphql.Field{
				Type:        analysisType,
				Description: "Run an area analysis over a named region or a rectangle",
				Args: graphql.FieldConfigArgument{
					"region":     &graphql.ArgumentConfig{Type: graphql.String},
					"latMin":     &graphql.ArgumentConfig{Type: graphql.Float},
					"latMax":     &graphql.ArgumentConfig{Type: graphql.Float},
					"lonMin":     &graphql.ArgumentConfig{Type: graphql.Float},
					"lonMax":     &graphql.ArgumentConfig{Type: graphql.Float},
					"resolution": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: domain.Coarse.Name},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					body := analysisBody{Resolution: p.Args["resolution"].(string)}
					if region, _ := p.Args["region"].(string); region != "" {
						body.Region = region
					} else {
						latMin, ok1 := p.Args["latMin"].(float64)
						latMax, ok2 := p.Args["latMax"].(float64)
						lonMin, ok3 := p.Args["lonMin"].(float64)
						lonMax, ok4 := p.Args["lonMax"].(float64)
						if ok1 && ok2 && ok3 && ok4 {
							body.Rectangle = &rectangleBody{LatMin: latMin, LatMax: latMax, LonMin: lonMin, LonMax: lonMax}
						}
					}

					req, err := body.request(p.Context, deps.Regions)
					if err != nil {
						return nil, err
					}
					if err := checkGridSize(req, deps.MaxPoints); err != nil {
						return nil, err
					}
					result, err := deps.Analyses.Analyze(p.Context, req, nil)
					if err != nil {
						return nil, err
					}
					return analysisToGraphQL(result), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func boundsToGraphQL(b domain.Bounds) map[string]interface{} {
	return map[string]interface{}{
		"minLat": b.MinLat,
		"minLon": b.MinLon,
		"maxLat": b.MaxLat,
		"maxLon": b.MaxLon,
	}
}

func regionToGraphQL(r *domain.Polygon) map[string]interface{} {
	return map[string]interface{}{
		"name":     r.Name(),
		"group":    r.Group(),
		"polygons": len(r.Shape()),
		"bounds":   boundsToGraphQL(r.Bounds()),
	}
}

func analysisToGraphQL(r *domain.AnalysisResult) map[string]interface{} {
	return map[string]interface{}{
		"region":   r.Region,
		"step":     r.Step,
		"cellArea": r.CellArea,
		"tally": map[string]interface{}{
			"total":    r.Tally.Total,
			"mountain": r.Tally.Mountain,
			"hill":     r.Tally.Hill,
			"plain":    r.Tally.Plain,
			"points":   r.Tally.Points,
			"failed":   r.Tally.Failed,
		},
		"startedAt":  r.StartedAt,
		"durationMs": float64(r.Duration.Microseconds()) / 1000,
	}
}

func profileToGraphQL(p *domain.Profile) map[string]interface{} {
	points := make([]map[string]interface{}, len(p.Points))
	for i, pt := range p.Points {
		points[i] = map[string]interface{}{
			"lat":       pt.Lat,
			"lon":       pt.Lon,
			"elevation": pt.Elevation,
		}
	}
	lo, hi := p.MinMax()
	return map[string]interface{}{
		"region":   p.Region,
		"latitude": p.Latitude,
		"min":      lo,
		"max":      hi,
		"points":   points,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}

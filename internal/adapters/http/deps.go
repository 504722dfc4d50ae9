package http

import (
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/relief/internal/adapters/postgres"
	"github.com/samirrijal/relief/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Analyses  *usecases.AnalysisService
	Profiles  *usecases.ProfileService
	Regions   *usecases.RegionService
	NATS      *nats.Conn   // optional; enables /ws/results
	DB        *postgres.DB // optional; checked by /v1/ready
	NameKey   string       // GeoJSON property for region names
	GroupKey  string       // GeoJSON property for region groups
	Language  string       // default label language, "es" or "en"
	MaxPoints int          // grid size limit for synchronous analyses; 0 uses DefaultMaxPoints
	Points    int          // default profile points; 0 uses the service default
}

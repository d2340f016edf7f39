// Package weather fetches and normalizes multi-model forecasts from the
// open-meteo family of endpoints. Each model is described by a ModelSpec so
// the three integrations share one client instead of three near-duplicates.
package weather

// ModelSpec describes one upstream forecast model: where it lives, how far
// out it goes, and which request features it supports.
type ModelSpec struct {
	Name    string
	BaseURL string
	// ExtraParams are appended verbatim to every request for this model.
	ExtraParams map[string]string
	HorizonDays int
	// HasDaily is false for models that only expose hourly granularity;
	// daily totals are then derived by calendar-date aggregation.
	HasDaily         bool
	HasFreezingLevel bool
	// SupportsUnitParams is false for endpoints that ignore the unit query
	// parameters; their metric values are converted after the fact.
	SupportsUnitParams bool
}

// The three production models: a fast high-resolution regional model with a
// short horizon, a global medium-range model, and a global higher-resolution
// model whose endpoint lacks the freezing-level field and unit parameters.
var (
	ModelHRRR = ModelSpec{
		Name:               "hrrr",
		BaseURL:            "https://api.open-meteo.com/v1/gfs",
		ExtraParams:        map[string]string{"models": "gfs_hrrr"},
		HorizonDays:        2,
		HasDaily:           false,
		HasFreezingLevel:   true,
		SupportsUnitParams: true,
	}

	ModelGFS = ModelSpec{
		Name:               "gfs",
		BaseURL:            "https://api.open-meteo.com/v1/gfs",
		HorizonDays:        16,
		HasDaily:           true,
		HasFreezingLevel:   true,
		SupportsUnitParams: true,
	}

	ModelECMWF = ModelSpec{
		Name:               "ecmwf",
		BaseURL:            "https://api.open-meteo.com/v1/ecmwf",
		HorizonDays:        15,
		HasDaily:           true,
		HasFreezingLevel:   false,
		SupportsUnitParams: false,
	}
)

// Models is the fan-out order; callers always receive one slot per entry.
var Models = []ModelSpec{ModelHRRR, ModelGFS, ModelECMWF}

const ArchiveBaseURL = "https://archive-api.open-meteo.com/v1/archive"

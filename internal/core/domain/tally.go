package domain

// ElevationSample is the lookup outcome for one coordinate. A failed lookup
// has a nil Elevation and a non-nil Err.
type ElevationSample struct {
	Coordinate Coordinate `json:"coordinate"`
	Elevation  *float64   `json:"elevation"`
	Err        error      `json:"-"`
}

// OK reports whether the sample carries an elevation.
func (s ElevationSample) OK() bool { return s.Elevation != nil }

// Sampled builds a successful sample.
func Sampled(c Coordinate, elevation float64) ElevationSample {
	return ElevationSample{Coordinate: c, Elevation: &elevation}
}

// Failed builds a failed sample.
func Failed(c Coordinate, err error) ElevationSample {
	return ElevationSample{Coordinate: c, Err: err}
}

// AreaTally accumulates classified area in km². Mountain+Hill+Plain always
// equals Total.
type AreaTally struct {
	Total    float64 `json:"total_km2"`
	Mountain float64 `json:"mountain_km2"`
	Hill     float64 `json:"hill_km2"`
	Plain    float64 `json:"plain_km2"`

	Points int `json:"points"`
	Failed int `json:"failed"`
}

// Accumulate adds cellArea for a sampled point using DefaultClassifier.
func (t *AreaTally) Accumulate(s ElevationSample, cellArea float64) {
	t.AccumulateWith(DefaultClassifier, s, cellArea)
}

// AccumulateWith adds cellArea to the total and to the sample's category.
// Failed samples only bump the Failed counter.
func (t *AreaTally) AccumulateWith(c Classifier, s ElevationSample, cellArea float64) {
	cat, ok := c.Classify(s.Elevation)
	if !ok {
		t.Failed++
		return
	}

	t.Points++
	t.Total += cellArea
	switch cat {
	case Mountain:
		t.Mountain += cellArea
	case Hill:
		t.Hill += cellArea
	case Plain:
		t.Plain += cellArea
	}
}

// Merge folds other into t.
func (t *AreaTally) Merge(other AreaTally) {
	t.Total += other.Total
	t.Mountain += other.Mountain
	t.Hill += other.Hill
	t.Plain += other.Plain
	t.Points += other.Points
	t.Failed += other.Failed
}

// Area returns the tallied area of one category.
func (t AreaTally) Area(c TerrainCategory) float64 {
	switch c {
	case Mountain:
		return t.Mountain
	case Hill:
		return t.Hill
	case Plain:
		return t.Plain
	}
	return 0
}

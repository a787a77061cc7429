package domain

// Asteroid is one near-earth object as stored locally. Numeric feed fields
// arrive as strings and are parsed at the adapter boundary.
type Asteroid struct {
	ID                     string
	NeoReferenceID         string
	Name                   string
	AbsoluteMagnitudeH     float64
	EstimatedDiameterMinKM float64
	EstimatedDiameterMaxKM float64
	IsPotentiallyHazardous bool
}

// CloseApproach is one recorded pass of an asteroid.
type CloseApproach struct {
	NeoReferenceID       string
	CloseApproachDate    string
	RelativeVelocityKMPH float64
	Astronomical         float64
	MissDistanceKM       float64
	MissDistanceLunar    float64
	OrbitingBody         string
}

// ResultSet is a generic tabular query result for display.
type ResultSet struct {
	Columns []string
	Rows    [][]string
}

// NEOFilter narrows close-approach queries. Nil bounds are unconstrained.
type NEOFilter struct {
	DateFrom        string
	DateTo          string
	MaxAstronomical *float64
	MaxLunar        *float64
	MinVelocityKMPH *float64
	MaxVelocityKMPH *float64
	MinDiameterKM   *float64
	MaxDiameterKM   *float64
	HazardousOnly   bool
	Limit           int
}

package strava

// Activity represents a Strava activity as returned by the API. Field names
// and types mirror the wire format so cached activities round-trip verbatim.
//
// StartDateLocal is kept as the raw ISO-8601 string: the aggregation layer
// slices it for year ("2024") and date ("2024-01-15") prefixes, and parsing
// it into a time.Time would re-anchor it to a zone the athlete didn't run in.
//
// Distance, times and elevation default to 0 when absent, which is safe for
// the arithmetic downstream. Heart rate, suffer score and calories are
// pointers: for those, zero and unknown are different facts.
type Activity struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	SportType          string   `json:"sport_type,omitempty"`
	StartDate          string   `json:"start_date,omitempty"`
	StartDateLocal     string   `json:"start_date_local"`
	Distance           float64  `json:"distance"`
	MovingTime         int64    `json:"moving_time"`
	ElapsedTime        int64    `json:"elapsed_time"`
	TotalElevationGain float64  `json:"total_elevation_gain"`
	AverageSpeed       float64  `json:"average_speed"`
	MaxSpeed           float64  `json:"max_speed,omitempty"`
	AverageHeartrate   *float64 `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64 `json:"max_heartrate,omitempty"`
	SufferScore        *float64 `json:"suffer_score,omitempty"`
	Calories           *float64 `json:"calories,omitempty"`
}

// IsRun reports whether the activity is a run. All aggregate statistics in
// this service are computed over runs only.
func (a Activity) IsRun() bool {
	return a.Type == "Run"
}

// LocalDate returns the YYYY-MM-DD portion of the local start timestamp, or
// "" when the activity carries no usable date.
func (a Activity) LocalDate() string {
	if len(a.StartDateLocal) < 10 {
		return ""
	}
	return a.StartDateLocal[:10]
}

// LocalYear returns the YYYY portion of the local start timestamp, or ""
// when the activity carries no usable date.
func (a Activity) LocalYear() string {
	if len(a.StartDateLocal) < 4 {
		return ""
	}
	return a.StartDateLocal[:4]
}

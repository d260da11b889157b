package stats

import (
	"math"
	"strconv"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// YearSummary holds the derived statistics for one calendar year of running.
type YearSummary struct {
	TotalRuns          int     `json:"total_runs"`
	TotalDistance      string  `json:"total_distance"`
	TotalDistanceKm    float64 `json:"total_distance_km"`
	TotalTime          string  `json:"total_time"`
	TotalElevation     string  `json:"total_elevation"`
	AverageRunDistance string  `json:"average_run_distance"`
	AveragePace        string  `json:"average_pace"`
}

type yearBucket struct {
	runs      int
	distanceM float64
	timeS     int64
	elevM     float64
}

// Yearly aggregates runs by calendar year, keyed by the 4-character year of
// the local start date. Pass year=0 for all years, or a specific year to
// restrict the output to that single bucket (empty map when the year has no
// runs). Activities without a parseable start date are skipped.
//
// Serialized as a JSON object the buckets come out in ascending year order,
// since encoding/json sorts map keys.
func Yearly(activities []strava.Activity, year int) map[string]YearSummary {
	buckets := make(map[string]*yearBucket)

	for _, a := range activities {
		if !a.IsRun() {
			continue
		}
		y := a.LocalYear()
		if y == "" {
			continue
		}

		b := buckets[y]
		if b == nil {
			b = &yearBucket{}
			buckets[y] = b
		}
		b.runs++
		b.distanceM += a.Distance
		b.timeS += a.MovingTime
		b.elevM += a.TotalElevationGain
	}

	if year > 0 {
		key := strconv.Itoa(year)
		b, ok := buckets[key]
		buckets = make(map[string]*yearBucket)
		if ok {
			buckets[key] = b
		}
	}

	result := make(map[string]YearSummary, len(buckets))
	for y, b := range buckets {
		if b.runs == 0 {
			continue
		}

		avgPace := "N/A"
		if b.timeS > 0 {
			avgPace = FormatPace(b.distanceM / float64(b.timeS))
		}

		result[y] = YearSummary{
			TotalRuns:          b.runs,
			TotalDistance:      FormatDistance(b.distanceM),
			TotalDistanceKm:    roundKm(b.distanceM),
			TotalTime:          FormatDuration(b.timeS),
			TotalElevation:     FormatElevation(b.elevM),
			AverageRunDistance: FormatDistance(b.distanceM / float64(b.runs)),
			AveragePace:        avgPace,
		}
	}
	return result
}

// roundKm converts meters to kilometers rounded to one decimal place.
func roundKm(meters float64) float64 {
	return math.Round(meters/100) / 10
}

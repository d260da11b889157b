// Package stats computes aggregate running statistics from activity
// sequences and formats raw metric units for presentation.
package stats

import (
	"fmt"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// FormatPace converts meters per second to a min/km pace string, e.g.
// "5:00/km". Non-positive speeds render as "N/A".
func FormatPace(metersPerSecond float64) string {
	if metersPerSecond <= 0 {
		return "N/A"
	}
	secondsPerKm := 1000 / metersPerSecond
	minutes := int(secondsPerKm) / 60
	seconds := int(secondsPerKm) % 60
	return fmt.Sprintf("%d:%02d/km", minutes, seconds)
}

// FormatDistance renders meters as kilometers with two decimals, e.g. "5.00 km".
func FormatDistance(meters float64) string {
	return fmt.Sprintf("%.2f km", meters/1000)
}

// FormatDuration renders seconds as H:MM:SS, or M:SS when under an hour.
func FormatDuration(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}

// FormatElevation renders meters of climbing as a whole-meter string, e.g. "142m".
func FormatElevation(meters float64) string {
	return fmt.Sprintf("%.0fm", meters)
}

// CompactSummary is the minimal per-activity shape used in large result
// lists. Time is the elapsed time. Pace is nil for non-run activities: null
// in the output, deliberately distinguishable from "N/A" and from 0.
type CompactSummary struct {
	ID       int64    `json:"id"`
	Date     string   `json:"date"`
	Name     string   `json:"name"`
	Distance string   `json:"distance"`
	Time     string   `json:"time"`
	Pace     *string  `json:"pace"`
	HR       *float64 `json:"hr"`
}

// Summary is the full per-activity shape with raw and formatted fields.
type Summary struct {
	ID                 int64    `json:"id"`
	Name               string   `json:"name"`
	Type               string   `json:"type"`
	Date               string   `json:"date"`
	Distance           string   `json:"distance"`
	DistanceMeters     float64  `json:"distance_meters"`
	MovingTime         string   `json:"moving_time"`
	MovingTimeSeconds  int64    `json:"moving_time_seconds"`
	ElapsedTime        string   `json:"elapsed_time"`
	ElapsedTimeSeconds int64    `json:"elapsed_time_seconds"`
	Pace               *string  `json:"pace"`
	AverageSpeedMps    float64  `json:"average_speed_mps"`
	ElevationGain      string   `json:"elevation_gain"`
	AverageHeartrate   *float64 `json:"average_heartrate"`
	MaxHeartrate       *float64 `json:"max_heartrate"`
	SufferScore        *float64 `json:"suffer_score"`
	Calories           *float64 `json:"calories"`
}

// runPace computes the pace field for a summary: a formatted pace for runs,
// nil for everything else.
func runPace(a strava.Activity) *string {
	if !a.IsRun() {
		return nil
	}
	p := FormatPace(a.AverageSpeed)
	return &p
}

// elapsedOrMoving falls back to moving time when the elapsed time is absent.
func elapsedOrMoving(a strava.Activity) int64 {
	if a.ElapsedTime > 0 {
		return a.ElapsedTime
	}
	return a.MovingTime
}

// SummarizeCompact converts an activity to its compact presentation form.
func SummarizeCompact(a strava.Activity) CompactSummary {
	return CompactSummary{
		ID:       a.ID,
		Date:     a.LocalDate(),
		Name:     a.Name,
		Distance: FormatDistance(a.Distance),
		Time:     FormatDuration(elapsedOrMoving(a)),
		Pace:     runPace(a),
		HR:       a.AverageHeartrate,
	}
}

// Summarize converts an activity to its full presentation form.
func Summarize(a strava.Activity) Summary {
	return Summary{
		ID:                 a.ID,
		Name:               a.Name,
		Type:               a.Type,
		Date:               a.LocalDate(),
		Distance:           FormatDistance(a.Distance),
		DistanceMeters:     a.Distance,
		MovingTime:         FormatDuration(a.MovingTime),
		MovingTimeSeconds:  a.MovingTime,
		ElapsedTime:        FormatDuration(elapsedOrMoving(a)),
		ElapsedTimeSeconds: elapsedOrMoving(a),
		Pace:               runPace(a),
		AverageSpeedMps:    a.AverageSpeed,
		ElevationGain:      FormatElevation(a.TotalElevationGain),
		AverageHeartrate:   a.AverageHeartrate,
		MaxHeartrate:       a.MaxHeartrate,
		SufferScore:        a.SufferScore,
		Calories:           a.Calories,
	}
}

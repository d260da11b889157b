package stats

import (
	"math"
	"sort"
	"time"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// MaxWeeks caps a training-load analysis window.
const MaxWeeks = 16

// WeekSummary holds the derived statistics for one training week, keyed by
// the ISO date of its Monday.
type WeekSummary struct {
	WeekOf     string  `json:"week_of"`
	Runs       int     `json:"runs"`
	Distance   string  `json:"distance"`
	DistanceKm float64 `json:"distance_km"`
	Time       string  `json:"time"`
	Elevation  string  `json:"elevation"`
}

// TrainingLoad is the weekly training-load report over a recent window.
type TrainingLoad struct {
	WeeksAnalyzed           int           `json:"weeks_analyzed"`
	WeeklyBreakdown         []WeekSummary `json:"weekly_breakdown"`
	AverageWeeklyDistanceKm float64       `json:"average_weekly_distance_km"`
	AverageRunsPerWeek      float64       `json:"average_runs_per_week"`
	TotalDistance           string        `json:"total_distance"`
	TotalRuns               int           `json:"total_runs"`
}

// ClampWeeks normalizes a caller-supplied week count: default 8, at most MaxWeeks.
func ClampWeeks(weeks int) int {
	if weeks <= 0 {
		return 8
	}
	if weeks > MaxWeeks {
		return MaxWeeks
	}
	return weeks
}

// mondayOf returns the Monday of t's week at midnight, in t's location.
// Weekday offsets count 0=Monday through 6=Sunday.
func mondayOf(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7
	return time.Date(t.Year(), t.Month(), t.Day()-offset, 0, 0, 0, 0, t.Location())
}

// WindowStart returns the earliest week boundary for a weeks-long analysis
// window ending now: the Monday of the current week minus weeks-1 whole weeks.
func WindowStart(now time.Time, weeks int) time.Time {
	return mondayOf(now).AddDate(0, 0, -7*(weeks-1))
}

// ComputeTrainingLoad buckets runs by training week and derives per-week and
// overall totals. The caller is expected to have already restricted
// activities to the analysis window via a time-bounded fetch; the function
// re-derives week buckets from whatever it is given and does not re-filter
// by the boundary.
//
// Weeks with no runs produce no bucket: gaps stay gaps, they are never
// zero-filled or interpolated.
func ComputeTrainingLoad(activities []strava.Activity) TrainingLoad {
	byWeek := make(map[string]*weekBucket)

	for _, a := range activities {
		if !a.IsRun() {
			continue
		}
		date := a.LocalDate()
		if date == "" {
			continue
		}
		day, err := time.Parse("2006-01-02", date)
		if err != nil {
			continue
		}

		key := mondayOf(day).Format("2006-01-02")
		b := byWeek[key]
		if b == nil {
			b = &weekBucket{}
			byWeek[key] = b
		}
		b.runs++
		b.distanceM += a.Distance
		b.timeS += a.MovingTime
		b.elevM += a.TotalElevationGain
	}

	keys := make([]string, 0, len(byWeek))
	for k := range byWeek {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	load := TrainingLoad{
		WeeklyBreakdown: make([]WeekSummary, 0, len(keys)),
	}

	var totalDistanceM float64
	for _, k := range keys {
		b := byWeek[k]
		load.WeeklyBreakdown = append(load.WeeklyBreakdown, WeekSummary{
			WeekOf:     k,
			Runs:       b.runs,
			Distance:   FormatDistance(b.distanceM),
			DistanceKm: roundKm(b.distanceM),
			Time:       FormatDuration(b.timeS),
			Elevation:  FormatElevation(b.elevM),
		})
		totalDistanceM += b.distanceM
		load.TotalRuns += b.runs
	}

	load.WeeksAnalyzed = len(load.WeeklyBreakdown)
	load.TotalDistance = FormatDistance(totalDistanceM)

	if len(load.WeeklyBreakdown) > 0 {
		var kmSum, runSum float64
		for _, w := range load.WeeklyBreakdown {
			kmSum += w.DistanceKm
			runSum += float64(w.Runs)
		}
		n := float64(len(load.WeeklyBreakdown))
		load.AverageWeeklyDistanceKm = round1(kmSum / n)
		load.AverageRunsPerWeek = round1(runSum / n)
	}

	return load
}

type weekBucket struct {
	runs      int
	distanceM float64
	timeS     int64
	elevM     float64
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

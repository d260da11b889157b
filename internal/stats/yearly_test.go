package stats

import (
	"testing"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

func run(year string, distanceM float64, timeS int64, elevM float64) strava.Activity {
	return strava.Activity{
		Type:               "Run",
		StartDateLocal:     year + "-03-10T08:00:00Z",
		Distance:           distanceM,
		MovingTime:         timeS,
		TotalElevationGain: elevM,
	}
}

func TestYearlyAllYears(t *testing.T) {
	activities := []strava.Activity{
		run("2024", 10000, 3000, 100),
		run("2024", 5000, 1500, 50),
		run("2023", 21097, 6330, 200),
		{Type: "Ride", StartDateLocal: "2024-05-01T08:00:00Z", Distance: 40000, MovingTime: 5400},
	}

	got := Yearly(activities, 0)
	if len(got) != 2 {
		t.Fatalf("expected 2 year buckets, got %d", len(got))
	}

	y2024, ok := got["2024"]
	if !ok {
		t.Fatal("expected a 2024 bucket")
	}
	if y2024.TotalRuns != 2 {
		t.Errorf("expected 2 runs in 2024, got %d", y2024.TotalRuns)
	}
	if y2024.TotalDistance != "15.00 km" {
		t.Errorf("expected total distance 15.00 km, got %q", y2024.TotalDistance)
	}
	if y2024.TotalDistanceKm != 15.0 {
		t.Errorf("expected total distance km 15.0, got %f", y2024.TotalDistanceKm)
	}
	if y2024.TotalTime != "1:15:00" {
		t.Errorf("expected total time 1:15:00, got %q", y2024.TotalTime)
	}
	if y2024.TotalElevation != "150m" {
		t.Errorf("expected total elevation 150m, got %q", y2024.TotalElevation)
	}
	if y2024.AverageRunDistance != "7.50 km" {
		t.Errorf("expected average run distance 7.50 km, got %q", y2024.AverageRunDistance)
	}
	// 15000m over 4500s is 5:00/km
	if y2024.AveragePace != "5:00/km" {
		t.Errorf("expected average pace 5:00/km, got %q", y2024.AveragePace)
	}
}

func TestYearlySingleYear(t *testing.T) {
	activities := []strava.Activity{
		run("2024", 10000, 3000, 100),
		run("2023", 5000, 1500, 50),
	}

	got := Yearly(activities, 2023)
	if len(got) != 1 {
		t.Fatalf("expected 1 year bucket, got %d", len(got))
	}
	if _, ok := got["2023"]; !ok {
		t.Error("expected only the 2023 bucket")
	}
}

func TestYearlyNoRunsInRequestedYear(t *testing.T) {
	activities := []strava.Activity{
		run("2024", 10000, 3000, 100),
	}

	got := Yearly(activities, 2019)
	if len(got) != 0 {
		t.Errorf("expected empty map for a year with no runs, got %d buckets", len(got))
	}
}

func TestYearlyZeroTimePaceIsNA(t *testing.T) {
	activities := []strava.Activity{
		run("2024", 5000, 0, 0),
	}

	got := Yearly(activities, 0)
	y := got["2024"]
	if y.AveragePace != "N/A" {
		t.Errorf("expected N/A pace with zero moving time, got %q", y.AveragePace)
	}
}

func TestYearlySkipsEmptyDates(t *testing.T) {
	activities := []strava.Activity{
		{Type: "Run", StartDateLocal: "", Distance: 5000, MovingTime: 1500},
		run("2024", 10000, 3000, 0),
	}

	got := Yearly(activities, 0)
	if len(got) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(got))
	}
	if got["2024"].TotalRuns != 1 {
		t.Errorf("expected the dateless run to be skipped, got %d runs", got["2024"].TotalRuns)
	}
}

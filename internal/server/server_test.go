package server

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/cache"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/store"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// fakeFetcher implements ActivityFetcher for testing.
type fakeFetcher struct {
	activities []strava.Activity
	err        error

	fetchAllCalls  int
	lastOpts       strava.FetchOptions
	fetchPageCalls int
	lastPerPage    int
}

func (f *fakeFetcher) FetchAll(ctx context.Context, opts strava.FetchOptions) ([]strava.Activity, error) {
	f.fetchAllCalls++
	f.lastOpts = opts
	if f.err != nil {
		return nil, f.err
	}
	return f.activities, nil
}

func (f *fakeFetcher) FetchPage(ctx context.Context, perPage, page int, opts strava.FetchOptions) ([]strava.Activity, error) {
	f.fetchPageCalls++
	f.lastPerPage = perPage
	if f.err != nil {
		return nil, f.err
	}
	if perPage < len(f.activities) {
		return f.activities[:perPage], nil
	}
	return f.activities, nil
}

func testServer(t *testing.T, fetcher *fakeFetcher) *Server {
	t.Helper()
	dir := t.TempDir()
	s := New(fetcher, cache.NewStore(dir), store.New(dir))
	s.now = func() time.Time { return time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC) }
	return s
}

func testRun(id int64, date string, distanceM float64, timeS int64) strava.Activity {
	return strava.Activity{
		ID:             id,
		Name:           fmt.Sprintf("Run %d", id),
		Type:           "Run",
		StartDateLocal: date + "T07:00:00Z",
		Distance:       distanceM,
		MovingTime:     timeS,
		ElapsedTime:    timeS,
		AverageSpeed:   distanceM / float64(timeS),
	}
}

func TestSyncAllActivities(t *testing.T) {
	fetcher := &fakeFetcher{activities: []strava.Activity{
		testRun(1, "2023-04-10", 10000, 3000),
		testRun(2, "2024-02-01", 5000, 1500),
		{ID: 3, Type: "Ride", StartDateLocal: "2024-03-01T09:00:00Z", Distance: 40000, MovingTime: 5400},
	}}
	s := testServer(t, fetcher)

	_, output, err := s.syncAllActivities(context.Background(), nil, SyncAllActivitiesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !output.Success {
		t.Error("expected success")
	}
	if output.TotalActivities != 3 || output.TotalRuns != 2 {
		t.Errorf("expected 3 activities / 2 runs, got %d / %d", output.TotalActivities, output.TotalRuns)
	}
	if output.TotalRunDistance != "15.00 km" {
		t.Errorf("expected run distance 15.00 km, got %q", output.TotalRunDistance)
	}
	if output.DateRange != "2023-04-10 to 2024-03-01" {
		t.Errorf("unexpected date range: %q", output.DateRange)
	}
	if output.RunsByYear["2023"] != 1 || output.RunsByYear["2024"] != 1 {
		t.Errorf("unexpected runs by year: %v", output.RunsByYear)
	}

	// The sync persisted to the cache
	snap, err := s.cache.Load()
	if err != nil {
		t.Fatalf("cache load failed: %v", err)
	}
	if snap == nil || snap.Count != 3 {
		t.Errorf("expected 3 cached activities, got %+v", snap)
	}
}

func TestSyncAllActivitiesUpstreamError(t *testing.T) {
	fetcher := &fakeFetcher{err: fmt.Errorf("strava is down")}
	s := testServer(t, fetcher)

	_, _, err := s.syncAllActivities(context.Background(), nil, SyncAllActivitiesInput{})
	if err == nil {
		t.Fatal("expected error")
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != ErrUpstream {
		t.Errorf("expected upstream ToolError, got: %v", err)
	}

	// No partial cache write on failure
	snap, _ := s.cache.Load()
	if snap != nil {
		t.Error("expected no cache write after failed fetch")
	}
}

func TestSearchActivitiesEmptyCache(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	_, output, err := s.searchActivities(context.Background(), nil, SearchActivitiesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Error != noCacheMessage {
		t.Errorf("expected the no-cache message, got %q", output.Error)
	}
	if output.Activities == nil || len(output.Activities) != 0 {
		t.Errorf("expected empty activities slice, got %v", output.Activities)
	}
}

func TestSearchActivitiesFiltersAndLimit(t *testing.T) {
	activities := make([]strava.Activity, 0, 40)
	for i := 1; i <= 40; i++ {
		activities = append(activities, testRun(int64(i), "2024-03-01", 8000, 2400))
	}
	fetcher := &fakeFetcher{activities: activities}
	s := testServer(t, fetcher)

	if _, _, err := s.syncAllActivities(context.Background(), nil, SyncAllActivitiesInput{}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	// Default limit is 10
	_, output, err := s.searchActivities(context.Background(), nil, SearchActivitiesInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.ResultsCount != 10 {
		t.Errorf("expected default limit 10, got %d", output.ResultsCount)
	}
	if output.TotalCached != 40 {
		t.Errorf("expected 40 cached, got %d", output.TotalCached)
	}

	// An oversized limit is clamped to 25
	_, output, err = s.searchActivities(context.Background(), nil, SearchActivitiesInput{Limit: 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.ResultsCount != 25 {
		t.Errorf("expected clamped limit 25, got %d", output.ResultsCount)
	}

	// A type with no matches yields an empty, non-nil slice
	_, output, err = s.searchActivities(context.Background(), nil, SearchActivitiesInput{ActivityType: "Swim"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.ResultsCount != 0 || output.Activities == nil {
		t.Errorf("expected empty result set, got %+v", output)
	}
}

func TestGetYearlyStatsEmptyCache(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	_, output, err := s.getYearlyStats(context.Background(), nil, YearlyStatsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Error != noCacheMessage {
		t.Errorf("expected the no-cache message, got %q", output.Error)
	}
}

func TestGetYearlyStats(t *testing.T) {
	fetcher := &fakeFetcher{activities: []strava.Activity{
		testRun(1, "2023-04-10", 10000, 3000),
		testRun(2, "2024-02-01", 5000, 1500),
	}}
	s := testServer(t, fetcher)

	if _, _, err := s.syncAllActivities(context.Background(), nil, SyncAllActivitiesInput{}); err != nil {
		t.Fatalf("sync failed: %v", err)
	}

	_, output, err := s.getYearlyStats(context.Background(), nil, YearlyStatsInput{Year: 2024})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(output.YearlyStats) != 1 {
		t.Fatalf("expected 1 year bucket, got %d", len(output.YearlyStats))
	}
	if output.YearlyStats["2024"].TotalRuns != 1 {
		t.Errorf("unexpected 2024 stats: %+v", output.YearlyStats["2024"])
	}
	if output.CacheUpdated == "" {
		t.Error("expected cache timestamp in output")
	}
}

func TestGetTrainingLoadWindow(t *testing.T) {
	fetcher := &fakeFetcher{activities: []strava.Activity{
		testRun(1, "2024-06-10", 10000, 3000),
		testRun(2, "2024-06-11", 5000, 1500),
	}}
	s := testServer(t, fetcher)

	_, load, err := s.getTrainingLoad(context.Background(), nil, TrainingLoadInput{Weeks: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// now is Wednesday 2024-06-12; a 1-week window starts Monday 2024-06-10
	wantAfter := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).Unix()
	if fetcher.lastOpts.After != wantAfter {
		t.Errorf("expected fetch after %d, got %d", wantAfter, fetcher.lastOpts.After)
	}

	if load.WeeksAnalyzed != 1 {
		t.Fatalf("expected 1 week analyzed, got %d", load.WeeksAnalyzed)
	}
	if load.WeeklyBreakdown[0].Runs != 2 {
		t.Errorf("expected 2 runs in the week, got %d", load.WeeklyBreakdown[0].Runs)
	}
}

func TestGetTrainingLoadClampsWeeks(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := testServer(t, fetcher)

	if _, _, err := s.getTrainingLoad(context.Background(), nil, TrainingLoadInput{Weeks: 50}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 16 weeks back from Monday 2024-06-10
	wantAfter := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -7*15).Unix()
	if fetcher.lastOpts.After != wantAfter {
		t.Errorf("expected window clamped to 16 weeks (after=%d), got %d", wantAfter, fetcher.lastOpts.After)
	}
}

func TestGetRecentActivitiesRunsOnly(t *testing.T) {
	fetcher := &fakeFetcher{activities: []strava.Activity{
		testRun(1, "2024-06-11", 10000, 3000),
		{ID: 2, Type: "Ride", StartDateLocal: "2024-06-10T09:00:00Z", Distance: 40000, MovingTime: 5400},
		testRun(3, "2024-06-09", 5000, 1500),
	}}
	s := testServer(t, fetcher)

	_, output, err := s.getRecentActivities(context.Background(), nil, RecentActivitiesInput{Count: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Count != 2 {
		t.Fatalf("expected 2 activities, got %d", output.Count)
	}
	// The ride is filtered out; runs keep their order
	if output.Activities[0].ID != 1 || output.Activities[1].ID != 3 {
		t.Errorf("unexpected activities: %+v", output.Activities)
	}
	// Over-fetch doubles the count when filtering to runs
	if fetcher.lastPerPage != 4 {
		t.Errorf("expected per_page 4 (2x over-fetch), got %d", fetcher.lastPerPage)
	}
}

func TestGetRecentActivitiesIncludeAll(t *testing.T) {
	fetcher := &fakeFetcher{activities: []strava.Activity{
		testRun(1, "2024-06-11", 10000, 3000),
		{ID: 2, Type: "Ride", StartDateLocal: "2024-06-10T09:00:00Z", Distance: 40000, MovingTime: 5400},
	}}
	s := testServer(t, fetcher)

	runsOnly := false
	_, output, err := s.getRecentActivities(context.Background(), nil, RecentActivitiesInput{Count: 10, RunsOnly: &runsOnly})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Count != 2 {
		t.Fatalf("expected 2 activities, got %d", output.Count)
	}
	if output.Activities[1].Pace != nil {
		t.Error("expected nil pace for the ride")
	}
	if fetcher.lastPerPage != 10 {
		t.Errorf("expected per_page 10 without over-fetch, got %d", fetcher.lastPerPage)
	}
}

func TestGetRecentActivitiesFetchCapped(t *testing.T) {
	fetcher := &fakeFetcher{}
	s := testServer(t, fetcher)

	if _, _, err := s.getRecentActivities(context.Background(), nil, RecentActivitiesInput{Count: 100}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 * 2 over-fetch is capped at the API page maximum
	if fetcher.lastPerPage != strava.PerPage {
		t.Errorf("expected per_page capped at %d, got %d", strava.PerPage, fetcher.lastPerPage)
	}
}

package server

import (
	"context"
	"fmt"
	"sort"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/cache"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/stats"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// Result-size caps for the tool surface. The cache query engine truncates at
// whatever limit it is handed; the caps live here.
const (
	defaultSearchLimit = 10
	maxSearchLimit     = 25
	defaultRecentCount = 10
	maxRecentCount     = 100
)

const noCacheMessage = "No cached activities. Run sync_all_activities first."

func (s *Server) registerActivityTools() {
	logging.Debug("Registering tool", "name", "sync_all_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "sync_all_activities",
		Description: `Sync ALL activities from Strava to the local cache. Run this once to enable historical analysis. Returns a summary, not the full data.

Use when:
- The cache is empty or stale and the user wants historical queries
- search_activities or get_yearly_stats report no cached data

Returns: success flag, total activities, run totals, date range covered, and run counts by year.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Sync All Activities",
			ReadOnlyHint:    false,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(true),
			DestructiveHint: ptr(false),
		},
	}, s.syncAllActivities)

	logging.Debug("Registering tool", "name", "search_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "search_activities",
		Description: `Search cached activities with filters. Run sync_all_activities first to populate the cache.

Parameters:
- activity_type (string): Filter by type: 'Run', 'Ride', 'Swim', etc.
- year (integer): Filter by year (e.g., 2024).
- min_distance_km (number): Minimum distance in kilometers.
- max_distance_km (number): Maximum distance in kilometers.
- limit (integer): Max results to return. Default: 10, Max: 25.

Returns: cache timestamp, total cached count, and compact activity summaries in cache order.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Search Activities",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.searchActivities)

	logging.Debug("Registering tool", "name", "get_yearly_stats")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_yearly_stats",
		Description: `Get aggregated running statistics by year from cached activities. Great for year-over-year comparisons.

Parameters:
- year (integer): Specific year to analyze (omit for all years).

Returns: per-year run count, distance, time, elevation, average run distance, and average pace.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Yearly Stats",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getYearlyStats)

	logging.Debug("Registering tool", "name", "get_training_load")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_training_load",
		Description: `Analyze recent training load with weekly mileage trends. Fetches fresh data from Strava for the analysis window.

Parameters:
- weeks (integer): Number of weeks to analyze. Default: 8, Max: 16.

Returns: per-week run count, distance, time, elevation plus weekly averages and grand totals. Weeks without runs are omitted.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Training Load",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(true),
			DestructiveHint: ptr(false),
		},
	}, s.getTrainingLoad)

	logging.Debug("Registering tool", "name", "get_recent_activities")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_recent_activities",
		Description: `Get recent activities straight from Strava with pace, distance, and heart rate. For historical data use sync_all_activities then search_activities.

Parameters:
- count (integer): Number of activities to retrieve. Default: 10, Max: 100.
- runs_only (boolean): Only include running activities. Default: true.

Returns: full activity summaries, newest first.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Recent Activities",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(true),
			DestructiveHint: ptr(false),
		},
	}, s.getRecentActivities)
}

// Tool input/output types

// SyncAllActivitiesInput - sync takes no parameters
type SyncAllActivitiesInput struct{}

type SyncAllActivitiesOutput struct {
	Success          bool           `json:"success"`
	TotalActivities  int            `json:"total_activities"`
	TotalRuns        int            `json:"total_runs"`
	TotalRunDistance string         `json:"total_run_distance"`
	TotalRunTime     string         `json:"total_run_time"`
	DateRange        string         `json:"date_range"`
	RunsByYear       map[string]int `json:"runs_by_year"`
	Message          string         `json:"message"`
}

// SearchActivitiesInput - filters for cached activity search
type SearchActivitiesInput struct {
	ActivityType  string   `json:"activity_type,omitempty" jsonschema:"Filter by activity type. Common values: Run, Ride, Swim, Walk, Hike."`
	Year          int      `json:"year,omitempty" jsonschema:"Filter by calendar year of the local start date (e.g., 2024)."`
	MinDistanceKm *float64 `json:"min_distance_km,omitempty" jsonschema:"Minimum distance in kilometers."`
	MaxDistanceKm *float64 `json:"max_distance_km,omitempty" jsonschema:"Maximum distance in kilometers."`
	Limit         int      `json:"limit,omitempty" jsonschema:"Maximum number of results. Default: 10, Maximum: 25."`
}

type SearchActivitiesOutput struct {
	Error        string                 `json:"error,omitempty"`
	CacheUpdated string                 `json:"cache_updated,omitempty"`
	TotalCached  int                    `json:"total_cached,omitempty"`
	ResultsCount int                    `json:"results_count"`
	Activities   []stats.CompactSummary `json:"activities"`
}

// YearlyStatsInput - optional single-year restriction
type YearlyStatsInput struct {
	Year int `json:"year,omitempty" jsonschema:"Specific year to analyze (omit for all years)."`
}

type YearlyStatsOutput struct {
	Error        string                       `json:"error,omitempty"`
	CacheUpdated string                       `json:"cache_updated,omitempty"`
	YearlyStats  map[string]stats.YearSummary `json:"yearly_stats,omitempty"`
}

// TrainingLoadInput - analysis window length
type TrainingLoadInput struct {
	Weeks int `json:"weeks,omitempty" jsonschema:"Number of weeks to analyze. Default: 8, Maximum: 16."`
}

// RecentActivitiesInput - live single-page fetch
type RecentActivitiesInput struct {
	Count    int   `json:"count,omitempty" jsonschema:"Number of activities to retrieve. Default: 10, Maximum: 100."`
	RunsOnly *bool `json:"runs_only,omitempty" jsonschema:"Only include running activities. Default: true."`
}

type RecentActivitiesOutput struct {
	Count      int             `json:"count"`
	Activities []stats.Summary `json:"activities"`
}

// Tool handlers

func (s *Server) syncAllActivities(ctx context.Context, req *mcp.CallToolRequest, input SyncAllActivitiesInput) (*mcp.CallToolResult, SyncAllActivitiesOutput, error) {
	logging.Info("MCP tool call", "tool", "sync_all_activities")

	activities, err := s.fetcher.FetchAll(ctx, strava.FetchOptions{})
	if err != nil {
		return nil, SyncAllActivitiesOutput{}, NewUpstreamError("activity fetch", err)
	}

	if err := s.cache.Save(activities); err != nil {
		return nil, SyncAllActivitiesOutput{}, NewStorageError("cache write", err)
	}

	output := summarizeSync(activities)

	logging.Info("MCP tool completed", "tool", "sync_all_activities", "total", output.TotalActivities, "runs", output.TotalRuns)
	return nil, output, nil
}

// summarizeSync derives the post-sync report: run totals, covered date
// range, and run counts per year.
func summarizeSync(activities []strava.Activity) SyncAllActivitiesOutput {
	var runDistance float64
	var runTime int64
	totalRuns := 0
	runsByYear := make(map[string]int)

	oldest, newest := "N/A", "N/A"
	var dates []string
	for _, a := range activities {
		if d := a.LocalDate(); d != "" {
			dates = append(dates, d)
		}
		if !a.IsRun() {
			continue
		}
		totalRuns++
		runDistance += a.Distance
		runTime += a.MovingTime
		if y := a.LocalYear(); y != "" {
			runsByYear[y]++
		}
	}
	if len(dates) > 0 {
		sort.Strings(dates)
		oldest, newest = dates[0], dates[len(dates)-1]
	}

	return SyncAllActivitiesOutput{
		Success:          true,
		TotalActivities:  len(activities),
		TotalRuns:        totalRuns,
		TotalRunDistance: stats.FormatDistance(runDistance),
		TotalRunTime:     stats.FormatDuration(runTime),
		DateRange:        fmt.Sprintf("%s to %s", oldest, newest),
		RunsByYear:       runsByYear,
		Message:          "Activities cached locally. Use search_activities to query them.",
	}
}

func (s *Server) searchActivities(ctx context.Context, req *mcp.CallToolRequest, input SearchActivitiesInput) (*mcp.CallToolResult, SearchActivitiesOutput, error) {
	logging.Info("MCP tool call", "tool", "search_activities", "type", input.ActivityType, "year", input.Year, "limit", input.Limit)
	if logging.IsVerbose() {
		logging.Debug("MCP request params", "tool", "search_activities", "input", logging.ToJSON(input))
	}

	snap, err := s.cache.Load()
	if err != nil {
		return nil, SearchActivitiesOutput{}, NewStorageError("cache read", err)
	}
	if snap == nil {
		return nil, SearchActivitiesOutput{
			Error:      noCacheMessage,
			Activities: []stats.CompactSummary{},
		}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	results := snap.Query(cache.Filter{
		Type:  input.ActivityType,
		Year:  input.Year,
		MinKm: input.MinDistanceKm,
		MaxKm: input.MaxDistanceKm,
		Limit: limit,
	})

	summaries := make([]stats.CompactSummary, 0, len(results))
	for _, a := range results {
		summaries = append(summaries, stats.SummarizeCompact(a))
	}

	output := SearchActivitiesOutput{
		CacheUpdated: snap.UpdatedAt,
		TotalCached:  snap.Count,
		ResultsCount: len(summaries),
		Activities:   summaries,
	}

	logging.Info("MCP tool completed", "tool", "search_activities", "returned", output.ResultsCount)
	return nil, output, nil
}

func (s *Server) getYearlyStats(ctx context.Context, req *mcp.CallToolRequest, input YearlyStatsInput) (*mcp.CallToolResult, YearlyStatsOutput, error) {
	logging.Info("MCP tool call", "tool", "get_yearly_stats", "year", input.Year)

	snap, err := s.cache.Load()
	if err != nil {
		return nil, YearlyStatsOutput{}, NewStorageError("cache read", err)
	}
	if snap == nil {
		return nil, YearlyStatsOutput{Error: noCacheMessage}, nil
	}

	output := YearlyStatsOutput{
		CacheUpdated: snap.UpdatedAt,
		YearlyStats:  stats.Yearly(snap.Activities, input.Year),
	}

	logging.Info("MCP tool completed", "tool", "get_yearly_stats", "years", len(output.YearlyStats))
	return nil, output, nil
}

func (s *Server) getTrainingLoad(ctx context.Context, req *mcp.CallToolRequest, input TrainingLoadInput) (*mcp.CallToolResult, stats.TrainingLoad, error) {
	weeks := stats.ClampWeeks(input.Weeks)
	logging.Info("MCP tool call", "tool", "get_training_load", "weeks", weeks)

	after := stats.WindowStart(s.now(), weeks).Unix()
	activities, err := s.fetcher.FetchAll(ctx, strava.FetchOptions{After: after})
	if err != nil {
		return nil, stats.TrainingLoad{}, NewUpstreamError("activity fetch", err)
	}

	load := stats.ComputeTrainingLoad(activities)

	logging.Info("MCP tool completed", "tool", "get_training_load", "weeks_analyzed", load.WeeksAnalyzed)
	return nil, load, nil
}

func (s *Server) getRecentActivities(ctx context.Context, req *mcp.CallToolRequest, input RecentActivitiesInput) (*mcp.CallToolResult, RecentActivitiesOutput, error) {
	count := input.Count
	if count <= 0 {
		count = defaultRecentCount
	}
	if count > maxRecentCount {
		count = maxRecentCount
	}
	runsOnly := input.RunsOnly == nil || *input.RunsOnly

	logging.Info("MCP tool call", "tool", "get_recent_activities", "count", count, "runs_only", runsOnly)

	// Over-fetch when filtering to runs so the requested count survives the
	// filter, capped at the API's page-size maximum.
	fetchCount := count
	if runsOnly {
		fetchCount = count * 2
	}
	if fetchCount > strava.PerPage {
		fetchCount = strava.PerPage
	}

	activities, err := s.fetcher.FetchPage(ctx, fetchCount, 1, strava.FetchOptions{})
	if err != nil {
		return nil, RecentActivitiesOutput{}, NewUpstreamError("activity fetch", err)
	}

	summaries := make([]stats.Summary, 0, count)
	for _, a := range activities {
		if runsOnly && !a.IsRun() {
			continue
		}
		summaries = append(summaries, stats.Summarize(a))
		if len(summaries) == count {
			break
		}
	}

	output := RecentActivitiesOutput{
		Count:      len(summaries),
		Activities: summaries,
	}

	logging.Info("MCP tool completed", "tool", "get_recent_activities", "returned", output.Count)
	return nil, output, nil
}

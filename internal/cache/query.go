package cache

import (
	"strconv"
	"strings"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/strava"
)

// Filter narrows a snapshot query. Zero-valued fields are not applied;
// MinKm/MaxKm are pointers because 0 is a meaningful bound.
type Filter struct {
	Type  string
	Year  int
	MinKm *float64
	MaxKm *float64
	Limit int
}

// Query filters the snapshot's activities, preserving cache order. Filters
// apply in a fixed sequence: type, year, min distance, max distance, limit.
// Each step is a pure narrowing of the previous result.
//
// The engine truncates at whatever limit it is given; response-size caps
// belong to the tool layer.
func (s *Snapshot) Query(f Filter) []strava.Activity {
	if s == nil {
		return []strava.Activity{}
	}

	results := make([]strava.Activity, 0, len(s.Activities))
	yearPrefix := ""
	if f.Year > 0 {
		yearPrefix = strconv.Itoa(f.Year)
	}

	for _, a := range s.Activities {
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if yearPrefix != "" && !strings.HasPrefix(a.StartDateLocal, yearPrefix) {
			continue
		}
		if f.MinKm != nil && a.Distance < *f.MinKm*1000 {
			continue
		}
		if f.MaxKm != nil && a.Distance > *f.MaxKm*1000 {
			continue
		}
		results = append(results, a)
	}

	if f.Limit > 0 && len(results) > f.Limit {
		results = results[:f.Limit]
	}
	return results
}

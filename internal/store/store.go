// Package store is the flat-file persistence layer for user-authored
// planning records: running goals and upcoming races. Each collection lives
// in a single JSON file that is loaded whole, mutated in memory, and written
// back whole. Adequate at this scale; the load/save contract is the stable
// boundary if it ever isn't.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	goalsFile = "goals.json"
	racesFile = "races.json"
)

// Goal is a user-authored running goal.
type Goal struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Target    string `json:"target"`
	Deadline  string `json:"deadline,omitempty"`
	Notes     string `json:"notes,omitempty"`
	Completed bool   `json:"completed"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Race is an upcoming race on the user's calendar.
type Race struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Date      string `json:"date"`
	Distance  string `json:"distance"`
	GoalTime  string `json:"goal_time,omitempty"`
	Location  string `json:"location,omitempty"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// GoalUpdate carries the updatable goal fields; nil means leave unchanged.
type GoalUpdate struct {
	Type      *string
	Target    *string
	Deadline  *string
	Notes     *string
	Completed *bool
}

// RaceUpdate carries the updatable race fields; nil means leave unchanged.
type RaceUpdate struct {
	Name     *string
	Date     *string
	Distance *string
	GoalTime *string
	Location *string
	Notes    *string
}

// Store persists goals and races under a data directory.
type Store struct {
	dir string
	now func() time.Time
}

// New creates a Store rooted at the given data directory.
func New(dataDir string) *Store {
	return &Store{dir: dataDir, now: time.Now}
}

// newID returns a short random identifier, the first 8 hex characters of a
// UUID. Plenty of entropy for a single user's records.
func newID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Goals returns all stored goals.
func (s *Store) Goals() ([]Goal, error) {
	var goals []Goal
	if err := s.loadJSON(goalsFile, &goals); err != nil {
		return nil, err
	}
	return goals, nil
}

// Goal returns the goal with the given id, or ok=false when absent.
func (s *Store) Goal(id string) (Goal, bool, error) {
	goals, err := s.Goals()
	if err != nil {
		return Goal{}, false, err
	}
	for _, g := range goals {
		if g.ID == id {
			return g, true, nil
		}
	}
	return Goal{}, false, nil
}

// AddGoal creates and persists a new goal.
func (s *Store) AddGoal(goalType, target, deadline, notes string) (Goal, error) {
	goals, err := s.Goals()
	if err != nil {
		return Goal{}, err
	}

	goal := Goal{
		ID:        newID(),
		Type:      goalType,
		Target:    target,
		Deadline:  deadline,
		Notes:     notes,
		CreatedAt: s.now().Format(time.RFC3339),
	}
	goals = append(goals, goal)

	if err := s.saveJSON(goalsFile, goals); err != nil {
		return Goal{}, err
	}
	return goal, nil
}

// UpdateGoal applies the given update to an existing goal, stamping
// updated_at. Returns ok=false when the id is unknown.
func (s *Store) UpdateGoal(id string, upd GoalUpdate) (Goal, bool, error) {
	goals, err := s.Goals()
	if err != nil {
		return Goal{}, false, err
	}

	for i := range goals {
		if goals[i].ID != id {
			continue
		}
		if upd.Type != nil {
			goals[i].Type = *upd.Type
		}
		if upd.Target != nil {
			goals[i].Target = *upd.Target
		}
		if upd.Deadline != nil {
			goals[i].Deadline = *upd.Deadline
		}
		if upd.Notes != nil {
			goals[i].Notes = *upd.Notes
		}
		if upd.Completed != nil {
			goals[i].Completed = *upd.Completed
		}
		goals[i].UpdatedAt = s.now().Format(time.RFC3339)

		if err := s.saveJSON(goalsFile, goals); err != nil {
			return Goal{}, false, err
		}
		return goals[i], true, nil
	}
	return Goal{}, false, nil
}

// DeleteGoal removes a goal by id. Returns false when the id is unknown.
func (s *Store) DeleteGoal(id string) (bool, error) {
	goals, err := s.Goals()
	if err != nil {
		return false, err
	}

	kept := goals[:0]
	for _, g := range goals {
		if g.ID != id {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(goals) {
		return false, nil
	}
	return true, s.saveJSON(goalsFile, kept)
}

// Races returns all stored races.
func (s *Store) Races() ([]Race, error) {
	var races []Race
	if err := s.loadJSON(racesFile, &races); err != nil {
		return nil, err
	}
	return races, nil
}

// Race returns the race with the given id, or ok=false when absent.
func (s *Store) Race(id string) (Race, bool, error) {
	races, err := s.Races()
	if err != nil {
		return Race{}, false, err
	}
	for _, r := range races {
		if r.ID == id {
			return r, true, nil
		}
	}
	return Race{}, false, nil
}

// AddRace creates and persists a new race.
func (s *Store) AddRace(name, date, distance, goalTime, location, notes string) (Race, error) {
	races, err := s.Races()
	if err != nil {
		return Race{}, err
	}

	race := Race{
		ID:        newID(),
		Name:      name,
		Date:      date,
		Distance:  distance,
		GoalTime:  goalTime,
		Location:  location,
		Notes:     notes,
		CreatedAt: s.now().Format(time.RFC3339),
	}
	races = append(races, race)

	if err := s.saveJSON(racesFile, races); err != nil {
		return Race{}, err
	}
	return race, nil
}

// UpdateRace applies the given update to an existing race, stamping
// updated_at. Returns ok=false when the id is unknown.
func (s *Store) UpdateRace(id string, upd RaceUpdate) (Race, bool, error) {
	races, err := s.Races()
	if err != nil {
		return Race{}, false, err
	}

	for i := range races {
		if races[i].ID != id {
			continue
		}
		if upd.Name != nil {
			races[i].Name = *upd.Name
		}
		if upd.Date != nil {
			races[i].Date = *upd.Date
		}
		if upd.Distance != nil {
			races[i].Distance = *upd.Distance
		}
		if upd.GoalTime != nil {
			races[i].GoalTime = *upd.GoalTime
		}
		if upd.Location != nil {
			races[i].Location = *upd.Location
		}
		if upd.Notes != nil {
			races[i].Notes = *upd.Notes
		}
		races[i].UpdatedAt = s.now().Format(time.RFC3339)

		if err := s.saveJSON(racesFile, races); err != nil {
			return Race{}, false, err
		}
		return races[i], true, nil
	}
	return Race{}, false, nil
}

// DeleteRace removes a race by id. Returns false when the id is unknown.
func (s *Store) DeleteRace(id string) (bool, error) {
	races, err := s.Races()
	if err != nil {
		return false, err
	}

	kept := races[:0]
	for _, r := range races {
		if r.ID != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(races) {
		return false, nil
	}
	return true, s.saveJSON(racesFile, kept)
}

func (s *Store) loadJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decoding %s: %w", name, err)
	}
	return nil
}

func (s *Store) saveJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", name, err)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing %s: %w", name, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", name, err)
	}
	return nil
}

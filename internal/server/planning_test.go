package server

import (
	"context"
	"errors"
	"testing"
)

func TestSetGoalCreate(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	goalType := "distance"
	target := "50km/week"
	_, output, err := s.setGoal(context.Background(), nil, SetGoalInput{GoalType: &goalType, Target: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !output.Success || output.Goal == nil {
		t.Fatalf("expected created goal, got %+v", output)
	}
	if output.Goal.Type != "distance" || output.Goal.Target != "50km/week" {
		t.Errorf("unexpected goal: %+v", output.Goal)
	}

	_, goals, err := s.getGoals(context.Background(), nil, GetGoalsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(goals.Goals) != 1 {
		t.Errorf("expected 1 goal, got %d", len(goals.Goals))
	}
}

func TestSetGoalCreateRequiresTypeAndTarget(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	_, _, err := s.setGoal(context.Background(), nil, SetGoalInput{})
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != ErrInvalidInput {
		t.Errorf("expected invalid-input ToolError, got: %v", err)
	}
}

func TestSetGoalUpdate(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	goalType := "race"
	target := "sub-20 5K"
	_, created, err := s.setGoal(context.Background(), nil, SetGoalInput{GoalType: &goalType, Target: &target})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	completed := true
	_, updated, err := s.setGoal(context.Background(), nil, SetGoalInput{
		GoalID:    created.Goal.ID,
		Completed: &completed,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Success || !updated.Goal.Completed {
		t.Errorf("expected completed goal, got %+v", updated.Goal)
	}
	// Untouched fields survive
	if updated.Goal.Target != "sub-20 5K" {
		t.Errorf("expected target preserved, got %q", updated.Goal.Target)
	}
}

func TestSetGoalUpdateNotFound(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	target := "anything"
	_, output, err := s.setGoal(context.Background(), nil, SetGoalInput{GoalID: "deadbeef", Target: &target})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Success {
		t.Error("expected success=false for unknown goal id")
	}
	if output.Message == "" {
		t.Error("expected a not-found message")
	}
}

func TestDeleteGoal(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	goalType := "consistency"
	target := "4 runs/week"
	_, created, err := s.setGoal(context.Background(), nil, SetGoalInput{GoalType: &goalType, Target: &target})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	_, deleted, err := s.deleteGoal(context.Background(), nil, DeleteGoalInput{GoalID: created.Goal.ID})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted.Success {
		t.Error("expected delete success")
	}

	_, again, err := s.deleteGoal(context.Background(), nil, DeleteGoalInput{GoalID: created.Goal.ID})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again.Success {
		t.Error("expected second delete to report not found")
	}
}

func TestRaceTools(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	_, added, err := s.addRace(context.Background(), nil, AddRaceInput{
		Name:     "City Half",
		Date:     "2024-09-15",
		Distance: "Half Marathon",
		GoalTime: "1:35:00",
	})
	if err != nil {
		t.Fatalf("add failed: %v", err)
	}
	if !added.Success || added.Race == nil {
		t.Fatalf("expected added race, got %+v", added)
	}

	goalTime := "1:32:00"
	_, updated, err := s.updateRace(context.Background(), nil, UpdateRaceInput{
		RaceID:   added.Race.ID,
		GoalTime: &goalTime,
	})
	if err != nil {
		t.Fatalf("update failed: %v", err)
	}
	if !updated.Success || updated.Race.GoalTime != "1:32:00" {
		t.Errorf("unexpected updated race: %+v", updated.Race)
	}
	if updated.Race.Name != "City Half" {
		t.Errorf("expected name preserved, got %q", updated.Race.Name)
	}

	_, races, err := s.getRaces(context.Background(), nil, GetRacesInput{})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(races.Races) != 1 {
		t.Fatalf("expected 1 race, got %d", len(races.Races))
	}

	_, deleted, err := s.deleteRace(context.Background(), nil, DeleteRaceInput{RaceID: added.Race.ID})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !deleted.Success {
		t.Error("expected delete success")
	}
}

func TestAddRaceRequiresFields(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	_, _, err := s.addRace(context.Background(), nil, AddRaceInput{Name: "No Date"})
	if err == nil {
		t.Fatal("expected error for missing fields")
	}
	var toolErr *ToolError
	if !errors.As(err, &toolErr) || toolErr.Code != ErrInvalidInput {
		t.Errorf("expected invalid-input ToolError, got: %v", err)
	}
}

func TestUpdateRaceNotFound(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	name := "Renamed"
	_, output, err := s.updateRace(context.Background(), nil, UpdateRaceInput{RaceID: "deadbeef", Name: &name})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Success {
		t.Error("expected success=false for unknown race id")
	}
}

func TestGetGoalsEmpty(t *testing.T) {
	s := testServer(t, &fakeFetcher{})

	_, output, err := s.getGoals(context.Background(), nil, GetGoalsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if output.Goals == nil {
		t.Fatal("expected empty slice, got nil")
	}
	if len(output.Goals) != 0 {
		t.Errorf("expected no goals, got %d", len(output.Goals))
	}
}

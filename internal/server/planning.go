package server

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/logging"
	"github.com/svidmar/Strava-Run-Coach-MCP-Server/internal/store"
)

func (s *Server) registerPlanningTools() {
	logging.Debug("Registering tool", "name", "get_goals")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_goals",
		Description: "Get your running goals.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Goals",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getGoals)

	logging.Debug("Registering tool", "name", "set_goal")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "set_goal",
		Description: `Add or update a running goal.

Parameters:
- goal_id (string): Goal ID to update (omit to create a new goal).
- goal_type (string): Type of goal: 'distance', 'pace', 'race', 'consistency'. Required for new goals.
- target (string): The target (e.g., 'sub-20 5K', '50km/week'). Required for new goals.
- deadline (string): Deadline date in YYYY-MM-DD format.
- notes (string): Additional notes about the goal.
- completed (boolean): Mark goal as completed (for updates).`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Set Goal",
			IdempotentHint:  false,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.setGoal)

	logging.Debug("Registering tool", "name", "delete_goal")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_goal",
		Description: "Delete a running goal by its ID.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Goal",
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(true),
		},
	}, s.deleteGoal)

	logging.Debug("Registering tool", "name", "get_races")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_races",
		Description: "Get your upcoming races.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Races",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getRaces)

	logging.Debug("Registering tool", "name", "add_race")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "add_race",
		Description: `Add an upcoming race to your calendar.

Parameters:
- name (string, required): Race name.
- date (string, required): Race date in YYYY-MM-DD format.
- distance (string, required): Race distance (e.g., '5K', '10K', 'Half Marathon', 'Marathon').
- goal_time (string): Your goal finish time.
- location (string): Race location.
- notes (string): Additional notes.`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Add Race",
			IdempotentHint:  false,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.addRace)

	logging.Debug("Registering tool", "name", "update_race")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "update_race",
		Description: "Update an existing race. Only the supplied fields change.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Update Race",
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.updateRace)

	logging.Debug("Registering tool", "name", "delete_race")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "delete_race",
		Description: "Delete a race from your calendar by its ID.",
		Annotations: &mcp.ToolAnnotations{
			Title:           "Delete Race",
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(true),
		},
	}, s.deleteRace)
}

// Tool input/output types

type GetGoalsInput struct{}

type GetGoalsOutput struct {
	Goals []store.Goal `json:"goals"`
}

// SetGoalInput - pointer fields distinguish "absent" from "set to zero value"
// on updates.
type SetGoalInput struct {
	GoalID    string  `json:"goal_id,omitempty" jsonschema:"Goal ID to update (omit to create a new goal)."`
	GoalType  *string `json:"goal_type,omitempty" jsonschema:"Type of goal: distance, pace, race, consistency."`
	Target    *string `json:"target,omitempty" jsonschema:"The target to achieve (e.g., 'sub-20 5K', '50km/week')."`
	Deadline  *string `json:"deadline,omitempty" jsonschema:"Deadline date in YYYY-MM-DD format."`
	Notes     *string `json:"notes,omitempty" jsonschema:"Additional notes about the goal."`
	Completed *bool   `json:"completed,omitempty" jsonschema:"Mark goal as completed (for updates)."`
}

type GoalMutationOutput struct {
	Success bool        `json:"success"`
	Goal    *store.Goal `json:"goal,omitempty"`
	Message string      `json:"message,omitempty"`
}

type DeleteGoalInput struct {
	GoalID string `json:"goal_id" jsonschema:"The ID of the goal to delete."`
}

type GetRacesInput struct{}

type GetRacesOutput struct {
	Races []store.Race `json:"races"`
}

type AddRaceInput struct {
	Name     string `json:"name" jsonschema:"Race name."`
	Date     string `json:"date" jsonschema:"Race date in YYYY-MM-DD format."`
	Distance string `json:"distance" jsonschema:"Race distance (e.g., 5K, 10K, Half Marathon, Marathon)."`
	GoalTime string `json:"goal_time,omitempty" jsonschema:"Your goal finish time."`
	Location string `json:"location,omitempty" jsonschema:"Race location."`
	Notes    string `json:"notes,omitempty" jsonschema:"Additional notes."`
}

type UpdateRaceInput struct {
	RaceID   string  `json:"race_id" jsonschema:"The ID of the race to update."`
	Name     *string `json:"name,omitempty"`
	Date     *string `json:"date,omitempty"`
	Distance *string `json:"distance,omitempty"`
	GoalTime *string `json:"goal_time,omitempty"`
	Location *string `json:"location,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

type RaceMutationOutput struct {
	Success bool        `json:"success"`
	Race    *store.Race `json:"race,omitempty"`
	Message string      `json:"message,omitempty"`
}

type DeleteRaceInput struct {
	RaceID string `json:"race_id" jsonschema:"The ID of the race to delete."`
}

type DeleteOutput struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Tool handlers

func (s *Server) getGoals(ctx context.Context, req *mcp.CallToolRequest, input GetGoalsInput) (*mcp.CallToolResult, GetGoalsOutput, error) {
	logging.Info("MCP tool call", "tool", "get_goals")

	goals, err := s.store.Goals()
	if err != nil {
		return nil, GetGoalsOutput{}, NewStorageError("goal read", err)
	}
	if goals == nil {
		goals = []store.Goal{}
	}
	return nil, GetGoalsOutput{Goals: goals}, nil
}

func (s *Server) setGoal(ctx context.Context, req *mcp.CallToolRequest, input SetGoalInput) (*mcp.CallToolResult, GoalMutationOutput, error) {
	logging.Info("MCP tool call", "tool", "set_goal", "goal_id", input.GoalID)

	if input.GoalID != "" {
		goal, found, err := s.store.UpdateGoal(input.GoalID, store.GoalUpdate{
			Type:      input.GoalType,
			Target:    input.Target,
			Deadline:  input.Deadline,
			Notes:     input.Notes,
			Completed: input.Completed,
		})
		if err != nil {
			return nil, GoalMutationOutput{}, NewStorageError("goal update", err)
		}
		if !found {
			return nil, GoalMutationOutput{
				Success: false,
				Message: fmt.Sprintf("Goal %s not found", input.GoalID),
			}, nil
		}
		return nil, GoalMutationOutput{Success: true, Goal: &goal}, nil
	}

	if input.GoalType == nil || *input.GoalType == "" || input.Target == nil || *input.Target == "" {
		return nil, GoalMutationOutput{}, NewInvalidInputError("goal_type and target are required for new goals")
	}

	goal, err := s.store.AddGoal(*input.GoalType, *input.Target, strOrEmpty(input.Deadline), strOrEmpty(input.Notes))
	if err != nil {
		return nil, GoalMutationOutput{}, NewStorageError("goal write", err)
	}
	return nil, GoalMutationOutput{Success: true, Goal: &goal}, nil
}

func (s *Server) deleteGoal(ctx context.Context, req *mcp.CallToolRequest, input DeleteGoalInput) (*mcp.CallToolResult, DeleteOutput, error) {
	logging.Info("MCP tool call", "tool", "delete_goal", "goal_id", input.GoalID)

	if input.GoalID == "" {
		return nil, DeleteOutput{}, NewInvalidInputError("goal_id is required")
	}

	deleted, err := s.store.DeleteGoal(input.GoalID)
	if err != nil {
		return nil, DeleteOutput{}, NewStorageError("goal delete", err)
	}
	if !deleted {
		return nil, DeleteOutput{Success: false, Message: fmt.Sprintf("Goal %s not found", input.GoalID)}, nil
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Goal %s deleted", input.GoalID)}, nil
}

func (s *Server) getRaces(ctx context.Context, req *mcp.CallToolRequest, input GetRacesInput) (*mcp.CallToolResult, GetRacesOutput, error) {
	logging.Info("MCP tool call", "tool", "get_races")

	races, err := s.store.Races()
	if err != nil {
		return nil, GetRacesOutput{}, NewStorageError("race read", err)
	}
	if races == nil {
		races = []store.Race{}
	}
	return nil, GetRacesOutput{Races: races}, nil
}

func (s *Server) addRace(ctx context.Context, req *mcp.CallToolRequest, input AddRaceInput) (*mcp.CallToolResult, RaceMutationOutput, error) {
	logging.Info("MCP tool call", "tool", "add_race", "name", input.Name)

	if input.Name == "" || input.Date == "" || input.Distance == "" {
		return nil, RaceMutationOutput{}, NewInvalidInputError("name, date, and distance are required")
	}

	race, err := s.store.AddRace(input.Name, input.Date, input.Distance, input.GoalTime, input.Location, input.Notes)
	if err != nil {
		return nil, RaceMutationOutput{}, NewStorageError("race write", err)
	}
	return nil, RaceMutationOutput{Success: true, Race: &race}, nil
}

func (s *Server) updateRace(ctx context.Context, req *mcp.CallToolRequest, input UpdateRaceInput) (*mcp.CallToolResult, RaceMutationOutput, error) {
	logging.Info("MCP tool call", "tool", "update_race", "race_id", input.RaceID)

	if input.RaceID == "" {
		return nil, RaceMutationOutput{}, NewInvalidInputError("race_id is required")
	}

	race, found, err := s.store.UpdateRace(input.RaceID, store.RaceUpdate{
		Name:     input.Name,
		Date:     input.Date,
		Distance: input.Distance,
		GoalTime: input.GoalTime,
		Location: input.Location,
		Notes:    input.Notes,
	})
	if err != nil {
		return nil, RaceMutationOutput{}, NewStorageError("race update", err)
	}
	if !found {
		return nil, RaceMutationOutput{
			Success: false,
			Message: fmt.Sprintf("Race %s not found", input.RaceID),
		}, nil
	}
	return nil, RaceMutationOutput{Success: true, Race: &race}, nil
}

func (s *Server) deleteRace(ctx context.Context, req *mcp.CallToolRequest, input DeleteRaceInput) (*mcp.CallToolResult, DeleteOutput, error) {
	logging.Info("MCP tool call", "tool", "delete_race", "race_id", input.RaceID)

	if input.RaceID == "" {
		return nil, DeleteOutput{}, NewInvalidInputError("race_id is required")
	}

	deleted, err := s.store.DeleteRace(input.RaceID)
	if err != nil {
		return nil, DeleteOutput{}, NewStorageError("race delete", err)
	}
	if !deleted {
		return nil, DeleteOutput{Success: false, Message: fmt.Sprintf("Race %s not found", input.RaceID)}, nil
	}
	return nil, DeleteOutput{Success: true, Message: fmt.Sprintf("Race %s deleted", input.RaceID)}, nil
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

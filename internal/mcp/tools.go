package mcp

import (
	"context"
	"errors"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/syncer"
)

func parseIndex(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("index must be non-negative")
	}
	return n, nil
}

// --- Tool definitions ---

var toolOpenWorkout = mcp.NewTool("open_workout",
	mcp.WithDescription("Open today's workout session for a training plan. Creates or resumes the session for the plan's current day and week."),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Training plan ID")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get the active workout session: exercises in order, per-set targets, actuals, and completion state."),
)

var toolGetProgress = mcp.NewTool("get_progress",
	mcp.WithDescription("Get completion progress for the active session: completed sets, total sets, and whether the workout can be finished."),
)

var toolLogSet = mcp.NewTool("log_set",
	mcp.WithDescription("Log or correct a set in the active session. Works offline: the entry is applied locally and queued for sync when no connection is available."),
	mcp.WithString("exercise_index", mcp.Required(), mcp.Description("Zero-based index of the exercise in the session")),
	mcp.WithString("set_index", mcp.Required(), mcp.Description("Zero-based index of the set within the exercise")),
	mcp.WithString("weight", mcp.Required(), mcp.Description("Weight used (e.g. 135 or 62.5)")),
	mcp.WithString("reps", mcp.Required(), mcp.Description("Repetitions performed")),
	mcp.WithString("rir", mcp.Description("Reps in reserve (0-5), optional")),
)

var toolSkipExercise = mcp.NewTool("skip_exercise",
	mcp.WithDescription("Skip the remaining sets of an exercise. Skipped sets are recorded with zero weight and reps so the session can complete."),
	mcp.WithString("exercise_index", mcp.Required(), mcp.Description("Zero-based index of the exercise in the session")),
	mcp.WithString("from_set", mcp.Description("Zero-based set index to skip from. Defaults to 0 (skip all remaining).")),
)

var toolCompleteWorkout = mcp.NewTool("complete_workout",
	mcp.WithDescription("Complete the active workout and advance the plan to the next day. Requires connectivity; pending sets should be synced first."),
)

var toolTriggerSync = mcp.NewTool("trigger_sync",
	mcp.WithDescription("Drain the pending-set queue to the server now. Returns the sync result; reports if a drain is already running."),
)

var toolGetPendingSets = mcp.NewTool("get_pending_sets",
	mcp.WithDescription("List set entries logged offline that are still waiting to sync."),
)

var toolDownloadDay = mcp.NewTool("download_day",
	mcp.WithDescription("Download a workout day for offline use: day definition, current week, and previous session's sets."),
	mcp.WithString("day_id", mcp.Required(), mcp.Description("Workout day ID")),
	mcp.WithString("plan_id", mcp.Required(), mcp.Description("Training plan ID the day belongs to")),
)

// --- Tool handlers ---

func (h *handlers) openWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError("plan_id parameter is required"), nil
	}

	if err := h.manager.Open(ctx, planID); err != nil {
		h.log.Error("mcp open_workout", "error", err)
		return mcp.NewToolResultError("open failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(h.manager.State())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := h.manager.State()
	if state == nil {
		return mcp.NewToolResultError("no active session; call open_workout first"), nil
	}

	result, err := mcp.NewToolResultJSON(state)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getProgress(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	progress, err := h.manager.Progress()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(progress)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) logSet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exStr, err := req.RequireString("exercise_index")
	if err != nil {
		return mcp.NewToolResultError("exercise_index parameter is required"), nil
	}
	setStr, err := req.RequireString("set_index")
	if err != nil {
		return mcp.NewToolResultError("set_index parameter is required"), nil
	}
	weightStr, err := req.RequireString("weight")
	if err != nil {
		return mcp.NewToolResultError("weight parameter is required"), nil
	}
	repsStr, err := req.RequireString("reps")
	if err != nil {
		return mcp.NewToolResultError("reps parameter is required"), nil
	}

	exerciseIndex, err := parseIndex(exStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_index: " + err.Error()), nil
	}
	setIndex, err := parseIndex(setStr)
	if err != nil {
		return mcp.NewToolResultError("invalid set_index: " + err.Error()), nil
	}
	weight, err := strconv.ParseFloat(weightStr, 64)
	if err != nil {
		return mcp.NewToolResultError("invalid weight: " + err.Error()), nil
	}
	reps, err := strconv.Atoi(repsStr)
	if err != nil {
		return mcp.NewToolResultError("invalid reps: " + err.Error()), nil
	}

	entry := session.Entry{Weight: weight, Reps: reps}
	if rirStr := req.GetString("rir", ""); rirStr != "" {
		rir, err := strconv.Atoi(rirStr)
		if err != nil {
			return mcp.NewToolResultError("invalid rir: " + err.Error()), nil
		}
		entry.RIR = &rir
	}

	if err := h.manager.LogSet(ctx, exerciseIndex, setIndex, entry); err != nil {
		h.log.Error("mcp log_set", "error", err)
		return mcp.NewToolResultError("log failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(h.manager.State())
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) skipExercise(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exStr, err := req.RequireString("exercise_index")
	if err != nil {
		return mcp.NewToolResultError("exercise_index parameter is required"), nil
	}
	exerciseIndex, err := parseIndex(exStr)
	if err != nil {
		return mcp.NewToolResultError("invalid exercise_index: " + err.Error()), nil
	}

	fromSet := 0
	if fromStr := req.GetString("from_set", ""); fromStr != "" {
		fromSet, err = parseIndex(fromStr)
		if err != nil {
			return mcp.NewToolResultError("invalid from_set: " + err.Error()), nil
		}
	}

	skipped, err := h.manager.SkipExercise(ctx, exerciseIndex, fromSet)
	if err != nil {
		h.log.Error("mcp skip_exercise", "error", err)
		return mcp.NewToolResultError("skip failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]any{
		"skipped_sets": skipped,
		"state":        h.manager.State(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) completeWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := h.manager.CompleteWorkout(ctx); err != nil {
		if errors.Is(err, session.ErrOfflineCompletion) {
			return mcp.NewToolResultError("cannot complete while offline; reconnect and sync first"), nil
		}
		h.log.Error("mcp complete_workout", "error", err)
		return mcp.NewToolResultError("complete failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]string{"status": "completed"})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) triggerSync(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	syncResult, err := h.sync.Sync(ctx)
	if errors.Is(err, syncer.ErrSyncInProgress) {
		return mcp.NewToolResultError("sync already in progress"), nil
	}
	if err != nil {
		h.log.Error("mcp trigger_sync", "error", err)
		return mcp.NewToolResultError("sync failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(syncResult)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getPendingSets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	queue := h.manager.Queue()
	if queue == nil {
		return mcp.NewToolResultError("local store unavailable; nothing is queued"), nil
	}

	pending, err := queue.ListAll(ctx)
	if err != nil {
		h.log.Error("mcp get_pending_sets", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(pending)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) downloadDay(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	dayID, err := req.RequireString("day_id")
	if err != nil {
		return mcp.NewToolResultError("day_id parameter is required"), nil
	}
	planID, err := req.RequireString("plan_id")
	if err != nil {
		return mcp.NewToolResultError("plan_id parameter is required"), nil
	}

	if err := h.manager.DownloadDay(ctx, dayID, planID); err != nil {
		h.log.Error("mcp download_day", "error", err)
		return mcp.NewToolResultError("download failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]string{"status": "downloaded", "day_id": dayID})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

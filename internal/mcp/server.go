package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/meltforce/liftlog/internal/session"
	"github.com/meltforce/liftlog/internal/syncer"
)

// New creates an MCP server with all tools and resources registered.
func New(manager *session.Manager, sync *syncer.Coordinator, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("LiftLog", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("LiftLog workout session server. Open a training day, log sets with weight/reps/RIR, skip exercises, and complete workouts. Sets logged while offline queue locally and sync when connectivity returns."),
	)

	h := &handlers{manager: manager, sync: sync, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolOpenWorkout, Handler: h.openWorkout},
		server.ServerTool{Tool: toolGetWorkout, Handler: h.getWorkout},
		server.ServerTool{Tool: toolGetProgress, Handler: h.getProgress},
		server.ServerTool{Tool: toolLogSet, Handler: h.logSet},
		server.ServerTool{Tool: toolSkipExercise, Handler: h.skipExercise},
		server.ServerTool{Tool: toolCompleteWorkout, Handler: h.completeWorkout},
		server.ServerTool{Tool: toolTriggerSync, Handler: h.triggerSync},
		server.ServerTool{Tool: toolGetPendingSets, Handler: h.getPendingSets},
		server.ServerTool{Tool: toolDownloadDay, Handler: h.downloadDay},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resCurrentSession, Handler: h.currentSession},
		server.ServerResource{Resource: resSyncStatus, Handler: h.syncStatus},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	manager *session.Manager
	sync    *syncer.Coordinator
	log     *slog.Logger
}

// --- Resource definitions ---

var resCurrentSession = mcp.NewResource(
	"liftlog://current_session",
	"Current Session",
	mcp.WithResourceDescription("The active workout session: exercises, per-set targets and actuals, completion state"),
	mcp.WithMIMEType("application/json"),
)

var resSyncStatus = mcp.NewResource(
	"liftlog://sync_status",
	"Sync Status",
	mcp.WithResourceDescription("Connectivity state, pending mutation count, and the last sync result"),
	mcp.WithMIMEType("application/json"),
)

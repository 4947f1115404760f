package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) currentSession(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	state := h.manager.State()

	var data []byte
	var err error
	if state == nil {
		data, err = json.Marshal(map[string]any{"active": false})
	} else {
		data, err = json.Marshal(map[string]any{"active": true, "session": state})
	}
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (h *handlers) syncStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	pending, err := h.manager.PendingCount(ctx)
	if err != nil {
		h.log.Warn("sync_status: pending count failed", "error", err)
	}

	status := map[string]any{
		"online":        h.sync.Online(),
		"draining":      h.sync.Draining(),
		"pending_count": pending,
		"last_sync":     h.sync.LastResult(),
	}

	data, err := json.Marshal(status)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

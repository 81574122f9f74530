// Package resources implements MCP resource handlers for datacheck.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (datacheck://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/HendryAvila/datacheck/internal/history"
	"github.com/HendryAvila/datacheck/internal/store"
	"github.com/HendryAvila/datacheck/internal/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

const (
	BlocklistURI = "datacheck://templates/blocklist"
	SessionsURI  = "datacheck://sessions"
)

// StatsSource reports persisted totals. *store.Store satisfies it.
type StatsSource interface {
	Stats() (*store.Stats, error)
}

// Handler manages datacheck resource endpoints.
type Handler struct {
	registry *history.Registry
	stats    StatsSource
}

// NewHandler creates a resource Handler. stats may be nil.
func NewHandler(registry *history.Registry, stats StatsSource) *Handler {
	return &Handler{registry: registry, stats: stats}
}

// BlocklistResource returns the MCP resource definition for the list of
// terms kept out of user-facing text.
func (h *Handler) BlocklistResource() mcp.Resource {
	return mcp.NewResource(
		BlocklistURI,
		"Blocked Terms",
		mcp.WithResourceDescription("Technical terms that never appear in datacheck reports. Avoid them when explaining results."),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBlocklist returns the blocklist as a JSON array.
func (h *Handler) HandleBlocklist(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(req.Params.URI, templates.Blocklist)
}

// SessionsResource returns the MCP resource definition for open sessions.
func (h *Handler) SessionsResource() mcp.Resource {
	return mcp.NewResource(
		SessionsURI,
		"Open Sessions",
		mcp.WithResourceDescription("Datasets currently open, least recently used first, plus stored totals"),
		mcp.WithMIMEType("application/json"),
	)
}

type sessionsView struct {
	Open   []history.SessionInfo `json:"open"`
	Stored *store.Stats          `json:"stored,omitempty"`
}

// HandleSessions returns the open sessions as JSON.
func (h *Handler) HandleSessions(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view := sessionsView{Open: h.registry.List()}
	if view.Open == nil {
		view.Open = []history.SessionInfo{}
	}
	if h.stats != nil {
		st, err := h.stats.Stats()
		if err != nil {
			return errorResource(req.Params.URI, err.Error()), nil
		}
		view.Stored = st
	}
	return jsonResource(req.Params.URI, view)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}

package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/sage/internal/render"
	"github.com/ziadkadry99/sage/internal/result"
	"github.com/ziadkadry99/sage/internal/state"
)

// handleRenderAnalysis renders one result and returns the HTML fragment.
func (s *Server) handleRenderAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kindStr, err := request.RequireString("kind")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: kind"), nil
	}
	payload, err := request.RequireString("result_json")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: result_json"), nil
	}

	kind, err := result.ParseKind(kindStr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf(
			"unknown analysis kind %q. Call list_analysis_kinds for the supported kinds.", kindStr,
		)), nil
	}

	// Each call gets its own session so concurrent renders cache under
	// their own template ids.
	session := state.NewSession(SessionID)
	session.SetTemplate(request.GetString("template_id", ""))

	c := render.NewContainer("")
	if err := s.engine.Render(ctx, c, kind, []byte(payload), session); err != nil {
		return mcp.NewToolResultError(describeRenderError(kind, err)), nil
	}
	return mcp.NewToolResultText(c.HTML()), nil
}

// handleListAnalysisKinds lists every kind with its tabs and required fields.
func (s *Server) handleListAnalysisKinds(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var sb strings.Builder
	sb.WriteString("# Supported analysis kinds\n\n")
	for _, k := range result.Kinds() {
		fmt.Fprintf(&sb, "## %s\n", k)
		fmt.Fprintf(&sb, "- **Tabs:** %s\n", strings.Join(render.TabIDs(k), ", "))
		fmt.Fprintf(&sb, "- **Required fields:** %s\n\n", strings.Join(result.RequiredFields(k), ", "))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// handleGetCachedAnalysis returns the last render cached under a template.
func (s *Server) handleGetCachedAnalysis(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	templateID, err := request.RequireString("template_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: template_id"), nil
	}
	if s.cache == nil {
		return mcp.NewToolResultError("No render cache is configured."), nil
	}

	entry, err := s.cache.Get(ctx, templateID)
	if errors.Is(err, state.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf(
			"No cached render for %q. Call render_analysis first.", templateID,
		)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read cache: %v", err)), nil
	}
	return mcp.NewToolResultText(entry.HTML), nil
}

func describeRenderError(kind result.Kind, err error) string {
	var missing *result.MissingFieldsError
	if errors.As(err, &missing) {
		return fmt.Sprintf("%s: %s Missing fields: %s.",
			kind, render.InvalidResultMessage, strings.Join(missing.Fields, ", "))
	}
	return fmt.Sprintf("%s: %s (%v)", kind, render.InvalidResultMessage, err)
}

package mcp

import "github.com/mark3labs/mcp-go/mcp"

// renderAnalysisTool defines the render_analysis MCP tool.
var renderAnalysisTool = mcp.NewTool("render_analysis",
	mcp.WithDescription("Render an analysis result (JSON) into a tabbed HTML fragment with charts, tables and diagrams."),
	mcp.WithString("kind",
		mcp.Required(),
		mcp.Description("Analysis kind, for example descriptive, prescriptive, sem or mission_vision"),
	),
	mcp.WithString("result_json",
		mcp.Required(),
		mcp.Description("The analysis result as a JSON object"),
	),
	mcp.WithString("template_id",
		mcp.Description("Template the render is cached under (defaults to the kind)"),
	),
)

// listAnalysisKindsTool defines the list_analysis_kinds MCP tool.
var listAnalysisKindsTool = mcp.NewTool("list_analysis_kinds",
	mcp.WithDescription("List the supported analysis kinds with their tabs and required fields."),
)

// getCachedAnalysisTool defines the get_cached_analysis MCP tool.
var getCachedAnalysisTool = mcp.NewTool("get_cached_analysis",
	mcp.WithDescription("Get the most recent rendered HTML for a template."),
	mcp.WithString("template_id",
		mcp.Required(),
		mcp.Description("Template id the render was cached under"),
	),
)

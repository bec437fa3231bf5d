package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var readOnlyAnnotation = mcp.ToolAnnotation{
	ReadOnlyHint:    mcp.ToBoolPtr(true),
	DestructiveHint: mcp.ToBoolPtr(false),
	IdempotentHint:  mcp.ToBoolPtr(true),
	OpenWorldHint:   mcp.ToBoolPtr(false),
}

var saveToolDef = mcp.NewTool("checkpoint_save",
	mcp.WithDescription("Save a progress checkpoint for the current workspace. Captures git branch, commit, and changed files automatically. Long descriptions get an auto-derived one-sentence summary."),
	mcp.WithString("description",
		mcp.Required(),
		mcp.Description("What was accomplished or decided. Free text."),
	),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the workspace derived from the working directory."),
	),
	mcp.WithArray("tags",
		mcp.Description("Optional short labels, e.g. [\"auth\", \"bugfix\"]."),
		mcp.Items(map[string]any{"type": "string"}),
	),
)

var recallToolDef = mcp.NewTool("checkpoint_recall",
	mcp.WithDescription("Recall checkpoints and the active plan. Supports time windows, text or semantic search, and cross-workspace queries with workspace='all'."),
	mcp.WithToolAnnotation(readOnlyAnnotation),
	mcp.WithString("workspace",
		mcp.Description("Workspace name, 'current', or 'all' for every workspace."),
	),
	mcp.WithString("search",
		mcp.Description("Search text. Matches descriptions, tags, branches, and file paths, tolerant of typos."),
	),
	mcp.WithString("since",
		mcp.Description("Relative window like '90m', '6h', '3d', or a date/timestamp."),
	),
	mcp.WithString("from",
		mcp.Description("Window start, YYYY-MM-DD or RFC 3339."),
	),
	mcp.WithString("to",
		mcp.Description("Window end, YYYY-MM-DD or RFC 3339."),
	),
	mcp.WithNumber("days",
		mcp.Description("Look back this many days. Ignored when 'since', 'from', or 'to' is given."),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum checkpoints to return. 0 returns only the plan and counts. Default 10."),
	),
	mcp.WithBoolean("full",
		mcp.Description("Return full descriptions and git provenance instead of the compact form."),
	),
	mcp.WithBoolean("semantic",
		mcp.Description("Use vector similarity for the search when the embedder is available."),
	),
	mcp.WithBoolean("distill",
		mcp.Description("Compress search results into a short summary."),
	),
)

var syncToolDef = mcp.NewTool("workspace_sync",
	mcp.WithDescription("Embed any new or changed checkpoints into the vector index and report counts."),
	mcp.WithString("workspace",
		mcp.Description("Workspace to synchronize. Defaults to the current workspace."),
	),
)

var purgeToolDef = mcp.NewTool("workspace_purge",
	mcp.WithDescription("Permanently delete a workspace's checkpoints, plans, and embeddings. The workspace must be named explicitly."),
	mcp.WithString("workspace",
		mcp.Required(),
		mcp.Description("Workspace to delete."),
	),
)

var planSaveToolDef = mcp.NewTool("plan_save",
	mcp.WithDescription("Create a plan document, optionally making it the workspace's active plan."),
	mcp.WithString("title",
		mcp.Required(),
		mcp.Description("Plan title."),
	),
	mcp.WithString("content",
		mcp.Description("Plan body, markdown."),
	),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the current workspace."),
	),
	mcp.WithBoolean("activate",
		mcp.Description("Make this the active plan."),
	),
)

var planUpdateToolDef = mcp.NewTool("plan_update",
	mcp.WithDescription("Rewrite a plan's title and/or content. Omitted fields are left unchanged."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Plan id."),
	),
	mcp.WithString("title", mcp.Description("New title.")),
	mcp.WithString("content", mcp.Description("New body, markdown.")),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the current workspace."),
	),
)

var planGetToolDef = mcp.NewTool("plan_get",
	mcp.WithDescription("Fetch one plan by id."),
	mcp.WithToolAnnotation(readOnlyAnnotation),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Plan id."),
	),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the current workspace."),
	),
)

var planListToolDef = mcp.NewTool("plan_list",
	mcp.WithDescription("List a workspace's plans, most recently updated first, with the active plan id."),
	mcp.WithToolAnnotation(readOnlyAnnotation),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the current workspace."),
	),
)

var planActivateToolDef = mcp.NewTool("plan_activate",
	mcp.WithDescription("Mark a plan as the workspace's active plan."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Plan id."),
	),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the current workspace."),
	),
)

var planDeleteToolDef = mcp.NewTool("plan_delete",
	mcp.WithDescription("Delete a plan. Clears the active pointer if it referenced the deleted plan."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Plan id."),
	),
	mcp.WithString("workspace",
		mcp.Description("Target workspace. Defaults to the current workspace."),
	),
)

package mcp

import "github.com/mark3labs/mcp-go/mcp"

// listPuzzlesTool defines the list_puzzles MCP tool.
var listPuzzlesTool = mcp.NewTool("list_puzzles",
	mcp.WithDescription("List available turtle soup puzzles. Returns titles, difficulties, and tags; solutions are never included."),
	mcp.WithNumber("difficulty",
		mcp.Description("Filter by difficulty level (1-5)"),
	),
	mcp.WithString("tag",
		mcp.Description("Filter by tag"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of puzzles to return (default 20)"),
	),
)

// startGameTool defines the start_game MCP tool.
var startGameTool = mcp.NewTool("start_game",
	mcp.WithDescription("Start a new turtle soup session for a puzzle. Returns the session ID and the puzzle surface."),
	mcp.WithString("puzzle_id",
		mcp.Required(),
		mcp.Description("ID of the puzzle to play"),
	),
)

// askQuestionTool defines the ask_question MCP tool.
var askQuestionTool = mcp.NewTool("ask_question",
	mcp.WithDescription("Ask the host a yes/no question about the puzzle. Returns the host's answer plus the current progress and any revealed clues."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("ID of an active session"),
	),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The yes/no question to ask"),
	),
	mcp.WithBoolean("hint_requested",
		mcp.Description("Set when the player explicitly asks for a hint"),
	),
)

// revealSolutionTool defines the reveal_solution MCP tool.
var revealSolutionTool = mcp.NewTool("reveal_solution",
	mcp.WithDescription("Give up and reveal the puzzle's solution. Ends the session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("ID of an active session"),
	),
)

// surrenderGameTool defines the surrender_game MCP tool.
var surrenderGameTool = mcp.NewTool("surrender_game",
	mcp.WithDescription("Abandon the session without revealing the solution."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("ID of an active session"),
	),
)

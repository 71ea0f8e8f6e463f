package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/openclue/soupmaster/internal/game"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// mcpPlayerID marks sessions opened over MCP. The transport is a
// single stdio pipe, so one fixed identity is enough.
const mcpPlayerID = "mcp"

// handleListPuzzles returns the puzzle catalog without solutions.
func (s *Server) handleListPuzzles(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := puzzle.ListFilter{
		Difficulty: request.GetInt("difficulty", 0),
		Tag:        request.GetString("tag", ""),
		Limit:      request.GetInt("limit", 20),
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	puzzles, total, err := s.puzzles.List(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("listing puzzles failed: %v", err)), nil
	}
	if len(puzzles) == 0 {
		return mcp.NewToolResultText("No puzzles found. Import some with `soupmaster import`."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d puzzles (showing %d):\n\n", total, len(puzzles))
	for i := range puzzles {
		p := &puzzles[i]
		fmt.Fprintf(&b, "- %s (id: %s, difficulty: %d", p.Title, p.ID, p.Difficulty)
		if len(p.Tags) > 0 {
			fmt.Fprintf(&b, ", tags: %s", strings.Join(p.Tags, ", "))
		}
		b.WriteString(")\n")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleStartGame opens a new session and returns the puzzle surface.
func (s *Server) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	puzzleID, err := request.RequireString("puzzle_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: puzzle_id"), nil
	}

	sess, p, err := s.engine.Start(ctx, puzzleID, mcpPlayerID)
	if err != nil {
		return toolError(err), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"Session %s started.\n\n谜题：%s\n\n汤面：\n%s\n\nAsk yes/no questions with ask_question.",
		sess.ID, p.Title, p.Description,
	)), nil
}

// handleAskQuestion runs one full exchange and reports the host's
// reply together with the session state it produced.
func (s *Server) handleAskQuestion(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}
	hintRequested := request.GetBool("hint_requested", false)

	// MCP responses are unary; drop the streamed fragments and use
	// the final result.
	discard := func(game.Event) error { return nil }
	res, err := s.engine.Exchange(ctx, sessionID, mcpPlayerID, question, hintRequested, discard)
	if err != nil {
		return toolError(err), nil
	}

	var b strings.Builder
	b.WriteString(res.Response)
	if res.Progress != nil {
		fmt.Fprintf(&b, "\n\n进度：%d%%", *res.Progress)
	}
	if len(res.Clues) > 0 {
		fmt.Fprintf(&b, "\n线索：%s", strings.Join(res.Clues, "；"))
	}
	if res.Solved {
		b.WriteString("\n\n🎉 恭喜破案！游戏结束。")
	}
	return mcp.NewToolResultText(b.String()), nil
}

// handleRevealSolution ends the session and returns the solution.
func (s *Server) handleRevealSolution(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	p, err := s.engine.Reveal(ctx, sessionID, mcpPlayerID)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("汤底：\n%s", p.Solution)), nil
}

// handleSurrenderGame abandons the session.
func (s *Server) handleSurrenderGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := request.RequireString("session_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: session_id"), nil
	}

	sess, err := s.engine.Surrender(ctx, sessionID, mcpPlayerID)
	if err != nil {
		return toolError(err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Session %s abandoned.", sess.ID)), nil
}

func toolError(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(err.Error())
}

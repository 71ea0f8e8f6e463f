package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/openclue/soupmaster/internal/game"
	"github.com/openclue/soupmaster/internal/puzzle"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that lets an agent play turtle soup
// sessions over stdio.
type Server struct {
	engine  *game.Engine
	puzzles *puzzle.Store
	mcp     *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(engine *game.Engine, puzzles *puzzle.Store) *Server {
	s := &Server{
		engine:  engine,
		puzzles: puzzles,
	}

	s.mcp = server.NewMCPServer(
		"soupmaster",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(listPuzzlesTool, s.handleListPuzzles)
	s.mcp.AddTool(startGameTool, s.handleStartGame)
	s.mcp.AddTool(askQuestionTool, s.handleAskQuestion)
	s.mcp.AddTool(revealSolutionTool, s.handleRevealSolution)
	s.mcp.AddTool(surrenderGameTool, s.handleSurrenderGame)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclue/soupmaster/internal/config"
	"github.com/openclue/soupmaster/internal/db"
	"github.com/openclue/soupmaster/internal/game"
	"github.com/openclue/soupmaster/internal/puzzle"

	mcpserver "github.com/openclue/soupmaster/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing game tools so AI agents can browse puzzles and play sessions.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(filepath.Join(cfg.DataDir, "soupmaster.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		provider, err := buildProvider(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}

		puzzles := puzzle.NewStore(database)
		games := game.NewStore(database)
		engine := game.NewEngine(games, games, puzzles, provider, cfg.Game)

		mcpserver.Version = Version
		srv := mcpserver.NewServer(engine, puzzles)

		fmt.Fprintf(os.Stderr, "soupmaster MCP server started on stdio (provider=%s)\n", cfg.Provider)
		return srv.Serve()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openclue/soupmaster/internal/config"
	"github.com/openclue/soupmaster/internal/db"
	"github.com/openclue/soupmaster/internal/game"
	"github.com/openclue/soupmaster/internal/llm"
	"github.com/openclue/soupmaster/internal/puzzle"
	"github.com/openclue/soupmaster/internal/server"
	"github.com/openclue/soupmaster/internal/share"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long:  `Starts the soupmaster HTTP server with the REST API, SSE chat streaming, and the WebSocket transport.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if servePort != 0 {
			cfg.Port = servePort
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		dbPath := filepath.Join(cfg.DataDir, "soupmaster.db")
		database, err := db.Open(dbPath)
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
		shares := share.NewStore(database, games, puzzles)

		srv := server.New(server.Config{
			Port:     cfg.Port,
			DataDir:  cfg.DataDir,
			AllowAll: true,
		}, database)

		r := srv.Router()
		puzzle.RegisterRoutes(r, puzzles)
		game.RegisterRoutes(r, engine)
		game.RegisterWebSocket(r, engine)
		share.RegisterRoutes(r, shares)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "soupmaster v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", dbPath)
		fmt.Fprintf(os.Stderr, "  Provider: %s (%s)\n", cfg.Provider, cfg.Model)

		return srv.Start()
	},
}

// buildProvider assembles the streaming provider stack from config,
// wrapping it in the rate limiter when one is configured.
func buildProvider(cfg *config.Config) (llm.StreamProvider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.APIKey, cfg.APIURL, cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.RequestsPerMinute > 0 {
		return llm.NewRateLimitedProvider(provider, cfg.RequestsPerMinute), nil
	}
	return provider, nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override the configured port")
	rootCmd.AddCommand(serveCmd)
}

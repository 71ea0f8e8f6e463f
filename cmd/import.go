package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/openclue/soupmaster/internal/config"
	"github.com/openclue/soupmaster/internal/db"
	"github.com/openclue/soupmaster/internal/progress"
	"github.com/openclue/soupmaster/internal/puzzle"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import puzzles from a JSON file",
	Long: `Imports puzzles from a JSON file into the local database. The file
holds an array of puzzle objects with title, description (the surface),
solution, difficulty, tags, and an optional logic_profile block that
guides the host's judging.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading %s: %w", args[0], err)
		}

		var puzzles []puzzle.Puzzle
		if err := json.Unmarshal(data, &puzzles); err != nil {
			return fmt.Errorf("parsing %s: %w", args[0], err)
		}
		if len(puzzles) == 0 {
			return fmt.Errorf("%s contains no puzzles", args[0])
		}

		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return fmt.Errorf("creating data dir: %w", err)
		}
		database, err := db.Open(filepath.Join(cfg.DataDir, "soupmaster.db"))
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		store := puzzle.NewStore(database)
		reporter := progress.NewReporter("Importing puzzles")
		reporter.Start(len(puzzles))

		imported := 0
		for i := range puzzles {
			p := puzzles[i]
			if p.Title == "" || p.Description == "" || p.Solution == "" {
				fmt.Fprintf(os.Stderr, "skipping entry %d: title, description, and solution are required\n", i)
				continue
			}
			if _, err := store.Create(cmd.Context(), p); err != nil {
				return fmt.Errorf("importing %q: %w", p.Title, err)
			}
			imported++
			reporter.Update(i+1, p.Title)
		}
		reporter.Finish()

		fmt.Printf("Imported %d of %d puzzles\n", imported, len(puzzles))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}

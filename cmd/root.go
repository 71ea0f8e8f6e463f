package cmd

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "soupmaster",
	Short: "AI-hosted turtle soup deduction game server",
	Long: `Soupmaster runs lateral-thinking puzzle ("turtle soup") games hosted by
an AI. Players read a puzzle surface and ask yes/no questions; the AI
host judges each question against the hidden solution and drip-feeds
progress and clues until the mystery is solved.`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", ".soupmaster.yml", "config file path")
}

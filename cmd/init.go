package cmd

import (
	"github.com/spf13/cobra"

	"github.com/openclue/soupmaster/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize soupmaster configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure soupmaster and generates a .soupmaster.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard()
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/catalogue/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize catalogue configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the site title, data directory and routes, then writes them to the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

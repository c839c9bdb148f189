package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/sage/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize sage configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure the render service and writes a .sage.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

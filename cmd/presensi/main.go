// Command presensi runs the attendance API and its maintenance commands.
package main

import (
	"os"

	"github.com/spf13/cobra"

	// Embedded zone database so the configured timezone resolves in minimal images.
	_ "time/tzdata"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:          "presensi",
		Short:        "Employee attendance API",
		Long:         `presensi records photo-evidenced check-ins and check-outs, serves admin reports and ingests environmental sensor readings.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to config file (default: ./config.yaml or ./configs/config.yaml)")

	rootCmd.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newUserCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aatumaykin/cronsync/internal/constants"
)

var (
	configPath string
	debug      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cronsync",
	Short: "cronsync - keep application jobs in sync with crontab",
	Long: `cronsync registers the jobs of an application in the current user's
crontab and runs a single job when cron invokes it. It has no scheduler
of its own: cron decides when, cronsync decides what.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default "+constants.DefaultConfigPath+")")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(crontabCmd)
}

// printError prints err with its details and hints.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, constants.MsgErrorFormat, err)
	for _, detail := range errors.GetAllDetails(err) {
		fmt.Fprintf(w, constants.MsgDetailFormat, detail)
	}
	for _, hint := range errors.GetAllHints(err) {
		fmt.Fprintf(w, constants.MsgHintFormat, hint)
	}
}

package main

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/aatumaykin/cronsync/internal/constants"
	"github.com/aatumaykin/cronsync/internal/crontab"
	"github.com/aatumaykin/cronsync/internal/jobs"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Validate and manage cronsync configuration.`,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long: `Validate the configuration file and check for errors, including the
schedules and functions of the [[jobs]] list.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path, _ := resolveConfigPath(args)

	// Файл обязателен даже для пути по умолчанию
	cfg, _, err := loadConfig(path, true)
	if err != nil {
		return err
	}

	errs := cfg.Validate()
	if err := jobs.DeclareAll(crontab.NewRegistry(), cfg.Jobs); err != nil {
		errs = append(errs, err)
	}

	out := cmd.OutOrStdout()
	if len(errs) > 0 {
		fmt.Fprint(out, constants.MsgConfigValidationError)
		for _, e := range errs {
			fmt.Fprintf(out, constants.MsgConfigValidatePrefix, e)
		}
		return errors.Mark(errors.Newf("%d configuration error(s)", len(errs)), crontab.ErrConfiguration)
	}

	fmt.Fprintln(out, constants.MsgConfigValid)
	return nil
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/aatumaykin/cronsync/internal/constants"
	"github.com/aatumaykin/cronsync/internal/crontab"
)

var (
	addSuppress    bool
	removeSuppress bool
	showFormat     string
)

// now is replaced in tests.
var now = time.Now

var crontabCmd = &cobra.Command{
	Use:   constants.CrontabCommand,
	Short: "Manage the application's jobs in the user's crontab",
}

var crontabAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Write every declared job to the crontab",
	Long: `Replace all lines of this application in the current user's crontab
with one line per declared job. Lines of other applications and manual
entries are kept in place.`,
	Args: cobra.NoArgs,
	RunE: runCrontabAdd,
}

var crontabRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the application's jobs from the crontab",
	Args:  cobra.NoArgs,
	RunE:  runCrontabRemove,
}

var crontabShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List the application's jobs currently in the crontab",
	Args:  cobra.NoArgs,
	RunE:  runCrontabShow,
}

var crontabRunCmd = &cobra.Command{
	Use:   constants.RunSubcommand + " <job-id>",
	Short: "Run a single job now",
	Long: `Run the job with the given identifier in the foreground. This is the
command cron executes; it can also be run by hand.`,
	Args: cobra.ExactArgs(1),
	RunE: runCrontabRun,
}

func runCrontabAdd(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.close()

	rec, err := app.reconciler()
	if err != nil {
		return err
	}

	report, err := rec.Add(cmd.Context())
	if err != nil {
		return err
	}

	if !addSuppress {
		out := cmd.OutOrStdout()
		printChanges(out, constants.MsgRemovingJob, report.Removed)
		printChanges(out, constants.MsgAddingJob, report.Added)
	}
	return nil
}

func runCrontabRemove(cmd *cobra.Command, args []string) error {
	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.close()

	rec, err := app.reconciler()
	if err != nil {
		return err
	}

	report, err := rec.Remove(cmd.Context())
	if err != nil {
		return err
	}

	if !removeSuppress {
		printChanges(cmd.OutOrStdout(), constants.MsgRemovingJob, report.Removed)
	}
	return nil
}

func printChanges(w io.Writer, format string, changes []crontab.Change) {
	for _, c := range changes {
		name := constants.MsgUnknownJob
		if c.Job != nil {
			name = c.Job.Name()
		}
		fmt.Fprintf(w, format, c.Entry.ID, name)
	}
}

// shownJob is one owned crontab line as printed by "crontab show".
type shownJob struct {
	ID       string     `json:"id" yaml:"id"`
	Name     string     `json:"name,omitempty" yaml:"name,omitempty"`
	Known    bool       `json:"known" yaml:"known"`
	Schedule string     `json:"schedule" yaml:"schedule"`
	NextRun  *time.Time `json:"next_run,omitempty" yaml:"next_run,omitempty"`
	Command  string     `json:"command" yaml:"command"`
}

func runCrontabShow(cmd *cobra.Command, args []string) error {
	switch showFormat {
	case "text", "json", "yaml":
	default:
		return errors.WithHint(
			errors.Newf("unknown output format %q", showFormat),
			"use one of: text, json, yaml")
	}

	app, err := loadApp()
	if err != nil {
		return err
	}
	defer app.close()

	rec, err := app.reconciler()
	if err != nil {
		return err
	}

	entries, err := rec.Show(cmd.Context())
	if err != nil {
		return err
	}

	shown := collectShown(rec, entries, now())
	out := cmd.OutOrStdout()

	switch showFormat {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(shown)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(shown); err != nil {
			return err
		}
		return enc.Close()
	}

	if len(shown) == 0 {
		fmt.Fprint(out, constants.MsgNoActiveJobs)
		return nil
	}

	fmt.Fprint(out, constants.MsgActiveJobsHeader)
	for _, s := range shown {
		name := s.Name
		if !s.Known {
			name = constants.MsgUnknownJob
		}
		next := "-"
		if s.NextRun != nil {
			next = s.NextRun.Format(time.RFC3339)
		}
		fmt.Fprintf(out, constants.MsgActiveJob, s.ID, name)
		fmt.Fprintf(out, constants.MsgActiveJobDetail, s.Schedule, next)
	}
	return nil
}

func collectShown(rec *crontab.Reconciler, entries iter.Seq[crontab.Entry], from time.Time) []shownJob {
	shown := []shownJob{}
	for entry := range entries {
		s := shownJob{
			ID:       entry.ID,
			Schedule: entry.Schedule.String(),
			Command:  entry.Command,
		}
		if job, ok := rec.Lookup(entry.ID); ok {
			s.Name = job.Name()
			s.Known = true
		}
		if next, err := crontab.NextRun(entry.Schedule, from); err == nil {
			s.NextRun = &next
		}
		shown = append(shown, s)
	}
	return shown
}

func runCrontabRun(cmd *cobra.Command, args []string) error {
	app, err := loadDeclarations()
	if err != nil {
		return err
	}
	// неизвестный id не должен оставлять следов, даже лог-файла
	if _, ok := app.registry.Lookup(args[0]); !ok {
		return crontab.NotFoundError(args[0])
	}
	if err := app.openLog(); err != nil {
		return err
	}
	defer app.close()

	return app.runner().Run(cmd.Context(), args[0])
}

func init() {
	crontabAddCmd.Flags().BoolVar(&addSuppress, "suppress", false, "do not print the changed jobs")
	crontabRemoveCmd.Flags().BoolVar(&removeSuppress, "suppress", false, "do not print the removed jobs")
	crontabShowCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "output format: text, json or yaml")

	crontabCmd.AddCommand(crontabAddCmd)
	crontabCmd.AddCommand(crontabRemoveCmd)
	crontabCmd.AddCommand(crontabShowCmd)
	crontabCmd.AddCommand(crontabRunCmd)
}

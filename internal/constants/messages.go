package constants

// CLI messages printed by the crontab commands.
const (
	// MsgAddingJob is printed for every line written by "crontab add".
	MsgAddingJob = "Adding cronjob: %s -> %s\n"

	// MsgRemovingJob is printed for every owned line dropped from the table.
	MsgRemovingJob = "Removing cronjob: %s -> %s\n"

	// MsgActiveJobsHeader precedes the "crontab show" listing.
	MsgActiveJobsHeader = "Currently active jobs in crontab:\n"

	// MsgActiveJob is one line of the "crontab show" listing.
	MsgActiveJob = "%s -> %s\n"

	// MsgActiveJobDetail follows MsgActiveJob with the schedule and next run.
	MsgActiveJobDetail = "    schedule: %s, next run: %s\n"

	// MsgNoActiveJobs is printed when the table holds no owned lines.
	MsgNoActiveJobs = "No jobs of this application in crontab.\n"

	// MsgUnknownJob stands in for the callable of a line the registry no longer knows.
	MsgUnknownJob = "<unknown job, run \"crontab add\">"

	// MsgErrorFormat formats a fatal error on stderr.
	MsgErrorFormat = "Error: %v\n"

	// MsgHintFormat formats an error hint on stderr.
	MsgHintFormat = "Hint: %s\n"

	// MsgDetailFormat formats an error detail on stderr.
	MsgDetailFormat = "  - %s\n"
)

// Config messages
const (
	// MsgConfigValidationError is the message when configuration validation fails.
	MsgConfigValidationError = "❌ Configuration validation failed:\n"

	// MsgConfigValid is the message when configuration is successfully loaded and validated.
	MsgConfigValid = "✅ Configuration is valid"

	// MsgConfigValidatePrefix is the prefix for configuration validation errors.
	MsgConfigValidatePrefix = "  - %v\n"
)

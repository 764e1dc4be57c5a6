package constants

// Crontab line format constants.

// MarkerFormat is the trailing comment of every line owned by an
// application, formatted with the application tag.
const MarkerFormat = "cronsync jobs for %s"

// DirTagPrefix prefixes the application tag derived from the working
// directory when no application name is configured.
const DirTagPrefix = "dir:"

// CrontabCommand is the CLI command group that manages crontab lines.
const CrontabCommand = "crontab"

// RunSubcommand precedes the job identifier in generated lines.
const RunSubcommand = "run"

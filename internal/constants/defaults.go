package constants

// DefaultVersion is the default version of the application
const DefaultVersion = "0.1.0-dev"

// DefaultBuildTime is the default build time when not provided at build time
const DefaultBuildTime = "unknown"

// DefaultGitCommit is the default git commit hash when not provided at build time
const DefaultGitCommit = "unknown"

// DefaultGoVersion is the default Go version when not provided at build time
const DefaultGoVersion = "unknown"

// DefaultLogLevel, DefaultLogFormat and DefaultLogOutput configure the
// logger when the config file leaves them empty. Logs go to stderr so cron
// mails them and stdout stays clean for listings.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultLogOutput = "stderr"
)

// MetricsNamespace prefixes every exported metric name
const MetricsNamespace = "cronsync"

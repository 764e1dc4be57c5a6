package constants

// DefaultEnvPath is the default path to the .env file
const DefaultEnvPath = "./.env"

// DefaultConfigPath is the default path to the configuration file
const DefaultConfigPath = "./cronsync.toml"

// DefaultCrontabExecutable is the scheduler binary used when none is configured
const DefaultCrontabExecutable = "/usr/bin/crontab"

// LockFileFormat is the lock file name for a job, formatted with its identifier
const LockFileFormat = "cronsync_%s.lock"

// MetricsFileFormat is the metrics textfile name for a job, formatted with its identifier
const MetricsFileFormat = "cronsync_%s.prom"

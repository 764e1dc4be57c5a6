// Package config provides configuration loading and validation for cronsync.
// It supports TOML configuration files with environment variable expansion,
// default values, and validation.
//
// Configuration structure:
//   - [crontab]: scheduler executable, application tag, job locking
//   - [logging]: logging level, format, and output
//   - [metrics]: node_exporter textfile directory for run metrics
//   - [[jobs]]: declarative list of jobs backed by built-in functions
//
// Environment variables:
// Path fields may reference environment variables using ${VAR} or
// ${VAR:default} syntax, for example: lock_dir = "${XDG_RUNTIME_DIR:/tmp}".
package config

import (
	"github.com/aatumaykin/cronsync/internal/constants"
)

// Config represents the main application configuration.
type Config struct {
	Crontab CrontabConfig `toml:"crontab"`
	Logging LoggingConfig `toml:"logging"`
	Metrics MetricsConfig `toml:"metrics"`
	Jobs    []JobConfig   `toml:"jobs"`
}

// CrontabConfig представляет конфигурацию синхронизации с crontab
type CrontabConfig struct {
	Executable string `toml:"executable"`
	LockJobs   bool   `toml:"lock_jobs"`
	LockDir    string `toml:"lock_dir"`
	AppName    string `toml:"app_name"`
	WorkingDir string `toml:"working_dir"`
}

// Tag returns the application tag embedded in the crontab marker: the
// configured application name, or the working directory.
func (c *CrontabConfig) Tag() string {
	if c.AppName != "" {
		return c.AppName
	}
	return constants.DirTagPrefix + c.WorkingDir
}

// LoggingConfig представляет конфигурацию логирования
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// MetricsConfig представляет конфигурацию метрик
type MetricsConfig struct {
	TextfileDir string `toml:"textfile_dir"`
}

// Enabled reports whether run metrics should be written.
func (c *MetricsConfig) Enabled() bool {
	return c.TextfileDir != ""
}

// JobConfig declares a job backed by a built-in function.
type JobConfig struct {
	Func       string         `toml:"func"`
	Name       string         `toml:"name"`
	Minute     string         `toml:"minute"`
	Hour       string         `toml:"hour"`
	DayOfMonth string         `toml:"day_of_month"`
	Month      string         `toml:"month"`
	DayOfWeek  string         `toml:"day_of_week"`
	Args       []any          `toml:"args"`
	Kwargs     map[string]any `toml:"kwargs"`
}

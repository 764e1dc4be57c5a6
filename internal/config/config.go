package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/aatumaykin/cronsync/internal/constants"
)

// Load загружает конфигурацию из TOML файла
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := expandEnvVars(&cfg); err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

// LoadOptional loads path like Load, but returns the defaults when the file
// does not exist.
func LoadOptional(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	return Load(path)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate проверяет валидность конфигурации
func (c *Config) Validate() []error {
	var errors []error

	// Проверка crontab
	if c.Crontab.Executable == "" {
		errors = append(errors, fmt.Errorf("crontab.executable is required"))
	}

	if err := validateTag(c.Crontab.AppName, "crontab.app_name"); err != nil {
		errors = append(errors, err)
	}

	if c.Crontab.WorkingDir == "" {
		errors = append(errors, fmt.Errorf("crontab.working_dir is required"))
	} else if !filepath.IsAbs(c.Crontab.WorkingDir) {
		errors = append(errors, fmt.Errorf("crontab.working_dir must be absolute, got %s", c.Crontab.WorkingDir))
	} else if err := validateTag(c.Crontab.WorkingDir, "crontab.working_dir"); err != nil {
		errors = append(errors, err)
	}

	if c.Crontab.LockJobs && c.Crontab.LockDir == "" {
		errors = append(errors, fmt.Errorf("crontab.lock_dir is required when lock_jobs is enabled"))
	}

	// Проверка logging config
	if c.Logging.Level == "" {
		errors = append(errors, fmt.Errorf("logging.level is required"))
	} else {
		validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
		if !validLevels[strings.ToLower(c.Logging.Level)] {
			errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
		}
	}

	if c.Logging.Format == "" {
		errors = append(errors, fmt.Errorf("logging.format is required"))
	} else {
		validFormats := map[string]bool{"json": true, "text": true}
		if !validFormats[strings.ToLower(c.Logging.Format)] {
			errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
		}
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	// Проверка jobs
	for i, job := range c.Jobs {
		if job.Func == "" {
			errors = append(errors, fmt.Errorf("jobs[%d].func is required", i))
		}
	}

	return errors
}

// validateTag rejects values that would break the crontab line marker
func validateTag(value, fieldName string) error {
	if strings.ContainsAny(value, "#\r\n") {
		return fmt.Errorf("%s cannot contain '#' or line breaks", fieldName)
	}
	return nil
}

// applyDefaults применяет значения по умолчанию
func applyDefaults(c *Config) {
	if c.Crontab.Executable == "" {
		c.Crontab.Executable = constants.DefaultCrontabExecutable
	}
	if c.Crontab.LockDir == "" {
		c.Crontab.LockDir = os.TempDir()
	}
	if c.Crontab.WorkingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			c.Crontab.WorkingDir = wd
		}
	}
	if c.Crontab.WorkingDir != "" && !filepath.IsAbs(c.Crontab.WorkingDir) {
		if abs, err := filepath.Abs(c.Crontab.WorkingDir); err == nil {
			c.Crontab.WorkingDir = abs
		}
	}

	if c.Logging.Level == "" {
		c.Logging.Level = constants.DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = constants.DefaultLogFormat
	}
	if c.Logging.Output == "" {
		c.Logging.Output = constants.DefaultLogOutput
	}
}

// expandEnvVars расширяет переменные окружения в конфигурации
func expandEnvVars(c *Config) error {
	paths := []*string{
		&c.Crontab.Executable,
		&c.Crontab.LockDir,
		&c.Crontab.WorkingDir,
		&c.Metrics.TextfileDir,
		&c.Logging.Output,
	}

	for _, p := range paths {
		if strings.HasPrefix(*p, "${") {
			*p = expandEnv(*p)
		}
		*p = expandHome(*p)
	}

	if strings.HasPrefix(c.Crontab.AppName, "${") {
		c.Crontab.AppName = expandEnv(c.Crontab.AppName)
	}

	return nil
}

// expandEnv расширяет переменную окружения формата ${VAR:default}.
// Text after the closing brace is kept, so "${HOME}/locks" works.
func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") {
		return s
	}

	end := strings.Index(s, "}")
	if end == -1 {
		return s
	}

	content := s[2:end]
	rest := s[end+1:]
	if parts := strings.SplitN(content, ":", 2); len(parts) == 2 {
		key := parts[0]
		defaultVal := parts[1]
		if val := os.Getenv(key); val != "" {
			return val + rest
		}
		return defaultVal + rest
	}

	// Без значения по умолчанию
	return os.Getenv(content) + rest
}

// expandHome расширяет ~ в пути
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

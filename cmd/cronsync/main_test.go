package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aatumaykin/cronsync/internal/config"
	"github.com/aatumaykin/cronsync/internal/crontab"
	"github.com/aatumaykin/cronsync/internal/logger"
)

const backupLine = "0 2 * * * /usr/local/bin/backup.sh"

type cliEnv struct {
	dir        string
	configFile string
	lockDir    string
	metricsDir string
	logFile    string
	heartbeat  string
	table      *crontab.MemoryTable
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()

	dir := t.TempDir()
	env := &cliEnv{
		dir:        dir,
		configFile: filepath.Join(dir, "cronsync.toml"),
		lockDir:    filepath.Join(dir, "locks"),
		metricsDir: filepath.Join(dir, "textfile"),
		logFile:    filepath.Join(dir, "logs", "cronsync.log"),
		heartbeat:  filepath.Join(dir, "heartbeat"),
		table:      crontab.NewMemoryTable(backupLine),
	}

	content := fmt.Sprintf(`[crontab]
app_name = "billing"
working_dir = %q
lock_jobs = true
lock_dir = %q

[logging]
output = %q

[metrics]
textfile_dir = %q

[[jobs]]
func = "log_message"
minute = "*/5"
args = ["hello"]

[[jobs]]
func = "touch_file"
name = "heartbeat"
minute = "0"
hour = "1"
args = [%q]
`, dir, env.lockDir, env.logFile, env.metricsDir, env.heartbeat)
	require.NoError(t, os.WriteFile(env.configFile, []byte(content), 0644))

	oldTable, oldExecutable, oldNow := newTable, executable, now
	newTable = func(cfg *config.Config, log *logger.Logger) crontab.Table { return env.table }
	executable = func() (string, error) { return "/usr/local/bin/cronsync", nil }
	now = func() time.Time { return time.Date(2026, 3, 2, 0, 2, 0, 0, time.UTC) }
	t.Cleanup(func() {
		newTable, executable, now = oldTable, oldExecutable, oldNow
	})

	return env
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	configPath, debug = "", false
	addSuppress, removeSuppress, showFormat = false, false, "text"

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func showJSON(t *testing.T, env *cliEnv) []shownJob {
	t.Helper()
	out, err := execute(t, "-c", env.configFile, "crontab", "show", "--format", "json")
	require.NoError(t, err)

	var shown []shownJob
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	return shown
}

func TestRootFlags(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantConfig string
		wantDebug  bool
	}{
		{"long flags", []string{"--config", "test.toml", "--debug"}, "test.toml", true},
		{"short flags", []string{"-c", "test.toml", "-d"}, "test.toml", true},
		{"no flags", []string{}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath, debug = "", false
			require.NoError(t, rootCmd.ParseFlags(tt.args))
			assert.Equal(t, tt.wantConfig, configPath)
			assert.Equal(t, tt.wantDebug, debug)
		})
	}
	configPath, debug = "", false
}

func TestCommandStructure(t *testing.T) {
	for _, path := range [][]string{
		{"crontab", "add"},
		{"crontab", "remove"},
		{"crontab", "show"},
		{"crontab", "run"},
		{"config", "validate"},
		{"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestCrontabAdd(t *testing.T) {
	env := setupCLI(t)

	out, err := execute(t, "-c", env.configFile, "crontab", "add")
	require.NoError(t, err)
	assert.Contains(t, out, "Adding cronjob: ")
	assert.Contains(t, out, " -> github.com/aatumaykin/cronsync/internal/jobs.LogMessage\n")
	assert.Contains(t, out, " -> heartbeat\n")
	assert.NotContains(t, out, "Removing cronjob")

	lines := env.table.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, backupLine, lines[0])
	for _, line := range lines[1:] {
		assert.True(t, strings.HasSuffix(line, " # cronsync jobs for billing"), line)
		assert.Contains(t, line, "cd "+env.dir+" && /usr/local/bin/cronsync --config "+env.configFile+" crontab run ")
	}
	assert.True(t, strings.HasPrefix(lines[1], "*/5 * * * * "))
	assert.True(t, strings.HasPrefix(lines[2], "0 1 * * * "))

	// повторный add не меняет таблицу
	out, err = execute(t, "-c", env.configFile, "crontab", "add")
	require.NoError(t, err)
	assert.Contains(t, out, "Removing cronjob: ")
	assert.Equal(t, lines, env.table.Lines())
}

func TestCrontabAddSuppress(t *testing.T) {
	env := setupCLI(t)

	out, err := execute(t, "-c", env.configFile, "crontab", "add", "--suppress")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Len(t, env.table.Lines(), 3)
}

func TestCrontabRemove(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "-c", env.configFile, "crontab", "add")
	require.NoError(t, err)

	out, err := execute(t, "-c", env.configFile, "crontab", "remove")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(out, "Removing cronjob: "))
	assert.Equal(t, []string{backupLine}, env.table.Lines())

	out, err = execute(t, "-c", env.configFile, "crontab", "remove", "--suppress")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, []string{backupLine}, env.table.Lines())
}

func TestCrontabShow(t *testing.T) {
	env := setupCLI(t)

	out, err := execute(t, "-c", env.configFile, "crontab", "show")
	require.NoError(t, err)
	assert.Equal(t, "No jobs of this application in crontab.\n", out)

	_, err = execute(t, "-c", env.configFile, "crontab", "add", "--suppress")
	require.NoError(t, err)

	out, err = execute(t, "-c", env.configFile, "crontab", "show")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Currently active jobs in crontab:\n"))
	assert.Contains(t, out, " -> heartbeat\n")
	assert.Contains(t, out, "    schedule: 0 1 * * *, next run: 2026-03-02T01:00:00Z\n")
	assert.Contains(t, out, "    schedule: */5 * * * *, next run: 2026-03-02T00:05:00Z\n")

	shown := showJSON(t, env)
	require.Len(t, shown, 2)
	for _, s := range shown {
		assert.Len(t, s.ID, crontab.IDLength)
		assert.True(t, s.Known)
		require.NotNil(t, s.NextRun)
	}
	assert.Equal(t, "heartbeat", shown[1].Name)

	out, err = execute(t, "-c", env.configFile, "crontab", "show", "--format", "yaml")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "- id: "), out)
	assert.Contains(t, out, "  name: heartbeat\n")
	assert.Contains(t, out, "  known: true\n")
}

func TestCrontabShowUnknownLines(t *testing.T) {
	env := setupCLI(t)
	env.table = crontab.NewMemoryTable(
		backupLine,
		"*/10 * * * * cd /srv && app crontab run 0123456789abcdef # cronsync jobs for billing",
	)

	out, err := execute(t, "-c", env.configFile, "crontab", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `0123456789abcdef -> <unknown job, run "crontab add">`)
}

func TestCrontabShowInvalidFormat(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "-c", env.configFile, "crontab", "show", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, errors.GetAllHints(err), "use one of: text, json, yaml")
}

func TestCrontabRun(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "-c", env.configFile, "crontab", "add", "--suppress")
	require.NoError(t, err)
	shown := showJSON(t, env)
	require.Len(t, shown, 2)

	for _, s := range shown {
		_, err := execute(t, "-c", env.configFile, "crontab", "run", s.ID)
		require.NoError(t, err, s.Name)

		assert.FileExists(t, filepath.Join(env.metricsDir, "cronsync_"+s.ID+".prom"))
		assert.FileExists(t, filepath.Join(env.lockDir, "cronsync_"+s.ID+".lock"))
	}
	assert.FileExists(t, env.heartbeat)

	logs, err := os.ReadFile(env.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "msg=log_message")
	assert.Contains(t, string(logs), "job_name=heartbeat")
}

func TestCrontabRunUnknownJob(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "-c", env.configFile, "crontab", "run", "ffffffffffffffff")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crontab.ErrNotFound))

	var stderr bytes.Buffer
	printError(&stderr, err)
	assert.Contains(t, stderr.String(), "Error: no job with identifier ffffffffffffffff\n")
	assert.Contains(t, stderr.String(), `Hint: the crontab seems out of sync with the application, run "crontab add" again to resolve this`)

	assert.NoFileExists(t, env.logFile)
	assert.NoDirExists(t, filepath.Dir(env.logFile))
	assert.NoDirExists(t, env.lockDir)
	assert.NoDirExists(t, env.metricsDir)
}

func TestCrontabRunRequiresID(t *testing.T) {
	_, err := execute(t, "crontab", "run")
	assert.Error(t, err)
}

func TestDebugFlag(t *testing.T) {
	env := setupCLI(t)

	_, err := execute(t, "-c", env.configFile, "-d", "crontab", "show")
	require.NoError(t, err)

	logs, err := os.ReadFile(env.logFile)
	require.NoError(t, err)
	assert.Contains(t, string(logs), "level=DEBUG")
}

func TestMissingExplicitConfig(t *testing.T) {
	_, err := execute(t, "-c", filepath.Join(t.TempDir(), "missing.toml"), "crontab", "show")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crontab.ErrConfiguration))
}

func TestMissingDefaultConfig(t *testing.T) {
	env := setupCLI(t)
	t.Chdir(t.TempDir())

	var tag string
	newTable = func(cfg *config.Config, log *logger.Logger) crontab.Table {
		tag = cfg.Crontab.Tag()
		return env.table
	}

	out, err := execute(t, "crontab", "show")
	require.NoError(t, err)
	assert.Equal(t, "No jobs of this application in crontab.\n", out)
	assert.True(t, strings.HasPrefix(tag, "dir:"))
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cronsync.toml")
	require.NoError(t, os.WriteFile(path, []byte(`[logging]
level = "verbose"
`), 0644))

	_, err := execute(t, "-c", path, "crontab", "add")
	require.Error(t, err)
	assert.True(t, errors.Is(err, crontab.ErrConfiguration))
	assert.NotEmpty(t, errors.GetAllDetails(err))
}

func TestConfigValidate(t *testing.T) {
	env := setupCLI(t)

	out, err := execute(t, "config", "validate", env.configFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration is valid")

	bad := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(bad, []byte(`[logging]
format = "xml"

[[jobs]]
func = "rm_rf"
`), 0644))

	out, err = execute(t, "config", "validate", bad)
	require.Error(t, err)
	assert.Contains(t, out, "Configuration validation failed")
	assert.Contains(t, out, "invalid logging.format: xml")
	assert.Contains(t, out, `unknown func "rm_rf"`)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version: ")
	assert.Contains(t, out, "Git Commit: ")
}

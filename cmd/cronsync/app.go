package main

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/aatumaykin/cronsync/internal/appctx"
	"github.com/aatumaykin/cronsync/internal/config"
	"github.com/aatumaykin/cronsync/internal/constants"
	"github.com/aatumaykin/cronsync/internal/crontab"
	"github.com/aatumaykin/cronsync/internal/jobs"
	"github.com/aatumaykin/cronsync/internal/logger"
	"github.com/aatumaykin/cronsync/internal/metrics"
)

// newTable и executable подменяются в тестах
var (
	newTable = func(cfg *config.Config, log *logger.Logger) crontab.Table {
		return crontab.NewSystemTable(cfg.Crontab.Executable, log)
	}
	executable = os.Executable
)

// application holds what every crontab command needs: the configuration,
// the logger and the registry of declared jobs.
type application struct {
	cfg      *config.Config
	cfgPath  string // absolute, empty when running on defaults
	log      *logger.Logger
	registry *crontab.Registry
}

// resolveConfigPath returns the config file to load and whether the user
// asked for it explicitly.
func resolveConfigPath(args []string) (string, bool) {
	if len(args) > 0 && args[0] != "" {
		return args[0], true
	}
	if configPath != "" {
		return configPath, true
	}
	return constants.DefaultConfigPath, false
}

// loadConfig loads the .env file next to path, then path itself. A missing
// default config file means built-in defaults.
func loadConfig(path string, explicit bool) (*config.Config, string, error) {
	if err := config.LoadEnvOptional(filepath.Join(filepath.Dir(path), filepath.Base(constants.DefaultEnvPath))); err != nil {
		return nil, "", errors.Mark(errors.Wrap(err, "failed to load .env"), crontab.ErrConfiguration)
	}

	var (
		cfg *config.Config
		err error
	)
	if explicit {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOptional(path)
	}
	if err != nil {
		return nil, "", errors.Mark(errors.Wrapf(err, "cannot load %s", path), crontab.ErrConfiguration)
	}

	absPath := ""
	if _, statErr := os.Stat(path); statErr == nil {
		if absPath, err = filepath.Abs(path); err != nil {
			return nil, "", errors.Mark(err, crontab.ErrConfiguration)
		}
	}
	return cfg, absPath, nil
}

// validationError folds config validation errors into one error with a
// detail per problem.
func validationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	err := errors.Newf("invalid configuration: %d error(s)", len(errs))
	for _, e := range errs {
		err = errors.WithDetail(err, e.Error())
	}
	return errors.Mark(err, crontab.ErrConfiguration)
}

func loadApp() (*application, error) {
	app, err := loadDeclarations()
	if err != nil {
		return nil, err
	}
	if err := app.openLog(); err != nil {
		return nil, err
	}
	return app, nil
}

// loadDeclarations loads the configuration and declares its jobs. It does not
// touch the file system beyond reading the config, so callers can reject a
// request before a log file is created.
func loadDeclarations() (*application, error) {
	path, explicit := resolveConfigPath(nil)
	cfg, absPath, err := loadConfig(path, explicit)
	if err != nil {
		return nil, err
	}

	if debug {
		cfg.Logging.Level = "debug"
	}
	if err := validationError(cfg.Validate()); err != nil {
		return nil, err
	}

	registry := crontab.NewRegistry()
	if err := jobs.DeclareAll(registry, cfg.Jobs); err != nil {
		return nil, err
	}

	return &application{
		cfg:      cfg,
		cfgPath:  absPath,
		registry: registry,
	}, nil
}

func (a *application) openLog() error {
	log, err := logger.New(logger.Config{
		Level:  a.cfg.Logging.Level,
		Format: a.cfg.Logging.Format,
		Output: a.cfg.Logging.Output,
	})
	if err != nil {
		return errors.Mark(errors.Wrap(err, "failed to initialize logger"), crontab.ErrConfiguration)
	}
	a.log = log

	log.Debug("application loaded",
		logger.Field{Key: "config", Value: a.cfgPath},
		logger.Field{Key: "tag", Value: a.cfg.Crontab.Tag()},
		logger.Field{Key: "jobs", Value: a.registry.Len()})
	return nil
}

func (a *application) close() {
	if a.log != nil {
		_ = a.log.Close()
	}
}

// invocation is the command cron runs for every job, without "run <id>".
func (a *application) invocation() (string, error) {
	exe, err := executable()
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "cannot resolve own executable"), crontab.ErrConfiguration)
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}

	argv := []string{exe}
	if a.cfgPath != "" {
		argv = append(argv, "--config", a.cfgPath)
	}
	argv = append(argv, constants.CrontabCommand)
	return crontab.BuildInvocation(a.cfg.Crontab.WorkingDir, argv...), nil
}

func (a *application) reconciler() (*crontab.Reconciler, error) {
	invocation, err := a.invocation()
	if err != nil {
		return nil, err
	}
	codec, err := crontab.NewCodec(a.cfg.Crontab.Tag(), invocation)
	if err != nil {
		return nil, err
	}
	return crontab.NewReconciler(newTable(a.cfg, a.log), a.registry, codec, a.log), nil
}

func (a *application) runner() *crontab.Runner {
	opts := []crontab.RunnerOption{
		crontab.WithContextProvider(appctx.NewProvider(a.cfg, a.log)),
	}
	if a.cfg.Crontab.LockJobs {
		opts = append(opts, crontab.WithLocking(a.cfg.Crontab.LockDir))
	}
	if a.cfg.Metrics.Enabled() {
		opts = append(opts, crontab.WithRecorder(metrics.NewTextfileRecorder(a.cfg.Metrics.TextfileDir)))
	}
	return crontab.NewRunner(a.registry, a.log, opts...)
}

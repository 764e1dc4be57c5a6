// Package appctx carries the application's runtime state into job bodies.
// The Runner enters a Provider scope around every job, so jobs read the
// configuration and a job-scoped logger from their context.
package appctx

import (
	"context"

	"github.com/aatumaykin/cronsync/internal/config"
	"github.com/aatumaykin/cronsync/internal/crontab"
	"github.com/aatumaykin/cronsync/internal/logger"
)

// App is the runtime state available to a running job.
type App struct {
	Config *config.Config
	Logger *logger.Logger
	Job    *crontab.Job
}

type ctxKey struct{}

// With returns ctx carrying app.
func With(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, ctxKey{}, app)
}

// From returns the App stored in ctx.
func From(ctx context.Context) (*App, bool) {
	app, ok := ctx.Value(ctxKey{}).(*App)
	return app, ok && app != nil
}

// Config returns the configuration from ctx, or nil outside a job scope.
func Config(ctx context.Context) *config.Config {
	if app, ok := From(ctx); ok {
		return app.Config
	}
	return nil
}

// Logger returns the job logger from ctx, or a discarding logger.
func Logger(ctx context.Context) *logger.Logger {
	if app, ok := From(ctx); ok && app.Logger != nil {
		return app.Logger
	}
	return logger.Discard()
}

// Provider implements crontab.ContextProvider.
type Provider struct {
	cfg    *config.Config
	logger *logger.Logger
}

// NewProvider creates a provider that exposes cfg and log to jobs.
func NewProvider(cfg *config.Config, log *logger.Logger) *Provider {
	return &Provider{cfg: cfg, logger: log}
}

// Enter opens a job scope. The teardown cancels the scope's context, so
// anything the job left running on it is told to stop.
func (p *Provider) Enter(ctx context.Context, job *crontab.Job) (context.Context, func(), error) {
	jobLog := p.logger.With(
		logger.Field{Key: "job_id", Value: job.ID()},
		logger.Field{Key: "job_name", Value: job.Name()})

	scoped, cancel := context.WithCancel(ctx)
	scoped = With(scoped, &App{
		Config: p.cfg,
		Logger: jobLog,
		Job:    job,
	})

	teardown := func() {
		cancel()
		jobLog.Debug("job context closed")
	}
	return scoped, teardown, nil
}

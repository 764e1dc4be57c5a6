package crontab

import (
	"context"
	"iter"

	"github.com/cockroachdb/errors"

	"github.com/aatumaykin/cronsync/internal/logger"
)

// Change is one line added to or removed from the table.
type Change struct {
	Entry Entry
	// Job is nil for removed lines whose identifier the registry no longer knows.
	Job *Job
}

// Report describes what Add or Remove did to the table.
type Report struct {
	Removed []Change
	Added   []Change
	Kept    int
}

// Reconciler keeps the owned lines of a Table in sync with a Registry.
// Every operation reads the table fresh.
type Reconciler struct {
	table    Table
	registry *Registry
	codec    *Codec
	logger   *logger.Logger
}

// NewReconciler seals registry and returns a reconciler over table.
func NewReconciler(table Table, registry *Registry, codec *Codec, log *logger.Logger) *Reconciler {
	registry.Seal()
	return &Reconciler{
		table:    table,
		registry: registry,
		codec:    codec,
		logger:   log,
	}
}

// Add replaces every owned line with a freshly encoded line per registered
// job, keeping all other lines in place and order.
func (r *Reconciler) Add(ctx context.Context) (Report, error) {
	lines, err := r.table.Read(ctx)
	if err != nil {
		return Report{}, err
	}

	kept, report := r.partition(lines)

	desired := make([]string, 0, r.registry.Len())
	for _, job := range r.registry.All() {
		line := r.codec.Encode(job)
		entry, _ := r.codec.Decode(line)
		desired = append(desired, line)
		report.Added = append(report.Added, Change{Entry: entry, Job: job})
	}

	if err := r.write(ctx, append(kept, desired...)); err != nil {
		return Report{}, err
	}

	r.logger.Info("crontab jobs added",
		logger.Field{Key: "added", Value: len(report.Added)},
		logger.Field{Key: "replaced", Value: len(report.Removed)},
		logger.Field{Key: "kept", Value: report.Kept})
	return report, nil
}

// Remove drops every owned line and keeps the rest.
func (r *Reconciler) Remove(ctx context.Context) (Report, error) {
	lines, err := r.table.Read(ctx)
	if err != nil {
		return Report{}, err
	}

	kept, report := r.partition(lines)

	if err := r.write(ctx, kept); err != nil {
		return Report{}, err
	}

	r.logger.Info("crontab jobs removed",
		logger.Field{Key: "removed", Value: len(report.Removed)},
		logger.Field{Key: "kept", Value: report.Kept})
	return report, nil
}

// Show returns the owned entries currently in the table. It never writes.
func (r *Reconciler) Show(ctx context.Context) (iter.Seq[Entry], error) {
	lines, err := r.table.Read(ctx)
	if err != nil {
		return nil, err
	}

	return func(yield func(Entry) bool) {
		for _, line := range lines {
			entry, owned := r.codec.Decode(line)
			if !owned {
				continue
			}
			if !yield(entry) {
				return
			}
		}
	}, nil
}

// Lookup resolves an entry identifier against the registry.
func (r *Reconciler) Lookup(id string) (*Job, bool) {
	return r.registry.Lookup(id)
}

func (r *Reconciler) partition(lines []string) ([]string, Report) {
	var report Report
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		entry, owned := r.codec.Decode(line)
		if !owned {
			kept = append(kept, line)
			continue
		}
		job, _ := r.registry.Lookup(entry.ID)
		report.Removed = append(report.Removed, Change{Entry: entry, Job: job})
	}
	report.Kept = len(kept)
	return kept, report
}

func (r *Reconciler) write(ctx context.Context, lines []string) error {
	if err := r.table.Write(ctx, lines); err != nil {
		return errors.WithMessage(err, "failed to write crontab")
	}
	return nil
}

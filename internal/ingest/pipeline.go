package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// contextCheckInterval is how often (in rows) cancellation is checked.
const contextCheckInterval = 100

// Runner executes the staged ingestion pipeline against one store session.
//
// Stage ordering is fixed at construction: customers and products load
// before orders, orders before order items. Callers cannot mis-order the
// pipeline because the runner sorts definitions by stage itself.
type Runner struct {
	store Store
	sink  RejectionSink
	defs  []EntityDefinition
	now   func() time.Time
	log   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock overrides the ingestion clock used for defaulted order dates.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithDefinitions replaces the registered entity definitions.
// Primarily useful for testing a subset of the pipeline.
func WithDefinitions(defs ...EntityDefinition) Option {
	return func(r *Runner) { r.defs = defs }
}

// WithLogger sets the logger used for run progress.
func WithLogger(log *slog.Logger) Option {
	return func(r *Runner) { r.log = log }
}

// NewRunner creates a pipeline runner over the given store session and
// rejection sink. Definitions come from the registry unless overridden.
// Returns an error if the resulting definition set is invalid.
func NewRunner(store Store, sink RejectionSink, opts ...Option) (*Runner, error) {
	if store == nil {
		return nil, errors.New("runner: store is required")
	}
	if sink == nil {
		return nil, errors.New("runner: rejection sink is required")
	}

	r := &Runner{
		store: store,
		sink:  sink,
		defs:  Definitions(),
		now:   time.Now,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	if err := validateDefinitions(r.defs); err != nil {
		return nil, fmt.Errorf("runner: %w", err)
	}

	return r, nil
}

// validateDefinitions checks the definition set and its stage ordering.
func validateDefinitions(defs []EntityDefinition) error {
	if len(defs) == 0 {
		return errors.New("no entity definitions")
	}

	seen := make(map[string]bool, len(defs))
	prev := Stage(-1)
	for _, def := range defs {
		if def.Entity == "" || def.Build == nil || def.Insert == nil {
			return fmt.Errorf("incomplete definition for entity %q", def.Entity)
		}
		if def.Stage < 0 || def.Stage >= stageCount {
			return fmt.Errorf("entity %s has unknown stage %d", def.Entity, def.Stage)
		}
		if seen[def.Entity] {
			return fmt.Errorf("duplicate entity %s", def.Entity)
		}
		seen[def.Entity] = true
		if def.Stage < prev {
			return fmt.Errorf("entity %s is out of stage order", def.Entity)
		}
		prev = def.Stage
	}
	return nil
}

// Run ingests every entity that has a source, in stage order, within the
// store session the runner was built with. The caller owns the transaction
// boundary: begin before Run, commit after it returns nil.
//
// Row-level problems go to the rejection sink and never abort the run.
// A source read failure or a store session failure is fatal: Run returns
// immediately with the error wrapped in entity context, and the partial
// result produced so far.
func (r *Runner) Run(ctx context.Context, sources map[string]RowSource) (RunResult, error) {
	result := RunResult{RunID: uuid.New().String()}
	start := time.Now()
	log := r.log.With("run_id", result.RunID)

	for _, def := range r.defs {
		src, ok := sources[def.Entity]
		if !ok {
			continue
		}

		res, err := r.ingestEntity(ctx, def, src)
		result.Entities = append(result.Entities, res)
		if err != nil {
			result.Duration = time.Since(start)
			return result, fmt.Errorf("ingest %s: %w", def.Entity, err)
		}

		log.Info("entity ingested",
			"entity", def.Entity,
			"source", src.Name(),
			"total", res.Total,
			"inserted", res.Inserted,
			"duplicates", res.Duplicates,
			"rejected", res.Rejected,
		)
	}

	result.Duration = time.Since(start)
	log.Info("run complete",
		"inserted", result.Inserted(),
		"rejected", result.Rejected(),
		"duration", result.Duration,
	)
	return result, nil
}

// ingestEntity processes one entity's source row by row.
func (r *Runner) ingestEntity(ctx context.Context, def EntityDefinition, src RowSource) (EntityResult, error) {
	res := EntityResult{Entity: def.Entity, Source: src.Name()}

	rows, err := src.Rows(ctx)
	if err != nil {
		return res, fmt.Errorf("read source %s: %w", src.Name(), err)
	}

	for i, row := range rows {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return res, err
			}
		}

		res.Total++

		params, err := def.Build(row, r.now)
		if err != nil {
			res.Rejected++
			r.reject(def, src.Name(), i+1, row, err.Error())
			continue
		}

		inserted, err := def.Insert(ctx, r.store, params)
		switch {
		case errors.Is(err, ErrForeignKey):
			res.Rejected++
			r.reject(def, src.Name(), i+1, row, err.Error())
		case err != nil:
			// Session-level failure: fatal, surfaced to the caller.
			return res, fmt.Errorf("insert row %d: %w", i+1, err)
		case inserted:
			res.Inserted++
		default:
			// Conflict no-op: already present, nothing changed.
			res.Duplicates++
			r.log.Debug("duplicate row ignored", "entity", def.Entity, "row", i+1)
		}
	}

	return res, nil
}

// reject emits one rejection record carrying the raw key field values.
func (r *Runner) reject(def EntityDefinition, source string, row int, raw RawRow, reason string) {
	key := make(map[string]string, len(def.KeyFields))
	for _, f := range def.KeyFields {
		key[f] = raw[f]
	}
	r.sink.Reject(Rejection{
		Entity: def.Entity,
		Source: source,
		Row:    row,
		Key:    key,
		Reason: reason,
	})
}

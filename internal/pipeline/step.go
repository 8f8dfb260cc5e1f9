// Package pipeline sequences the configured steps and gives each one a
// tracked run to record against.
package pipeline

import (
	"context"
	"sort"
	"strings"

	"mlpipe/internal/config"
	"mlpipe/internal/tracking"
	"mlpipe/pkg/serrors"
)

// Env is everything a step gets from the runner: the loaded configuration,
// the tracked run it records against and a scratch directory that is removed
// after the step finishes.
type Env struct {
	Cfg     *config.Config
	Run     tracking.Run
	WorkDir string
}

// Step is one unit of the pipeline. Params are logged to the run before
// Execute is called.
type Step interface {
	// Name is the step identifier used in config and on the command line.
	Name() string

	// Params returns the configuration values the step runs with.
	Params(cfg *config.Config) map[string]any

	// Execute performs the step, reading inputs and writing outputs through
	// env.Run artifacts.
	Execute(ctx context.Context, env *Env) error
}

// Registry holds the known steps in their canonical execution order.
type Registry struct {
	order []string
	steps map[string]Step
}

// NewRegistry registers the given steps in order.
func NewRegistry(steps ...Step) *Registry {
	r := &Registry{steps: make(map[string]Step, len(steps))}
	for _, step := range steps {
		r.order = append(r.order, step.Name())
		r.steps[step.Name()] = step
	}

	return r
}

// Names returns the registered step names in canonical order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Select resolves the requested step names, preserving the requested order.
// An empty request selects every registered step. Unknown names are rejected
// with the list of valid ones.
func (r *Registry) Select(names []string) ([]Step, error) {
	if len(names) == 0 {
		names = r.order
	}

	selected := make([]Step, 0, len(names))
	for _, name := range names {
		step, ok := r.steps[name]
		if !ok {
			known := r.Names()
			sort.Strings(known)

			return nil, serrors.With(serrors.ErrInvalidConfig,
				"unknown step %q, valid steps: %s", name, strings.Join(known, ", "))
		}
		selected = append(selected, step)
	}

	return selected, nil
}

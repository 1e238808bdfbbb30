package worker

import "github.com/okian/talentscope/pkg/logger"

// Option configures a Worker.
type Option func(*Worker)

// WithName sets the worker name used in logs.
func WithName(name string) Option {
	return func(w *Worker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets the worker logger.
func WithLogger(l logger.Logger) Option {
	return func(w *Worker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithReleaser sets where finished season IDs are released.
func WithReleaser(r Releaser) Option {
	return func(w *Worker) {
		if r != nil {
			w.releaser = r
		}
	}
}

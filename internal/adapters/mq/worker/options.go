package worker

// Option configures an InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name used in log lines.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

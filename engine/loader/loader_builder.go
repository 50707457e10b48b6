package loader

import "time"

// LoaderBuilderOption is a functional option for configuring a Loader via NewLoader.
type LoaderBuilderOption func(*loader)

// WithWorkers sets the maximum number of decode workers. Values below 1 are ignored.
//
// Parameters:
//   - n: the worker count
//
// Returns:
//   - LoaderBuilderOption: a function that applies the worker count to a loader
func WithWorkers(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.workers = n
		}
	}
}

// WithQueueSize sets how many decode tasks may wait for a worker before Load blocks.
//
// Parameters:
//   - n: the queue capacity
//
// Returns:
//   - LoaderBuilderOption: a function that applies the queue size to a loader
func WithQueueSize(n int) LoaderBuilderOption {
	return func(l *loader) {
		if n > 0 {
			l.queueSize = n
		}
	}
}

// WithIdleTimeout sets the worker pool idle timeout.
func WithIdleTimeout(d time.Duration) LoaderBuilderOption {
	return func(l *loader) {
		l.idleTimeout = d
	}
}

// WithDecoder replaces the image decoder, e.g. to decode from an embedded filesystem in tests.
func WithDecoder(d Decoder) LoaderBuilderOption {
	return func(l *loader) {
		if d != nil {
			l.decoder = d
		}
	}
}

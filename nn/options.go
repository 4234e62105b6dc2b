package nn

// Option configures the batched functions.
type Option func(*options)

type options struct {
	workers int
}

// WithWorkers processes up to n batches concurrently. Batches write disjoint output
// windows, so results are identical to the sequential run. Default 1.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

func applyOptions(opts []Option) options {
	o := options{workers: 1}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

package repository

const defaultBusyTimeoutMS = 5000

type options struct {
	busyTimeoutMS int
}

// Option configures the SQLite store.
type Option func(*options)

func newOptions(opts ...Option) options {
	o := options{busyTimeoutMS: defaultBusyTimeoutMS}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}

// WithBusyTimeout sets the SQLite busy timeout in milliseconds. Zero or
// negative disables it.
func WithBusyTimeout(ms int) Option {
	return func(o *options) {
		o.busyTimeoutMS = ms
	}
}

package backup

import "time"

type options struct {
	now func() time.Time
}

type Option func(o *options)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

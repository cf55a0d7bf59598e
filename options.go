package mathdoc

import "go.uber.org/zap"

// Option configures a Loader or a Renderer.
type Option func(*options)

type options struct {
	logger *zap.Logger
}

func newOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger. A nil logger disables logging.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l == nil {
			l = zap.NewNop()
		}
		o.logger = l
	}
}

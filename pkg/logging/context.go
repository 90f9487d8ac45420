package logging

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger returns ctx carrying logger. A nil logger stores Default.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, ctxKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or Default.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx != nil {
		if l, _ := ctx.Value(ctxKey{}).(*zerolog.Logger); l != nil {
			return l
		}
	}
	return Default()
}

// WithRemote tags the context logger with the peer address.
func WithRemote(ctx context.Context, remote string) context.Context {
	l := FromContext(ctx).With().Str("remote_addr", remote).Logger()
	return WithLogger(ctx, &l)
}

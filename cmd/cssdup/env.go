package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/asynkron/cssdup/internal/config"
)

type envKey struct{}

// appEnv keeps what every subcommand needs in a single place.
type appEnv struct {
	Cfg        *config.Config
	ConfigPath string
	Log        *zap.Logger

	start time.Time
}

func envFromContext(ctx context.Context) *appEnv {
	if env, ok := ctx.Value(envKey{}).(*appEnv); ok {
		return env
	}
	panic("app environment not found in context")
}

func contextWithEnv(ctx context.Context) context.Context {
	return context.WithValue(ctx, envKey{}, &appEnv{start: time.Now(), Log: zap.NewNop()})
}

func (e *appEnv) uptime() time.Duration {
	return time.Since(e.start)
}

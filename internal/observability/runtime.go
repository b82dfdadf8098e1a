package observability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sandeepkv93/storefront-admin-api/internal/config"

	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// Runtime owns the telemetry providers for the process.
type Runtime struct {
	LoggerProvider *sdklog.LoggerProvider
	MeterProvider  *sdkmetric.MeterProvider
	TracerProvider *sdktrace.TracerProvider
}

func InitRuntime(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Runtime, error) {
	rt := &Runtime{}
	var err error
	if rt.LoggerProvider, err = InitLogs(ctx, cfg, logger); err != nil {
		return nil, err
	}
	if rt.MeterProvider, err = InitMetrics(ctx, cfg, logger); err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	if rt.TracerProvider, err = InitTracing(ctx, cfg, logger); err != nil {
		_ = rt.Shutdown(ctx)
		return nil, err
	}
	return rt, nil
}

// Shutdown flushes providers in reverse start order and joins their errors.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	type stage struct {
		name string
		fn   func(context.Context) error
	}
	var stages []stage
	if r.TracerProvider != nil {
		stages = append(stages, stage{"traces", r.TracerProvider.Shutdown})
	}
	if r.MeterProvider != nil {
		stages = append(stages, stage{"metrics", r.MeterProvider.Shutdown})
	}
	if r.LoggerProvider != nil {
		stages = append(stages, stage{"logs", r.LoggerProvider.Shutdown})
	}
	var errs []error
	for _, s := range stages {
		if err := s.fn(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s provider: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

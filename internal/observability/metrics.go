package observability

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/storefront-admin-api/internal/config"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/exemplar"
)

const meterName = "storefront-admin-api"

type AppMetrics struct {
	authLoginCounter             metric.Int64Counter
	authRegisterCounter          metric.Int64Counter
	authLogoutCounter            metric.Int64Counter
	authReqDuration              metric.Float64Histogram
	accessTokenValidationCounter metric.Int64Counter
	tenantGateCounter            metric.Int64Counter
	tierGateCounter              metric.Int64Counter
	adminUserMutationCounter     metric.Int64Counter
	userListCacheCounter         metric.Int64Counter
	catalogMutationCounter       metric.Int64Counter
	storageOperationCounter      metric.Int64Counter
	storageUploadBytes           metric.Float64Histogram
	rateLimitDecisionCounter     metric.Int64Counter
	middlewareValidationCounter  metric.Int64Counter
	rateLimitRetryAfter          metric.Float64Histogram
	healthCheckResultCounter     metric.Int64Counter
	healthCheckDuration          metric.Float64Histogram
	databaseStartupCounter       metric.Int64Counter
	databaseStartupDuration      metric.Float64Histogram
	repositoryOperationCounter   metric.Int64Counter
	toolCommandCounter           metric.Int64Counter
	toolCommandDuration          metric.Float64Histogram
	tokenPruneRows               metric.Float64Histogram
}

var (
	metricsMu  sync.RWMutex
	appMetrics *AppMetrics
)

func InitMetrics(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sdkmetric.MeterProvider, error) {
	if !cfg.OTELMetricsEnabled {
		mp := sdkmetric.NewMeterProvider()
		otel.SetMeterProvider(mp)
		logger.Info("otel metrics disabled")
		return mp, nil
	}

	opts := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(cfg.OTELExporterOTLPEndpoint)}
	if cfg.OTELExporterOTLPInsecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}
	exporter, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create otlp metric exporter: %w", err)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create metric resource: %w", err)
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.OTELMetricsExportInterval))
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithExemplarFilter(exemplar.TraceBasedFilter),
		sdkmetric.WithView(sdkmetric.NewView(
			sdkmetric.Instrument{Name: "auth.request.duration"},
			sdkmetric.Stream{
				Aggregation: sdkmetric.AggregationExplicitBucketHistogram{
					Boundaries: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
				},
			},
		)),
	)
	otel.SetMeterProvider(mp)

	m, err := newAppMetrics(mp.Meter(meterName))
	if err != nil {
		return nil, err
	}
	metricsMu.Lock()
	appMetrics = m
	metricsMu.Unlock()

	logger.Info("otel metrics initialized", "endpoint", cfg.OTELExporterOTLPEndpoint)
	return mp, nil
}

func newAppMetrics(meter metric.Meter) (*AppMetrics, error) {
	var (
		m   AppMetrics
		err error
	)
	counters := []struct {
		name string
		dst  *metric.Int64Counter
	}{
		{"auth.login.attempts", &m.authLoginCounter},
		{"auth.register.attempts", &m.authRegisterCounter},
		{"auth.logout.attempts", &m.authLogoutCounter},
		{"auth.access_token.validation.events", &m.accessTokenValidationCounter},
		{"tenant.gate.decisions", &m.tenantGateCounter},
		{"auth.tier.gate.decisions", &m.tierGateCounter},
		{"admin.user.mutations", &m.adminUserMutationCounter},
		{"user.list.cache.events", &m.userListCacheCounter},
		{"catalog.mutations", &m.catalogMutationCounter},
		{"storage.operations", &m.storageOperationCounter},
		{"http.rate_limit.decisions", &m.rateLimitDecisionCounter},
		{"http.middleware.validation.events", &m.middlewareValidationCounter},
		{"health.check.results", &m.healthCheckResultCounter},
		{"database.startup.events", &m.databaseStartupCounter},
		{"repository.operations", &m.repositoryOperationCounter},
		{"tool.command.runs", &m.toolCommandCounter},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		name string
		unit string
		desc string
		dst  *metric.Float64Histogram
	}{
		{"auth.request.duration", "s", "Duration of auth endpoint requests in seconds", &m.authReqDuration},
		{"storage.upload.bytes", "By", "Size of uploaded slider images", &m.storageUploadBytes},
		{"http.rate_limit.retry_after", "s", "Retry-after duration in seconds for throttled requests", &m.rateLimitRetryAfter},
		{"health.check.duration", "s", "Duration of health dependency checks in seconds", &m.healthCheckDuration},
		{"database.startup.duration", "s", "Duration of database startup stages in seconds", &m.databaseStartupDuration},
		{"tool.command.duration", "s", "Duration of CLI tool commands in seconds", &m.toolCommandDuration},
		{"auth.token.prune.rows", "1", "Access token rows removed per prune run", &m.tokenPruneRows},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithUnit(h.unit), metric.WithDescription(h.desc)); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

func loadMetrics() *AppMetrics {
	metricsMu.RLock()
	m := appMetrics
	metricsMu.RUnlock()
	return m
}

func RecordAuthLogin(ctx context.Context, status string) {
	if m := loadMetrics(); m != nil {
		m.authLoginCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthRegister(ctx context.Context, source, status string) {
	if m := loadMetrics(); m != nil {
		m.authRegisterCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", source),
			attribute.String("status", status),
		))
	}
}

func RecordAuthLogout(ctx context.Context, status string) {
	if m := loadMetrics(); m != nil {
		m.authLogoutCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
	}
}

func RecordAuthRequestDuration(ctx context.Context, endpoint, status string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.authReqDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("endpoint", endpoint),
			attribute.String("status", status),
		))
	}
}

func RecordAccessTokenValidation(ctx context.Context, outcome, source string) {
	if m := loadMetrics(); m != nil {
		m.accessTokenValidationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.String("source", source),
		))
	}
}

func RecordTenantGateDecision(ctx context.Context, outcome string) {
	if m := loadMetrics(); m != nil {
		m.tenantGateCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}

func RecordTierGateDecision(ctx context.Context, tier, outcome string) {
	if m := loadMetrics(); m != nil {
		m.tierGateCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tier", tier),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordAdminUserMutation(ctx context.Context, action, status string) {
	if m := loadMetrics(); m != nil {
		m.adminUserMutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("action", action),
			attribute.String("status", status),
		))
	}
}

func RecordUserListCacheEvent(ctx context.Context, tier, outcome string) {
	if m := loadMetrics(); m != nil {
		m.userListCacheCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tier", tier),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordCatalogMutation(ctx context.Context, entity, action, status string) {
	if m := loadMetrics(); m != nil {
		m.catalogMutationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("entity", entity),
			attribute.String("action", action),
			attribute.String("status", status),
		))
	}
}

func RecordStorageOperation(ctx context.Context, operation, status string) {
	if m := loadMetrics(); m != nil {
		m.storageOperationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("status", status),
		))
	}
}

func RecordStorageUploadBytes(ctx context.Context, contentType string, size int64) {
	if m := loadMetrics(); m != nil {
		m.storageUploadBytes.Record(ctx, float64(size), metric.WithAttributes(
			attribute.String("content_type", contentType),
		))
	}
}

func RecordRateLimitDecision(ctx context.Context, scope, outcome, mode, keyType string) {
	if m := loadMetrics(); m != nil {
		m.rateLimitDecisionCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("outcome", outcome),
			attribute.String("mode", mode),
			attribute.String("key_type", keyType),
		))
	}
}

func RecordRateLimitRetryAfter(ctx context.Context, scope, reason string, retryAfter time.Duration) {
	if m := loadMetrics(); m != nil {
		m.rateLimitRetryAfter.Record(ctx, retryAfter.Seconds(), metric.WithAttributes(
			attribute.String("scope", scope),
			attribute.String("reason", reason),
		))
	}
}

func RecordHealthCheckResult(ctx context.Context, check, outcome string) {
	if m := loadMetrics(); m != nil {
		m.healthCheckResultCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("check", check),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordHealthCheckDuration(ctx context.Context, check string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.healthCheckDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("check", check),
		))
	}
}

func RecordDatabaseStartupEvent(ctx context.Context, stage, status string) {
	if m := loadMetrics(); m != nil {
		m.databaseStartupCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("stage", stage),
			attribute.String("status", status),
		))
	}
}

func RecordDatabaseStartupDuration(ctx context.Context, stage string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.databaseStartupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("stage", stage),
		))
	}
}

func RecordRepositoryOperation(ctx context.Context, repo, operation, outcome string) {
	if m := loadMetrics(); m != nil {
		m.repositoryOperationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("repository", repo),
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}
}

func RecordToolCommandRun(ctx context.Context, tool, command, status string) {
	if m := loadMetrics(); m != nil {
		m.toolCommandCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", command),
			attribute.String("status", status),
		))
	}
}

func RecordToolCommandDuration(ctx context.Context, tool, command, status string, duration time.Duration) {
	if m := loadMetrics(); m != nil {
		m.toolCommandDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
			attribute.String("tool", tool),
			attribute.String("command", command),
			attribute.String("status", status),
		))
	}
}

func RecordTokenPruneRows(ctx context.Context, rows int64) {
	if m := loadMetrics(); m != nil {
		m.tokenPruneRows.Record(ctx, float64(rows))
	}
}

func RecordMiddlewareValidationEvent(ctx context.Context, component, outcome string) {
	if m := loadMetrics(); m != nil {
		m.middlewareValidationCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("component", component),
			attribute.String("outcome", outcome),
		))
	}
}

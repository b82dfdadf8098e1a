package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Env      string
	HTTPPort string

	DatabaseURL string

	TokenTTL         time.Duration
	TokenPepper      string
	CookieDomain     string
	CookieSecure     bool
	CookieSameSite   string
	TenantBaseDomain string

	CORSAllowedOrigins []string

	BootstrapAdminName     string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string

	AuthRateLimitPerMin int
	APIRateLimitPerMin  int

	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	RateLimitRedisEnabled bool
	RateLimitRedisPrefix  string

	UserListCacheEnabled      bool
	UserListCacheRedisEnabled bool
	UserListCacheTTL          time.Duration
	UserListCachePrefix       string

	MinIOEnabled         bool
	MinIOEndpoint        string
	MinIOAccessKey       string
	MinIOSecretKey       string
	MinIOBucketName      string
	MinIOUseSSL          bool
	SliderMaxUploadBytes int64
	SliderURLTTL         time.Duration

	ReadinessProbeTimeout  time.Duration
	ServerStartGracePeriod time.Duration

	ShutdownTimeout              time.Duration
	ShutdownHTTPDrainTimeout     time.Duration
	ShutdownObservabilityTimeout time.Duration

	OTELServiceName           string
	OTELEnvironment           string
	OTELExporterOTLPEndpoint  string
	OTELExporterOTLPInsecure  bool
	OTELMetricsExportInterval time.Duration
	OTELTraceSamplingRatio    float64
	OTELMetricsEnabled        bool
	OTELTracingEnabled        bool
	OTELLogsEnabled           bool
	OTELLogLevel              string
}

func Load() (*Config, error) {
	env := getEnv("APP_ENV", "development")
	cfg := &Config{
		Env:                    env,
		HTTPPort:               getEnv("HTTP_PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		TokenPepper:            os.Getenv("TOKEN_PEPPER"),
		CookieDomain:           getEnv("COOKIE_DOMAIN", ".example.shop"),
		CookieSecure:           getEnvBool("COOKIE_SECURE", true),
		CookieSameSite:         strings.ToLower(getEnv("COOKIE_SAMESITE", "none")),
		TenantBaseDomain:       strings.ToLower(strings.Trim(getEnv("TENANT_BASE_DOMAIN", "example.shop"), ". ")),
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		BootstrapAdminName:     getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
		BootstrapAdminEmail:    strings.TrimSpace(strings.ToLower(os.Getenv("BOOTSTRAP_ADMIN_EMAIL"))),
		BootstrapAdminPassword: os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		AuthRateLimitPerMin:    getEnvInt("AUTH_RATE_LIMIT_PER_MIN", 30),
		APIRateLimitPerMin:     getEnvInt("API_RATE_LIMIT_PER_MIN", 120),

		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               getEnvInt("REDIS_DB", 0),
		RateLimitRedisEnabled: getEnvBool("RATE_LIMIT_REDIS_ENABLED", false),
		RateLimitRedisPrefix:  getEnv("RATE_LIMIT_REDIS_PREFIX", "rl"),

		UserListCacheEnabled:      getEnvBool("USER_LIST_CACHE_ENABLED", true),
		UserListCacheRedisEnabled: getEnvBool("USER_LIST_CACHE_REDIS_ENABLED", false),
		UserListCachePrefix:       getEnv("USER_LIST_CACHE_PREFIX", "user_list"),

		MinIOEnabled:         getEnvBool("MINIO_ENABLED", false),
		MinIOEndpoint:        getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey:       os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey:       os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucketName:      getEnv("MINIO_BUCKET_NAME", "sliders"),
		MinIOUseSSL:          getEnvBool("MINIO_USE_SSL", false),
		SliderMaxUploadBytes: int64(getEnvInt("SLIDER_MAX_UPLOAD_BYTES", 5<<20)),

		OTELServiceName:          getEnv("OTEL_SERVICE_NAME", "storefront-admin-api"),
		OTELEnvironment:          getEnv("OTEL_ENVIRONMENT", env),
		OTELExporterOTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTELExporterOTLPInsecure: getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
		OTELTraceSamplingRatio:   getEnvFloat("OTEL_TRACE_SAMPLING_RATIO", 1.0),
		OTELMetricsEnabled:       getEnvBool("OTEL_METRICS_ENABLED", true),
		OTELTracingEnabled:       getEnvBool("OTEL_TRACING_ENABLED", true),
		OTELLogsEnabled:          getEnvBool("OTEL_LOGS_ENABLED", true),
		OTELLogLevel:             strings.ToLower(getEnv("OTEL_LOG_LEVEL", "info")),
	}

	durations := []struct {
		key string
		def string
		dst *time.Duration
	}{
		{"TOKEN_TTL", "24h", &cfg.TokenTTL},
		{"USER_LIST_CACHE_TTL", "30s", &cfg.UserListCacheTTL},
		{"SLIDER_URL_TTL", "15m", &cfg.SliderURLTTL},
		{"READINESS_PROBE_TIMEOUT", "1s", &cfg.ReadinessProbeTimeout},
		{"SERVER_START_GRACE_PERIOD", "2s", &cfg.ServerStartGracePeriod},
		{"SHUTDOWN_TIMEOUT", "20s", &cfg.ShutdownTimeout},
		{"SHUTDOWN_HTTP_DRAIN_TIMEOUT", "10s", &cfg.ShutdownHTTPDrainTimeout},
		{"SHUTDOWN_OBSERVABILITY_TIMEOUT", "8s", &cfg.ShutdownObservabilityTimeout},
		{"OTEL_METRICS_EXPORT_INTERVAL", "10s", &cfg.OTELMetricsExportInterval},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []string
	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if len(c.TokenPepper) < 16 {
		errs = append(errs, "TOKEN_PEPPER must be at least 16 chars")
	}
	if c.TokenTTL <= 0 || c.TokenTTL > (30*24*time.Hour) {
		errs = append(errs, "TOKEN_TTL must be between 1s and 30d")
	}
	if !isValidSameSite(c.CookieSameSite) {
		errs = append(errs, "COOKIE_SAMESITE must be one of lax, strict, none")
	}
	if c.CookieSameSite == "none" && !c.CookieSecure {
		errs = append(errs, "COOKIE_SAMESITE=none requires COOKIE_SECURE=true")
	}
	if c.CookieDomain != "" && !strings.HasPrefix(c.CookieDomain, ".") {
		errs = append(errs, "COOKIE_DOMAIN must start with a dot so tenant subdomains share the cookie")
	}
	if c.BootstrapAdminEmail != "" && len(c.BootstrapAdminPassword) < 8 {
		errs = append(errs, "BOOTSTRAP_ADMIN_PASSWORD must be at least 8 chars when BOOTSTRAP_ADMIN_EMAIL is set")
	}
	if c.AuthRateLimitPerMin <= 0 {
		errs = append(errs, "AUTH_RATE_LIMIT_PER_MIN must be > 0")
	}
	if c.APIRateLimitPerMin <= 0 {
		errs = append(errs, "API_RATE_LIMIT_PER_MIN must be > 0")
	}
	if (c.RateLimitRedisEnabled || c.UserListCacheRedisEnabled) && c.RedisAddr == "" {
		errs = append(errs, "REDIS_ADDR is required when a redis-backed feature is enabled")
	}
	if c.UserListCacheEnabled && c.UserListCacheTTL <= 0 {
		errs = append(errs, "USER_LIST_CACHE_TTL must be > 0 when USER_LIST_CACHE_ENABLED=true")
	}
	if c.MinIOEnabled {
		if c.MinIOEndpoint == "" {
			errs = append(errs, "MINIO_ENDPOINT is required when MINIO_ENABLED=true")
		}
		if c.MinIOAccessKey == "" || c.MinIOSecretKey == "" {
			errs = append(errs, "MINIO_ACCESS_KEY and MINIO_SECRET_KEY are required when MINIO_ENABLED=true")
		}
		if c.MinIOBucketName == "" {
			errs = append(errs, "MINIO_BUCKET_NAME is required when MINIO_ENABLED=true")
		}
	}
	if c.SliderMaxUploadBytes <= 0 {
		errs = append(errs, "SLIDER_MAX_UPLOAD_BYTES must be > 0")
	}
	if c.SliderURLTTL <= 0 || c.SliderURLTTL > 7*24*time.Hour {
		errs = append(errs, "SLIDER_URL_TTL must be between 1s and 7d")
	}
	if c.ReadinessProbeTimeout <= 0 {
		errs = append(errs, "READINESS_PROBE_TIMEOUT must be > 0")
	}
	if c.ServerStartGracePeriod < 0 {
		errs = append(errs, "SERVER_START_GRACE_PERIOD must be >= 0")
	}
	if c.ShutdownHTTPDrainTimeout > c.ShutdownTimeout {
		errs = append(errs, "SHUTDOWN_HTTP_DRAIN_TIMEOUT must not exceed SHUTDOWN_TIMEOUT")
	}
	if (c.OTELMetricsEnabled || c.OTELTracingEnabled || c.OTELLogsEnabled) && c.OTELExporterOTLPEndpoint == "" {
		errs = append(errs, "OTEL_EXPORTER_OTLP_ENDPOINT is required when OTel is enabled")
	}
	if c.OTELTraceSamplingRatio < 0 || c.OTELTraceSamplingRatio > 1 {
		errs = append(errs, "OTEL_TRACE_SAMPLING_RATIO must be between 0 and 1")
	}
	if c.OTELMetricsExportInterval <= 0 {
		errs = append(errs, "OTEL_METRICS_EXPORT_INTERVAL must be > 0")
	}
	if !isValidLogLevel(c.OTELLogLevel) {
		errs = append(errs, "OTEL_LOG_LEVEL must be one of debug, info, warn, error")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// RedisRequired reports whether any component needs a redis client.
func (c *Config) RedisRequired() bool {
	return c.RateLimitRedisEnabled || (c.UserListCacheEnabled && c.UserListCacheRedisEnabled)
}

func isValidSameSite(v string) bool {
	switch v {
	case "lax", "strict", "none":
		return true
	default:
		return false
	}
}

func isValidLogLevel(v string) bool {
	switch strings.ToLower(v) {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}

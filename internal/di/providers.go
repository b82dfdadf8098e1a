package di

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/sandeepkv93/storefront-admin-api/internal/app"
	"github.com/sandeepkv93/storefront-admin-api/internal/config"
	"github.com/sandeepkv93/storefront-admin-api/internal/database"
	"github.com/sandeepkv93/storefront-admin-api/internal/health"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/handler"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/middleware"
	"github.com/sandeepkv93/storefront-admin-api/internal/http/router"
	"github.com/sandeepkv93/storefront-admin-api/internal/observability"
	"github.com/sandeepkv93/storefront-admin-api/internal/repository"
	"github.com/sandeepkv93/storefront-admin-api/internal/security"
	"github.com/sandeepkv93/storefront-admin-api/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideImageStorage,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewTokenRepository,
	repository.NewRoleRepository,
	repository.NewSliderRepository,
)

var SecuritySet = wire.NewSet(
	provideTokenHasher,
	provideCookieManager,
)

var ServiceSet = wire.NewSet(
	provideSubdomainService,
	provideUserListCacheStore,
	provideUserService,
	provideTokenService,
	service.NewAuthService,
	service.NewRoleService,
	service.NewSliderService,
	provideSeedReport,
	wire.Bind(new(service.AuthServiceInterface), new(*service.AuthService)),
	wire.Bind(new(service.UserServiceInterface), new(*service.UserService)),
	wire.Bind(new(service.RoleServiceInterface), new(*service.RoleService)),
	wire.Bind(new(service.SliderServiceInterface), new(*service.SliderService)),
)

var HTTPSet = wire.NewSet(
	provideAuthHandler,
	handler.NewUserHandler,
	handler.NewAdminHandler,
	handler.NewRoleHandler,
	handler.NewSliderHandler,
	provideRateLimiters,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(provideApp)

type MigrationRunner struct {
	cfg        *config.Config
	db         *gorm.DB
	subdomains *service.SubdomainService
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB, subdomains *service.SubdomainService) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db, subdomains: subdomains}
}

func (m *MigrationRunner) Run(ctx context.Context) (*database.SeedReport, error) {
	if err := database.Migrate(m.db); err != nil {
		return nil, err
	}
	return database.SeedSync(ctx, m.db, bootstrapAdmin(m.cfg), m.subdomains)
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// provideSeedReport runs the idempotent seed once the services it needs exist.
func provideSeedReport(cfg *config.Config, db *gorm.DB, subdomains *service.SubdomainService) (*database.SeedReport, error) {
	return database.SeedSync(context.Background(), db, bootstrapAdmin(cfg), subdomains)
}

func bootstrapAdmin(cfg *config.Config) database.BootstrapAdmin {
	return database.BootstrapAdmin{
		Name:     cfg.BootstrapAdminName,
		Email:    cfg.BootstrapAdminEmail,
		Password: cfg.BootstrapAdminPassword,
	}
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RedisRequired() {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideImageStorage(cfg *config.Config, logger *slog.Logger) (service.ImageStorage, error) {
	if !cfg.MinIOEnabled {
		logger.Info("object storage disabled, slider uploads will be rejected")
		return service.NewDisabledStorageService(), nil
	}
	return service.NewMinIOStorageService(
		cfg.MinIOEndpoint,
		cfg.MinIOAccessKey,
		cfg.MinIOSecretKey,
		cfg.MinIOBucketName,
		cfg.MinIOUseSSL,
		cfg.SliderMaxUploadBytes,
		cfg.SliderURLTTL,
	)
}

func provideTokenHasher(cfg *config.Config) *security.TokenHasher {
	return security.NewTokenHasher(cfg.TokenPepper)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideSubdomainService(cfg *config.Config, userRepo repository.UserRepository) *service.SubdomainService {
	return service.NewSubdomainService(userRepo, cfg.TenantBaseDomain)
}

func provideUserListCacheStore(cfg *config.Config, redisClient redis.UniversalClient) service.UserListCacheStore {
	switch {
	case !cfg.UserListCacheEnabled:
		return service.NewNoopUserListCacheStore()
	case cfg.UserListCacheRedisEnabled && redisClient != nil:
		return service.NewRedisUserListCacheStore(redisClient, cfg.UserListCachePrefix)
	default:
		return service.NewInMemoryUserListCacheStore()
	}
}

func provideUserService(cfg *config.Config, userRepo repository.UserRepository, subdomains *service.SubdomainService, cache service.UserListCacheStore) *service.UserService {
	return service.NewUserService(userRepo, subdomains, cache, cfg.UserListCacheTTL)
}

func provideTokenService(cfg *config.Config, tokenRepo repository.TokenRepository, hasher *security.TokenHasher) *service.TokenService {
	return service.NewTokenService(tokenRepo, hasher, cfg.TokenTTL)
}

func provideAuthHandler(authSvc service.AuthServiceInterface, cookieMgr *security.CookieManager, tokens *service.TokenService) *handler.AuthHandler {
	return handler.NewAuthHandler(authSvc, cookieMgr, tokens.TTL())
}

type rateLimiters struct {
	api  router.RateLimiterFunc
	auth router.RateLimiterFunc
}

// provideRateLimiters uses Redis when configured. The auth limiter fails
// closed and the API limiter fails open.
func provideRateLimiters(cfg *config.Config, redisClient redis.UniversalClient) rateLimiters {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		return rateLimiters{
			api: middleware.NewDistributedRateLimiter(
				middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix),
				cfg.APIRateLimitPerMin, time.Minute, middleware.FailOpen, "api",
			).Middleware(),
			auth: middleware.NewDistributedRateLimiter(
				middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix),
				cfg.AuthRateLimitPerMin, time.Minute, middleware.FailClosed, "auth",
			).Middleware(),
		}
	}
	return rateLimiters{
		api:  middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute, "api").Middleware(),
		auth: middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").Middleware(),
	}
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	adminHandler *handler.AdminHandler,
	roleHandler *handler.RoleHandler,
	sliderHandler *handler.SliderHandler,
	tokens *service.TokenService,
	subdomains *service.SubdomainService,
	limiters rateLimiters,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:          authHandler,
		UserHandler:          userHandler,
		AdminHandler:         adminHandler,
		RoleHandler:          roleHandler,
		SliderHandler:        sliderHandler,
		TokenResolver:        tokens,
		TenantResolver:       subdomains,
		CORSOrigins:          cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:     cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:      cfg.APIRateLimitPerMin,
		APIRateLimiter:       limiters.api,
		AuthRateLimiter:      limiters.auth,
		SliderMaxUploadBytes: cfg.SliderMaxUploadBytes,
		Readiness:            readiness,
		EnableOTelHTTP:       cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient, storage service.ImageStorage) *health.ProbeRunner {
	checkers := []health.Checker{health.NewDBChecker(db)}
	if redisClient != nil {
		checkers = append(checkers, health.NewRedisChecker("redis", redisClient))
	}
	if cfg.MinIOEnabled {
		checkers = append(checkers, health.NewStorageChecker(storage))
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}

func provideApp(
	cfg *config.Config,
	logger *slog.Logger,
	server *http.Server,
	runtime *observability.Runtime,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	seed *database.SeedReport,
) *app.App {
	logger.Info("seed complete",
		"created_admin", seed.CreatedAdmin,
		"promoted_admin", seed.PromotedAdmin,
		"backfilled_subdomains", seed.BackfilledSubdomains,
	)
	return app.New(cfg, logger, server, runtime, db, redisClient)
}

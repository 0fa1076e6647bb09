// Package container provides dependency injection using Uber FX
// This implements the Dependency Inversion Principle from SOLID
package container

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	clientApp "github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/client"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/fetch"
	mealplanApp "github.com/TroydonAnabolic/meal-planner-website-sub000/internal/application/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/domain/mealplan"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/cache"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/config"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/http/handlers"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/http/server"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/monitoring"
	gormRepo "github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/gorm"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/memory"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/postgres"
	redisRepo "github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/redis"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/persistence/sqlite"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/infrastructure/provider"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/inbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/internal/ports/outbound"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/healthcheck"
	"github.com/TroydonAnabolic/meal-planner-website-sub000/pkg/logger"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ConfigPath is the config file handed to config.Load; empty searches the defaults
type ConfigPath string

// Module provides all dependency injection modules
var Module = fx.Options(
	// Infrastructure modules
	ConfigModule,
	LoggerModule,
	MonitoringModule,
	DatabaseModule,
	CacheModule,

	// Remote provider modules
	ProviderModule,

	// Repository modules
	RepositoryModule,

	// Service modules
	ServiceModule,

	// HTTP modules
	HTTPModule,

	// Lifecycle hooks
	LifecycleModule,
)

// ConfigModule provides configuration
var ConfigModule = fx.Provide(
	func(path ConfigPath) (*config.Config, error) {
		return config.Load(string(path))
	},
)

// LoggerModule provides logging
var LoggerModule = fx.Provide(
	func(cfg *config.Config) (*zap.Logger, error) {
		return logger.New(logger.Config{
			Level:       cfg.App.LogLevel,
			Format:      cfg.App.LogFormat,
			Development: cfg.App.Debug,
			OutputPaths: cfg.App.LogOutputPaths,
		})
	},
)

// MonitoringModule provides the prometheus collector and OpenTelemetry providers
var MonitoringModule = fx.Provide(
	func(log *zap.Logger) *monitoring.MetricsCollector {
		return monitoring.NewMetricsCollector(nil, log)
	},
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) (*monitoring.Telemetry, error) {
		telemetry, err := monitoring.NewTelemetry(monitoring.TelemetryConfig{
			ServiceName:    cfg.App.Name,
			ServiceVersion: cfg.App.Version,
			Environment:    cfg.App.Environment,
			TracingEnabled: cfg.Monitoring.EnableTracing,
			JaegerEndpoint: cfg.Monitoring.JaegerEndpoint,
			OTLPEndpoint:   cfg.Monitoring.OTLPEndpoint,
			SamplingRate:   cfg.Monitoring.SamplingRate,
			MetricsEnabled: cfg.Monitoring.EnableMetrics,
		}, metrics.Registry(), log)
		if err != nil {
			return nil, err
		}

		planner, err := monitoring.NewPlannerInstruments(telemetry.Meter())
		if err != nil {
			return nil, fmt.Errorf("failed to create planner instruments: %w", err)
		}
		metrics.WithPlanner(planner)

		lc.Append(fx.Hook{OnStop: telemetry.Shutdown})
		return telemetry, nil
	},
)

// DatabaseModule provides database connections
var DatabaseModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
		if cfg.Database.Driver == "postgres" {
			cm, err := postgres.NewConnectionManager(cfg, log)
			if err != nil {
				return nil, err
			}
			lc.Append(fx.Hook{OnStop: func(context.Context) error { return cm.Close() }})
			return cm.GetDB(), nil
		}

		db, err := sqlite.SetupDatabase(cfg.Database.Path, gormRepo.NewLogger(log, cfg.Database.LogLevel, 0))
		if err != nil {
			return nil, fmt.Errorf("failed to setup SQLite database: %w", err)
		}
		log.Info("Connected to SQLite database",
			zap.String("path", cfg.Database.Path),
			zap.Bool("in_memory", cfg.Database.Path == "" || cfg.Database.Path == ":memory:"),
		)

		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}})
		return db, nil
	},
)

// CacheModule provides caching. The redis client is nil when redis is disabled.
var CacheModule = fx.Provide(
	func(lc fx.Lifecycle, cfg *config.Config, log *zap.Logger) (*cache.RedisClient, error) {
		if !cfg.Redis.Enabled {
			return nil, nil
		}
		client, err := cache.NewRedisClient(cfg.Redis, log)
		if err != nil {
			return nil, err
		}
		lc.Append(fx.Hook{OnStop: func(context.Context) error { return client.Close() }})
		return client, nil
	},
	func(lc fx.Lifecycle, client *cache.RedisClient, log *zap.Logger) outbound.CacheRepository {
		if client != nil {
			return redisRepo.NewCacheRepository(client, "mealplanner", log)
		}

		log.Info("Redis disabled, using in-memory cache")
		repo := memory.NewCacheRepository(time.Minute)
		lc.Append(fx.Hook{OnStop: func(context.Context) error {
			repo.Close()
			return nil
		}})
		return repo
	},
)

// ProviderModule provides the remote platform client behind the fetch transport
var ProviderModule = fx.Provide(
	func(cfg *config.Config, log *zap.Logger, metrics *monitoring.MetricsCollector) *fetch.Transport {
		return fetch.NewTransport(fetch.Config{
			MaxRetries:    cfg.Fetch.MaxRetries,
			InitialDelay:  cfg.Fetch.InitialDelay,
			MaxDelay:      cfg.Fetch.MaxDelay,
			MaxConcurrent: cfg.Fetch.MaxConcurrent,
			MinSpacing:    cfg.Fetch.MinSpacing,
		}, log, fetch.WithObserver(metrics))
	},
	func(cfg *config.Config, transport *fetch.Transport, log *zap.Logger) *provider.Client {
		return provider.NewClient(cfg.Provider, transport, log)
	},
	func(client *provider.Client) outbound.MealPlanGenerator { return client },
	func(client *provider.Client) outbound.ShoppingListService { return client },
	func(cfg *config.Config, client *provider.Client, store outbound.CacheRepository, metrics *monitoring.MetricsCollector, log *zap.Logger) outbound.RecipeLookup {
		lookup := cache.NewCachedRecipeLookup(client, store, cfg.Planner.RecipeCacheTTL, log)
		if err := metrics.RegisterCacheStats(lookup.Stats); err != nil {
			log.Warn("Failed to register recipe cache metrics", zap.Error(err))
		}
		return lookup
	},
)

// RepositoryModule provides repository implementations
var RepositoryModule = fx.Provide(
	fx.Annotate(
		gormRepo.NewMealPlanRepository,
		fx.As(new(outbound.MealPlanRepository)),
	),
	fx.Annotate(
		gormRepo.NewClientProfileRepository,
		fx.As(new(outbound.ClientProfileRepository)),
	),
)

// ServiceModule provides application services
var ServiceModule = fx.Provide(
	func(cfg *config.Config, shopping outbound.ShoppingListService, metrics *monitoring.MetricsCollector, log *zap.Logger) *mealplanApp.ShoppingConsolidator {
		return mealplanApp.NewShoppingConsolidator(shopping, cfg.Planner.ShoppingBatchDivisor, metrics, log)
	},
	func(cfg *config.Config) (*mealplan.Resolver, error) {
		schedule, err := mealplan.ParseSlotSchedule(cfg.Planner.SlotTimes)
		if err != nil {
			return nil, fmt.Errorf("invalid planner.slot_times: %w", err)
		}
		return mealplan.NewResolver(schedule), nil
	},
	func(
		cfg *config.Config,
		generator outbound.MealPlanGenerator,
		recipes outbound.RecipeLookup,
		consolidator *mealplanApp.ShoppingConsolidator,
		plans outbound.MealPlanRepository,
		profiles outbound.ClientProfileRepository,
		resolver *mealplan.Resolver,
		metrics *monitoring.MetricsCollector,
		log *zap.Logger,
	) inbound.MealPlanService {
		return mealplanApp.NewService(mealplanApp.Dependencies{
			Generator:    generator,
			Recipes:      recipes,
			Consolidator: consolidator,
			Plans:        plans,
			Profiles:     profiles,
			Resolver:     resolver,
			Metrics:      metrics,
		}, mealplanApp.Settings{
			DefaultDays:  cfg.Planner.DefaultDays,
			DefaultSlots: cfg.Planner.DefaultSlots,
			FavoriteSeed: cfg.Planner.FavoriteSeed,
		}, log)
	},
	fx.Annotate(
		clientApp.NewProfileService,
		fx.As(new(inbound.ClientProfileService)),
	),
)

// HTTPModule provides HTTP server and handlers
var HTTPModule = fx.Provide(
	handlers.NewAPIHandlers,
	NewHealthCheck,
	func(
		cfg *config.Config,
		log *zap.Logger,
		api *handlers.APIHandlers,
		health *healthcheck.HealthCheck,
		metrics *monitoring.MetricsCollector,
	) *server.Server {
		if !cfg.Monitoring.EnableMetrics {
			metrics = nil
		}
		return server.NewServer(cfg, log, api, health, metrics)
	},
)

// NewHealthCheck registers a checker for every dependency. The cache and the
// remote platform are optional: planning degrades without them.
func NewHealthCheck(
	cfg *config.Config,
	log *zap.Logger,
	db *gorm.DB,
	redis *cache.RedisClient,
	client *provider.Client,
	transport *fetch.Transport,
) *healthcheck.HealthCheck {
	health := healthcheck.New(cfg.App.Version, log)
	health.Register("database", healthcheck.NewDatabaseChecker(db))
	if redis != nil {
		health.Register("redis", healthcheck.NewOptionalPingChecker(redis))
	}
	health.Register("provider", healthcheck.NewOptionalPingChecker(client))
	health.Register("schedulers", healthcheck.NewCustomChecker("schedulers",
		func(context.Context) (healthcheck.Status, string, interface{}) {
			inFlight := make(map[string]int)
			for _, service := range transport.Registry().Services() {
				inFlight[service] = transport.Registry().For(service).InFlight()
			}
			return healthcheck.StatusHealthy, "", map[string]interface{}{"in_flight": inFlight}
		},
	))
	return health
}

// LifecycleModule provides lifecycle hooks
var LifecycleModule = fx.Invoke(
	RegisterLifecycleHooks,
)

// RegisterLifecycleHooks registers application lifecycle hooks
func RegisterLifecycleHooks(
	lc fx.Lifecycle,
	shutdowner fx.Shutdowner,
	cfg *config.Config,
	log *zap.Logger,
	_ *monitoring.Telemetry,
	server *server.Server,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("Starting meal planner",
				zap.String("version", cfg.App.Version),
				zap.String("environment", cfg.App.Environment),
				zap.String("database", cfg.Database.Driver),
			)

			go func() {
				if err := server.Start(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
					log.Error("HTTP server stopped", zap.Error(err))
					_ = shutdowner.Shutdown(fx.ExitCode(1))
				}
			}()

			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info("Shutting down meal planner")

			if err := server.Shutdown(ctx); err != nil {
				log.Error("Failed to shutdown HTTP server", zap.Error(err))
			}

			_ = log.Sync()
			return nil
		},
	})
}

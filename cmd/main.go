package main

import (
	"context"

	"github.com/seniorble/guardian/internal/api"
	"github.com/seniorble/guardian/internal/controller"
	"github.com/seniorble/guardian/internal/migrations"
	"github.com/seniorble/guardian/internal/service"
	"github.com/seniorble/guardian/internal/storage"
	"github.com/seniorble/guardian/internal/storage/postgres"
	"github.com/seniorble/guardian/internal/storage/redis"
	"github.com/seniorble/guardian/internal/util"
)

func main() {
	ctx := context.Background()
	logger := util.NewZapLogger()
	defer func() { _ = logger.Sync() }()

	tokenCfg, err := util.LoadTokenConfig()
	if err != nil {
		logger.Fatalw("invalid token configuration", "error", err)
	}
	passwordCfg, err := util.LoadPasswordConfig()
	if err != nil {
		logger.Fatalw("invalid password configuration", "error", err)
	}
	storeCfg, err := util.NewStoreConfig()
	if err != nil {
		logger.Fatalw("invalid store configuration", "error", err)
	}
	dbCfg, err := util.NewDBConfig()
	if err != nil {
		logger.Fatalw("invalid database configuration", "error", err)
	}

	db, dbCleanup, err := util.NewDBConnection(logger, dbCfg)
	if err != nil {
		logger.Fatalw("database connection failed", "error", err)
	}
	cleanupFuncs := []func(){dbCleanup}
	defer func() {
		for i := len(cleanupFuncs) - 1; i >= 0; i-- {
			cleanupFuncs[i]()
		}
	}()

	if err := migrations.RunMigrations(db, logger); err != nil {
		logger.Fatalw("migrations failed", "error", err)
	}

	pg := postgres.NewStorage(db)
	var sessions storage.RefreshTokenStore = pg

	var apiKeys api.APIKeyValidator
	if redisCfg := util.NewRedisConfig(); redisCfg != nil {
		redisClient, redisCleanup, err := util.NewRedisClient(logger, redisCfg)
		if err != nil {
			logger.Fatalw("redis connection failed", "error", err)
		}
		cleanupFuncs = append(cleanupFuncs, redisCleanup)

		if storeCfg.Backend == util.StoreBackendRedis {
			sessions = redis.NewSessionStorage(redisClient, storeCfg.Retention)
		}

		if key := util.NewMaintenanceConfig().APIKey; key != "" {
			apiKeyService := service.NewAPIKeyService(redisClient, logger)
			if err := apiKeyService.SyncAPIKey(ctx, key); err != nil {
				logger.Fatalw("maintenance API key sync failed", "error", err)
			}
			apiKeys = apiKeyService
		}
	} else if storeCfg.Backend == util.StoreBackendRedis {
		logger.Fatalw("REFRESH_STORE=redis requires REDIS_ADDR")
	}
	logger.Infow("refresh token store selected", "backend", storeCfg.Backend)

	hasher, err := service.NewPasswordHasher(passwordCfg.Cost)
	if err != nil {
		logger.Fatalw("password hasher", "error", err)
	}
	tokenService := service.NewTokenService(tokenCfg)
	webhookService := service.NewWebhookService(logger, util.GetWebhookURL())

	authService := service.NewAuthService(pg, hasher, logger)
	sessionService := service.NewSessionService(pg, sessions, tokenService, hasher, webhookService, logger)
	patientService := service.NewPatientService(pg)

	ctrl := controller.NewController(
		logger,
		authService,
		sessionService,
		patientService,
		util.NewCookieConfig(tokenService.RefreshTTL()),
		pg,
		storeCfg.Retention,
	)

	apiServer, err := api.NewAPI(ctrl, service.NewGate(tokenService), apiKeys, logger, util.NewServerConfig())
	if err != nil {
		logger.Fatalw("api setup failed", "error", err)
	}
	apiServer.Run(ctx)
}

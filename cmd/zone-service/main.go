package main

import (
	"fmt"
	"os"

	"zone-service/internal/auth"
	"zone-service/internal/cache"
	"zone-service/internal/client"
	"zone-service/internal/config"
	"zone-service/internal/db"
	httphandler "zone-service/internal/http"
	"zone-service/internal/http/middleware"
	"zone-service/internal/logger"
	"zone-service/internal/repository"
	"zone-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	appLogger := logger.New(cfg.Environment)

	database, err := db.New(cfg, appLogger)
	if err != nil {
		appLogger.Fatal().Err(err).Msg("failed to connect database")
	}

	areaRepo := repository.NewAreaRepository(database)
	cellRepo := repository.NewCellRepository(database)
	approvalRepo := repository.NewApprovalRepository(database)
	regionRepo := repository.NewRegionRepository(database)

	// Nil when REDIS_ADDR is unset; a nil cache disables caching.
	zoneCache := cache.NewZoneCache(cfg.Redis, appLogger)

	var listingNotifier service.ListingNotifier
	if cfg.ExternalServices.ListingServiceURL != "" {
		listingNotifier = client.NewListingClient(cfg)
	}

	areaService := service.NewAreaService(areaRepo, regionRepo, zoneCache)
	cellService := service.NewCellService(cellRepo, areaRepo, zoneCache)
	approvalService := service.NewApprovalService(approvalRepo)
	zoneService := service.NewZoneService(areaRepo, cellRepo, cellService, zoneCache, listingNotifier, appLogger)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	handler := httphandler.NewHandler(areaService, cellService, approvalService, zoneService, appLogger)
	authMiddleware := middleware.Auth(tokenParser)
	router := httphandler.NewRouter(handler, authMiddleware, cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	appLogger.Info().Str("addr", addr).Msg("starting zone service")

	if err := router.Run(addr); err != nil {
		appLogger.Error().Err(err).Msg("failed to start server")
		os.Exit(1)
	}
}

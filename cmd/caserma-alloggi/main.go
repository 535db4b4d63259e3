package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"caserma-alloggi/internal/config"
	"caserma-alloggi/internal/database"
	httpapi "caserma-alloggi/internal/http"
	zlog "caserma-alloggi/internal/logger"
	"caserma-alloggi/internal/repository"
	"caserma-alloggi/internal/service"
	"caserma-alloggi/internal/store"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	logger, err := zlog.New(cfg.Log.Level, cfg.Log.Format, "caserma-alloggi")
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	// Repositories. When the DB is enabled but unreachable the service
	// falls back to the seeded in-memory store so local dev keeps working.
	var (
		categorieRepo  repository.CategorieRepository
		gradiRepo      repository.GradiRepository
		camereRepo     repository.CamereRepository
		alloggiatiRepo repository.AlloggiatiRepository
		assegnRepo     repository.AssegnazioniRepository
		storicoRepo    repository.StoricoRepository
		adminRepo      repository.AdminRepository
	)

	dbReady := false
	if cfg.DBEnabled {
		if db, err := database.NewPostgresDB(&cfg.Database); err == nil {
			categorieRepo = repository.NewPostgresCategorieRepo(db)
			gradiRepo = repository.NewPostgresGradiRepo(db)
			camereRepo = repository.NewPostgresCamereRepo(db)
			alloggiatiRepo = repository.NewPostgresAlloggiatiRepo(db)
			assegnRepo = repository.NewPostgresAssegnazioniRepo(db)
			storicoRepo = repository.NewPostgresStoricoRepo(db)
			adminRepo = repository.NewPostgresAdminRepo(db)
			dbReady = true
			logger.Info("DB enabled for caserma-alloggi")
		} else {
			logger.Warn("DB enabled but connection failed, falling back to memory store", zap.Error(err))
		}
	}
	if !dbReady {
		mem := repository.NewMemoryStore()
		mem.Seed()
		if cfg.Auth.Mode == config.ModeDevelopment {
			mem.SetAdmin(cfg.Auth.DevUsername, true)
		}
		categorieRepo = mem
		gradiRepo = mem
		camereRepo = mem
		alloggiatiRepo = mem
		assegnRepo = mem
		storicoRepo = mem
		adminRepo = mem
		logger.Info("using in-memory store")
	}

	// Admin-flag cache: Redis when configured, in-process otherwise.
	var kv store.KV
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		kv = store.NewRedisKV(redisClient)
	} else {
		kv = store.NewMemoryKV()
	}

	authService := service.NewAuthService(cfg.Auth, adminRepo, kv, logger)
	anagraficaService := service.NewAnagraficaService(categorieRepo, gradiRepo, logger)
	cameraService := service.NewCameraService(camereRepo, categorieRepo, logger)
	alloggiatoService := service.NewAlloggiatoService(alloggiatiRepo, gradiRepo, logger)
	allocatorService := service.NewAllocatorService(assegnRepo, camereRepo, logger)
	storicoService := service.NewStoricoService(storicoRepo, logger)
	directoryClient := service.NewDirectoryClient(cfg.Directory, cfg.Auth.Mode, logger)

	router := httpapi.NewRouter(authService, logger)
	router.RegisterHealth()
	router.RegisterAuthRoutes(httpapi.NewAuthHandler(authService, logger))
	router.RegisterDirectoryRoutes(httpapi.NewDirectoryHandler(directoryClient, logger))
	router.RegisterAnagraficaRoutes(httpapi.NewAnagraficaHandler(anagraficaService, logger))
	router.RegisterCamereRoutes(httpapi.NewCamereHandler(cameraService, logger))
	router.RegisterAlloggiatiRoutes(httpapi.NewAlloggiatiHandler(alloggiatoService, logger))
	router.RegisterAssegnazioniRoutes(httpapi.NewAssegnazioniHandler(allocatorService, logger))
	router.RegisterStoricoRoutes(httpapi.NewStoricoHandler(allocatorService, storicoService, authService, logger))

	srv := service.NewServer(cfg.HTTP.Addr, router.Handler(), logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Error("http server stopped", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Stop(ctx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"eventgraph/config"
	"eventgraph/internal/auth"
	"eventgraph/internal/bus"
	"eventgraph/internal/cache"
	"eventgraph/internal/database"
	"eventgraph/internal/graph"
	"eventgraph/internal/handler"
	"eventgraph/internal/repository"
	"eventgraph/internal/service"
	"eventgraph/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.LoadConfig()
	log := logger.WithComponent("server")

	pool, err := database.InitDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("initialize database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(&cfg.Database); err != nil {
		log.Fatal("run migrations", zap.Error(err))
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("initialize redis", zap.Error(err))
	}
	defer rdb.Close()

	events := bus.New()
	defer events.Close()

	userRepo := repository.NewUserRepository(pool)
	eventRepo := repository.NewEventRepository(pool)
	regRepo := repository.NewRegistrationRepository(pool)
	commentRepo := repository.NewCommentRepository(pool)

	gate := cache.NewRedisCapacityGate(rdb)
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	resolver := &graph.Resolver{
		Auth:          service.NewAuthService(userRepo, tokens),
		Events:        service.NewEventService(eventRepo, regRepo, gate, events),
		Registrations: service.NewRegistrationService(pool, regRepo, eventRepo, gate, events),
		Comments:      service.NewCommentService(commentRepo, eventRepo, events),
		Users:         userRepo,
		EventRepo:     eventRepo,
		Bus:           events,
	}

	schema, err := graph.NewSchema(resolver)
	if err != nil {
		log.Fatal("build schema", zap.Error(err))
	}

	router := handler.NewRouter(cfg, schema, tokens)
	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"valve_control/internal/config"
	"valve_control/internal/controller"
	"valve_control/internal/handlers"
	"valve_control/internal/logger"
	"valve_control/internal/repository"
	"valve_control/internal/repository/db"
	"valve_control/internal/server"
	"valve_control/internal/service"
)

const shutdownTimeout = 10 * time.Second

// @title           Valve Control API
// @version         1.0
// @description     Valve pages, page mutations, operator API and live valve stream.
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load(config.New())
	if err != nil {
		logger.Get(logger.InfoLevel).Fatalw("error reading config", "err", err)
	}

	log := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})

	conn, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		log.Fatalw("failed to init sqlite", "path", cfg.DB.Path, "err", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			log.Errorw("failed to close sqlite", "err", cerr)
		}
	}()

	services := wireServices(conn, cfg, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seedValves(ctx, services, cfg.Valves, log)

	go services.Executor.Run(ctx, cfg.Executor.Tick)

	apiHandler := handlers.NewHandler(services, log.Named("http"), handlers.Config{
		StaticDir:  cfg.StaticDir,
		WSInterval: cfg.WS.Interval,
	})
	limit := server.RateLimitByIP(cfg.RateLimit.Requests, cfg.RateLimit.Window)

	srv := &server.Server{}
	runHTTPServer(srv, cfg.Port, limit(apiHandler.InitRoutes()), log)

	waitForShutdown(cancel, srv, log)
}

func wireServices(conn *sql.DB, cfg *config.Config, log *logger.Logger) *service.Service {
	deps := service.Deps{
		Log:        log,
		SigningKey: cfg.Auth.SigningKey,
		TokenTTL:   cfg.Auth.TokenTTL,
	}
	// A nil *Client must not end up inside the interface.
	if c := controller.New(cfg.Control); c != nil {
		deps.Controller = c
		log.Infow("controller enabled", "address", cfg.Control.Address)
	} else {
		log.Infow("controller address not set; valve states are tracked locally only")
	}
	return service.NewService(repository.NewRepository(conn), deps)
}

// seedValves creates the valves listed in config that do not exist yet.
func seedValves(ctx context.Context, services *service.Service, seeds []config.SeedValve, log *logger.Logger) {
	for _, sv := range seeds {
		_, err := services.Valves.Create(ctx, sv.Number, sv.Name)
		switch {
		case err == nil:
			log.Infow("seeded valve", "valve", sv.Number, "name", sv.Name)
		case errors.Is(err, service.ErrValveExists):
		default:
			log.Warnw("failed to seed valve", "valve", sv.Number, "err", err)
		}
	}
}

// runHTTPServer runs the HTTP server in a separate goroutine.
func runHTTPServer(srv *server.Server, port string, handler http.Handler, log *logger.Logger) {
	go func() {
		if err := srv.Run(port, handler); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("error starting server", "err", err)
		}
	}()
}

// waitForShutdown listens for termination signals and performs graceful shutdown.
func waitForShutdown(cancel context.CancelFunc, srv *server.Server, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server...")

	// stop the executor
	cancel()

	ctx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"replenishment-service/internal/app"
	"replenishment-service/internal/handler"
	mid "replenishment-service/internal/middleware"
	"replenishment-service/pkg/database"
	"replenishment-service/pkg/jwtutil"
	"replenishment-service/pkg/logger"
)

const serviceName = "replenishment-service"

func main() {
	ctx := context.Background()

	deps, err := app.Build(ctx, serviceName)
	if err != nil {
		// Can't use structured logger yet since it may not be initialized
		panic("Failed to start: " + err.Error())
	}
	defer deps.Close()

	log := logger.GetLogger()
	defer log.Sync()

	jwt := jwtutil.NewJWTUtil(&deps.Config.JWT)

	// Initialize Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(mid.MetricsMiddleware)

	// Routes
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", handler.HealthCheck(serviceName, func(ctx context.Context) error {
		return database.Ping(ctx, deps.DB, 2*time.Second)
	}))

	e.POST("/auth/login", handler.NewAuthHandler(deps.Operators, jwt).Login)

	api := e.Group("/api", mid.AuthMiddleware(jwt))
	handler.NewReplenishmentHandler(deps.Engine, deps.Locker).Register(api)

	go func() {
		port := deps.Config.Server.Port
		log.Info("Starting server", zap.String("port", port))
		if err := e.Start(":" + port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown failed", zap.Error(err))
	}
}

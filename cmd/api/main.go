package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/bimakw/swap-trader/internal/app"
	"github.com/bimakw/swap-trader/internal/config"
	"github.com/bimakw/swap-trader/internal/presentation/handlers"
)

const (
	version = "0.3.0"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	simulate := flag.Bool("simulate", false, "trade against an in-memory ledger")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	logger, err := app.NewLogger(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}

	var a *app.App
	if *simulate {
		a, _, err = app.NewSimulated(cfg, logger)
	} else {
		a, err = app.New(cfg, logger)
	}
	if err != nil {
		logger.Fatalf("Failed to initialise trader: %v", err)
	}
	defer a.Close()

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      newRouter(a, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.WithField("addr", server.Addr).Infof("Starting swap trader API v%s", version)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatalf("Server shutdown error: %v", err)
	}
	logger.Info("Server stopped")
}

func newRouter(a *app.App, origins []string) http.Handler {
	healthHandler := handlers.NewHealthHandler(version, a.Engine.Account().Hex())
	balanceHandler := handlers.NewBalanceHandler(a.Engine, a.Registry, a.Logger)
	swapHandler := handlers.NewSwapHandler(a.Engine, a.Registry, a.Logger)

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(requestLogger(a.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(45 * time.Second))
	r.Use(handlers.CORS(origins))

	// Routes
	r.Get("/health", healthHandler.Health)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/balance/{token}", balanceHandler.GetBalance)
		r.Post("/swap/buy", swapHandler.Buy)
		r.Post("/swap/sell", swapHandler.Sell)
	})

	return r
}

func requestLogger(logger logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.WithFields(logrus.Fields{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    ww.Status(),
				"duration":  time.Since(start).String(),
				"requestID": middleware.GetReqID(r.Context()),
			}).Info("request")
		})
	}
}

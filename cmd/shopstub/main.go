package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/Esataydin/nexus-cart-quest/internal/domain"
	"github.com/Esataydin/nexus-cart-quest/internal/stubstore"
)

type config struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
}

func loadConfig() *config {
	return &config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	store := stubstore.New()
	store.SeedProducts(demoProducts())

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Mount("/", stubstore.NewRouter(store))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("shop stub starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "err", err)
		os.Exit(1)
	}
	slog.Info("server exited")
}

func demoProducts() []domain.Product {
	price := func(s string) domain.Money {
		return domain.NewMoney(decimal.RequireFromString(s))
	}

	return []domain.Product{
		{ID: 1, Name: "Blue Mouse", Description: "Wireless optical mouse", Category: "Peripherals", Price: price("24.99"), Stock: 40},
		{ID: 2, Name: "Red Mouse", Description: "Wired gaming mouse", Category: "Peripherals", Price: price("34.99"), Stock: 25},
		{ID: 3, Name: "Mechanical Keyboard", Description: "Tenkeyless, brown switches", Category: "Peripherals", Price: price("89.99"), Stock: 15},
		{ID: 4, Name: "Webcam", Description: "1080p USB webcam", Category: "Video", Price: price("59.99"), Stock: 10},
		{ID: 5, Name: "4K Monitor", Description: "27 inch IPS panel", Category: "Video", Price: price("329.00"), Stock: 8},
		{ID: 6, Name: "USB-C Hub", Description: "7-in-1 hub with HDMI", Category: "Accessories", Price: price("45.50"), Stock: 60},
	}
}

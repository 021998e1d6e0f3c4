package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloutcoin/internal/backend"
	"cloutcoin/internal/checkout"
	"cloutcoin/internal/config"
	"cloutcoin/internal/conversation"
	"cloutcoin/internal/database"
	"cloutcoin/internal/handler"
	"cloutcoin/internal/logger"
	"cloutcoin/internal/middleware"
	"cloutcoin/internal/notify"
	"cloutcoin/internal/rates"
	"cloutcoin/internal/session"
	"cloutcoin/internal/withdraw"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty})
	if envErr != nil {
		log.Debug().Msg("no .env file found")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	overrides, err := config.LoadMethodOverrides(cfg.Rates.MethodsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load withdrawal methods")
	}
	methods, err := rates.ApplyOverrides(rates.DefaultMethods(), overrides)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid withdrawal method schedule")
	}

	notifier, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, log)
	if err != nil {
		// withdrawals still go through without operator notices
		log.Error().Err(err).Msg("telegram notifier unavailable")
		notifier = &notify.Telegram{}
	}

	prices := rates.NewPriceIndex(cfg.Rates.PriceIndexURL, cfg.Rates.PriceCacheTTL, log)
	table := rates.NewTable(methods, prices, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go table.Run(ctx, cfg.Rates.RefreshInterval)

	api := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	sessions := session.NewService(db, api, log)

	h := handler.NewHandler(handler.Deps{
		DB:            db,
		Sessions:      sessions,
		API:           api,
		Rates:         table,
		Withdrawals:   withdraw.NewSubmitter(table, api, db, notifier, log),
		Checkout:      checkout.NewService(prices, api, db, log),
		Messenger:     conversation.NewMessenger(api, log),
		RedirectDelay: cfg.Server.LoginRedirectDelay,
		Logger:        log,
	})

	rateLimiter := middleware.NewIPRateLimiter(cfg.RateLimit)
	go pruneRateLimiter(ctx, rateLimiter)

	router := setupRouter(h, rateLimiter, log)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Str("port", cfg.Server.Port).Str("backend", cfg.Backend.BaseURL).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

func setupRouter(h *handler.Handler, limiter *middleware.IPRateLimiter, log zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.Cors())

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.Use(limiter.RateLimit())
	h.Routes(router)

	return router
}

func pruneRateLimiter(ctx context.Context, limiter *middleware.IPRateLimiter) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			limiter.Prune(10 * time.Minute)
		}
	}
}

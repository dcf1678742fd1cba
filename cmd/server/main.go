package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rifas-admin/internal/auth"
	"rifas-admin/internal/config"
	"rifas-admin/internal/db"
	"rifas-admin/internal/handlers"
	"rifas-admin/internal/logger"
	tgmiddleware "rifas-admin/internal/middleware"
	"rifas-admin/internal/repositories/sqlstore"
	"rifas-admin/internal/services"
	"rifas-admin/internal/storage"
)

func main() {
	// 0. Load Config (.env, config.yaml, env)
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	// 1. Init Database (Turso or local SQLite)
	conn, err := db.Open(cfg.Database)
	if err != nil {
		zl.Fatalw("failed to init database", "error", err)
	}
	defer conn.Close()
	zl.Infow("database initialized", "remote", cfg.Database.IsRemote())

	files, err := storage.New(cfg.Storage.Dir, cfg.Storage.PublicBaseURL)
	if err != nil {
		zl.Fatalw("failed to init storage", "dir", cfg.Storage.Dir, "error", err)
	}

	// 2. Init Telegram Bot
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.Telegram.Token == "" {
		zl.Warn("TELEGRAM_TOKEN not set, bot features disabled")
	} else if bot, err := services.NewTelegramNotifier(cfg.Telegram.Token, tgmiddleware.AdminChatIDs(cfg.Telegram.AdminIDs), zl); err != nil {
		zl.Warnw("failed to init telegram bot", "error", err)
	} else {
		notifier = bot
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	players := sqlstore.NewPlayerRepository(conn)
	raffles := sqlstore.NewRaffleRepository(conn)
	tickets := sqlstore.NewTicketRepository(conn)
	requests := sqlstore.NewPaymentRequestRepository(conn)
	winners := sqlstore.NewWinnerRepository(conn)
	users := sqlstore.NewUserRepository(conn)

	h, err := handlers.New(handlers.Services{
		Players:  services.NewPlayerService(players, tickets, winners, zl),
		Raffles:  services.NewRaffleService(raffles, files, zl),
		Tickets:  services.NewTicketService(tickets, requests, zl),
		Payments: services.NewPaymentService(requests, tickets, players, files, notifier, zl),
		Winners:  services.NewWinnerService(winners, tickets, zl),
		Users:    services.NewUserService(users, tokens, zl),
	}, zl)
	if err != nil {
		zl.Fatalw("failed to load templates", "error", err)
	}

	// 3. Setup Router
	router := handlers.NewRouter(h, tgmiddleware.AdminAuthConfig{
		AdminPassword: cfg.Auth.AdminPassword,
		BotToken:      cfg.Telegram.Token,
		AdminIDs:      cfg.Telegram.AdminIDs,
		Tokens:        tokens,
	}, files.Root())

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Start
	go func() {
		zl.Infow("server running", "url", "http://localhost:"+cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatalw("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zl.Errorw("server forced to shutdown", "error", err)
	}
	zl.Info("server exiting")
}

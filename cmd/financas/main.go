package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"financas/internal/ai"
	"financas/internal/auth"
	"financas/internal/cli"
	apphttp "financas/internal/http"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/services"
	"financas/internal/whatsapp"
)

func main() {
	logger := cli.Setup()
	cfg := cli.LoadConfig(logger)

	repo := cli.OpenStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	waClient := whatsapp.NewClient(cfg.MetaAccessToken, cfg.MetaPhoneNumberID)
	if !waClient.Configured() {
		logger.Warn("WhatsApp gateway not configured, replies and reminders will not be delivered")
	}

	aiClient := ai.NewClient(cfg.OpenAIAPIKey)
	if !aiClient.Configured() {
		logger.Warn("Language model API not configured, inbound messages will not be classified")
	}

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	messenger := services.NewQueueMessenger(amqpClient, waClient, logger)
	transactions := services.NewTransactionService(repo, logger)
	bills := services.NewBillService(repo, logger)
	reminders := services.NewReminderService(repo, messenger, logger)
	pipeline := services.NewMessagePipeline(repo, transactions, aiClient, waClient, messenger, logger)

	srv := apphttp.NewServer(apphttp.Config{
		Addr:            ":" + cfg.Port,
		MetaVerifyToken: cfg.MetaVerifyToken,
		CronSecret:      cfg.ReminderCronSecret,
		RateLimit:       ratelimit.DefaultConfig(),
	}, apphttp.Deps{
		Accounts:     repo,
		Transactions: transactions,
		Bills:        bills,
		Reminders:    reminders,
		Pipeline:     pipeline,
		Tokens:       auth.NewTokenIssuer(cfg.JWTSecret),
		Storage:      repo,
		Logger:       logger,
	})

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 60 * time.Second
	srv.IdleTimeout = 120 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting financas server", "port", cfg.Port, "amqp", amqpClient != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

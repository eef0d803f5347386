package main

import (
	"context"
	"time"

	"financas/internal/cli"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/services"
	"financas/internal/whatsapp"
)

// reminder-worker periodically scans for reminders due today and pushes
// their notifications. It is an alternative to driving the dispatch HTTP
// endpoint from an external scheduler.
func main() {
	logger := cli.Setup()
	logger.Info("Starting reminder-worker")

	cfg := cli.LoadConfig(logger)

	repo := cli.OpenStorage(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	waClient := whatsapp.NewClient(cfg.MetaAccessToken, cfg.MetaPhoneNumberID)

	amqpClient := cli.ConnectAMQP(logger, cfg)
	if amqpClient != nil {
		defer amqpClient.Close()
	}

	messenger := services.NewQueueMessenger(amqpClient, waClient, logger)
	reminders := services.NewReminderService(repo, messenger, logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	logger.Info("Reminder dispatch configured", "interval", cfg.ReminderInterval.String())

	dispatch := func() {
		runCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
		defer cancel()

		sent, err := reminders.DispatchDue(runCtx, core.Today())
		if err != nil {
			logger.Error("Reminder dispatch failed", log.FieldError, err)
			return
		}
		if sent > 0 {
			logger.Info("Reminders dispatched", "sent", sent)
		}
	}

	dispatch()

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			dispatch()
		case <-ctx.Done():
			logger.Info("Worker stopped gracefully")
			return
		}
	}
}

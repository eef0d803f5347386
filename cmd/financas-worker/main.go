package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/log"
	"financas/internal/whatsapp"
	"financas/internal/worker"
)

func main() {
	logger := cli.Setup()
	logger.Info("Starting financas-worker")

	cfg := cli.LoadConfig(logger)
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the dispatch worker")
		os.Exit(1)
	}
	if !cfg.WhatsAppConfigured() {
		logger.Error("WhatsApp gateway credentials are required for the dispatch worker")
		os.Exit(1)
	}

	waClient := whatsapp.NewClient(cfg.MetaAccessToken, cfg.MetaPhoneNumberID)
	dispatcher := worker.NewDispatchWorker(waClient, logger)

	ctx, stop := cli.SignalContext()
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqp.ConsumeWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			func(msg *amqp.OutboundMessage) error {
				return dispatcher.HandleOutbound(ctx, msg)
			})
	})

	logger.Info("Consuming outbound messages",
		"exchange", cfg.AMQPExchange,
		"queue", cfg.AMQPQueue)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}

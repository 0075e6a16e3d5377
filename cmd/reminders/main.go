package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"clinicbook/internal/reminders/service"
	"clinicbook/pkg/config"
	"clinicbook/pkg/kafka"
	kafka_config "clinicbook/pkg/kafka/config"
)

const (
	ServiceName   = "clinicbook-reminders"
	consumerGroup = "clinicbook-reminders"
)

func main() {
	cfg := config.LoadWorker(ServiceName)
	cfg.Log.Info("Starting reminders worker")

	reminderService := service.NewReminderService(cfg.Log)

	kafkaCfg := kafka_config.Load()
	consumer, err := kafka.NewConsumer(
		kafkaCfg,
		cfg.BookingEventsTopic,
		consumerGroup,
		cfg.BookingEventsTopic+".dlq",
		reminderService.HandleBookedEvent,
	)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka consumer", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		cfg.Log.Info("Shutdown signal received", "signal", sig)
		cancel()
	}()

	cfg.Log.Info("Consuming booking events",
		"topic", cfg.BookingEventsTopic,
		"group", consumerGroup,
	)

	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		cfg.Log.Error("Consumer stopped with error", "error", err)
	}

	if err := consumer.Close(); err != nil {
		cfg.Log.Error("Failed to close consumer", "error", err)
	}
	cfg.Log.Info("Reminders worker stopped")
}

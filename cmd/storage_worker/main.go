package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/frtweb/blog-backend/config"
	"github.com/frtweb/blog-backend/internal/application"
	"github.com/frtweb/blog-backend/pkg/helpers"
)

// storage_worker removes the image folders of deleted posts.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-storage-worker", cfg.Env)

	if cfg.RabbitMQURL == "" || cfg.RabbitMQCleanupQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}

	ctx := context.Background()
	gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentials, cfg.GCSCredentialsJSONPath)
	if err != nil {
		logger.Fatalf("failed to init GCS client: %v", err)
	}
	defer func() { _ = gcsClient.Close() }()
	store := helpers.NewGCSStore(gcsClient, cfg.GCSBucket)

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, msgs, err := helpers.Consume(conn, cfg.RabbitMQCleanupQueue, 4)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}
	defer func() { _ = ch.Close() }()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			var job application.CleanupJob
			if err := json.Unmarshal(msg.Body, &job); err != nil || !job.Valid() {
				logger.WithField("body", string(msg.Body)).Warn("bad cleanup job")
				_ = msg.Nack(false, false)
				continue
			}
			c, cancel := context.WithTimeout(ctx, time.Minute)
			n, err := store.DeletePrefix(c, job.Prefix)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("prefix", job.Prefix).Error("cleanup failed")
				_ = msg.Nack(false, !msg.Redelivered)
				continue
			}
			logger.WithField("prefix", job.Prefix).Infof("removed %d objects", n)
			_ = msg.Ack(false)
		}
		close(done)
	}()

	logger.Infof("storage worker listening on queue=%s", cfg.RabbitMQCleanupQueue)
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

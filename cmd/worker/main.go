package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OFFIS-RIT/formkv/internal/pipeline"
	"github.com/OFFIS-RIT/formkv/internal/queue"
	"github.com/OFFIS-RIT/formkv/internal/storage"
	"github.com/OFFIS-RIT/formkv/internal/util"
	imgloader "github.com/OFFIS-RIT/formkv/pkg/loader/image"
	"github.com/OFFIS-RIT/formkv/pkg/logger"
	"github.com/OFFIS-RIT/formkv/pkg/logger/console"
)

func main() {
	util.LoadEnv()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	debug := util.GetEnvBool("DEBUG", false)
	consoleLogger := console.NewConsoleLogger(console.ConsoleLoggerParams{
		Debug:  debug,
		Prefix: "worker",
	})
	logger.Init(consoleLogger)
	if !debug {
		logger.SetLevel(logger.LevelInfo)
	}

	// Init s3 client
	s3Client, err := storage.NewS3Client(ctx)
	if err != nil {
		logger.Fatal("Could not create S3 client", "err", err)
	}
	store := storage.NewStore(s3Client, util.GetEnvString("AWS_BUCKET", "formkv"))

	// Analysis pipeline
	analyzer, err := pipeline.NewAnalyzer(ctx, util.GetEnv("FORMKV_REPLAY_DIR"), util.GetEnv("FORMKV_RECORD_DIR"))
	if err != nil {
		logger.Fatal("Could not create analyzer", "err", err)
	}
	processor, err := pipeline.NewProcessorFromEnv(analyzer, util.GetEnvInt("FORMKV_LONG_EDGE", imgloader.DefaultLongEdge))
	if err != nil {
		logger.Fatal("Invalid pipeline configuration", "err", err)
	}

	// Init rabbitmq
	conn := queue.Init()
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open channel", "err", err)
	}
	defer ch.Close()

	retryTTL := util.GetEnvDuration("FORMKV_RETRY_DELAY", 10*time.Second)
	if err := queue.SetupQueues(ch, []string{queue.AnalyseQueue}, retryTTL); err != nil {
		logger.Fatal("Failed to set up queues", "err", err)
	}

	handler := queue.NewHandler(queue.NewHandlerParams{
		Store:        store,
		Processor:    processor,
		Channel:      ch,
		ResultPrefix: util.GetEnvString("FORMKV_RESULT_PREFIX", "results"),
	})
	maxRetries := util.GetEnvInt("FORMKV_MAX_RETRIES", 10)

	// One consumer channel with a prefetch of one, so a worker holds a single
	// form at a time.
	consumerCh, err := conn.Channel()
	if err != nil {
		logger.Fatal("Failed to open consumer channel", "err", err)
	}
	defer consumerCh.Close()

	if err := consumerCh.Qos(1, 0, false); err != nil {
		logger.Fatal("Failed to set QoS", "err", err)
	}

	msgs, err := consumerCh.Consume(
		queue.AnalyseQueue,
		fmt.Sprintf("%s_consumer", queue.AnalyseQueue),
		false, // autoAck
		false, // exclusive
		false, // noLocal
		false, // noWait
		nil,   // args
	)
	if err != nil {
		logger.Fatal("Failed to start consuming", "queue", queue.AnalyseQueue, "err", err)
	}

	logger.Info("Listening for messages", "queue", queue.AnalyseQueue)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Shutdown signal received, exiting...")
			return
		case msg, ok := <-msgs:
			if !ok {
				logger.Info("Message channel closed", "queue", queue.AnalyseQueue)
				return
			}

			startTime := time.Now()
			logger.Info("Received message", "queue", queue.AnalyseQueue)

			if err := handler.ProcessAnalyseMessage(ctx, string(msg.Body)); err != nil {
				logger.Error("Error processing message", "queue", queue.AnalyseQueue, "err", err)
				queue.HandleProcessingError(consumerCh, msg, queue.AnalyseQueue, maxRetries)
			} else {
				if err := msg.Ack(false); err != nil {
					logger.Error("Failed to ack message", "err", err)
				}
				logger.Info("Message processed successfully", "queue", queue.AnalyseQueue)
			}

			processingDuration := time.Since(startTime)
			hours := int(processingDuration.Hours())
			minutes := int(processingDuration.Minutes()) % 60
			seconds := int(processingDuration.Seconds()) % 60
			logger.Info(
				"Processing time",
				"duration", fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds),
			)
			logger.Info("Waiting for next message")
		}
	}
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"creatoros/internal/bus"
	"creatoros/internal/completion"
	"creatoros/internal/models"
	"creatoros/internal/steps"
	"creatoros/internal/storage"
	"creatoros/pkg/config"
)

func main() {
	// Initialize logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	// Load configuration
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err), zap.String("path", "config.yaml"))
	}

	// Initialize storage
	var store storage.Store
	if cfg.Database.UseInMemory {
		logger.Info("Using in-memory storage")
		store = storage.NewMemoryStore()
	} else {
		logger.Info("Using PostgreSQL storage")
		store, err = storage.NewPostgresStore(storage.DatabaseConfig{
			Host:        cfg.Database.Host,
			Port:        cfg.Database.Port,
			User:        cfg.Database.User,
			Password:    cfg.Database.Password,
			DBName:      cfg.Database.DBName,
			SSLMode:     cfg.Database.SSLMode,
			UseInMemory: cfg.Database.UseInMemory,
		})
		if err != nil {
			logger.Fatal("Failed to initialize storage", zap.Error(err))
		}
	}
	defer store.Close()

	// Initialize completion client
	client := completion.NewGroqClient(completion.Config{
		APIKey:  cfg.Groq.APIKey,
		BaseURL: cfg.Groq.BaseURL,
		Model:   cfg.Groq.Model,
	}, logger)

	// Initialize event bus and steps
	b := bus.New(cfg.Bus.HistorySize, logger)
	defer b.Close()

	classifier := steps.NewClassifier(client, b, float32(cfg.Groq.ClassifyTemperature), logger)
	extractor := steps.NewExtractor(client, b, store, float32(cfg.Groq.ExtractTemperature), logger)

	b.Subscribe(bus.TopicMessageEnriched, func(ctx context.Context, e bus.Event) {
		msg, ok := e.Payload.(models.EnrichedMessage)
		if !ok {
			logger.Warn("Unexpected payload on topic",
				zap.String("topic", e.Topic),
				zap.String("event_id", e.ID))
			return
		}
		classifier.Handle(ctx, msg)
	})

	b.Subscribe(bus.TopicInquiryReceived, func(ctx context.Context, e bus.Event) {
		inquiry, ok := e.Payload.(models.ReceivedInquiry)
		if !ok {
			logger.Warn("Unexpected payload on topic",
				zap.String("topic", e.Topic),
				zap.String("event_id", e.ID))
			return
		}
		extractor.Handle(ctx, inquiry)
	})

	logger.Info("Inquiry pipeline started",
		zap.String("model", cfg.Groq.Model),
		zap.Strings("topics", []string{bus.TopicMessageEnriched, bus.TopicInquiryReceived}))

	// Block until shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
}

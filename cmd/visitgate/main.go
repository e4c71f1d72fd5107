package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/snyce/visitgate/internal/visit/events"
	"github.com/snyce/visitgate/internal/visit/handlers"
	"github.com/snyce/visitgate/internal/visit/lifecycle"
	"github.com/snyce/visitgate/internal/visit/live"
	"github.com/snyce/visitgate/internal/visit/report"
	"github.com/snyce/visitgate/internal/visit/store"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Config struct for YAML configuration
type Config struct {
	HTTPPort       int      `yaml:"HTTP_PORT"`
	DBHost         string   `yaml:"DB_HOST"`
	DBPort         int      `yaml:"DB_PORT"`
	DBUser         string   `yaml:"DB_USER"`
	DBPassword     string   `yaml:"DB_PASSWORD"`
	DBName         string   `yaml:"DB_NAME"`
	DBSSLMode      string   `yaml:"DB_SSLMODE"`
	KafkaBrokers   []string `yaml:"KAFKA_BROKERS"`
	JWTSecret      string   `yaml:"JWT_SECRET"`
	Topic          string   `yaml:"TOPIC"`
	RefreshSeconds int      `yaml:"REFRESH_SECONDS"`
	Timezone       string   `yaml:"TIMEZONE"`
}

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		err := logger.Sync()
		if err != nil {
			logger.Error("failed to sync logger", zap.Error(err))
		}
	}(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := store.NewRepository(initDatabase(cfg))
	if err != nil {
		log.Fatal("failed to initialize record store", err)
	}
	defer repo.Close()

	producer, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
	if err != nil {
		log.Fatal("failed to initialize Kafka producer", err)
	}
	defer producer.Close()

	loc := time.Local
	if cfg.Timezone != "" {
		loc, err = time.LoadLocation(cfg.Timezone)
		if err != nil {
			logger.Fatal("invalid timezone", zap.String("timezone", cfg.Timezone), zap.Error(err))
		}
	}
	reports := report.NewEngine(loc)

	engine := lifecycle.NewEngine(repo, producer, logger)

	feed := live.NewFeed(repo, reports, time.Duration(cfg.RefreshSeconds)*time.Second, logger)
	feedCtx, cancelFeed := context.WithCancel(context.Background())
	feed.Start(feedCtx)
	defer cancelFeed()
	defer feed.Stop()

	visitHandler := handlers.NewVisitHandler(engine, repo, reports, feed, logger)

	server := handlers.NewServer(cfg.HTTPPort, logger)
	server.RegisterRoutes(visitHandler, cfg.JWTSecret)

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	waitForShutdown(server, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// loadConfig loads configuration. Use real config tooling (e.g. Viper) in production.
func loadConfig() (*Config, error) {
	configPath := filepath.Join("internal", "visit", "config", "config.yaml")
	file, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}
	var cfg Config
	err = yaml.Unmarshal(file, &cfg)
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// initDatabase initializes the database connection settings.
func initDatabase(cfg *Config) *store.Config {
	return &store.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	}
}

// waitForShutdown blocks until an interrupt or SIGTERM is received, then shuts down the server.
func waitForShutdown(server *handlers.Server, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	server.Stop()
	logger.Info("Server stopped properly")
}

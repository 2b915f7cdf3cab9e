package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v2"

	"steerage/history"
	shttp "steerage/http"
	"steerage/logging"
	"steerage/ml"
	"steerage/predict"
)

type Config struct {
	Http struct {
		Port           int      `yaml:"port"`
		Timeout        string   `yaml:"timeout"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"log"`
	Model struct {
		Type  string `yaml:"type"`
		Path  string `yaml:"path"`
		Watch bool   `yaml:"watch"`
	} `yaml:"model"`
	History struct {
		SessionTTL  string `yaml:"session_ttl"`
		MaxSessions int    `yaml:"max_sessions"`
	} `yaml:"history"`
}

func main() {
	config, err := loadConfig("config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(config.Log.Level, config.Log.File)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	// The classifier loads once at startup. Without it the service refuses
	// to run: there is no degraded mode for predictions.
	model, err := ml.LoadModel(config.Model.Type, config.Model.Path)
	if err != nil {
		logger.Fatal("failed to load classifier artifact",
			zap.String("path", config.Model.Path), zap.Error(err))
	}
	logger.Info("classifier loaded",
		zap.String("version", model.Version()),
		zap.Strings("schema", model.Schema()))

	sessionTTL := parseDuration(config.History.SessionTTL, 30*time.Minute)
	sessions := history.NewSessions(config.History.MaxSessions, sessionTTL)
	svc := predict.NewService(model, sessions, logger)

	if config.Model.Watch {
		watcher, err := ml.NewWatcher(config.Model.Type, config.Model.Path, svc.SetClassifier, logger)
		if err != nil {
			logger.Fatal("failed to start model watcher", zap.Error(err))
		}
		watcher.Start()
		defer watcher.Stop()
	}

	serverConfig := shttp.DefaultServerConfig()
	if config.Http.Port != 0 {
		serverConfig.Port = config.Http.Port
	}
	serverConfig.Timeout = parseDuration(config.Http.Timeout, serverConfig.Timeout)
	if len(config.Http.AllowedOrigins) > 0 {
		serverConfig.AllowedOrigins = config.Http.AllowedOrigins
	}

	server := shttp.NewServer(serverConfig, svc, logger)
	go func() {
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	if err := server.Stop(); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}
	logger.Info("exiting")
}

func loadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var config Config
	if err := yaml.NewDecoder(file).Decode(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"identity-service/internal/config"
	"identity-service/internal/domain/notification"
	"identity-service/internal/infrastructure/database/postgres"
	"identity-service/internal/infrastructure/events"
	"identity-service/internal/infrastructure/mail"
	"identity-service/internal/logger"
	"identity-service/internal/routes"
	"identity-service/internal/usecase/user"
	"identity-service/pkg/mqtt"
	"identity-service/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("Failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	env := cfg.Server.Environment
	if env == "" {
		env = "development"
	}
	if err := logger.Init(env); err != nil {
		os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("environment", env),
	)

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	db, err := postgres.NewDB(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := db.Migrate(); err != nil {
			logger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	mailer, err := mail.NewMailer(cfg.SMTP)
	if err != nil {
		logger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var activity notification.ActivitySink = events.LogSink{}
	if cfg.MQTT.Broker != "" {
		mqttClient := mqtt.NewClient(mqtt.DefaultConfig(cfg.MQTT.Broker, cfg.MQTT.ClientID, cfg.MQTT.Username, cfg.MQTT.Password))
		if err := mqttClient.Connect(ctx); err != nil {
			logger.Fatal("Failed to connect to MQTT broker", zap.Error(err))
		}
		defer mqttClient.Disconnect()
		activity = events.NewMQTTSink(mqttClient, cfg.MQTT.TopicPrefix)
	}

	codec, err := user.NewCodec(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize token codec", zap.Error(err))
	}

	userService := user.NewService(
		postgres.NewUserRepository(db),
		codec,
		utils.NewPasswordHasher(cfg.Password.HashCost),
		mailer,
		activity,
		cfg,
	)

	router := routes.SetupRoutes(ctx, cfg, db, userService)

	host := cfg.Server.Host
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Server.Port
	if port == "" {
		port = "8080"
	}
	addr := net.JoinHostPort(host, port)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Server starting",
			zap.String("address", addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", zap.Error(err))
	}

	log.Println("Server exited properly")
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/barbridge/barbridge/backend/internal/auth"
	"github.com/barbridge/barbridge/backend/internal/calendarsync"
	"github.com/barbridge/barbridge/backend/internal/chat"
	"github.com/barbridge/barbridge/backend/internal/config"
	"github.com/barbridge/barbridge/backend/internal/database"
	"github.com/barbridge/barbridge/backend/internal/logging"
	"github.com/barbridge/barbridge/backend/internal/notifications"
	"github.com/barbridge/barbridge/backend/internal/scheduling"
	"github.com/barbridge/barbridge/backend/internal/server"
	"github.com/barbridge/barbridge/backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "barbridge-api",
		Short: "Barbridge scheduling backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("google-calendar-endpoint", defaults.GetString("google.calendar_endpoint"), "Google Calendar API base URL")
	cmd.PersistentFlags().String("chat-webhook-url", defaults.GetString("chat.webhook_url"), "Chat provider webhook URL")
	cmd.PersistentFlags().Int("reminder-lead-minutes", defaults.GetInt("notifications.reminder_lead_minutes"), "Reminder lead time in minutes")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "google.calendar_endpoint", "google-calendar-endpoint")
	bindFlag(cmd, "chat.webhook_url", "chat-webhook-url")
	bindFlag(cmd, "notifications.reminder_lead_minutes", "reminder-lead-minutes")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	sessions := auth.NewSessionManager(auth.SessionManagerConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "barbridge-auth",
		Audience:      "barbridge-api",
	})

	identityService, err := users.NewService(users.ServiceConfig{Database: db})
	if err != nil {
		return err
	}

	syncEngine, err := calendarsync.NewEngine(calendarsync.EngineConfig{
		Database: db,
		Google:   calendarsync.NewGoogleClient(appConfig.GoogleEndpoint, nil),
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	notificationQueue, err := notifications.NewQueue(notifications.QueueConfig{
		Database:     db,
		ReminderLead: time.Duration(appConfig.ReminderLeadMinutes) * time.Minute,
		Logger:       logger,
	})
	if err != nil {
		return err
	}

	messenger := chat.NewWebhookMessenger(appConfig.ChatWebhookURL, nil, logger)

	schedulingService, err := scheduling.NewService(scheduling.ServiceConfig{
		Database:   db,
		Clock:      time.Now,
		IDProvider: scheduling.NewUUIDProvider(),
		Logger:     logger,
		Calendar:   syncEngine,
		Notifier:   notificationQueue,
		Messenger:  messenger,
		Names:      identityService,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions:   sessions,
		Scheduling: schedulingService,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

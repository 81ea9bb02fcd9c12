package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/fieldtrack/paperflow/internal/application/service"
	"github.com/fieldtrack/paperflow/internal/config"
	"github.com/fieldtrack/paperflow/internal/infrastructure/persistence/repository"
	"github.com/fieldtrack/paperflow/internal/infrastructure/persistence/sqlite"
	httpserver "github.com/fieldtrack/paperflow/internal/interfaces/http"
	"github.com/fieldtrack/paperflow/pkg/database"
	"github.com/fieldtrack/paperflow/pkg/utils"
)

func main() {
	// Local overrides, ignored when absent
	_ = gotenv.Load()

	cfg, err := config.Load(configPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting approval workflow engine",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			logger.Fatal("Failed to create data directory", zap.Error(err))
		}
	}

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.Run(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Repositories
	db := sqlite.NewDB(sqlDB, logger)
	workflowRepo := repository.NewWorkflowRepository(sqlDB, logger)
	recordRepo := repository.NewRecordRepository(sqlDB, logger)
	historyRepo := repository.NewHistoryRepository(sqlDB, logger)
	notificationRepo := repository.NewNotificationRepository(sqlDB, logger)
	employeeRepo := repository.NewEmployeeRepository(sqlDB, logger)

	// Application services
	svcLogger := &zapLoggerAdapter{logger: logger}
	resolver := service.NewIdentityResolver(employeeRepo, svcLogger)
	registry := service.NewWorkflowRegistry(workflowRepo, svcLogger)
	engine := service.NewApprovalEngine(resolver, cfg.Approval.OpenRejection, svcLogger)
	dispatcher := service.NewNotificationDispatcher(notificationRepo, resolver, svcLogger)
	recordService := service.NewRecordService(
		recordRepo,
		historyRepo,
		registry,
		engine,
		dispatcher,
		employeeRepo,
		db,
		service.UngatedPolicy(cfg.Approval.UngatedPolicy),
		svcLogger,
	)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		registry,
		recordService,
		dispatcher,
		employeeRepo,
		svcLogger,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Server exited")
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}
	return "configs/config.yaml"
}

// zapLoggerAdapter adapts zap.Logger to the service.Logger interface
type zapLoggerAdapter struct {
	logger *zap.Logger
}

func (a *zapLoggerAdapter) Info(msg string, keysAndValues ...interface{}) {
	a.logger.Info(msg, convertToZapFields(keysAndValues...)...)
}

func (a *zapLoggerAdapter) Error(msg string, keysAndValues ...interface{}) {
	a.logger.Error(msg, convertToZapFields(keysAndValues...)...)
}

// convertToZapFields converts key-value pairs to zap fields
func convertToZapFields(keysAndValues ...interface{}) []zap.Field {
	fields := make([]zap.Field, 0, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, keysAndValues[i+1]))
	}
	return fields
}

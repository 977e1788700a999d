package cmd

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"barrier-access-control/internal/access"
	"barrier-access-control/internal/barrier"
	"barrier-access-control/internal/burn"
	"barrier-access-control/internal/config"
	"barrier-access-control/internal/hub"
	"barrier-access-control/internal/routes"
	"barrier-access-control/internal/storage"
	"barrier-access-control/internal/token"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the barrier access control server",
	Run: func(cmd *cobra.Command, args []string) {
		ServerMain(provider)
	},
}

// Initialize logger
func initLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToUpper(cfg.LogLevel) {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "WARN", "WARNING":
		level = slog.LevelWarn
	case "ERROR":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
		println("Invalid log level in config, defaulting to INFO")
	}
	handlerOpts := &slog.HandlerOptions{
		Level: level,
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, handlerOpts))
	slog.SetDefault(logger)

	slog.Debug("Logger initialized", "level", level.String())
	return logger
}

func ServerMain(storageProvider storage.Provider) {
	if config.Cfg == nil {
		panic("Config not initialized.")
	}
	if storageProvider == nil {
		slog.Error("Storage provider is nil")
		os.Exit(1)
	}

	initLogger(config.Cfg)

	deviceHub := hub.New()
	barrierController := barrier.NewController(deviceHub, config.Cfg.BarrierOpenSec)
	accessService := access.NewService(storageProvider, barrierController)
	burnCoordinator := burn.NewCoordinator(storageProvider, deviceHub,
		time.Duration(config.Cfg.BurnTTL)*time.Second)

	tokens := token.NewManager(config.Cfg.Secret,
		time.Duration(config.Cfg.OperatorTokenTTL)*time.Minute,
		time.Duration(config.Cfg.DeviceTokenTTL)*24*time.Hour)
	defer tokens.Close()

	r := gin.Default()
	routes.Register(r, &routes.Deps{
		Cfg:     config.Cfg,
		Store:   storageProvider,
		Hub:     deviceHub,
		Barrier: barrierController,
		Burn:    burnCoordinator,
		Access:  accessService,
		Tokens:  tokens,
	})

	slog.Info("Starting barrier access control server", "addr", config.Cfg.ListenAddr)
	if err := r.Run(config.Cfg.ListenAddr); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serverCmd)
}

package main

import (
	"context"
	"fmt"
	"os"

	firestore "cloud.google.com/go/firestore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/donorlink/plasma-center/internal/config"
	"github.com/donorlink/plasma-center/pkg/db"
	"github.com/donorlink/plasma-center/pkg/dblayer"
	"github.com/donorlink/plasma-center/pkg/memstore"
	"github.com/donorlink/plasma-center/pkg/utils/logging"
)

// App holds the application dependencies
type App struct {
	cfg    *config.Config
	store  db.Store
	logger *zap.Logger
	ctx    context.Context
}

var (
	configPath string
	app        *App
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "plasmacenter",
		Short: "Plasma donation center backend - bookings, donors, attendance",
		Long:  `Backend for a plasma donation center: donor registration, numbered daily bookings with QR tickets, status tracking, attendance, and exports.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initApp()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app != nil && app.logger != nil {
				app.logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: plasma_center_config.yaml in cwd or home)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(createEmployeeCmd())
	rootCmd.AddCommand(seedReasonsCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// initApp sets up logger, config, and the persistence backend
func initApp() error {
	var err error
	app = &App{
		ctx: context.Background(),
	}

	app.logger, err = logging.InitLogger("cli")
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.logger.Info("Loading configuration")
	if configPath != "" {
		app.cfg, err = config.LoadFromPath(configPath)
	} else {
		app.cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app.store, err = openStore(app.ctx, app.cfg, app.logger)
	if err != nil {
		return err
	}

	return nil
}

// openStore builds the configured persistence backend.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (db.Store, error) {
	switch cfg.StoreBackend() {
	case "memory":
		logger.Warn("Using the in-memory store; data will not survive a restart")
		return memstore.New(), nil
	case "firestore":
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		client, err := firestore.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create Firestore client: %w", err)
		}
		logger.Info("Connected to Firestore", zap.String("project", cfg.ProjectID))
		return dblayer.New(client), nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend())
}

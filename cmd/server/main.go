package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Taistois/mims/internal/adapters/http/handlers"
	"github.com/Taistois/mims/internal/adapters/persistence/models"
	"github.com/Taistois/mims/internal/config"
	"github.com/Taistois/mims/internal/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of the server",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("mims server version %s\n", handlers.Version)
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Migrate, seed and start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(_ *config.Config, db *gorm.DB, log *zap.Logger) error {
				if err := models.AutoMigrate(db); err != nil {
					return fmt.Errorf("failed to auto migrate: %w", err)
				}
				log.Info("database migration completed")
				return nil
			})
		},
	}

	seedCmd = &cobra.Command{
		Use:   "seed",
		Short: "Create the bootstrap admin account and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDatabase(func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error {
				return config.NewSeeder(db, cfg.Seed, log).Run(context.Background())
			})
		},
	}

	rootCmd = &cobra.Command{
		Use:   "mims",
		Short: "Microinsurance management API",
		Long:  `MIMS serves members, policies, claims, loans, payments and notifications over a REST API.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
		SilenceUsage: true,
	}
)

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	zap.ReplaceGlobals(zl)
	return cfg, zl, nil
}

// withDatabase runs fn with a connected database and closes it afterwards
func withDatabase(fn func(cfg *config.Config, db *gorm.DB, log *zap.Logger) error) error {
	cfg, zl, err := bootstrap()
	if err != nil {
		log.Println(err)
		return err
	}
	defer zl.Sync()

	db, err := config.ConnectDatabase(cfg, zl)
	if err != nil {
		zl.Error("failed to connect to database", zap.Error(err))
		return err
	}
	defer config.CloseDatabase()

	if err := fn(cfg, db, zl); err != nil {
		zl.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

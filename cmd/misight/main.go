// MiSight - mining and environmental monitoring portal
package main

import (
	"fmt"
	"os"

	"github.com/aethra/misight/internal/api"
	"github.com/aethra/misight/internal/config"
	"github.com/aethra/misight/internal/database"
	"github.com/aethra/misight/internal/logger"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "misight",
	Short: "MiSight - mining and environmental monitoring portal",
	Long: `MiSight serves the management portal for provinces, minerals, mines,
pollutants, monitoring stations, users, safety data and environmental data.

Domain records live in the MiSight REST backend; the portal keeps only its
own login accounts.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: ./misight.yaml)")
	rootCmd.PersistentFlags().String("db-driver", "", "account store driver: postgres, mysql or sqlite")
	rootCmd.PersistentFlags().String("db-dsn", "", "account store DSN")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")

	rootCmd.AddCommand(serveCmd, migrateCmd, userCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the logger shared by every command
func setup(cmd *cobra.Command) (*config.Config, logger.Logger, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

// connectDB opens the account store and brings its schema up to date
func connectDB(cfg config.DatabaseConfig, log logger.Logger) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	log.Infow("database connected", "driver", cfg.Driver)

	if err := database.RunMigrations(db, log); err != nil {
		return nil, fmt.Errorf("migration failed: %w", err)
	}
	return db, nil
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run account store migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup(cmd)
		if err != nil {
			return err
		}
		if _, err := connectDB(cfg.Database, log); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migrations complete")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "misight %s\n", api.Version)
	},
}

// Package cli implements annotctl, the maintenance command line for the
// claim annotation service: remote store inspection, the out-of-band
// folder wipe, and record export.
package cli

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/config"
	"github.com/hewanshrestha/nepali-facebook-data-annotation/internal/drive"
)

var cfgFile string

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "annotctl",
	Short: "Maintenance commands for the claim annotation service",
	Long: `annotctl manages the annotation store behind the claim annotation
service: listing and wiping the remote Google Drive folder and exporting
annotation records.

Wiping is deliberately kept out of the annotation API; it is the only way
annotation records are ever deleted.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "configs/config.yml", "config file path")
}

// loadConfig reads the shared service configuration.
func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgFile)
}

// remoteStore builds the Drive-backed store from the shared config.
func remoteStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*drive.Store, error) {
	svc, err := drive.NewService(ctx, drive.Credentials{
		JSON: cfg.Drive.CredentialsJSON,
		File: cfg.Drive.CredentialsFile,
	}, logger)
	if err != nil {
		return nil, err
	}
	return drive.NewStore(drive.NewAPI(svc), cfg.Drive.RootFolder, cfg.Drive.ShareWith, logger), nil
}

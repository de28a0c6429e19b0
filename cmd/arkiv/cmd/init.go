package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkivdb/arkiv/pkg/config"
)

var (
	initMaxSize     int64
	initCompression int
	initAutoCompact bool
	initSaveConfig  string
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new store container",
	Long: `Create an empty store container at --path.

Example:
  arkiv init --path ./notes.zip --password hunter2`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveStoreConfig()
		if err != nil {
			return err
		}
		cfg.MaxSize = initMaxSize
		cfg.CompressionLevel = initCompression
		cfg.AutoCompact = initAutoCompact

		if _, err := openStoreWith(cfg); err != nil {
			return err
		}
		fmt.Printf("Created store %q at %s\n", cfg.Name, cfg.Path)

		if initSaveConfig != "" {
			if err := config.SaveStoreConfig(cfg, initSaveConfig); err != nil {
				return err
			}
			fmt.Printf("Wrote config to %s\n", initSaveConfig)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Int64Var(&initMaxSize, "max-size", config.DefaultMaxSize, "Size limit in bytes")
	initCmd.Flags().IntVar(&initCompression, "compression-level", config.DefaultCompressionLevel, "Deflate level (0-9)")
	initCmd.Flags().BoolVar(&initAutoCompact, "auto-compact", true, "Compact the container after deletes")
	initCmd.Flags().StringVar(&initSaveConfig, "save-config", "", "Also write the store config to this YAML file")
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arkivdb/arkiv/pkg/config"
	"github.com/arkivdb/arkiv/pkg/store"
)

var (
	storePath     string
	storeName     string
	storePassword string
	configFile    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arkiv",
	Short: "arkiv - archive-backed record store",
	Long: `arkiv keeps named records with checksummed metadata inside a
single zip container, with optional password obfuscation.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&storePath, "path", "p", "", "Path to the store container file")
	rootCmd.PersistentFlags().StringVarP(&storeName, "name", "n", "", "Store name (defaults to the container file name)")
	rootCmd.PersistentFlags().StringVar(&storePassword, "password", "", "Password for payload obfuscation")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Store config file (YAML)")
}

// resolveStoreConfig builds the effective store configuration from the
// config file (when given) and the persistent flags. Flags win.
func resolveStoreConfig() (config.StoreConfig, error) {
	var cfg config.StoreConfig
	if configFile != "" {
		loaded, err := config.LoadStoreConfig(configFile)
		if err != nil {
			return config.StoreConfig{}, err
		}
		cfg = *loaded
	} else {
		cfg = config.DefaultStoreConfig(storeName, storePath)
	}

	if storePath != "" {
		cfg.Path = storePath
	}
	if storeName != "" {
		cfg.Name = storeName
	}
	if storePassword != "" {
		cfg.Password = storePassword
	}
	if cfg.Path == "" {
		return config.StoreConfig{}, fmt.Errorf("no container path: use --path or --config")
	}
	if cfg.Name == "" {
		base := filepath.Base(cfg.Path)
		cfg.Name = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return cfg, nil
}

// openStore opens (or creates) the store named by the flags.
func openStore() (*store.RecordStore, error) {
	cfg, err := resolveStoreConfig()
	if err != nil {
		return nil, err
	}
	return openStoreWith(cfg)
}

func openStoreWith(cfg config.StoreConfig) (*store.RecordStore, error) {
	return store.Open(cfg, store.WithLogger(store.NewSlogLogger(slog.Default())))
}

package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arkivdb/arkiv/pkg/api"
	"github.com/arkivdb/arkiv/pkg/catalog"
	"github.com/arkivdb/arkiv/pkg/config"
	"github.com/arkivdb/arkiv/pkg/engine"
	"github.com/arkivdb/arkiv/pkg/store"
)

var (
	serveBind    string
	servePort    int
	serveAPIKey  string
	serveDataDir string
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a store over HTTP",
	Long: `Serve the store named by --name over the REST API. The store is
registered in a catalog under --data-dir and created there when absent.

Example:
  arkiv serve --name notes --api-key sekrit --port 9200`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if storeName == "" {
			return fmt.Errorf("no store name: use --name")
		}
		if err := os.MkdirAll(serveDataDir, 0750); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}

		cat, err := catalog.Open(filepath.Join(serveDataDir, "catalog"))
		if err != nil {
			return err
		}
		defer cat.Close()

		logger := store.NewSlogLogger(slog.Default())
		eng := engine.New(cat, engine.WithLogger(logger))
		defer eng.Close()

		registered, err := cat.Has(storeName)
		if err != nil {
			return err
		}
		if !registered {
			cfg := config.DefaultStoreConfig(storeName, filepath.Join(serveDataDir, storeName+".zip"))
			cfg.Password = storePassword
			if err := eng.Create(cfg); err != nil {
				return err
			}
		}

		conn, err := eng.Open(storeName)
		if err != nil {
			return err
		}
		defer conn.Close()

		serverCfg := config.ServerConfig{
			Bind:    serveBind,
			Port:    servePort,
			APIKey:  serveAPIKey,
			DataDir: serveDataDir,
		}
		if err := serverCfg.Validate(); err != nil {
			return err
		}
		return api.StartServer(conn, serverCfg)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveBind, "bind", "127.0.0.1", "Bind address")
	serveCmd.Flags().IntVar(&servePort, "port", 8080, "Listen port")
	serveCmd.Flags().StringVar(&serveAPIKey, "api-key", "", "API key for X-API-Key auth (empty disables auth)")
	serveCmd.Flags().StringVar(&serveDataDir, "data-dir", "./data", "Directory for the catalog and containers")
}

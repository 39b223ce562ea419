package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingkaihe/skillet/pkg/presenter"
	"github.com/jingkaihe/skillet/pkg/server"
)

type ServeConfig struct {
	Host string
	Port int
}

func NewServeConfig() *ServeConfig {
	return &ServeConfig{
		Host: "localhost",
		Port: 8723,
	}
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a read-only JSON API over local skills and the marketplace",
	Long: `Start an HTTP server exposing the local skill store and marketplace
listings as JSON:

  GET /api/skills          discovered local skills
  GET /api/skills/{name}   one skill with body and resources
  GET /api/marketplace     skills available from registered sources
  GET /healthz             liveness probe

The server runs until interrupted.`,
	Run: func(cmd *cobra.Command, _ []string) {
		config := getServeConfigFromFlags(cmd)
		runServeCommand(cmd, config)
	},
}

func init() {
	defaults := NewServeConfig()
	serveCmd.Flags().String("host", defaults.Host, "Host to bind to")
	serveCmd.Flags().Int("port", defaults.Port, "Port to listen on")

	viper.SetDefault("serve.host", defaults.Host)
	viper.SetDefault("serve.port", defaults.Port)

	rootCmd.AddCommand(serveCmd)
}

func getServeConfigFromFlags(cmd *cobra.Command) *ServeConfig {
	config := NewServeConfig()
	config.Host = viper.GetString("serve.host")
	config.Port = viper.GetInt("serve.port")

	if cmd.Flags().Changed("host") {
		if host, err := cmd.Flags().GetString("host"); err == nil {
			config.Host = host
		}
	}
	if cmd.Flags().Changed("port") {
		if port, err := cmd.Flags().GetInt("port"); err == nil {
			config.Port = port
		}
	}
	return config
}

func runServeCommand(cmd *cobra.Command, config *ServeConfig) {
	ctx := cmd.Context()

	store, err := newSkillStore(NewListConfig())
	if err != nil {
		presenter.Error(err, "failed to initialize skill store")
		os.Exit(1)
	}

	configStore, resolver, _, err := newMarketplace(ctx)
	if err != nil {
		presenter.Error(err, "failed to initialize marketplace")
		os.Exit(1)
	}

	srv, err := server.NewServer(&server.ServerConfig{Host: config.Host, Port: config.Port}, store, configStore, resolver)
	if err != nil {
		presenter.Error(err, "invalid server configuration")
		os.Exit(1)
	}

	if err := srv.Start(ctx); err != nil {
		presenter.Error(err, "server stopped with error")
		os.Exit(1)
	}
}

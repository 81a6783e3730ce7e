package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"vigil/cli/api"
)

var (
	apiURL string
	client *api.Client
)

var rootCmd = &cobra.Command{
	Use:   "vigil",
	Short: "Terminal client for the service-uptime dashboard",
	Long: `Vigil — a terminal client for the service-uptime dashboard.

Watch monitored services, their check history, alerts and aggregate
statistics live, add and remove services, acknowledge alerts — all from
the terminal.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		client = api.New(apiURL)
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	godotenv.Load()
	defaultURL := os.Getenv("VIGIL_URL")
	if defaultURL == "" {
		defaultURL = "http://localhost:8080"
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", defaultURL, "Dashboard API URL")
}

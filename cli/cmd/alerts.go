package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vigil/cli/format"
	"vigil/cli/style"
)

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List alerts",
	RunE:  runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
	alerts, err := client.ListAlerts()
	if err != nil {
		return fmt.Errorf("failed to fetch alerts: %w", err)
	}

	if len(alerts) == 0 {
		fmt.Println(style.DimText.Render("Алертов нет"))
		return nil
	}

	fmt.Println(style.Banner.Render("⚡ VIGIL ALERTS"))
	fmt.Println()

	for _, a := range alerts {
		icon := "🚨"
		msg := format.Sanitize(a.Message)
		if a.IsResolved {
			icon = "✅"
			msg = style.DimText.Render(msg)
		}

		serviceName := "Неизвестный сервис"
		if a.Service != nil {
			serviceName = format.Sanitize(a.Service.Name)
		}

		fmt.Printf("  %s %-4d %s  %s  %s\n",
			icon, a.ID, msg,
			style.DimText.Render(serviceName),
			style.DimText.Render(format.Timestamp(a.CreatedAt)))
	}
	fmt.Println()

	return nil
}

package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vigil/cli/api"
	"vigil/cli/format"
	"vigil/cli/style"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show all monitored services",
	Aliases: []string{"s", "ls"},
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	services, err := client.ListServices()
	if err != nil {
		return fmt.Errorf("failed to fetch services: %w", err)
	}

	if len(services) == 0 {
		fmt.Println(style.DimText.Render("Сервисы не добавлены"))
		return nil
	}

	fmt.Println(style.Banner.Render("⚡ VIGIL") + style.Subtitle.Render(fmt.Sprintf("  %d service(s)", len(services))))
	fmt.Println()

	header := fmt.Sprintf(
		"  %-2s  %-4s %-20s %-30s %-14s %-8s %s",
		"", "ID", "NAME", "URL", "STATUS", "UPTIME", "LAST CHECK",
	)
	fmt.Println(style.TableHeader.Render(header))

	for _, svc := range services {
		printServiceRow(svc)
	}
	fmt.Println()

	return nil
}

func printServiceRow(svc api.Service) {
	status := format.NormalizeStatus(svc.LastStatus)
	dot := style.StatusDot(status)

	name := style.Bold.Render(padRight(format.Sanitize(svc.Name), 20))
	url := style.DimText.Render(padRight(format.Sanitize(svc.URL), 30))
	label := style.StatusStyle(status).Render(padRight(format.StatusLabel(status), 14))
	uptime := padRight(format.Uptime(svc.Uptime), 8)

	fmt.Printf("  %s  %-4d %s %s %s %s %s\n",
		dot, svc.ID, name, url, label, uptime,
		style.DimText.Render(format.LastCheck(svc.LastCheck)))
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}

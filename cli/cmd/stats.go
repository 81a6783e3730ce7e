package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vigil/cli/style"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	st, err := client.GetStats()
	if err != nil {
		return fmt.Errorf("failed to fetch stats: %w", err)
	}

	fmt.Println(style.Banner.Render("⚡ VIGIL STATS"))
	fmt.Println()

	kvLine := func(k, v string) {
		fmt.Printf("  %s %s\n", style.Key.Render(k), style.Val.Render(v))
	}
	kvLine("Всего сервисов", fmt.Sprintf("%d", st.TotalServices))
	kvLine("Работают", style.Healthy.Render(fmt.Sprintf("%d", st.HealthyServices)))
	kvLine("Не работают", style.Unhealthy.Render(fmt.Sprintf("%d", st.UnhealthyServices)))
	kvLine("Средний uptime", fmt.Sprintf("%.1f%%", st.AverageUptime))
	kvLine("Активные алерты", fmt.Sprintf("%d", st.ActiveAlerts))
	fmt.Println()

	return nil
}

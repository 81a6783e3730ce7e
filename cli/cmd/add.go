package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"vigil/cli/api"
	"vigil/cli/format"
	"vigil/cli/style"
)

var (
	addInterval int
	addTimeout  int
)

var addCmd = &cobra.Command{
	Use:   "add <name> <url>",
	Short: "Add a service to monitor",
	Args:  cobra.ExactArgs(2),
	RunE:  runAdd,
}

func init() {
	addCmd.Flags().IntVar(&addInterval, "interval", defaultCheckInterval, "Check interval in seconds")
	addCmd.Flags().IntVar(&addTimeout, "timeout", defaultTimeout, "Check timeout in seconds")
	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	req := api.CreateServiceRequest{
		Name:          args[0],
		URL:           args[1],
		CheckInterval: addInterval,
		Timeout:       addTimeout,
	}
	if req.CheckInterval <= 0 {
		req.CheckInterval = defaultCheckInterval
	}
	if req.Timeout <= 0 {
		req.Timeout = defaultTimeout
	}

	if err := client.CreateService(req); err != nil {
		fmt.Println(style.ErrorBox.Render("✗ " + format.Sanitize(err.Error())))
		return err
	}

	fmt.Println(style.SuccessBox.Render("✓ Сервис успешно добавлен"))
	return nil
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vigil/cli/format"
	"vigil/cli/style"
)

var ackCmd = &cobra.Command{
	Use:     "ack <alert-id>",
	Short:   "Mark an alert resolved",
	Aliases: []string{"resolve"},
	Args:    cobra.ExactArgs(1),
	RunE:    runAck,
}

func init() {
	rootCmd.AddCommand(ackCmd)
}

func runAck(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid alert id %q", args[0])
	}

	if err := client.ResolveAlert(id); err != nil {
		fmt.Println(style.ErrorBox.Render("✗ " + format.Sanitize(err.Error())))
		return err
	}

	fmt.Println(style.SuccessBox.Render("✓ Алерт разрешен"))
	return nil
}

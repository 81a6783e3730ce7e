package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"vigil/cli/format"
	"vigil/cli/style"
)

var removeCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Remove a monitored service",
	Aliases: []string{"remove", "delete"},
	Args:    cobra.ExactArgs(1),
	RunE:    runRemove,
}

func init() {
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid service id %q", args[0])
	}

	if err := client.DeleteService(id); err != nil {
		fmt.Println(style.ErrorBox.Render("✗ " + format.Sanitize(err.Error())))
		return err
	}

	fmt.Println(style.SuccessBox.Render("✓ Сервис успешно удален"))
	return nil
}

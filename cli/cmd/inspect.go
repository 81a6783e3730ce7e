package cmd

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"vigil/cli/api"
	"vigil/cli/view"
)

var inspectCmd = &cobra.Command{
	Use:     "inspect <id>",
	Short:   "Show service details and recent check history",
	Aliases: []string{"i", "info"},
	Args:    cobra.ExactArgs(1),
	RunE:    runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid service id %q", args[0])
	}

	// Both fetches run concurrently, like the details modal.
	var (
		svc    *api.Service
		checks []api.Check
		svcErr error
		chkErr error
		wg     sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		svc, svcErr = client.GetService(id)
	}()
	go func() {
		defer wg.Done()
		checks, chkErr = client.ListChecks(id, checkHistoryLimit)
	}()
	wg.Wait()

	if svcErr != nil {
		return fmt.Errorf("failed to fetch service: %w", svcErr)
	}
	if chkErr != nil {
		return fmt.Errorf("failed to fetch checks: %w", chkErr)
	}

	fmt.Println(view.ServiceDetails(svc, checks))
	return nil
}

package run

import (
	"fmt"

	"github.com/crucial707/birthday-service/cmd/cli/client"
	"github.com/crucial707/birthday-service/cmd/cli/config"
	"github.com/crucial707/birthday-service/cmd/cli/root"
	"github.com/spf13/cobra"
)

func init() {
	root.GetRoot().AddCommand(runCmd())
}

func runCmd() *cobra.Command {
	var legacy bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Trigger a birthday scan now",
		Long: `Ask the service to run today's birthday scan. The service skips the scan
when it already ran today, so triggering twice is harmless.

Example:
  bdayctl run
  bdayctl run --legacy   # use /api/run-birthday-service, no token needed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client.New(config.APIURL(), config.Token())
			if err := c.TriggerRun(cmd.Context(), legacy); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Run requested. Check progress with: bdayctl status")
			return nil
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "Use the legacy unauthenticated trigger path")
	return cmd
}

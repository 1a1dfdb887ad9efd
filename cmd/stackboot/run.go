package main

import (
	"fmt"
	"os"

	"stackboot/internal/bootstrap"
	"stackboot/internal/config"
	"stackboot/internal/system"

	"github.com/spf13/cobra"
)

// runCmd performs the bootstrap and execs the application command.
// It only ever returns control on failure; on success the process
// image is replaced and the command's exit code becomes the
// container's exit code.
var runCmd = &cobra.Command{
	Use:   "run -- <command> [args...]",
	Short: "Provision the service account and exec the application",
	Long: `Run the container bootstrap sequence, then replace this process
with the given command running as the provisioned account.

Example (Dockerfile):
  ENTRYPOINT ["stackboot", "run", "--"]
  CMD ["metaserve", "--config", "/etc/metaserve/config.toml"]`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		b := bootstrap.New(cfg, system.NewUnixSystem(), logger)
		if err := b.Run(args); err != nil {
			// Single diagnostic line; the orchestrator's restart
			// policy owns recovery.
			fmt.Fprintln(os.Stderr, err)
			logger.Error("Bootstrap failed: %v", err)
			os.Exit(1)
		}
	},
}

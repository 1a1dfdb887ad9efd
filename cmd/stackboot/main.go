package main

import (
	"fmt"
	"os"

	"stackboot/internal/logging"

	"github.com/spf13/cobra"
)

var logger *logging.Logger

func initLogger() {
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "/var/log/metaserve/stackboot.log"
	}

	logConfig := &logging.LogConfig{
		File:       logFile,
		MaxSize:    10,
		MaxBackups: 3,
		MaxAge:     7,
	}

	if err := logging.InitLogger(logConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger = logging.GetGlobalLogger()
}

var rootCmd = &cobra.Command{
	Use:   "stackboot",
	Short: "stackboot - container entrypoint for the metaserve stack",
	Long: `stackboot is the container entrypoint for the metaserve stack.
It provisions the service account from USER_ID, normalizes ownership and
permissions on the persisted state directories, writes the login banner
for the configured RUNTIME mode, then replaces itself with the
application command running under the provisioned account.`,
}

func main() {
	initLogger()
	defer logger.Close()

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

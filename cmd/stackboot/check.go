package main

import (
	"fmt"
	"os"

	"stackboot/internal/bootstrap"
	"stackboot/internal/config"

	"github.com/spf13/cobra"
)

// checkCmd validates the environment without side effects.
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the bootstrap configuration without touching anything",
	Long: `Load the configuration from the environment, run the same
validation the bootstrap would, and print the resolved plan. Nothing
is created, changed or executed.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		plan, err := bootstrap.ValidateConfig(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}

		fmt.Printf("Account:      %s (uid %d, gid %d)\n", plan.Account.Name, plan.Account.UID, plan.Account.GID)
		fmt.Printf("Shell:        %s\n", plan.Account.Shell)
		fmt.Printf("Home:         %s\n", plan.Account.HomeDir)
		fmt.Printf("Mode:         %s\n", plan.Mode)
		fmt.Printf("Data dir:     %s\n", cfg.DataDir)
		fmt.Printf("Log dir:      %s\n", cfg.LogDir)
		fmt.Printf("Config dir:   %s\n", cfg.ConfigDir)
		fmt.Printf("Banner file:  %s\n", cfg.BannerFile)
		fmt.Println("Configuration OK")
	},
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kpauljoseph/annotanki/pkg/updater"
	"github.com/kpauljoseph/annotanki/pkg/version"
)

var checkUpdates bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of hypothesis2anki",
	// Skip config loading.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Print(version.GetDetailedVersionInfo())
		if !checkUpdates {
			return nil
		}

		info, err := updater.NewChecker(log).CheckForUpdates(cmd.Context())
		if err != nil {
			return err
		}
		if !info.IsAvailable {
			fmt.Println("You are running the latest version.")
			return nil
		}
		fmt.Printf("A new version is available: %s\n%s\n", info.LatestVersion, info.DownloadURL)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&checkUpdates, "check", false, "check GitHub for a newer release")
	rootCmd.AddCommand(versionCmd)
}

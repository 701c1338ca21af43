// Package cli implements townforge's process entry points (spec.md §2):
// one binary, one cobra root command, subcommands for each standing
// service. Grounded on the teacher's internal/cli/root.go shape — a
// package-scope rootCmd, an Execute() entry point, and an init() that
// registers every subcommand var onto it.
package cli

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	logo    = "\n" +
		" _                      __                    \n" +
		"| |_ _____ __ _ __  / _| ___  _ __ __ _  ___ \n" +
		"| __/ _ \\ \\ /\\ / / '_ \\| |_ / _ \\| '__/ _` |/ _ \\\n" +
		"| || (_) \\ V  V /| | | |  _| (_) | | | (_| |  __/\n" +
		" \\__\\___/ \\_/\\_/ |_| |_|_|  \\___/|_|  \\__, |\\___|\n" +
		"                                      |___/      \n"
)

var rootCmd = &cobra.Command{
	Use:   "townforge",
	Short: "townforge - Discord-to-Minecraft village bridge",
	Long:  color.CyanString(logo) + "\nBridges a chat platform's categorized channels to a block-based voxel world.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(consumeCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(syncCmd)
}

func printHeader(title string) {
	color.Cyan("\n=== %s ===\n", title)
}

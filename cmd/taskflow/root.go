package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/model"
)

var (
	configPath string
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "taskflow",
	Short: "Task manager with due-date notifications",
	Long: `taskflow - manage tasks in your hosted task table from the terminal.

Tasks are cached locally so every command works offline. Due and overdue
tasks raise notifications that can be mirrored to the desktop.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", model.DefaultConfigPath(), "config file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "verbose development logging")

	rootCmd.AddGroup(
		&cobra.Group{ID: "tasks", Title: "Task Commands:"},
		&cobra.Group{ID: "notify", Title: "Notification Commands:"},
		&cobra.Group{ID: "insight", Title: "Insight Commands:"},
		&cobra.Group{ID: "system", Title: "System Commands:"},
	)
	rootCmd.SetHelpCommandGroupID("system")
	rootCmd.SetCompletionCommandGroupID("system")
}

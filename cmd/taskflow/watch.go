package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskflow/internal/app"
	"github.com/nhle/taskflow/internal/notify/desktop"
	appsync "github.com/nhle/taskflow/internal/sync"
)

var watchCmd = &cobra.Command{
	Use:     "watch",
	Short:   "Open the interactive task and notification center",
	GroupID: "notify",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{logFile: true, prompter: desktop.Granted{}})
		if err != nil {
			return err
		}
		defer rt.Close()

		var poller *appsync.Poller
		if rt.backend != nil {
			poller, _ = rt.poller()
		}

		root := app.New(app.Deps{
			Store:     rt.store,
			Tasks:     rt.tasks,
			Engine:    rt.engine,
			Poller:    poller,
			Suggester: rt.suggester,
			Heuristic: rt.heuristic,
			Clock:     rt.clock,
			Location:  rt.loc,
			Logger:    rt.logger.Named("app"),
		})

		_, err = tea.NewProgram(root, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nhle/taskflow/internal/analytics"
	"github.com/nhle/taskflow/internal/keys"
	"github.com/nhle/taskflow/internal/ui/stats"
	"github.com/nhle/taskflow/internal/ui/suggest"
)

const defaultWidth = 80

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return defaultWidth
}

var statsCmd = &cobra.Command{
	Use:     "stats",
	Short:   "Show completion statistics",
	GroupID: "insight",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		all, err := rt.tasks.All(cmd.Context())
		if err != nil {
			return err
		}

		view := stats.New(terminalWidth(), 0)
		view.SetReport(analytics.Compute(all, rt.clock.Now(), rt.loc))
		fmt.Println(view.View())
		return nil
	},
}

var suggestCmd = &cobra.Command{
	Use:     "suggest",
	Short:   "Suggest new tasks and show insights",
	GroupID: "insight",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		all, err := rt.tasks.All(cmd.Context())
		if err != nil {
			return err
		}

		msg := suggest.LoadedMsg{
			Insights:     rt.heuristic.Insights(all),
			Organization: rt.heuristic.Organize(all),
		}
		msg.Suggestions, msg.Err = rt.suggester.Suggest(cmd.Context(), all)

		view := suggest.New(rt.suggester, rt.heuristic, keys.DefaultKeyMap(), terminalWidth(), 0)
		view, _ = view.Update(msg)
		fmt.Println(view.View())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd, suggestCmd)
}

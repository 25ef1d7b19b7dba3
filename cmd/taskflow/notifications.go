package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nhle/taskflow/internal/model"
	"github.com/nhle/taskflow/internal/notify"
	"github.com/nhle/taskflow/internal/theme"
	"github.com/nhle/taskflow/internal/ui"
)

var checkCmd = &cobra.Command{
	Use:     "check",
	Short:   "Check due dates and print new notifications",
	GroupID: "notify",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if fetch, _ := cmd.Flags().GetBool("sync"); fetch {
			p, err := rt.poller()
			if err != nil {
				return err
			}
			if res := p.SyncOnce(cmd.Context()); res.Error != nil {
				rt.logger.Warn("sync before check failed; using cached tasks", zap.Error(res.Error))
			}
		}

		all, err := rt.tasks.All(cmd.Context())
		if err != nil {
			return err
		}

		before := len(rt.engine.Notifications())
		rt.engine.TasksChanged(all)
		printNotifications(rt, rt.engine.Notifications())
		if added := len(rt.engine.Notifications()) - before; added > 0 {
			fmt.Printf("\n%d new\n", added)
		}
		return nil
	},
}

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Manage the notification list",
	GroupID: "notify",
}

var notificationsListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "Show active notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		printNotifications(rt, rt.engine.Notifications())
		return nil
	},
}

var notificationsDismissCmd = &cobra.Command{
	Use:   "dismiss <id...>",
	Short: "Remove notifications",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		for _, id := range args {
			rt.engine.RemoveNotification(id)
			fmt.Printf("DISMISSED %s\n", id)
		}
		return nil
	},
}

var notificationsClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every notification",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		n := len(rt.engine.Notifications())
		rt.engine.ClearAllNotifications()
		fmt.Printf("Cleared %d notifications\n", n)
		return nil
	},
}

var notificationsEnableCmd = &cobra.Command{
	Use:   "enable",
	Short: "Allow desktop notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := openRuntime(runtimeOptions{})
		if err != nil {
			return err
		}
		defer rt.Close()

		if rt.platform == nil {
			return errors.New("desktop notifications are off; set notifications.desktop: true in the config")
		}
		if reset, _ := cmd.Flags().GetBool("reset"); reset {
			if err := rt.platform.Reset(); err != nil {
				return err
			}
		}

		p, err := rt.engine.RequestPermission(cmd.Context())
		if err != nil {
			return err
		}
		switch p {
		case notify.PermissionGranted:
			fmt.Println(notify.MessagePermissionGranted)
		case notify.PermissionDenied:
			fmt.Println("Desktop notifications are blocked. Run `taskflow notifications enable --reset` to ask again.")
		default:
			fmt.Println("Maybe later.")
		}
		return nil
	},
}

func printNotifications(rt *runtime, list []model.Notification) {
	if len(list) == 0 {
		fmt.Println("No notifications")
		return
	}
	now := rt.clock.Now()
	for _, n := range list {
		fmt.Printf("%s %s  %s\n    %s\n",
			theme.NotificationStyle(n.Type).Render(theme.NotificationIcon(n.Type)+" "+n.Title),
			theme.DimmedStyle.Render(ui.RelativeTime(n.Timestamp, now)),
			theme.DimmedStyle.Render(n.ID),
			n.Message,
		)
	}
}

func init() {
	checkCmd.Flags().Bool("sync", false, "fetch from the backend first")
	notificationsEnableCmd.Flags().Bool("reset", false, "forget an earlier decision and ask again")

	notificationsCmd.AddCommand(notificationsListCmd, notificationsDismissCmd, notificationsClearCmd, notificationsEnableCmd)
	rootCmd.AddCommand(checkCmd, notificationsCmd)
}

package app

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hypestats/internal/monitor"

	"github.com/spf13/cobra"
)

// newTailCommand builds the "tail" debug command: follow a Minecraft
// log and print every classified lobby event to stdout. Works without
// an API key.
func newTailCommand(app *App) *cobra.Command {
	var path string
	var interval int

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Follow a Minecraft log and print classified lobby events",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				resolved, err := app.Config.ResolveLogPath()
				if err != nil {
					return err
				}
				path = resolved
			}

			mon, err := monitor.New(monitor.Options{
				Path:         path,
				PollInterval: time.Duration(interval) * time.Second,
				Logger:       app.Logger().With("component", "TAIL"),
				OnPlayerList: func(players []string) {
					fmt.Printf("[LOBBY] %d players: %s\n", len(players), strings.Join(players, ", "))
				},
				OnTeamUpdate: func(name, team string) {
					fmt.Printf("[TEAM] %s -> %s\n", name, team)
				},
				OnReset: func() {
					fmt.Println("[RESET] lobby cleared")
				},
			})
			if err != nil {
				return err
			}

			if err := mon.Start(); err != nil {
				return err
			}
			fmt.Printf("Tailing %s (Ctrl+C to stop)\n", path)

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit

			session := mon.Session()
			fmt.Printf("Tracked %d players since %s\n",
				len(session.Players()), session.LastReset().Format(time.RFC3339))

			return mon.Stop()
		},
	}

	cmd.Flags().StringVarP(&path, "file", "f", "", "log file to tail (default: auto-detect)")
	cmd.Flags().IntVarP(&interval, "interval", "i", 2, "poll interval in seconds")

	return cmd
}

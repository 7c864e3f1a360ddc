package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/restock/internal/log"
	"github.com/zjrosen/restock/internal/pubsub"
	"github.com/zjrosen/restock/internal/restock/domain"
	"github.com/zjrosen/restock/internal/watcher"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the current session and print changes as they land in the store",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := newRuntime(cmd.Context())
		if err != nil {
			return err
		}
		defer rt.close(cmd.Context())

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		events := rt.broker.Subscribe(ctx)

		var logEntries <-chan log.LogEvent
		if debugMode {
			logEntries = log.Subscribe(ctx)
		}

		var storeChanged <-chan struct{}
		noAuto, _ := cmd.Flags().GetBool("no-auto-refresh")
		if cfg.AutoRefresh && !noAuto {
			w, err := watcher.New(watcher.Config{
				StorePath:   cfg.StorePath,
				DebounceDur: cfg.RefreshDebounce,
			})
			if err != nil {
				return fmt.Errorf("watching session store: %w", err)
			}
			defer w.Stop()

			storeChanged, err = w.Start()
			if err != nil {
				return fmt.Errorf("watching session store: %w", err)
			}
		}

		if session := rt.coord.Current(); session != nil {
			printSession(session)
		} else {
			fmt.Println("no active session; waiting for changes")
		}

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-storeChanged:
				refresh(ctx, rt)
			case event, ok := <-events:
				if !ok {
					return nil
				}
				printEvent(event)
			case entry, ok := <-logEntries:
				if !ok {
					logEntries = nil
					continue
				}
				fmt.Print(entry.Payload)
			}
		}
	},
}

func refresh(ctx context.Context, rt *runtime) {
	res := rt.coord.Refresh(ctx)
	if !res.Success && res.Err != nil {
		fmt.Printf("refresh failed: %v\n", res.Err)
	}
}

func printEvent(event pubsub.Event[domain.SessionSnapshot]) {
	snap := event.Payload
	switch event.Type {
	case pubsub.CompletedEvent:
		fmt.Printf("%s  sent      %s (%d items)\n",
			event.Timestamp.Format("15:04:05"), snap.Name, len(snap.Items))
	case pubsub.CreatedEvent:
		fmt.Printf("%s  started   %s\n",
			event.Timestamp.Format("15:04:05"), snap.Name)
	case pubsub.DeletedEvent:
		fmt.Printf("%s  removed   %s\n",
			event.Timestamp.Format("15:04:05"), snap.Name)
	default:
		fmt.Printf("%s  %-9s %s (%d items)\n",
			event.Timestamp.Format("15:04:05"), snap.Status, snap.Name, len(snap.Items))
	}
}

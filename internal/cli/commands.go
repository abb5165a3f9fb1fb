// Package cli provides command definitions for orbitsync.
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/orbitapp/orbitsync/internal/ui"
)

func statusCommand() *cli.Command {
	return &cli.Command{
		Name:  "status",
		Usage: "Show queue and conflict status",
		Action: func(_ context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			cfg := e.cfg.Sync()
			fmt.Println(ui.Header("Sync status"))
			fmt.Printf("  Enabled: %s\n", onOff(cfg.Enabled))
			fmt.Printf("  Auto-sync on change: %s\n", onOff(cfg.AutoSyncOnChange))
			fmt.Printf("  Background interval: %d min\n", cfg.BackgroundSyncInterval)
			fmt.Printf("  Authenticated: %s\n", onOff(e.auth.Authenticated()))

			status := e.orch.Status()
			fmt.Printf("\n%s %d item(s)", ui.Header("Queue:"), status.Length)
			if status.Draining {
				fmt.Printf(" %s", ui.Info("(draining)"))
			}
			fmt.Println()
			for _, item := range status.Items {
				line := fmt.Sprintf("  %s %s %s", item.Type, item.Action, item.EntityID)
				if item.Retries > 0 {
					line += ui.Warning(fmt.Sprintf(" (retry %d: %s)", item.Retries, item.LastError))
				}
				fmt.Println(line)
			}

			conflicts := e.orch.Conflicts()
			fmt.Printf("\n%s %d open\n", ui.Header("Conflicts:"), len(conflicts))
			for _, c := range conflicts {
				fmt.Printf("  %s  %s\n", ui.Dim(c.ID[:8]), c.Summary())
			}
			return nil
		},
	}
}

func drainCommand() *cli.Command {
	return &cli.Command{
		Name:  "drain",
		Usage: "Process the outbound sync queue now",
		Action: func(ctx context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if !e.auth.Authenticated() {
				fmt.Println(ui.StatusWarning("Not authenticated; nothing exported"))
				return nil
			}

			result, err := e.orch.Drain(ctx)
			if err != nil {
				return err
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Exported %d item(s)", result.Processed)))
			if result.Failed > 0 {
				fmt.Println(ui.StatusWarning(fmt.Sprintf("%d item(s) failed and will be retried", result.Failed)))
			}
			if result.Dropped > 0 {
				fmt.Println(ui.StatusError(fmt.Sprintf("%d item(s) dropped after repeated failures", result.Dropped)))
			}
			return nil
		},
	}
}

func importCommand() *cli.Command {
	return &cli.Command{
		Name:  "import",
		Usage: "Pull remote changes and reconcile them locally",
		Action: func(ctx context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			result, err := e.orch.Import(ctx)
			if err != nil {
				return err
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf(
				"Imported %d, updated %d", result.Imported, result.Updated)))
			if result.Conflicts > 0 {
				fmt.Println(ui.StatusWarning(fmt.Sprintf(
					"%d conflict(s) detected; run 'orbitsync conflicts list'", result.Conflicts)))
			}
			return nil
		},
	}
}

func detectCommand() *cli.Command {
	return &cli.Command{
		Name:  "detect",
		Usage: "Check for conflicts without changing any data",
		Action: func(ctx context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			conflicts, err := e.orch.DetectConflicts(ctx)
			if err != nil {
				return err
			}

			if len(conflicts) == 0 {
				fmt.Println(ui.StatusSuccess("No conflicts found"))
				return nil
			}
			for _, c := range conflicts {
				fmt.Printf("%s %s\n", ui.StatusWarning(""), c.Summary())
			}
			return nil
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Run background sync until interrupted",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "import-interval",
				Usage: "Minutes between inbound imports (0 disables)",
				Value: 30,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			e.orch.StartBackgroundDrain()
			if minutes := cmd.Int("import-interval"); minutes > 0 {
				e.orch.StartAutoImport(ctx, time.Duration(minutes)*time.Minute)
			}

			fmt.Println(ui.Info("Watching for changes; press Ctrl-C to stop"))
			<-ctx.Done()
			return nil
		},
	}
}

func onOff(b bool) string {
	if b {
		return ui.Success("on")
	}
	return ui.Dim("off")
}

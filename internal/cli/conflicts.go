package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/orbitapp/orbitsync/internal/sync"
	"github.com/orbitapp/orbitsync/internal/ui"
	"github.com/orbitapp/orbitsync/internal/ui/tui"
)

func conflictsCommand() *cli.Command {
	return &cli.Command{
		Name:  "conflicts",
		Usage: "Inspect and resolve sync conflicts",
		Commands: []*cli.Command{
			conflictsListCommand(),
			conflictsShowCommand(),
			conflictsResolveCommand(),
			conflictsAutoCommand(),
			conflictsBrowseCommand(),
		},
	}
}

func conflictsListCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List open conflicts",
		Action: func(_ context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			conflicts := e.orch.Conflicts()
			if len(conflicts) == 0 {
				fmt.Println(ui.StatusSuccess("No open conflicts"))
				return nil
			}

			fmt.Printf("%s %s %s %s\n",
				ui.Header(fmt.Sprintf("%-10s", "ID")),
				ui.Header(fmt.Sprintf("%-10s", "TYPE")),
				ui.Header(fmt.Sprintf("%-8s", "PRIORITY")),
				ui.Header("FIELDS"))
			for _, c := range conflicts {
				fmt.Printf("%-10s %-10s %-8s %v\n",
					c.ID[:8], c.EntityType, priorityLabel(c.Priority), c.Fields())
			}
			return nil
		},
	}
}

func conflictsShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show both sides of one conflict",
		UsageText: "orbitsync conflicts show <conflict-id>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return errors.New("show requires a conflict id")
			}

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			c, ok := findConflict(e.orch, id)
			if !ok {
				return fmt.Errorf("no open conflict matches %q", id)
			}

			printConflict(c)
			return nil
		},
	}
}

func conflictsResolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve one conflict",
		UsageText: "orbitsync conflicts resolve [--strategy <name>] <conflict-id>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "strategy",
				Aliases: []string{"s"},
				Usage:   "Resolution strategy (app_wins, external_wins, last_write_wins, merge)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			id := cmd.Args().First()
			if id == "" {
				return errors.New("resolve requires a conflict id")
			}

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			c, ok := findConflict(e.orch, id)
			if !ok {
				return fmt.Errorf("no open conflict matches %q", id)
			}

			strategy := sync.Strategy(cmd.String("strategy"))
			resolution, err := e.orch.ResolveConflict(ctx, c.ID, strategy)
			if errors.Is(err, sync.ErrManualResolution) {
				// The configured policy wants a person to decide.
				chosen, perr := NewConflictResolver().Prompt(c)
				if perr != nil {
					return perr
				}
				if chosen == "" {
					fmt.Println(ui.StatusSkipped("Conflict left open"))
					return nil
				}
				resolution, err = e.orch.ResolveConflict(ctx, c.ID, chosen)
			}
			if err != nil {
				return err
			}

			fmt.Println(ui.StatusSuccess(fmt.Sprintf(
				"Resolved with %s", resolution.Strategy)))
			return nil
		},
	}
}

func conflictsAutoCommand() *cli.Command {
	return &cli.Command{
		Name:  "auto",
		Usage: "Resolve all open conflicts with the configured policy",
		Action: func(ctx context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			before := len(e.orch.Conflicts())
			resolved := e.orch.AutoResolveConflicts(ctx)

			fmt.Println(ui.StatusSuccess(fmt.Sprintf("Resolved %d of %d conflict(s)", resolved, before)))
			if remaining := before - resolved; remaining > 0 {
				fmt.Println(ui.StatusWarning(fmt.Sprintf(
					"%d conflict(s) need manual attention", remaining)))
			}
			return nil
		},
	}
}

func conflictsBrowseCommand() *cli.Command {
	return &cli.Command{
		Name:  "browse",
		Usage: "Browse and resolve conflicts interactively",
		Action: func(ctx context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			conflicts := e.orch.Conflicts()
			if len(conflicts) == 0 {
				fmt.Println(ui.StatusSuccess("No open conflicts"))
				return nil
			}

			decisions, err := tui.BrowseConflicts(conflicts)
			if err != nil {
				return err
			}

			for id, strategy := range decisions {
				if _, err := e.orch.ResolveConflict(ctx, id, strategy); err != nil {
					fmt.Println(ui.StatusError(fmt.Sprintf("%s: %v", id[:8], err)))
					continue
				}
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s resolved with %s", id[:8], strategy)))
			}
			return nil
		},
	}
}

// findConflict matches a full or prefix conflict id against the open set.
func findConflict(orch *sync.Orchestrator, id string) (*sync.Conflict, bool) {
	if c, ok := orch.ConflictByID(id); ok {
		return c, true
	}
	for _, c := range orch.Conflicts() {
		if len(id) >= 4 && len(c.ID) >= len(id) && c.ID[:len(id)] == id {
			return c, true
		}
	}
	return nil, false
}

func printConflict(c *sync.Conflict) {
	fmt.Println(ui.Header(c.Summary()))
	fmt.Printf("  Service: %s\n", c.Service)
	fmt.Printf("  Local edit: %s\n", c.AppLastModified.Format("2006-01-02 15:04:05"))
	fmt.Printf("  Remote edit: %s\n", c.ExternalLastModified.Format("2006-01-02 15:04:05"))
	fmt.Println()
	for _, d := range c.ConflictFields {
		fmt.Printf("  %s (%s)\n", ui.Bold(d.Field), d.FieldType)
		fmt.Printf("    local:  %v\n", d.AppValue)
		fmt.Printf("    remote: %v\n", d.ExternalValue)
		if d.CanMerge {
			fmt.Printf("    %s\n", ui.Dim("mergeable"))
		}
	}
}

func priorityLabel(p sync.Priority) string {
	switch p {
	case sync.PriorityHigh:
		return ui.Error(string(p))
	case sync.PriorityMedium:
		return ui.Warning(string(p))
	default:
		return ui.Dim(string(p))
	}
}

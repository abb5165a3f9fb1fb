package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/orbitapp/orbitsync/internal/config"
	"github.com/orbitapp/orbitsync/internal/model"
	"github.com/orbitapp/orbitsync/internal/sync"
	"github.com/orbitapp/orbitsync/internal/ui"
)

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Inspect and change sync configuration",
		Commands: []*cli.Command{
			configShowCommand(),
			configSetCommand(),
			configStrategyCommand(),
		},
	}
}

func configShowCommand() *cli.Command {
	return &cli.Command{
		Name:  "show",
		Usage: "Display current configuration",
		Action: func(_ context.Context, _ *cli.Command) error {
			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			cfg := e.cfg.Get()
			data, err := yaml.Marshal(&cfg)
			if err != nil {
				return fmt.Errorf("encoding configuration: %w", err)
			}
			fmt.Print(string(data))
			return nil
		},
	}
}

func configSetCommand() *cli.Command {
	return &cli.Command{
		Name:      "set",
		Usage:     "Change one configuration value",
		UsageText: "orbitsync config set <key> <value>",
		Description: `Change a configuration value and persist it.

   Keys:
     sync.enabled              sync.auto_sync_on_change
     sync.interval             sync.max_retries
     sync.tasks                sync.time_slots
     sync.objectives           sync.friends
     conflicts.auto_resolve    conflicts.notify

   Examples:
     orbitsync config set sync.enabled false
     orbitsync config set sync.interval 30`,
		Action: func(_ context.Context, cmd *cli.Command) error {
			args := cmd.Args()
			if args.Len() != 2 {
				return errors.New("set requires exactly 2 arguments: <key> <value>")
			}
			key, value := args.Get(0), args.Get(1)

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			if err := applyConfigKey(e.cfg, key, value); err != nil {
				return err
			}
			fmt.Println(ui.StatusSuccess(fmt.Sprintf("%s = %s", key, value)))
			return nil
		},
	}
}

func configStrategyCommand() *cli.Command {
	return &cli.Command{
		Name:      "strategy",
		Usage:     "Set the conflict resolution strategy",
		UsageText: "orbitsync config strategy [--service <name>] <strategy>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "service",
				Usage: "Limit the strategy to one service (google_tasks, google_calendar, google_contacts)",
			},
		},
		Action: func(_ context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			strategy := sync.Strategy(name)
			if !strategy.IsValid() {
				return fmt.Errorf("unknown strategy %q; valid: %v", name, sync.AllStrategies())
			}

			e, err := newEnv()
			if err != nil {
				return err
			}
			defer e.close()

			service := cmd.String("service")
			if service != "" && !model.Service(service).IsValid() {
				return fmt.Errorf("unknown service %q", service)
			}

			err = e.cfg.UpdateConflicts(func(c *config.ConflictConfig) {
				if service == "" {
					c.DefaultStrategy = name
					return
				}
				if c.PerServiceStrategy == nil {
					c.PerServiceStrategy = make(map[string]string)
				}
				c.PerServiceStrategy[service] = name
			})
			if err != nil {
				return err
			}

			if service == "" {
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Default strategy set to %s", name)))
			} else {
				fmt.Println(ui.StatusSuccess(fmt.Sprintf("Strategy for %s set to %s", service, name)))
			}
			return nil
		},
	}
}

// applyConfigKey maps a dotted key onto the configuration and persists
// the change.
func applyConfigKey(store *config.Store, key, value string) error {
	switch key {
	case "sync.enabled", "sync.auto_sync_on_change", "sync.tasks",
		"sync.time_slots", "sync.objectives", "sync.friends":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false", key)
		}
		return store.UpdateSync(func(c *config.SyncConfig) {
			switch key {
			case "sync.enabled":
				c.Enabled = b
			case "sync.auto_sync_on_change":
				c.AutoSyncOnChange = b
			case "sync.tasks":
				c.SyncTasks = b
			case "sync.time_slots":
				c.SyncTimeSlots = b
			case "sync.objectives":
				c.SyncObjectives = b
			case "sync.friends":
				c.SyncFriends = b
			}
		})
	case "sync.interval", "sync.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("%s expects a non-negative number", key)
		}
		return store.UpdateSync(func(c *config.SyncConfig) {
			if key == "sync.interval" {
				c.BackgroundSyncInterval = n
			} else {
				c.MaxRetries = n
			}
		})
	case "conflicts.auto_resolve", "conflicts.notify":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false", key)
		}
		return store.UpdateConflicts(func(c *config.ConflictConfig) {
			if key == "conflicts.auto_resolve" {
				c.AutoResolve = b
			} else {
				c.NotifyOnConflict = b
			}
		})
	default:
		return fmt.Errorf("unknown configuration key %q", key)
	}
}

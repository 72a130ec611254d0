// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   defaultConfigPath,
	}
}

func ownerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "owner",
		Aliases: []string{"o"},
		Usage:   "Queue owner key (defaults to overlay.owner)",
	}
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Usage:   "Output format: text, json, markdown or csv",
		Value:   "text",
	}
}

func outputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "output",
		Usage: "Write output to a file instead of stdout",
	}
}

// overlayFlags are shared by run and preview.
func overlayFlags() []cli.Flag {
	return []cli.Flag{
		configFlag(),
		ownerFlag(),
		&cli.BoolFlag{
			Name:  "no-video",
			Usage: "Play audio only",
		},
		&cli.BoolFlag{
			Name:  "no-journal",
			Usage: "Do not record plays to the database",
		},
		&cli.BoolFlag{
			Name:  "no-server",
			Usage: "Do not start the local status server",
		},
	}
}

// runCommand starts the overlay headless.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Follow a queue and play its current item until interrupted",
		Flags:  overlayFlags(),
		Action: r.Run,
	}
}

// previewCommand starts the overlay with a terminal preview.
func previewCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "preview",
		Aliases: []string{"tui", "ui"},
		Usage:   "Run the overlay with an interactive status preview",
		Flags:   overlayFlags(),
		Action:  r.Preview,
	}
}

// queueCommand handles direct queue service operations.
func queueCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "Inspect and drive the queue service directly",
		Commands: []*cli.Command{
			{
				Name:   "state",
				Usage:  "Print the current queue snapshot",
				Flags:  []cli.Flag{configFlag(), ownerFlag(), formatFlag(), outputFlag()},
				Action: r.QueueState,
			},
			{
				Name:  "advance",
				Usage: "Ask the server to move past an item (omit the id to kickstart)",
				Arguments: []cli.Argument{
					&cli.StringArg{Name: "completed"},
				},
				Flags:  []cli.Flag{configFlag(), ownerFlag(), formatFlag()},
				Action: r.QueueAdvance,
			},
			{
				Name:  "report-duration",
				Usage: "Report a measured duration for an item",
				Flags: []cli.Flag{
					configFlag(),
					ownerFlag(),
					&cli.StringFlag{
						Name:     "item",
						Usage:    "Item id",
						Required: true,
					},
					&cli.IntFlag{
						Name:     "seconds",
						Usage:    "Duration in whole seconds",
						Required: true,
					},
				},
				Action: r.QueueReportDuration,
			},
		},
	}
}

// historyCommand lists recorded plays.
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "List plays recorded by the overlay",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "owner",
				Aliases: []string{"o"},
				Usage:   "Only show plays for this owner",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of plays to list",
				Value: 20,
			},
			formatFlag(),
			outputFlag(),
		},
		Action: r.History,
	}
}

// setupCommand handles setup operations for configuration and the database.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write a config file from the built-in template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "path",
						Aliases: []string{"p"},
						Usage:   "Where to write the config",
						Value:   defaultConfigPath,
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

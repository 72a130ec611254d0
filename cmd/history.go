package main

import (
	"context"

	"github.com/desertthunder/ytxq/internal/formatter"
	"github.com/desertthunder/ytxq/internal/repositories"
	"github.com/urfave/cli/v3"
)

// History lists the newest recorded plays.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	plays, err := repositories.NewPlayRepository(db).ListRecent(cmd.String("owner"), int(cmd.Int("limit")))
	if err != nil {
		return err
	}

	data, err := formatter.History(plays, format)
	if err != nil {
		return err
	}
	return r.writeOutput(data, cmd.String("output"))
}

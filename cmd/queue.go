package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytxq/internal/formatter"
	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
	"github.com/urfave/cli/v3"
)

// QueueState prints the owner's current snapshot.
func (r *Runner) QueueState(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	owner, err := r.owner(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	snap, err := r.queueService().FetchState(ctx, owner)
	if err != nil {
		return fmt.Errorf("failed to fetch queue state: %w", err)
	}

	data, err := formatter.Snapshot(snap, owner, format)
	if err != nil {
		return err
	}
	return r.writeOutput(data, cmd.String("output"))
}

// QueueAdvance asks the server to move past the given item and prints the resulting snapshot.
func (r *Runner) QueueAdvance(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	owner, err := r.owner(cmd)
	if err != nil {
		return err
	}
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	completed := models.ItemID(cmd.StringArg("completed"))
	r.logger.Info("advancing queue", "owner", owner, "completed", completed)

	snap, err := r.queueService().Advance(ctx, owner, completed)
	if err != nil {
		return fmt.Errorf("failed to advance queue: %w", err)
	}

	data, err := formatter.Snapshot(snap, owner, format)
	if err != nil {
		return err
	}
	return r.writeOutput(data, "")
}

// QueueReportDuration reports a measured duration for an item.
func (r *Runner) QueueReportDuration(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	owner, err := r.owner(cmd)
	if err != nil {
		return err
	}

	id := models.ItemID(cmd.String("item"))
	seconds := int(cmd.Int("seconds"))
	if id.IsZero() {
		return fmt.Errorf("%w: --item is required", shared.ErrMissingArgument)
	}

	if err := r.queueService().ReportDuration(ctx, owner, id, seconds); err != nil {
		return fmt.Errorf("failed to report duration: %w", err)
	}
	return r.writePlain("✓ Reported %s for item %s\n", shared.FormatDuration(seconds), id)
}

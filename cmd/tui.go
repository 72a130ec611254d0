package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/ytxq/internal/shared"
	"github.com/desertthunder/ytxq/internal/ui"
	"github.com/urfave/cli/v3"
)

const defaultPreviewLog = "./tmp/ytxq-preview.log"

// Preview runs the overlay with the terminal status preview attached.
func (r *Runner) Preview(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	logPath := r.config.Log.File
	if logPath == "" {
		logPath = defaultPreviewLog
	}
	fileLogger, err := shared.NewFileLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if level, err := shared.ParseLogLevel(r.config.Log.Level); err == nil {
		shared.SetLogLevel(fileLogger, level)
	}
	r.SetLogger(fileLogger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	r.serve(ctx, s)

	done := make(chan error, 1)
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		done <- s.ctrl.Run(ctx)
	}()

	model := ui.NewModel(s.ctrl, done, ui.DefaultRefreshInterval)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	_, err = p.Run()
	cancel()
	<-stopped
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

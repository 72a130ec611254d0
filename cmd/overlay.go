package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/ytxq/internal/overlay"
	"github.com/desertthunder/ytxq/internal/playback"
	"github.com/desertthunder/ytxq/internal/repositories"
	"github.com/desertthunder/ytxq/internal/server"
	"github.com/urfave/cli/v3"
)

// session is everything one overlay run owns.
type session struct {
	ctrl    *overlay.Controller
	surface *playback.Surface
	db      *sql.DB
	addr    string
}

func (s *session) Close() error {
	var errs []error
	if s.surface != nil {
		errs = append(errs, s.surface.Close())
	}
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	return errors.Join(errs...)
}

// newSession validates the config and wires a controller for the run and preview commands.
func (r *Runner) newSession(ctx context.Context, cmd *cli.Command) (*session, error) {
	if err := r.loadConfig(cmd); err != nil {
		return nil, err
	}
	if err := r.config.Validate(); err != nil {
		return nil, err
	}
	owner, err := r.owner(cmd)
	if err != nil {
		return nil, err
	}

	surface, err := playback.NewSurface(r.config.Player.RenderDir)
	if err != nil {
		return nil, err
	}
	s := &session{surface: surface}

	factory := r.factory
	if factory == nil {
		loader := playback.DefaultLoader(r.config.Player.Binary)
		loader.Start(ctx)
		factory = playback.NewMPVFactory(playback.MPVOptions{
			Binary:    r.config.Player.Binary,
			NoVideo:   r.config.Player.NoVideo || cmd.Bool("no-video"),
			ExtraArgs: r.config.Player.ExtraArgs,
			Loader:    loader,
			Logger:    r.logger,
		})
	}

	var journal *overlay.Journal
	if !cmd.Bool("no-journal") {
		db, err := r.openDatabase()
		if err != nil {
			s.Close()
			return nil, err
		}
		s.db = db
		journal = overlay.NewJournal(repositories.NewPlayRepository(db), r.logger)
	}

	ctrl, err := overlay.New(overlay.Options{
		Owner:            owner,
		Service:          r.queueService(),
		Factory:          factory,
		Surface:          surface,
		Journal:          journal,
		Logger:           r.logger,
		PollInterval:     r.config.Overlay.PollInterval,
		ProgressInterval: r.config.Overlay.ProgressInterval,
		EndThreshold:     r.config.Overlay.EndThreshold,
		RequestTimeout:   r.config.Queue.RequestTimeout,
	})
	if err != nil {
		journal.Close()
		s.Close()
		return nil, err
	}
	s.ctrl = ctrl

	if !cmd.Bool("no-server") && r.config.Server.Port > 0 {
		s.addr = r.config.Server.Addr()
	}
	return s, nil
}

// serve runs the status server for s until ctx ends. Failures are logged, never fatal.
func (r *Runner) serve(ctx context.Context, s *session) {
	if s.addr == "" {
		return
	}
	srv := server.New(s.addr, s.ctrl, r.logger)
	go func() {
		if err := srv.Run(ctx); err != nil {
			r.logger.Warn("status server stopped", "error", err)
		}
	}()
}

// Run follows the queue headless until interrupted.
func (r *Runner) Run(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := r.newSession(ctx, cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	r.serve(ctx, s)
	r.logger.Info("overlay starting", "owner", s.ctrl.Owner(), "status", s.addr)

	if err := s.ctrl.Run(ctx); err != nil {
		return fmt.Errorf("overlay failed: %w", err)
	}
	return nil
}

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytxq/internal/formatter"
	"github.com/desertthunder/ytxq/internal/playback"
	"github.com/desertthunder/ytxq/internal/services"
	"github.com/desertthunder/ytxq/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	queue      services.QueueService
	factory    playback.Factory
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Queue and Factory are built from the config when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Queue      services.QueueService
	Factory    playback.Factory
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		queue:      opts.Queue,
		factory:    opts.Factory,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, runCommand, previewCommand, queueCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger used by later commands.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// loadConfig applies --config when it points somewhere other than the config loaded at startup.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}
	return r.reloadConfig(path)
}

func (r *Runner) reloadConfig(path string) error {
	config, err := shared.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrMissingConfig, err)
	}
	r.config = config
	r.configPath = path
	return nil
}

// owner resolves the queue owner from --owner, falling back to overlay.owner.
func (r *Runner) owner(cmd *cli.Command) (string, error) {
	owner := cmd.String("owner")
	if owner == "" {
		owner = r.config.Overlay.Owner
	}
	if owner == "" {
		return "", fmt.Errorf("%w: pass --owner or set overlay.owner", shared.ErrMissingOwner)
	}
	return owner, nil
}

func (r *Runner) queueService() services.QueueService {
	if r.queue == nil {
		r.queue = services.NewQueueClient(services.QueueClientOpts{
			BaseURL:    r.config.Queue.BaseURL,
			APIToken:   r.config.Queue.APIToken,
			HTTPClient: r.httpClient,
			Timeout:    r.config.Queue.RequestTimeout,
			RateLimit:  r.config.Queue.RateLimit,
		})
	}
	return r.queue
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// writeOutput writes rendered data to stdout, or to path when one is given.
func (r *Runner) writeOutput(data []byte, path string) error {
	if path != "" {
		if err := formatter.WriteFile(path, data); err != nil {
			return err
		}
		r.logger.Info("wrote output", "path", path)
		return nil
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

package overlay

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/playback"
	"github.com/desertthunder/ytxq/internal/services"
	"github.com/desertthunder/ytxq/internal/shared"
)

const (
	DefaultPollInterval     = 5 * time.Second
	DefaultProgressInterval = time.Second
	DefaultEndThreshold     = 500 * time.Millisecond
	DefaultRequestTimeout   = 10 * time.Second

	inboxSize = 64
)

// Options configures a [Controller].
type Options struct {
	Owner   string
	Service services.QueueService
	Factory playback.Factory
	Surface *playback.Surface
	Journal *Journal // optional; closed on unmount
	Clock   clock.Clock
	Logger  *log.Logger

	PollInterval     time.Duration
	ProgressInterval time.Duration
	EndThreshold     time.Duration // advance once elapsed is within this of the total
	RequestTimeout   time.Duration
}

// Controller keeps one playable item in lock-step with a remote queue.
//
// All controller state is owned by the goroutine running [Controller.Run]. Timer ticks,
// capability events, network results and external commands reach it as closures on
// the inbox, so none of the fields below the inbox need locking.
type Controller struct {
	owner            string
	service          services.QueueService
	factory          playback.Factory
	surface          *playback.Surface
	journal          *Journal
	clock            clock.Clock
	logger           *log.Logger
	pollInterval     time.Duration
	progressInterval time.Duration
	threshold        float64
	requestTimeout   time.Duration
	session          string

	inbox   chan func()
	done    chan struct{}
	started atomic.Bool
	stop    sync.Once
	status  atomic.Pointer[Status]

	runCtx       context.Context
	mounted      bool
	snapshot     *models.QueueSnapshot
	applied      uint64 // snapshots applied so far
	lastSync     time.Time
	pollFailures int
	fetching     bool
	poll         *clock.Ticker

	currentID   models.ItemID
	current     *models.Item
	live        playback.Capability
	target      *playback.Target
	gen         uint64
	ready       bool
	state       playback.State
	elapsed     float64
	progress    *clock.Ticker
	backfilled  bool
	needsResume bool
	endReason   models.EndReason
	failedID    models.ItemID // last item that could not be built, held until the server moves on

	advancing bool
	retry     pendingAdvance
	advances  int
}

// New validates opts and returns a controller ready to [Controller.Run].
func New(opts Options) (*Controller, error) {
	if opts.Owner == "" {
		return nil, shared.ErrMissingOwner
	}
	if opts.Service == nil {
		return nil, fmt.Errorf("%w: queue service is required", shared.ErrInvalidArgument)
	}
	if opts.Factory == nil {
		return nil, fmt.Errorf("%w: playback factory is required", shared.ErrInvalidArgument)
	}
	if opts.Surface == nil {
		return nil, fmt.Errorf("%w: render surface is required", shared.ErrInvalidArgument)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ProgressInterval <= 0 {
		opts.ProgressInterval = DefaultProgressInterval
	}
	if opts.EndThreshold <= 0 {
		opts.EndThreshold = DefaultEndThreshold
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	session := shared.GenerateID()
	c := &Controller{
		owner:            opts.Owner,
		service:          opts.Service,
		factory:          opts.Factory,
		surface:          opts.Surface,
		journal:          opts.Journal,
		clock:            opts.Clock,
		logger:           shared.WithLogger(opts.Logger, "owner", opts.Owner),
		pollInterval:     opts.PollInterval,
		progressInterval: opts.ProgressInterval,
		threshold:        opts.EndThreshold.Seconds(),
		requestTimeout:   opts.RequestTimeout,
		session:          session,
		inbox:            make(chan func(), inboxSize),
		done:             make(chan struct{}),
		runCtx:           context.Background(),
	}
	c.publish()
	return c, nil
}

// Run mounts the controller and drives it until ctx ends, then unmounts.
//
// Run may only be called once per controller.
func (c *Controller) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return shared.ErrAlreadyRunning
	}

	c.mount(ctx)
	defer c.unmount()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-c.poll.C:
			c.fetch()
		case <-c.progressC():
			c.tick()
		case fn := <-c.inbox:
			fn()
		}
		c.publish()
	}
}

func (c *Controller) mount(ctx context.Context) {
	c.runCtx = ctx
	c.mounted = true
	c.poll = c.clock.Ticker(c.pollInterval)
	c.logger.Info("overlay mounted", "session", c.session, "poll", c.pollInterval)
	c.fetch()
	c.publish()
}

// unmount tears everything down in order. Later calls are no-ops.
func (c *Controller) unmount() {
	c.stop.Do(func() {
		c.mounted = false
		close(c.done)

		if c.poll != nil {
			c.poll.Stop()
		}
		c.stopProgress()
		c.teardown(models.EndReasonUnmounted)
		c.snapshot = nil
		c.failedID = ""
		c.retry = pendingAdvance{}

		if err := c.journal.Close(); err != nil {
			c.logger.Warn("failed to close play journal", "error", err)
		}
		c.publish()
		c.logger.Info("overlay unmounted", "session", c.session)
	})
}

// post delivers fn to the loop. It gives up once the controller has unmounted.
func (c *Controller) post(fn func()) bool {
	select {
	case c.inbox <- fn:
		return true
	case <-c.done:
		return false
	}
}

// call runs fn on the loop and waits for its result.
func (c *Controller) call(fn func() error) error {
	if !c.started.Load() {
		return shared.ErrNotRunning
	}
	result := make(chan error, 1)
	if !c.post(func() { result <- fn() }) {
		return shared.ErrNotRunning
	}
	select {
	case err := <-result:
		return err
	case <-c.done:
		return shared.ErrNotRunning
	}
}

// requestContext detaches network calls from the run context so unmount does not cancel them mid-flight.
func (c *Controller) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(c.runCtx), c.requestTimeout)
}

// Session returns the random id of this controller instance.
func (c *Controller) Session() string { return c.session }

// Owner returns the owner key this controller follows.
func (c *Controller) Owner() string { return c.owner }

package playback

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytxq/internal/shared"
)

const (
	socketName     = "mpv.sock"
	quitTimeout    = 3 * time.Second
	loaderTimeout  = 5 * time.Second
	youtubeWatch   = "https://www.youtube.com/watch?v="
	youtubePrefix  = "yt:"
	observeTimePos = 1
	observeDur     = 2
	observePause   = 3
	observeCache   = 4
)

var youtubeID = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// MPVOptions configures the mpv backend.
type MPVOptions struct {
	Binary    string
	NoVideo   bool
	ExtraArgs []string
	Loader    *Loader // defaults to [DefaultLoader] for Binary
	Logger    *log.Logger
}

// NewMPVFactory returns a [Factory] that plays each item in its own mpv process.
func NewMPVFactory(opts MPVOptions) Factory {
	if opts.Binary == "" {
		opts.Binary = "mpv"
	}
	if opts.Loader == nil {
		opts.Loader = DefaultLoader(opts.Binary)
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	return func(target *Target, sourceID string) (Capability, error) {
		ctx, cancel := context.WithTimeout(context.Background(), loaderTimeout)
		defer cancel()
		if err := opts.Loader.Ready(ctx); err != nil {
			return nil, err
		}

		media, err := mediaTarget(sourceID)
		if err != nil {
			return nil, err
		}
		return newMPV(opts, target.Path(socketName), media), nil
	}
}

// MPV is a [Capability] backed by one mpv process driven over JSON-IPC.
//
// Property values arrive as observe_property notifications and are cached,
// so Elapsed and TotalDuration never block on the socket.
type MPV struct {
	opts   MPVOptions
	socket string
	media  string
	logger *log.Logger

	mu       sync.Mutex
	handler  func(Event)
	cmd      *exec.Cmd
	ipc      *ipcConn
	exited   chan struct{}
	started  bool
	ready    bool
	ended    bool
	disposed bool
	paused   bool
	elapsed  float64
	total    float64
}

func newMPV(opts MPVOptions, socket, media string) *MPV {
	return &MPV{
		opts:   opts,
		socket: socket,
		media:  media,
		logger: opts.Logger.With("media", media),
		exited: make(chan struct{}),
	}
}

func (m *MPV) Subscribe(handler func(Event)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = handler
}

// Play starts mpv on first call. Later calls unpause.
//
// The socket handshake finishes in the background; a failure there is reported as an [EventError].
func (m *MPV) Play() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.disposed {
		return shared.ErrDisposed
	}
	if m.started {
		if m.ipc == nil {
			return nil
		}
		_, err := m.ipc.send("set_property", "pause", false)
		return err
	}

	cmd := exec.Command(m.opts.Binary, buildArgs(m.opts, m.socket, m.media)...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: start mpv: %v", shared.ErrUnplayable, err)
	}
	m.cmd = cmd
	m.started = true

	go m.reap(cmd)
	go m.connect()
	return nil
}

func (m *MPV) reap(cmd *exec.Cmd) {
	err := cmd.Wait()
	close(m.exited)

	m.mu.Lock()
	unexpected := !m.disposed && !m.ended
	m.mu.Unlock()

	if unexpected {
		m.logger.Warn("mpv exited unexpectedly", "error", err)
		m.emit(Failed(fmt.Errorf("%w: mpv exited: %v", shared.ErrUnplayable, err)))
	}
}

func (m *MPV) connect() {
	conn, err := waitForSocket(m.socket, m.exited)
	if err != nil {
		m.mu.Lock()
		cmd, disposed := m.cmd, m.disposed
		m.mu.Unlock()
		if disposed {
			return
		}

		select {
		case <-m.exited:
		default:
			m.logger.Warn("killing mpv: socket never became ready", "error", err)
			_ = killProcess(cmd)
		}
		return
	}

	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		conn.close()
		return
	}
	m.ipc = conn
	m.mu.Unlock()

	properties := []struct {
		id   int
		name string
	}{
		{observeTimePos, "time-pos"},
		{observeDur, "duration"},
		{observePause, "pause"},
		{observeCache, "paused-for-cache"},
	}
	for _, p := range properties {
		if _, err := conn.send("observe_property", p.id, p.name); err != nil {
			m.logger.Warn("failed to observe property", "property", p.name, "error", err)
		}
	}

	m.logger.Debug("mpv event listener started", "socket", m.socket)
	if err := readMessages(conn.conn, m.handleMessage); err != nil && !errors.Is(err, net.ErrClosed) {
		m.logger.Debug("mpv event listener stopped", "error", err)
	}
}

// handleMessage folds one IPC message into cached state and emits the matching event.
func (m *MPV) handleMessage(msg ipcMessage) {
	var ev *Event
	m.mu.Lock()
	switch msg.Event {
	case "property-change":
		switch msg.Name {
		case "time-pos":
			if v, ok := msg.number(); ok {
				m.elapsed = v
			}
		case "duration":
			if v, ok := msg.number(); ok {
				m.total = v
			}
		case "pause":
			if v, ok := msg.flag(); ok && m.ready && v != m.paused {
				m.paused = v
				e := StateChanged(StatePlaying)
				if v {
					e = StateChanged(StatePaused)
				}
				ev = &e
			} else if ok {
				m.paused = v
			}
		case "paused-for-cache":
			if v, ok := msg.flag(); ok && m.ready {
				e := StateChanged(StatePlaying)
				if v {
					e = StateChanged(StateBuffering)
				}
				ev = &e
			}
		}
	case "playback-restart":
		if !m.ready {
			m.ready = true
			e := Ready()
			ev = &e
		}
	case "end-file":
		switch msg.Reason {
		case "eof":
			if !m.ended {
				m.ended = true
				e := StateChanged(StateEnded)
				ev = &e
			}
		case "error":
			if !m.ended {
				m.ended = true
				reason := msg.FileError
				if reason == "" {
					reason = "unknown error"
				}
				e := Failed(fmt.Errorf("%w: %s", shared.ErrUnplayable, reason))
				ev = &e
			}
		}
	default:
		if msg.Error != "" && msg.Error != "success" {
			m.logger.Debug("mpv command failed", "request_id", msg.RequestID, "error", msg.Error)
		}
	}
	m.mu.Unlock()

	if ev != nil {
		m.emit(*ev)
	}
}

func (m *MPV) emit(e Event) {
	m.mu.Lock()
	handler, disposed := m.handler, m.disposed
	m.mu.Unlock()
	if handler == nil || disposed {
		return
	}
	handler(e)
}

func (m *MPV) Elapsed() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.elapsed
}

func (m *MPV) TotalDuration() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// Dispose asks mpv to quit and kills it if it has not exited within a few seconds.
func (m *MPV) Dispose() error {
	m.mu.Lock()
	if m.disposed {
		m.mu.Unlock()
		return nil
	}
	m.disposed = true
	m.handler = nil
	cmd, conn, started := m.cmd, m.ipc, m.started
	m.mu.Unlock()

	if !started {
		return nil
	}

	if conn != nil {
		_, _ = conn.send("quit")
	}

	select {
	case <-m.exited:
	case <-time.After(quitTimeout):
		_ = killProcess(cmd)
	}

	if conn != nil {
		_ = conn.close()
	}
	if err := os.Remove(m.socket); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove mpv socket: %w", err)
	}
	return nil
}

func buildArgs(opts MPVOptions, socket, media string) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--keep-open=no",
		fmt.Sprintf("--input-ipc-server=%s", socket),
	}
	if opts.NoVideo {
		args = append(args, "--no-video")
	} else {
		args = append(args, "--force-window=yes")
	}
	args = append(args, opts.ExtraArgs...)
	return append(args, media)
}

// mediaTarget maps a queue source id onto something mpv can open.
//
// "yt:<id>" and bare 11-character YouTube ids become watch URLs; http(s) URLs
// and file paths pass through after sanitizing.
func mediaTarget(sourceID string) (string, error) {
	s := strings.TrimSpace(sourceID)
	if id, ok := strings.CutPrefix(s, youtubePrefix); ok {
		if !youtubeID.MatchString(id) {
			return "", fmt.Errorf("%w: invalid youtube id %q", shared.ErrUnplayable, id)
		}
		return youtubeWatch + id, nil
	}
	if youtubeID.MatchString(s) && !strings.HasPrefix(s, "-") {
		return youtubeWatch + s, nil
	}

	media, err := sanitizeMediaTarget(s)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrUnplayable, err)
	}
	return media, nil
}

// sanitizeMediaTarget rejects anything mpv could read as a flag.
func sanitizeMediaTarget(link string) (string, error) {
	l := strings.TrimSpace(link)
	if l == "" {
		return "", fmt.Errorf("empty source")
	}
	if strings.ContainsAny(l, "\x00\n\r") {
		return "", fmt.Errorf("invalid control characters in source")
	}
	if strings.HasPrefix(l, "-") {
		return "", fmt.Errorf("source must not start with '-'")
	}

	if strings.Contains(l, "://") {
		u, err := url.Parse(l)
		if err != nil {
			return "", fmt.Errorf("invalid URL: %w", err)
		}
		switch strings.ToLower(u.Scheme) {
		case "http", "https":
			return l, nil
		default:
			return "", fmt.Errorf("unsupported URL scheme: %s", u.Scheme)
		}
	}
	return filepath.Clean(l), nil
}

var _ Capability = (*MPV)(nil)

package playback

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

const (
	socketWaitRetries = 20
	socketWaitDelay   = 150 * time.Millisecond
	writeDeadline     = time.Second
	maxMessageSize    = 1 << 20
)

// ipcCommand is the JSON structure sent to mpv's IPC socket.
type ipcCommand struct {
	Command   []any `json:"command"`
	RequestID int   `json:"request_id,omitempty"`
}

// ipcMessage is any newline-delimited JSON object mpv writes back: command replies and events.
type ipcMessage struct {
	Event     string          `json:"event"`
	Name      string          `json:"name"`
	Data      json.RawMessage `json:"data"`
	Reason    string          `json:"reason"`
	FileError string          `json:"file_error"`
	Error     string          `json:"error"`
	RequestID int             `json:"request_id"`
}

// ipcConn is a persistent connection to one mpv instance.
//
// Writes are serialized; replies and events are consumed by a single reader.
type ipcConn struct {
	conn   net.Conn
	mu     sync.Mutex
	nextID int
}

func dialIPC(socketPath string) (*ipcConn, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	return &ipcConn{conn: conn}, nil
}

// waitForSocket polls until socketPath accepts connections, exited closes, or the retries run out.
func waitForSocket(socketPath string, exited <-chan struct{}) (*ipcConn, error) {
	var lastErr error
	for range socketWaitRetries {
		select {
		case <-exited:
			return nil, fmt.Errorf("mpv exited before socket was ready")
		case <-time.After(socketWaitDelay):
		}

		c, err := dialIPC(socketPath)
		if err == nil {
			return c, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("socket %s not ready after %d attempts: %w", socketPath, socketWaitRetries, lastErr)
}

// send writes one command. Replies arrive on the read loop tagged with the returned request id.
func (c *ipcConn) send(args ...any) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextID++
	payload, err := json.Marshal(ipcCommand{Command: args, RequestID: c.nextID})
	if err != nil {
		return 0, fmt.Errorf("marshal: %w", err)
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
		return 0, fmt.Errorf("set deadline: %w", err)
	}
	if _, err := c.conn.Write(append(payload, '\n')); err != nil {
		return 0, fmt.Errorf("write: %w", err)
	}
	return c.nextID, nil
}

func (c *ipcConn) close() error { return c.conn.Close() }

// readMessages decodes newline-delimited messages from r until it fails or ends.
// Unparseable lines are skipped.
func readMessages(r io.Reader, handle func(ipcMessage)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxMessageSize)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg ipcMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			continue
		}
		handle(msg)
	}
	return scanner.Err()
}

// number decodes a numeric property payload; null and other kinds report false.
func (m ipcMessage) number() (float64, bool) {
	var f *float64
	if err := json.Unmarshal(m.Data, &f); err != nil || f == nil {
		return 0, false
	}
	return *f, true
}

func (m ipcMessage) flag() (bool, bool) {
	var b *bool
	if err := json.Unmarshal(m.Data, &b); err != nil || b == nil {
		return false, false
	}
	return *b, true
}

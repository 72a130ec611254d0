package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
	tu "github.com/desertthunder/ytxq/internal/testing"
)

const snapshotBody = `{
	"enabled": true,
	"current": {"id": 1, "sourceId": "v1", "title": "First", "durationSeconds": null, "requestedBy": "alice"},
	"queue": [{"id": 2, "sourceId": "v2", "title": null, "durationSeconds": 90, "requestedBy": "bob"}],
	"queueSize": 1,
	"totalQueuedDuration": 90
}`

func TestQueueClient(t *testing.T) {
	t.Run("NewQueueClient", func(t *testing.T) {
		t.Run("uses defaults", func(t *testing.T) {
			c := NewQueueClient(QueueClientOpts{})
			if c.baseURL != defaultQueueBaseURL {
				t.Errorf("expected baseURL %s, got %s", defaultQueueBaseURL, c.baseURL)
			}
			if c.httpClient != http.DefaultClient {
				t.Error("expected default http client")
			}
			if float64(c.limiter.Limit()) != defaultRateLimit {
				t.Errorf("expected default rate limit, got %v", c.limiter.Limit())
			}
		})

		t.Run("trims trailing slash", func(t *testing.T) {
			c := NewQueueClient(QueueClientOpts{BaseURL: "http://queue.local/"})
			if c.baseURL != "http://queue.local" {
				t.Errorf("expected trimmed baseURL, got %s", c.baseURL)
			}
		})
	})

	t.Run("FetchState", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/queue/some%20channel" && r.URL.EscapedPath() != "/api/queue/some%20channel" {
				t.Errorf("unexpected path %s", r.URL.EscapedPath())
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET method, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, snapshotBody)
		}))
		defer server.Close()

		c := NewQueueClient(QueueClientOpts{BaseURL: server.URL})
		snap, err := c.FetchState(context.Background(), "some channel")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if !snap.Enabled {
			t.Error("expected enabled snapshot")
		}
		if snap.CurrentID() != "1" {
			t.Errorf("expected current id 1, got %s", snap.CurrentID())
		}
		if len(snap.Queue) != 1 || snap.Queue[0].ID != "2" {
			t.Errorf("unexpected queue %+v", snap.Queue)
		}
		if snap.TotalQueuedDuration == nil || *snap.TotalQueuedDuration != 90 {
			t.Errorf("expected total queued duration 90, got %v", snap.TotalQueuedDuration)
		}
	})

	t.Run("FetchState requires owner", func(t *testing.T) {
		c := NewQueueClient(QueueClientOpts{})
		if _, err := c.FetchState(context.Background(), "  "); !errors.Is(err, shared.ErrMissingOwner) {
			t.Errorf("expected ErrMissingOwner, got %v", err)
		}
	})

	t.Run("Advance", func(t *testing.T) {
		tests := []struct {
			name      string
			completed models.ItemID
			wantBody  string
		}{
			{name: "with completed item", completed: "1", wantBody: `{"completedItemId":1}`},
			{name: "kickstart sends null", completed: "", wantBody: `{"completedItemId":null}`},
			{name: "string id", completed: "a-b", wantBody: `{"completedItemId":"a-b"}`},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if r.URL.Path != "/api/queue/chan/advance" {
						t.Errorf("unexpected path %s", r.URL.Path)
					}
					if r.Method != http.MethodPost {
						t.Errorf("expected POST method, got %s", r.Method)
					}
					if ct := r.Header.Get("Content-Type"); ct != "application/json" {
						t.Errorf("expected JSON content type, got %s", ct)
					}
					body, _ := io.ReadAll(r.Body)
					if strings.TrimSpace(string(body)) != tt.wantBody {
						t.Errorf("expected body %s, got %s", tt.wantBody, body)
					}
					io.WriteString(w, `{"enabled": true, "current": {"id": 2, "sourceId": "v2", "requestedBy": "bob"}, "queue": [], "queueSize": 0}`)
				}))
				defer server.Close()

				c := NewQueueClient(QueueClientOpts{BaseURL: server.URL})
				snap, err := c.Advance(context.Background(), "chan", tt.completed)
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if snap.CurrentID() != "2" {
					t.Errorf("expected current id 2, got %s", snap.CurrentID())
				}
			})
		}
	})

	t.Run("ReportDuration", func(t *testing.T) {
		var got durationRequest
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/queue/chan/duration" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
				t.Errorf("failed to decode body: %v", err)
			}
			w.WriteHeader(http.StatusNoContent)
		}))
		defer server.Close()

		c := NewQueueClient(QueueClientOpts{BaseURL: server.URL})
		if err := c.ReportDuration(context.Background(), "chan", "1", 120); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.ItemID != "1" || got.DurationSeconds != 120 {
			t.Errorf("unexpected request %+v", got)
		}

		if err := c.ReportDuration(context.Background(), "chan", "1", 0); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for zero duration, got %v", err)
		}
		if err := c.ReportDuration(context.Background(), "chan", "", 10); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument for missing id, got %v", err)
		}
	})

	t.Run("error responses", func(t *testing.T) {
		tests := []struct {
			name    string
			status  int
			body    string
			wantErr error
			wantMsg string
		}{
			{name: "detail message", status: http.StatusBadRequest, body: `{"detail": "queue disabled"}`, wantErr: shared.ErrAPIRequest, wantMsg: "queue disabled"},
			{name: "plain status", status: http.StatusInternalServerError, body: `oops`, wantErr: shared.ErrAPIRequest, wantMsg: "status 500"},
			{name: "not found", status: http.StatusNotFound, body: `{"detail": "no such owner"}`, wantErr: shared.ErrQueueNotFound, wantMsg: "no such owner"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					w.WriteHeader(tt.status)
					io.WriteString(w, tt.body)
				}))
				defer server.Close()

				c := NewQueueClient(QueueClientOpts{BaseURL: server.URL})
				_, err := c.FetchState(context.Background(), "chan")
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				if !strings.Contains(err.Error(), tt.wantMsg) {
					t.Errorf("expected error to contain %q, got %v", tt.wantMsg, err)
				}
			})
		}
	})

	t.Run("invalid JSON response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `{not json`)
		}))
		defer server.Close()

		c := NewQueueClient(QueueClientOpts{BaseURL: server.URL})
		if _, err := c.FetchState(context.Background(), "chan"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("transport failure", func(t *testing.T) {
		httpClient := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		c := NewQueueClient(QueueClientOpts{BaseURL: "http://queue.invalid", HTTPClient: httpClient})
		if _, err := c.FetchState(context.Background(), "chan"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("bearer token", func(t *testing.T) {
		var calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls.Add(1)
			if got := r.Header.Get("Authorization"); got != "Bearer s3cret" {
				t.Errorf("expected bearer token header, got %q", got)
			}
			io.WriteString(w, snapshotBody)
		}))
		defer server.Close()

		c := NewQueueClient(QueueClientOpts{BaseURL: server.URL, APIToken: "s3cret"})
		if _, err := c.FetchState(context.Background(), "chan"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if calls.Load() != 1 {
			t.Errorf("expected 1 call, got %d", calls.Load())
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		c := NewQueueClient(QueueClientOpts{BaseURL: "http://queue.invalid", RateLimit: 0.001})
		c.limiter.Allow()
		if _, err := c.FetchState(ctx, "chan"); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

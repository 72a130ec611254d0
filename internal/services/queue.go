// Queue service [QueueService] implementation over HTTP
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/ytxq/internal/models"
	"github.com/desertthunder/ytxq/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	defaultQueueBaseURL = "http://127.0.0.1:8000"
	defaultRateLimit    = 10.0
)

// QueueClientOpts contains configuration options for creating a QueueClient.
type QueueClientOpts struct {
	BaseURL    string
	APIToken   string        // optional bearer token
	HTTPClient *http.Client  // base client; defaults to [http.DefaultClient]
	Timeout    time.Duration // overall per-request timeout, 0 keeps the client's own
	RateLimit  float64       // requests per second, 0 uses the default
}

// QueueClient implements [QueueService] against the queue service REST API.
type QueueClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewQueueClient creates a new queue service client.
func NewQueueClient(opts QueueClientOpts) *QueueClient {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultQueueBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = defaultRateLimit
	}

	client := opts.HTTPClient
	if opts.APIToken != "" {
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, opts.HTTPClient)
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.APIToken, TokenType: "Bearer"})
		client = oauth2.NewClient(ctx, src)
	}
	if opts.Timeout > 0 {
		withTimeout := *client
		withTimeout.Timeout = opts.Timeout
		client = &withTimeout
	}

	burst := int(opts.RateLimit)
	if burst < 1 {
		burst = 1
	}

	return &QueueClient{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(opts.RateLimit), burst),
	}
}

type advanceRequest struct {
	CompletedItemID models.ItemID `json:"completedItemId"`
}

type durationRequest struct {
	ItemID          models.ItemID `json:"itemId"`
	DurationSeconds int           `json:"durationSeconds"`
}

// FetchState retrieves the queue snapshot for owner.
//
// Calls GET /api/queue/{owner}.
func (q *QueueClient) FetchState(ctx context.Context, owner string) (*models.QueueSnapshot, error) {
	endpoint, err := queuePath(owner, "")
	if err != nil {
		return nil, err
	}

	var snap models.QueueSnapshot
	if err := q.doRequest(ctx, http.MethodGet, endpoint, nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Advance asks the server to finish completed and promote the next item.
//
// Calls POST /api/queue/{owner}/advance.
func (q *QueueClient) Advance(ctx context.Context, owner string, completed models.ItemID) (*models.QueueSnapshot, error) {
	endpoint, err := queuePath(owner, "advance")
	if err != nil {
		return nil, err
	}

	var snap models.QueueSnapshot
	if err := q.doRequest(ctx, http.MethodPost, endpoint, advanceRequest{CompletedItemID: completed}, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// ReportDuration tells the server the measured duration of id.
//
// Calls POST /api/queue/{owner}/duration. The response body is ignored.
func (q *QueueClient) ReportDuration(ctx context.Context, owner string, id models.ItemID, seconds int) error {
	if id.IsZero() {
		return fmt.Errorf("%w: item id is required", shared.ErrInvalidArgument)
	}
	if seconds <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %d", shared.ErrInvalidArgument, seconds)
	}

	endpoint, err := queuePath(owner, "duration")
	if err != nil {
		return err
	}

	return q.doRequest(ctx, http.MethodPost, endpoint, durationRequest{ItemID: id, DurationSeconds: seconds}, nil)
}

func (q *QueueClient) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	if err := q.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate limiter: %v", shared.ErrAPIRequest, err)
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := q.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %s %s: %v", shared.ErrTimeout, method, endpoint, err)
		}
		return fmt.Errorf("%w: %s %s: %v", shared.ErrAPIRequest, method, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := shared.ErrAPIRequest
		if resp.StatusCode == http.StatusNotFound {
			kind = shared.ErrQueueNotFound
		}

		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: queue service error (status %d): %s", kind, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: queue service error: status %d", kind, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("%w: failed to decode response: %v", shared.ErrAPIRequest, err)
		}
	}

	return nil
}

func queuePath(owner, action string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", shared.ErrMissingOwner
	}

	endpoint := "/api/queue/" + url.PathEscape(owner)
	if action != "" {
		endpoint += "/" + action
	}
	return endpoint, nil
}

var _ QueueService = (*QueueClient)(nil)

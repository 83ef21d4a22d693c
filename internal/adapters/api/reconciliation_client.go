package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/andrescamacho/colonyforge/internal/adapters/metrics"
	"github.com/andrescamacho/colonyforge/internal/application/common"
	"github.com/andrescamacho/colonyforge/internal/domain/shared"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultMaxRetries      = 5
	defaultBackoffBase     = time.Second
	defaultBreakerFailures = 5
	defaultBreakerTimeout  = 30 * time.Second
)

// ReconciliationClient talks to the game backend's job endpoints. The server
// is the single source of truth for job identity, timestamps, locked costs
// and completion deltas; this client only transports and classifies.
//
// Server refusals arrive as an error envelope with a machine-readable code;
// recognized codes map to the domain error taxonomy so call sites can branch
// on errors.As instead of string matching.
type ReconciliationClient struct {
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	breaker     *CircuitBreaker
	metrics     *metrics.RequestMetrics
	baseURL     string
	maxRetries  int
	backoffBase time.Duration
	clock       shared.Clock
}

// NewReconciliationClient creates a client with default settings
// Rate limit: 4 requests per second with burst of 4
// Retry: max 5 attempts with 1s exponential backoff + jitter
func NewReconciliationClient(baseURL string) *ReconciliationClient {
	return NewReconciliationClientWithConfig(baseURL, defaultMaxRetries, defaultBackoffBase, nil)
}

// NewReconciliationClientWithConfig creates a client with custom configuration
// If clock is nil, uses RealClock for production
func NewReconciliationClientWithConfig(
	baseURL string,
	maxRetries int,
	backoffBase time.Duration,
	clock shared.Clock,
) *ReconciliationClient {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ReconciliationClient{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		rateLimiter: rate.NewLimiter(rate.Limit(4), 4),
		breaker:     NewCircuitBreaker(defaultBreakerFailures, defaultBreakerTimeout, clock),
		baseURL:     baseURL,
		maxRetries:  maxRetries,
		backoffBase: backoffBase,
		clock:       clock,
	}
}

// WithMetrics attaches request metrics to the client
func (c *ReconciliationClient) WithMetrics(m *metrics.RequestMetrics) *ReconciliationClient {
	c.metrics = m
	return c
}

// costLine is the wire shape of one locked-cost or yield row
type costLine struct {
	ID     string  `json:"id"`
	Amount float64 `json:"amount"`
}

func convertCostLines(lines []costLine) []common.CostLine {
	out := make([]common.CostLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, common.CostLine{Resource: line.ID, Amount: line.Amount})
	}
	return out
}

// StartJob asks the backend to begin a timed job
func (c *ReconciliationClient) StartJob(ctx context.Context, token string, req common.StartJobRequest) (*common.StartJobResponse, error) {
	body := map[string]interface{}{
		"targetId":        req.TargetID,
		"scope":           req.Scope,
		"correlationId":   req.CorrelationID,
		"durationSeconds": req.DurationSeconds,
	}

	var response struct {
		Data struct {
			JobID       string     `json:"jobId"`
			StartedAt   string     `json:"startedAt"`
			FinishAt    string     `json:"finishAt"`
			LockedCosts []costLine `json:"lockedCosts"`
		} `json:"data"`
	}

	if err := c.request(ctx, "POST", "/jobs/start", token, req.TargetID, req.CorrelationID, body, &response); err != nil {
		return nil, err
	}

	return &common.StartJobResponse{
		JobID:       response.Data.JobID,
		StartUTC:    response.Data.StartedAt,
		EndUTC:      response.Data.FinishAt,
		LockedCosts: convertCostLines(response.Data.LockedCosts),
	}, nil
}

// CompleteJob asks the backend to confirm a finished job and return the
// authoritative state delta
func (c *ReconciliationClient) CompleteJob(ctx context.Context, token, targetID, jobID, scope string) (*common.CompleteJobResponse, error) {
	body := map[string]interface{}{
		"targetId": targetID,
		"scope":    scope,
	}

	var response struct {
		Data struct {
			OwnedEntityID  string             `json:"ownedEntityId"`
			Resources      map[string]float64 `json:"resources"`
			CapacityDeltas map[string]float64 `json:"capacityDeltas"`
			Yield          []costLine         `json:"yield"`
		} `json:"data"`
	}

	path := fmt.Sprintf("/jobs/%s/complete", jobID)
	if err := c.request(ctx, "POST", path, token, targetID, jobID, body, &response); err != nil {
		return nil, err
	}

	return &common.CompleteJobResponse{
		StateDelta: common.StateDelta{
			OwnedEntityID:  response.Data.OwnedEntityID,
			Resources:      response.Data.Resources,
			CapacityDeltas: response.Data.CapacityDeltas,
		},
		YieldSummary: convertCostLines(response.Data.Yield),
	}, nil
}

// CancelJob asks the backend to cancel a running job and report the refund
func (c *ReconciliationClient) CancelJob(ctx context.Context, token, targetID, jobID, scope string) (*common.CancelJobResponse, error) {
	body := map[string]interface{}{
		"targetId": targetID,
		"scope":    scope,
	}

	var response struct {
		Data struct {
			LockedCosts []costLine `json:"lockedCosts"`
			Yield       []costLine `json:"yield"`
		} `json:"data"`
	}

	path := fmt.Sprintf("/jobs/%s/cancel", jobID)
	if err := c.request(ctx, "POST", path, token, targetID, jobID, body, &response); err != nil {
		return nil, err
	}

	return &common.CancelJobResponse{
		LockedCosts:  convertCostLines(response.Data.LockedCosts),
		YieldSummary: convertCostLines(response.Data.Yield),
	}, nil
}

// errorEnvelope is the backend's refusal shape
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Data    struct {
			Yield map[string]float64 `json:"yield"`
		} `json:"data"`
	} `json:"error"`
}

// classifyRefusal maps a 4xx error envelope to the domain error taxonomy.
// Unrecognized codes fall through to a generic error.
func classifyRefusal(status int, respBody []byte, targetID, jobID string) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(respBody, &envelope); err == nil {
		switch envelope.Error.Code {
		case "JOB_NOT_RUNNING", "JOB_NOT_FOUND":
			return shared.NewStaleJobError(targetID, jobID, envelope.Error.Data.Yield)
		case "NOT_FINISHED_YET":
			return shared.NewNotFinishedYetError(targetID, jobID)
		case "START_REJECTED", "INSUFFICIENT_RESOURCES", "ALREADY_OWNED":
			return shared.NewRejectedStartError(targetID, envelope.Error.Message)
		}
	}
	return fmt.Errorf("backend error (status %d): %s", status, string(respBody))
}

// addJitter adds random jitter to a duration to avoid thundering herd
// Returns a duration between 50% and 150% of the original value
func addJitter(d time.Duration) time.Duration {
	jitter := 0.5 + rand.Float64() // 0.5 to 1.5
	return time.Duration(float64(d) * jitter)
}

// request makes an HTTP request with rate limiting and exponential backoff
// retries. Only network errors, 429 and 5xx are retried; a 4xx refusal is
// classified and returned immediately.
func (c *ReconciliationClient) request(ctx context.Context, method, path, token, targetID, jobID string, body interface{}, result interface{}) error {
	url := c.baseURL + path

	if !c.breaker.Allow() {
		c.metrics.CircuitOpen()
		return fmt.Errorf("%s: %w", path, ErrCircuitOpen)
	}

	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		waitStart := time.Now()
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
		c.metrics.ObserveRateLimitWait(time.Since(waitStart).Seconds())

		var reqBody io.Reader
		if body != nil {
			jsonData, err := json.Marshal(body)
			if err != nil {
				return fmt.Errorf("failed to marshal request body: %w", err)
			}
			reqBody = bytes.NewBuffer(jsonData)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		reqStart := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.metrics.Retry(path, "network")
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}
		c.metrics.ObserveRequest(path, resp.StatusCode, time.Since(reqStart).Seconds())

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			var retryAfterDuration time.Duration
			if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
				if seconds, err := strconv.Atoi(retryAfter); err == nil {
					retryAfterDuration = time.Duration(seconds) * time.Second
				}
			}

			lastErr = fmt.Errorf("rate limited (429)")
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}

			backoffDelay := addJitter(c.backoffBase * time.Duration(1<<attempt))
			if retryAfterDuration > 0 {
				// Server-provided Retry-After wins, no jitter
				backoffDelay = retryAfterDuration
			}
			c.metrics.Retry(path, "rate_limited")
			c.clock.Sleep(backoffDelay)
			continue
		}

		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error (%d)", resp.StatusCode)
			if attempt >= c.maxRetries {
				break
			}
			if ctx.Err() != nil {
				return fmt.Errorf("context cancelled: %w", ctx.Err())
			}
			c.metrics.Retry(path, "server_error")
			c.clock.Sleep(addJitter(c.backoffBase * time.Duration(1<<attempt)))
			continue
		}

		if resp.StatusCode >= 400 {
			// The server answered; a refusal is not a transport failure
			c.breaker.RecordSuccess()
			return classifyRefusal(resp.StatusCode, respBody, targetID, jobID)
		}

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			c.breaker.RecordSuccess()
			return fmt.Errorf("backend error (status %d): %s", resp.StatusCode, string(respBody))
		}

		if result != nil {
			if err := json.Unmarshal(respBody, result); err != nil {
				return fmt.Errorf("failed to unmarshal response: %w", err)
			}
		}

		c.breaker.RecordSuccess()
		return nil
	}

	c.breaker.RecordFailure()
	if lastErr != nil {
		return fmt.Errorf("max retries exceeded: %w", lastErr)
	}
	return fmt.Errorf("max retries exceeded")
}

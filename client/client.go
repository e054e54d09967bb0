// Package client is the Go SDK for the light-heart game backend. It
// layers tiered delivery on top of plain HTTP: critical writes retry hard
// and queue up while offline, background reports are fire-and-forget.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hageshiame/light-heart/internal/apperr"
	"github.com/hageshiame/light-heart/internal/logger"
	model "github.com/hageshiame/light-heart/internal/models"
	"github.com/hageshiame/light-heart/internal/sign"
)

const defaultBackoffBase = time.Second

// periodicSyncInterval is how often StartPeriodicSync pushes auxiliary data.
const periodicSyncInterval = 5 * time.Minute

type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithBackoffBase scales the retry backoff; attempt n waits base * 2^n.
func WithBackoffBase(base time.Duration) Option {
	return func(c *Client) { c.backoffBase = base }
}

// WithQueueCapacity bounds the offline queue. Zero means unbounded.
func WithQueueCapacity(capacity int) Option {
	return func(c *Client) { c.queue = newSyncQueue(capacity) }
}

// WithScoreSecret enables local signing of score submissions.
func WithScoreSecret(secret string) Option {
	return func(c *Client) { c.scoreSecret = secret }
}

type Client struct {
	baseURL     string
	http        *http.Client
	backoffBase time.Duration
	scoreSecret string

	queue    *syncQueue
	detector *OfflineDetector

	mu       sync.Mutex
	token    string
	playerID string

	refreshMu sync.Mutex
	drainMu   sync.Mutex
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:     baseURL,
		http:        &http.Client{},
		backoffBase: defaultBackoffBase,
		queue:       newSyncQueue(0),
		detector:    NewOfflineDetector(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.detector.OnOnline(func() { go c.drainQueue() })
	return c
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// do performs one HTTP exchange with the tier's timeout. A 401 triggers
// exactly one token refresh and one replay; the replay runs with
// allowRefresh false so a second 401 surfaces as the auth error it is.
func (c *Client) do(ctx context.Context, method, path string, body []byte, tier Tier, allowRefresh bool) (json.RawMessage, error) {
	reqCtx, cancel := context.WithTimeout(ctx, tier.Timeout())
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperr.Internal("could not build request").Wrap(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Timeouts and connection failures are the only offline signal.
		c.detector.MarkOffline()
		return nil, apperr.Transient("NETWORK_ERROR", "request failed").Wrap(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.detector.MarkOffline()
		return nil, apperr.Transient("NETWORK_ERROR", "response unreadable").Wrap(err)
	}

	// Any response at all means the server is reachable.
	c.detector.MarkOnline()

	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized && allowRefresh {
		if err := c.refresh(ctx); err != nil {
			return nil, err
		}
		return c.do(ctx, method, path, body, tier, false)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, apperr.FromStatus(resp.StatusCode, env.Error, env.Message)
	}
	return env.Data, nil
}

// send delivers an operation at its tier: retry with exponential backoff
// while online, and park everything but background work in the offline
// queue when the budget or the connection runs out.
func (c *Client) send(ctx context.Context, method, path string, body []byte, tier Tier) (json.RawMessage, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		data, err := c.do(ctx, method, path, body, tier, true)
		if err == nil {
			return data, nil
		}
		lastErr = err
		if !apperr.IsRetryable(err) {
			return nil, err
		}
		if attempt >= tier.MaxRetries() || !c.detector.Online() {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}

	// Only critical and important work earns a queue slot; auxiliary
	// data is resent whole on the next periodic tick, background work
	// is simply lost.
	if tier == TierCritical || tier == TierImportant {
		if c.queue.push(&pendingOp{Method: method, Path: path, Body: body, Tier: tier}) {
			return nil, apperr.Transient("QUEUED", "operation queued for redelivery").Wrap(lastErr)
		}
	}
	return nil, lastErr
}

func (c *Client) backoff(retryCount int) time.Duration {
	return c.backoffBase << uint(retryCount)
}

// drainQueue replays queued operations in FIFO order after connectivity
// returns. Each op gets one attempt per drain; a transient failure costs
// one retry from its tier budget, a permanent failure drops it.
func (c *Client) drainQueue() {
	c.drainMu.Lock()
	defer c.drainMu.Unlock()

	ops := c.queue.drain()
	for i, op := range ops {
		if !c.detector.Online() {
			// Connection lost mid-drain: put the rest back untouched.
			for _, rest := range ops[i:] {
				c.queue.push(rest)
			}
			return
		}
		if op.RetryCount > 0 {
			time.Sleep(c.backoff(op.RetryCount - 1))
		}
		_, err := c.do(context.Background(), op.Method, op.Path, op.Body, op.Tier, true)
		if err == nil || !apperr.IsRetryable(err) {
			continue
		}
		op.RetryCount++
		if op.RetryCount > op.Tier.MaxRetries() {
			logger.Warning("Dropping queued %s %s after %d failed attempts", op.Method, op.Path, op.RetryCount)
			continue
		}
		c.queue.push(op)
	}
}

// refresh exchanges the current token for a fresh one. Single-flight: a
// burst of 401s performs one refresh, not one per request.
func (c *Client) refresh(ctx context.Context) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	data, err := c.do(ctx, http.MethodPost, "/api/auth/refresh-token", nil, TierImportant, false)
	if err != nil {
		return err
	}
	var resp model.RefreshTokenResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return apperr.Internal("refresh response undecodable").Wrap(err)
	}
	c.mu.Lock()
	c.token = resp.SessionToken
	c.mu.Unlock()
	return nil
}

func (c *Client) Token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) PlayerID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playerID
}

// Login exchanges a WeChat login code for a session and remembers the
// token and player id for every later call.
func (c *Client) Login(ctx context.Context, code string) (*model.LoginResponse, error) {
	body, _ := json.Marshal(model.LoginRequest{Code: code})
	data, err := c.do(ctx, http.MethodPost, "/api/auth/wechat-login", body, TierCritical, false)
	if err != nil {
		return nil, err
	}
	var resp model.LoginResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, apperr.Internal("login response undecodable").Wrap(err)
	}
	c.mu.Lock()
	c.token = resp.SessionToken
	c.playerID = resp.PlayerID
	c.mu.Unlock()
	return &resp, nil
}

// SubmitScore delivers a battle result at the critical tier, signing it
// when a score secret is configured.
func (c *Client) SubmitScore(ctx context.Context, req *model.SubmitScoreRequest) (*model.SubmitScoreResponse, error) {
	if req.PlayerID == "" {
		req.PlayerID = c.PlayerID()
	}
	if req.ClientTimestamp == 0 {
		req.ClientTimestamp = time.Now().UnixMilli()
	}
	if req.Signature == "" && c.scoreSecret != "" {
		req.Signature = sign.Score(c.scoreSecret, req.PlayerID, req.MapID, req.Score, req.ClientTimestamp)
	}

	body, _ := json.Marshal(req)
	data, err := c.send(ctx, http.MethodPost, "/api/leaderboard/submit-score", body, TierCritical)
	if err != nil {
		return nil, err
	}
	var resp model.SubmitScoreResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, apperr.Internal("submit response undecodable").Wrap(err)
	}
	return &resp, nil
}

// CreateRescueRequest opens a rescue request at the important tier.
func (c *Client) CreateRescueRequest(ctx context.Context, req *model.CreateRescueRequest) (*model.CreateRescueResponse, error) {
	if req.PlayerID == "" {
		req.PlayerID = c.PlayerID()
	}
	if req.FailedTime == 0 {
		req.FailedTime = time.Now().UnixMilli()
	}

	body, _ := json.Marshal(req)
	data, err := c.send(ctx, http.MethodPost, "/api/rescue/create-request", body, TierImportant)
	if err != nil {
		return nil, err
	}
	var resp model.CreateRescueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, apperr.Internal("rescue response undecodable").Wrap(err)
	}
	return &resp, nil
}

// CompleteRescueTask claims a rescue at the important tier.
func (c *Client) CompleteRescueTask(ctx context.Context, req *model.CompleteRescueRequest) (*model.CompleteRescueResponse, error) {
	if req.HeroID == "" {
		req.HeroID = c.PlayerID()
	}
	if req.CompletedTime == 0 {
		req.CompletedTime = time.Now().UnixMilli()
	}

	body, _ := json.Marshal(req)
	data, err := c.send(ctx, http.MethodPost, "/api/rescue/complete-task", body, TierImportant)
	if err != nil {
		return nil, err
	}
	var resp model.CompleteRescueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, apperr.Internal("rescue response undecodable").Wrap(err)
	}
	return &resp, nil
}

// CancelRescueRequest withdraws one of the player's pending requests.
func (c *Client) CancelRescueRequest(ctx context.Context, requestID string) error {
	body, _ := json.Marshal(model.CancelRescueRequest{RequestID: requestID, PlayerID: c.PlayerID()})
	_, err := c.send(ctx, http.MethodPost, "/api/rescue/cancel-request", body, TierImportant)
	return err
}

// BatchSync pushes an auxiliary data snapshot at the auxiliary tier.
func (c *Client) BatchSync(ctx context.Context, data model.SyncData) (*model.BatchSyncResponse, error) {
	if data.Timestamp == 0 {
		data.Timestamp = time.Now().UnixMilli()
	}
	body, _ := json.Marshal(model.BatchSyncRequest{PlayerID: c.PlayerID(), Data: data})
	raw, err := c.send(ctx, http.MethodPost, "/api/sync/batch-data", body, TierAuxiliary)
	if err != nil {
		return nil, err
	}
	var resp model.BatchSyncResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, apperr.Internal("sync response undecodable").Wrap(err)
	}
	return &resp, nil
}

// StartPeriodicSync pushes snapshots from provider every five minutes
// until ctx is cancelled. Failures ride the auxiliary tier's queueing;
// the loop itself never stops on error.
func (c *Client) StartPeriodicSync(ctx context.Context, provider func() model.SyncData) {
	go func() {
		ticker := time.NewTicker(periodicSyncInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_, _ = c.BatchSync(ctx, provider())
			}
		}
	}()
}

// ReportAnomaly fires a background anti-cheat report and returns
// immediately. Delivery runs on a detached goroutine with no retries
// and no queueing; a lost report is logged and dropped.
func (c *Client) ReportAnomaly(anomalyType string, details json.RawMessage) {
	body, _ := json.Marshal(model.AnomalyReport{
		PlayerID:    c.PlayerID(),
		AnomalyType: anomalyType,
		Details:     details,
		Timestamp:   time.Now().UnixMilli(),
	})
	go func() {
		if _, err := c.send(context.Background(), http.MethodPost, "/api/anticheat/report-anomaly", body, TierBackground); err != nil {
			logger.Warning("Anomaly report dropped: %v", err)
		}
	}()
}

// Status is a point-in-time view of the client's delivery state.
type Status struct {
	Online   bool   `json:"online"`
	Queued   int    `json:"queued"`
	PlayerID string `json:"playerId,omitempty"`
}

func (c *Client) Status() Status {
	return Status{
		Online:   c.detector.Online(),
		Queued:   c.queue.len(),
		PlayerID: c.PlayerID(),
	}
}

// SetOnline feeds a platform connectivity signal (WiFi toggles, airplane
// mode) into the detector. Going online drains the queue.
func (c *Client) SetOnline(online bool) {
	if online {
		c.detector.MarkOnline()
	} else {
		c.detector.MarkOffline()
	}
}

package planapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"investBack/internal/models"
)

// TokenSource supplies the bearer token for upstream calls. Session and
// device identity live outside this module; the client only consumes the
// capability.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed-token TokenSource, used for service credentials and
// in tests.
type StaticToken string

func (t StaticToken) Token(ctx context.Context) (string, error) { return string(t), nil }

// Config collects what the client needs to reach the plan API.
type Config struct {
	// BaseURL of the upstream plan service, e.g. https://api.example.com/v1
	BaseURL string
	Tokens  TokenSource
	Client  *http.Client
	Logger  *slog.Logger
}

// Client is the authoritative plan record accessor plus its sibling action
// calls. One instance is shared by all plan views.
type Client struct {
	baseURL    *url.URL
	tokens     TokenSource
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("planapi: base_url is required")
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 20 * time.Second}
	}
	tokens := cfg.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	return &Client{
		baseURL:    u,
		tokens:     tokens,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// GetPlan fetches a fresh snapshot of the plan.
func (c *Client) GetPlan(ctx context.Context, planID string) (models.Plan, error) {
	var plan models.Plan
	err := c.do(ctx, http.MethodGet, "/plan/"+planID, nil, nil, &plan)
	return plan, err
}

// Activate requests the combined payment intent pair for funding a PENDING
// plan.
func (c *Client) Activate(ctx context.Context, planID string) (models.PaymentIntentPair, error) {
	var pair models.PaymentIntentPair
	err := c.do(ctx, http.MethodPost, "/plan/"+planID+"/activate", nil, nil, &pair)
	return pair, err
}

// TopUp requests the payment intent pair for adding funds to an ACTIVE plan.
func (c *Client) TopUp(ctx context.Context, planID string, amount int64) (models.PaymentIntentPair, error) {
	var pair models.PaymentIntentPair
	body := map[string]any{"amount": amount}
	err := c.do(ctx, http.MethodPost, "/plan/"+planID+"/top-up", nil, body, &pair)
	return pair, err
}

// Rollover reinvests a matured plan; the result carries the new plan id.
func (c *Client) Rollover(ctx context.Context, planID string, option models.RolloverType) (models.RolloverResult, error) {
	var res models.RolloverResult
	body := map[string]any{"rolloverType": option}
	err := c.do(ctx, http.MethodPost, "/plan/"+planID+"/rollover", nil, body, &res)
	return res, err
}

// Liquidate initiates a liquidation; the returned intent id must be
// PIN-authorized before the payout is dispatched.
func (c *Client) Liquidate(ctx context.Context, planID string, amount int64, isFull bool) (models.LiquidateResult, error) {
	var res models.LiquidateResult
	body := map[string]any{"amount": amount, "isFull": isFull}
	err := c.do(ctx, http.MethodPost, "/plan/"+planID+"/liquidate", nil, body, &res)
	return res, err
}

// LiquidationSummary asks the server for the payout breakdown of the
// requested liquidation.
func (c *Client) LiquidationSummary(ctx context.Context, planID string, amount int64, isFull bool) (models.LiquidationSummary, error) {
	var summary models.LiquidationSummary
	q := url.Values{}
	q.Set("amount", strconv.FormatInt(amount, 10))
	q.Set("isFull", strconv.FormatBool(isFull))
	err := c.do(ctx, http.MethodGet, "/plan/"+planID+"/liquidation-summary", q, nil, &summary)
	return summary, err
}

// Withdraw closes a matured plan and pays out everything.
func (c *Client) Withdraw(ctx context.Context, planID string) error {
	return c.do(ctx, http.MethodPost, "/plan/"+planID+"/withdraw", nil, nil, nil)
}

// AuthorizeIntent finalises an irreversible action with the user's PIN.
func (c *Client) AuthorizeIntent(ctx context.Context, intentID, pin string) error {
	body := map[string]any{"method": "PIN", "pin": pin}
	return c.do(ctx, http.MethodPost, "/intent/"+intentID+"/authorize", nil, body, nil)
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values, body, out any) error {
	u := *c.baseURL
	u.Path = path.Join(u.Path, endpoint)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("plan api request: %w", err)
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode == http.StatusNotFound {
		return models.ErrPlanNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(b)}
	}
	c.decodeLenient(b, out)
	return nil
}

// decodeLenient treats any 2xx response as success even when the body does
// not parse as expected. Provider webhooks update the server asynchronously
// and some action endpoints answer with empty or free-form bodies; rejecting
// those would fail operations that actually succeeded. The leniency lives
// only here so call sites stay strict about transport errors.
func (c *Client) decodeLenient(body []byte, out any) {
	if out == nil || len(body) == 0 {
		return
	}
	if err := json.Unmarshal(body, out); err != nil {
		c.logger.Debug("plan api: ignoring unparseable success body",
			"error", err, "body", trim(string(body), 512))
	}
}

func trim(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

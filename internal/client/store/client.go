// Package store is the HTTP client of the negotiation API. It implements
// session.Store and maps error responses back to negotiation sentinels.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	api "github.com/agrilink/negotiation-service/internal/generated"
	"github.com/agrilink/negotiation-service/internal/infra"
	"github.com/agrilink/negotiation-service/internal/model"
	"github.com/agrilink/negotiation-service/internal/negotiation"
)

const defaultTimeout = 10 * time.Second

type Config struct {
	BaseURL string
	// Token is sent as a bearer token. When empty, UserID is sent in the
	// gateway header instead.
	Token   string
	UserID  string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	token      string
	userID     string
	httpClient *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		userID:  cfg.UserID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) Start(ctx context.Context, req api.StartNegotiationRequest) (*model.Negotiation, error) {
	var chat model.Negotiation
	if err := c.do(ctx, http.MethodPost, "/api/negotiations", req, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// List returns the caller's negotiations, newest first. An empty status
// returns all of them.
func (c *Client) List(ctx context.Context, status model.NegotiationStatus, limit int) (model.NegotiationList, error) {
	query := url.Values{}
	if status != "" {
		query.Set("status", string(status))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/negotiations"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var response struct {
		Negotiations model.NegotiationList `json:"negotiations"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, err
	}
	return response.Negotiations, nil
}

func (c *Client) GetByID(ctx context.Context, chatID string) (*model.Negotiation, error) {
	var chat model.Negotiation
	if err := c.do(ctx, http.MethodGet, negotiationPath(chatID, ""), nil, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) GetMessages(ctx context.Context, chatID string) (model.MessageList, error) {
	var response struct {
		Messages model.MessageList `json:"messages"`
	}
	if err := c.do(ctx, http.MethodGet, negotiationPath(chatID, "messages"), nil, &response); err != nil {
		return nil, err
	}
	return response.Messages, nil
}

func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*model.NegotiationMessage, error) {
	var msg model.NegotiationMessage
	if err := c.do(ctx, http.MethodPost, negotiationPath(chatID, "messages"), api.SendMessageRequest{Text: text}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) Counter(ctx context.Context, chatID string, price float64) (*model.NegotiationMessage, error) {
	var msg model.NegotiationMessage
	if err := c.do(ctx, http.MethodPost, negotiationPath(chatID, "counter"), api.CounterOfferRequest{Price: price}, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (c *Client) Accept(ctx context.Context, chatID, expectedOfferID string) (*model.Negotiation, error) {
	return c.decide(ctx, chatID, "accept", expectedOfferID)
}

func (c *Client) Reject(ctx context.Context, chatID, expectedOfferID string) (*model.Negotiation, error) {
	return c.decide(ctx, chatID, "reject", expectedOfferID)
}

func (c *Client) Checkout(ctx context.Context, chatID string) (*model.CheckoutHandoff, error) {
	var handoff model.CheckoutHandoff
	if err := c.do(ctx, http.MethodPost, negotiationPath(chatID, "checkout"), nil, &handoff); err != nil {
		return nil, err
	}
	return &handoff, nil
}

// ConnectToken returns a token for opening the realtime socket.
func (c *Client) ConnectToken(ctx context.Context) (string, error) {
	var response api.GetConnectAccessTokenResponse
	if err := c.do(ctx, http.MethodGet, "/api/realtime/token", nil, &response); err != nil {
		return "", err
	}
	return response.Token, nil
}

// SubscribeToken returns a token for joining the room of chatID.
func (c *Client) SubscribeToken(ctx context.Context, chatID string) (string, error) {
	var response api.GetSubscribeTokenResponse
	if err := c.do(ctx, http.MethodGet, negotiationPath(chatID, "subscribe-token"), nil, &response); err != nil {
		return "", err
	}
	return response.Token, nil
}

func (c *Client) decide(ctx context.Context, chatID, outcome, expectedOfferID string) (*model.Negotiation, error) {
	var body interface{}
	if expectedOfferID != "" {
		body = api.DecisionRequest{ExpectedOfferId: &expectedOfferID}
	}

	var chat model.Negotiation
	if err := c.do(ctx, http.MethodPost, negotiationPath(chatID, outcome), body, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.userID != "" {
		req.Header.Set(infra.UserHeader, c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", negotiation.ErrNetworkFailure, method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // .

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response: %v", negotiation.ErrNetworkFailure, err)
	}

	return nil
}

// decodeError turns an error response into the sentinel its code names.
// Server failures without a known code count as calls that did not complete.
func decodeError(resp *http.Response) error {
	var body api.Error
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		body.Error = http.StatusText(resp.StatusCode)
	}

	if sentinel := negotiation.FromCode(body.Code); sentinel != nil {
		return fmt.Errorf("%w: %s", sentinel, body.Error)
	}

	if sentinel, ok := statusErrors[resp.StatusCode]; ok {
		return fmt.Errorf("%w: status %d: %s", sentinel, resp.StatusCode, body.Error)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: status %d: %s", negotiation.ErrNetworkFailure, resp.StatusCode, body.Error)
	}

	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body.Error)
}

// statusErrors classifies error responses that carry no known code, such as
// those written by proxies or the auth middleware.
var statusErrors = map[int]error{
	http.StatusBadRequest:          negotiation.ErrInvalidInput,
	http.StatusUnauthorized:        negotiation.ErrForbidden,
	http.StatusForbidden:           negotiation.ErrForbidden,
	http.StatusNotFound:            negotiation.ErrNotFound,
	http.StatusConflict:            negotiation.ErrConflict,
	http.StatusGone:                negotiation.ErrCheckoutExpired,
	http.StatusUnprocessableEntity: negotiation.ErrInvalidState,
}

func negotiationPath(chatID, action string) string {
	path := "/api/negotiations/" + url.PathEscape(chatID)
	if action != "" {
		path += "/" + action
	}
	return path
}

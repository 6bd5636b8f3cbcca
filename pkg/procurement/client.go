// Package procurement submits purchase orders to the external procurement API.
package procurement

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"replenishment-service/pkg/config"
	"replenishment-service/pkg/credential"
	"replenishment-service/pkg/logger"
	"replenishment-service/prometheus"
)

// Client talks to the procurement API with a refreshable OAuth token pair
type Client struct {
	BaseURL      string
	TokenURL     string
	OrderPath    string
	ClientID     string
	ClientSecret string
	// BootstrapRefreshToken is used when the store holds no token pair yet
	BootstrapRefreshToken string
	HTTPClient            *http.Client
	Store                 credential.Store
	Logger                *zap.Logger
}

// TokenResponse represents the response from the OAuth token endpoint
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

// ErrorResponse represents an OAuth error response
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// NewClient creates a procurement client from configuration
func NewClient(cfg *config.ProcurementConfig, store credential.Store, log *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		BaseURL:               cfg.BaseURL,
		TokenURL:              cfg.TokenURL,
		OrderPath:             cfg.OrderPath,
		ClientID:              cfg.ClientID,
		ClientSecret:          cfg.ClientSecret,
		BootstrapRefreshToken: cfg.RefreshToken,
		HTTPClient:            &http.Client{Timeout: timeout},
		Store:                 store,
		Logger:                logger.OrNop(log),
	}
}

type state int

const (
	stateDryRun state = iota
	stateAuthenticate
	stateRefreshToken
	stateSend
	stateDone
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateDryRun:
		return "dry_run"
	case stateAuthenticate:
		return "authenticate"
	case stateRefreshToken:
		return "refresh_token"
	case stateSend:
		return "send"
	case stateDone:
		return "done"
	default:
		return "failed"
	}
}

// maxSends bounds the POST attempts per order: the first one plus a single
// retry after a 401.
const maxSends = 2

// Submit sends one order. With dryRun set the payload is only logged and no
// HTTP call is made. Errors are *AuthError, *APIError or *TransportError.
func (c *Client) Submit(ctx context.Context, order Order, dryRun bool) (*Confirmation, error) {
	payload, err := order.Payload()
	if err != nil {
		return nil, fmt.Errorf("encode order for supplier %s: %w", order.SupplierID, err)
	}
	key := order.IdempotencyKey
	if key == "" {
		key = uuid.NewString()
	}

	log := logger.FromContextOr(ctx, c.Logger).With(
		zap.String("supplier_id", order.SupplierID),
		zap.String("supplier", order.SupplierName),
		zap.String("idempotency_key", key))

	var (
		tokens  credential.TokenState
		sends   int
		result  *Confirmation
		failure error
	)

	current := stateAuthenticate
	if dryRun {
		current = stateDryRun
	}

	for current != stateDone && current != stateFailed {
		log.Debug("Submission state", zap.Stringer("state", current))

		switch current {
		case stateDryRun:
			log.Info("Dry run, order not sent",
				zap.Int("items", len(order.Items)),
				zap.ByteString("payload", payload))
			result = &Confirmation{DryRun: true, IdempotencyKey: key, Payload: payload}
			current = stateDone

		case stateAuthenticate:
			tokens, err = c.Store.Load(ctx)
			if err != nil && !errors.Is(err, credential.ErrNotFound) {
				failure = &AuthError{Reason: "load token state", Err: err}
				current = stateFailed
				break
			}
			if tokens.Complete() {
				current = stateSend
				break
			}
			if tokens.RefreshToken == "" {
				tokens.RefreshToken = c.BootstrapRefreshToken
			}
			current = stateRefreshToken

		case stateRefreshToken:
			fresh, err := c.RefreshToken(ctx, tokens.RefreshToken)
			if err != nil {
				failure = err
				current = stateFailed
				break
			}
			if err := c.Store.Save(ctx, fresh); err != nil {
				// the new pair still works for this run
				log.Error("Failed to persist refreshed tokens", zap.Error(err))
			}
			tokens = fresh
			current = stateSend

		case stateSend:
			sends++
			status, body, err := c.post(ctx, tokens.AccessToken, payload, key)
			switch {
			case err != nil:
				failure = &TransportError{Err: err}
				current = stateFailed
			case status >= 200 && status < 300:
				result = &Confirmation{
					OrderID:        parseOrderID(body),
					StatusCode:     status,
					IdempotencyKey: key,
					Payload:        payload,
				}
				current = stateDone
			case status == http.StatusUnauthorized && sends < maxSends:
				log.Info("Access token rejected, refreshing")
				current = stateRefreshToken
			default:
				failure = &APIError{Status: status, Body: string(body)}
				current = stateFailed
			}
		}
	}

	outcome := submissionOutcome(dryRun, failure)
	prometheus.RecordSubmission(outcome)
	if failure != nil {
		log.Error("Order submission failed", zap.Int("attempts", sends), zap.Error(failure))
		return nil, failure
	}
	log.Info("Order submission finished",
		zap.String("outcome", outcome),
		zap.Int("attempts", sends),
		zap.String("order_id", result.OrderID))
	return result, nil
}

// RefreshToken exchanges a refresh token for a new token pair. A response
// without a refresh token keeps the old one.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (credential.TokenState, error) {
	if refreshToken == "" {
		prometheus.RecordTokenRefresh("failure")
		return credential.TokenState{}, &AuthError{Reason: "no refresh token available"}
	}

	data := url.Values{}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	tokenResp, err := c.requestToken(ctx, data)
	if err != nil {
		prometheus.RecordTokenRefresh("failure")
		return credential.TokenState{}, err
	}

	state := credential.TokenState{AccessToken: tokenResp.AccessToken, RefreshToken: tokenResp.RefreshToken}
	if state.RefreshToken == "" {
		state.RefreshToken = refreshToken
	}
	prometheus.RecordTokenRefresh("success")
	return state, nil
}

func (c *Client) requestToken(ctx context.Context, data url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TokenURL, bytes.NewBufferString(data.Encode()))
	if err != nil {
		return nil, &AuthError{Reason: "create token request", Err: err}
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Basic "+c.basicAuth())

	log := logger.FromContextOr(ctx, c.Logger)
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Error("Token request failed", zap.Error(err))
		return nil, &AuthError{Reason: "token request", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &AuthError{Status: resp.StatusCode, Reason: "read token response", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		var errorResp ErrorResponse
		if err := json.Unmarshal(body, &errorResp); err != nil || errorResp.Error == "" {
			log.Error("Token request rejected",
				zap.Int("status_code", resp.StatusCode),
				zap.String("response", string(body)))
			return nil, &AuthError{Status: resp.StatusCode, Reason: string(body)}
		}
		log.Error("Token request error",
			zap.String("error", errorResp.Error),
			zap.String("description", errorResp.ErrorDescription))
		return nil, &AuthError{
			Status: resp.StatusCode,
			Reason: fmt.Sprintf("%s - %s", errorResp.Error, errorResp.ErrorDescription),
		}
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, &AuthError{Status: resp.StatusCode, Reason: "parse token response", Err: err}
	}
	if tokenResp.AccessToken == "" {
		return nil, &AuthError{Status: resp.StatusCode, Reason: "token response has no access_token"}
	}

	log.Info("Token refresh successful")
	return &tokenResp, nil
}

func (c *Client) post(ctx context.Context, accessToken string, payload []byte, idempotencyKey string) (int, []byte, error) {
	endpoint := strings.TrimRight(c.BaseURL, "/") + "/" + strings.TrimLeft(c.OrderPath, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Idempotency-Key", idempotencyKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func (c *Client) basicAuth() string {
	return base64.StdEncoding.EncodeToString([]byte(c.ClientID + ":" + c.ClientSecret))
}

// parseOrderID reads the created order id from either {"id": ...} or
// {"data": {"id": ...}}
func parseOrderID(body []byte) string {
	var created struct {
		ID   json.RawMessage `json:"id"`
		Data struct {
			ID json.RawMessage `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		return ""
	}
	raw := created.Data.ID
	if len(raw) == 0 {
		raw = created.ID
	}
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	return strings.Trim(string(raw), `"`)
}

func submissionOutcome(dryRun bool, err error) string {
	var (
		authErr      *AuthError
		apiErr       *APIError
		transportErr *TransportError
	)
	switch {
	case err == nil && dryRun:
		return "dry_run"
	case err == nil:
		return "created"
	case errors.As(err, &authErr):
		return "auth_error"
	case errors.As(err, &apiErr):
		return "api_error"
	case errors.As(err, &transportErr):
		return "transport_error"
	default:
		return "error"
	}
}

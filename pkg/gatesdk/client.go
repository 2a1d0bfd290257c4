package gatesdk

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
)

// SDKClient is a client for the gate service. It covers the unauthenticated
// endpoints and creates authenticated Sessions.
type SDKClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewSDKClient creates a gate service client.
func NewSDKClient(baseURL string) *SDKClient {
	return &SDKClient{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Register creates a new identity and returns a Session holding its first
// token.
func (c *SDKClient) Register(ctx context.Context, email, name string) (*Session, RegisterResponse, error) {
	var resp RegisterResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/register", RegisterRequest{Email: email, Name: name}, "", &resp)
	if err != nil {
		return nil, RegisterResponse{}, err
	}
	return c.NewSessionFromToken(resp.AccessToken), resp, nil
}

// PhoneLogin starts a phone login; a passcode goes out over SMS.
func (c *SDKClient) PhoneLogin(ctx context.Context, phone string) (PhoneLoginResponse, error) {
	var resp PhoneLoginResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/phone", PhoneLoginRequest{Phone: phone}, "", &resp)
	return resp, err
}

// VerifyPhone completes a phone login with the received passcode.
func (c *SDKClient) VerifyPhone(ctx context.Context, phone, code string) (*Session, error) {
	var resp TokenResponse
	err := c.doJSON(ctx, http.MethodPost, "/v1/auth/phone/verify", PhoneVerifyRequest{Phone: phone, Code: code}, "", &resp)
	if err != nil {
		return nil, err
	}
	return c.NewSessionFromToken(resp.AccessToken), nil
}

// NewSessionFromToken creates an authenticated session from an existing
// session token, for callers that stored one from a previous login.
func (c *SDKClient) NewSessionFromToken(token string) *Session {
	return &Session{client: c, token: token}
}

// Health fetches the readiness state of the service.
func (c *SDKClient) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.doJSON(ctx, http.MethodGet, "/readyz", nil, "", &resp)
	return resp, err
}

// Session is an authenticated view of the gate service bound to one session
// token.
type Session struct {
	client *SDKClient
	token  string
}

// Token returns the raw session token for storage.
func (s *Session) Token() string { return s.token }

// Authenticate asks the gate whether the session holder may proceed. The
// userAgent should be the browser user agent of the end client, not this
// SDK's.
func (s *Session) Authenticate(ctx context.Context, userAgent string) (DecisionResponse, error) {
	return s.doDecision(ctx, "/v1/gate/authenticate", nil, userAgent)
}

// SubmitChallenge submits a passcode received out of band.
func (s *Session) SubmitChallenge(ctx context.Context, code, userAgent string) (DecisionResponse, error) {
	return s.doDecision(ctx, "/v1/gate/challenge", ChallengeRequest{Code: code}, userAgent)
}

// doDecision posts to a gate endpoint. Denials come back with 4xx statuses
// but still carry a decision body; those are decisions, not transport errors.
func (s *Session) doDecision(ctx context.Context, path string, body any, userAgent string) (DecisionResponse, error) {
	var resp DecisionResponse
	err := s.client.doJSONUA(ctx, http.MethodPost, path, body, s.token, userAgent, &resp)
	if err != nil {
		var gerr *GateError
		if errors.As(err, &gerr) && gerr.Decision != nil {
			return *gerr.Decision, nil
		}
		return DecisionResponse{}, err
	}
	return resp, nil
}

// CheckWindow reports whether an operation class is open right now.
func (s *Session) CheckWindow(ctx context.Context, operation, userAgent string) (WindowResponse, error) {
	var resp WindowResponse
	path := "/v1/gate/window?op=" + url.QueryEscape(operation)
	err := s.client.doJSONUA(ctx, http.MethodGet, path, nil, s.token, userAgent, &resp)
	return resp, err
}

// Me fetches the session holder's profile.
func (s *Session) Me(ctx context.Context) (ProfileResponse, error) {
	var resp ProfileResponse
	err := s.client.doJSON(ctx, http.MethodGet, "/v1/me", nil, s.token, &resp)
	return resp, err
}

// DailyLimit fetches the current daily posting ceiling.
func (s *Session) DailyLimit(ctx context.Context) (LimitResponse, error) {
	var resp LimitResponse
	err := s.client.doJSON(ctx, http.MethodGet, "/v1/me/limit", nil, s.token, &resp)
	return resp, err
}

// Logins fetches the newest login records for the session holder.
func (s *Session) Logins(ctx context.Context) (LoginHistoryResponse, error) {
	var resp LoginHistoryResponse
	err := s.client.doJSON(ctx, http.MethodGet, "/v1/me/logins", nil, s.token, &resp)
	return resp, err
}

// ActivateSubscription puts the session holder on a paid plan.
func (s *Session) ActivateSubscription(ctx context.Context, plan string, months int) (SubscriptionResponse, error) {
	var resp SubscriptionResponse
	err := s.client.doJSON(ctx, http.MethodPost, "/v1/subscriptions", SubscriptionRequest{Plan: plan, Months: months}, s.token, &resp)
	return resp, err
}

func (c *SDKClient) doJSON(ctx context.Context, method, path string, body any, token string, out any) error {
	return c.doJSONUA(ctx, method, path, body, token, "", out)
}

func (c *SDKClient) doJSONUA(ctx context.Context, method, path string, body any, token, userAgent string, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if userAgent != "" {
		req.Header.Set("User-Agent", userAgent)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return parseErrorResponse(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// parseErrorResponse turns a non-2xx response into a GateError. Bodies that
// are not the standard error shape still yield a usable error.
func parseErrorResponse(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	var dec DecisionResponse
	if err := json.Unmarshal(raw, &dec); err == nil && dec.Status != "" {
		return &GateError{
			StatusCode:  resp.StatusCode,
			Code:        dec.Reason,
			Description: "the gate denied the request",
			Decision:    &dec,
		}
	}

	var gerr GateError
	if err := json.Unmarshal(raw, &gerr); err == nil && gerr.Code != "" {
		gerr.StatusCode = resp.StatusCode
		return &gerr
	}

	return &GateError{
		StatusCode:  resp.StatusCode,
		Code:        ErrorCodeServerError,
		Description: fmt.Sprintf("unexpected response %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
	}
}

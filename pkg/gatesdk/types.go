package gatesdk

// RegisterRequest creates a new identity from an email credential.
type RegisterRequest struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// RegisterResponse carries the new identity and its first session token.
type RegisterResponse struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// PhoneLoginRequest starts a phone login by sending a passcode over SMS.
type PhoneLoginRequest struct {
	Phone string `json:"phone"`
}

// PhoneLoginResponse acknowledges the passcode send.
type PhoneLoginResponse struct {
	UserID    string `json:"user_id"`
	ExpiresIn int    `json:"expires_in"`
}

// PhoneVerifyRequest completes a phone login with the received passcode.
type PhoneVerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

// TokenResponse carries a freshly issued session token.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// DecisionResponse is the gate's verdict for an authenticate or challenge
// submission.
type DecisionResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	UserID string `json:"user_id,omitempty"`

	// Window is the applicable access window on time_restricted denials,
	// formatted "HH:MM-HH:MM".
	Window string `json:"window,omitempty"`
}

// ChallengeRequest submits a passcode received out of band.
type ChallengeRequest struct {
	Code string `json:"code"`
}

// WindowResponse reports whether an operation class is currently open.
type WindowResponse struct {
	Operation string `json:"operation"`
	Allowed   bool   `json:"allowed"`
	Window    string `json:"window"`
}

// ProfileResponse is the authenticated user's own view of their identity.
// DailyPostLimit is a number or the string "unlimited".
type ProfileResponse struct {
	UserID         string `json:"user_id"`
	Email          string `json:"email,omitempty"`
	Phone          string `json:"phone,omitempty"`
	Name           string `json:"name,omitempty"`
	Plan           string `json:"plan"`
	FriendCount    int    `json:"friend_count"`
	DailyPostLimit any    `json:"daily_post_limit"`
}

// LimitResponse reports the daily posting ceiling. Limit is a number or the
// string "unlimited".
type LimitResponse struct {
	Limit any `json:"daily_post_limit"`
}

// LoginRecordResponse is one row of the login history read-back.
type LoginRecordResponse struct {
	At          string `json:"at"`
	AgentFamily string `json:"agent_family,omitempty"`
	DeviceClass string `json:"device_class"`
	SourceAddr  string `json:"source_addr,omitempty"`
}

// LoginHistoryResponse wraps the newest-first login records.
type LoginHistoryResponse struct {
	Logins []LoginRecordResponse `json:"logins"`
}

// SubscriptionRequest activates a paid plan.
type SubscriptionRequest struct {
	Plan   string `json:"plan"`
	Months int    `json:"months"`
}

// SubscriptionResponse confirms an activation.
type SubscriptionResponse struct {
	Plan     string `json:"plan"`
	StartsAt string `json:"starts_at"`
	EndsAt   string `json:"ends_at"`
}

// HealthResponse is returned by the health endpoints.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports per-dependency readiness.
type HealthChecks struct {
	Database string `json:"database"`
}

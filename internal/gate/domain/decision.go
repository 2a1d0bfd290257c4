package domain

// Status is the gate's per-request verdict. Transient, computed per request,
// never persisted.
type Status string

const (
	StatusAllowed           Status = "allowed"
	StatusChallengeRequired Status = "challenge_required"
	StatusDenied            Status = "denied"
)

// Reason codes attached to non-allowed decisions so callers can present the
// correct remediation (re-login, show passcode form, "try again later").
type Reason string

const (
	ReasonInvalidCredential    Reason = "invalid_credential"
	ReasonUserNotFound         Reason = "user_not_found"
	ReasonChallengeRequired    Reason = "challenge_required"
	ReasonInvalidOrExpiredCode Reason = "invalid_or_expired_code"
	ReasonTimeRestricted       Reason = "time_restricted"
	ReasonDependencyFailure    Reason = "dependency_unavailable"
)

// Decision is what the gate hands back for each request.
type Decision struct {
	Status Status
	Reason Reason // empty when Status is Allowed

	// UserID of the resolved identity, set once the credential verified
	// regardless of the final verdict.
	UserID string

	// Window describes the applicable access window on time_restricted
	// denials so the UI can explain when to retry.
	Window string
}

// Operation is a category of restricted action, each with its own window.
type Operation string

const (
	OpLogin        Operation = "login"
	OpSubscription Operation = "subscription"
	OpVideoUpload  Operation = "video_upload"
)

// ValidOperation reports whether op names a known operation class.
func ValidOperation(op Operation) bool {
	switch op {
	case OpLogin, OpSubscription, OpVideoUpload:
		return true
	}
	return false
}

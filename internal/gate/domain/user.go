package domain

import "time"

// Plan is the subscription tier a user is on. The zero-ish default is free.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanBronze Plan = "bronze"
	PlanSilver Plan = "silver"
	PlanGold   Plan = "gold"
)

// ValidPlan reports whether p is one of the known tiers.
func ValidPlan(p Plan) bool {
	switch p {
	case PlanFree, PlanBronze, PlanSilver, PlanGold:
		return true
	}
	return false
}

// Subscription describes a user's current tier. Active iff EndsAt is set and
// in the future; the plan name alone means nothing without an end date.
type Subscription struct {
	Plan     Plan
	StartsAt *time.Time
	EndsAt   *time.Time
}

// ActiveAt reports whether the subscription is active at the given time.
func (s Subscription) ActiveAt(now time.Time) bool {
	return s.EndsAt != nil && s.EndsAt.After(now)
}

// User is the persisted identity the gate operates on. Email and phone are
// each optional but unique; at least one must be present to deliver
// passcodes. At most one non-expired passcode exists per user at any time,
// and setting a new one overwrites any prior one.
type User struct {
	ID    string
	Email string // optional, unique
	Phone string // optional, unique
	Name  string

	PasscodeHash      *string    // SHA-256 fingerprint of the active passcode (nullable)
	PasscodeExpiresAt *time.Time // nullable; cleared together with the hash

	Subscription Subscription
	FriendCount  int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// PasscodeDestination returns the preferred delivery destination: email when
// present, otherwise phone. The boolean reports whether any destination
// exists at all.
func (u User) PasscodeDestination() (dest string, viaEmail bool, ok bool) {
	if u.Email != "" {
		return u.Email, true, true
	}
	if u.Phone != "" {
		return u.Phone, false, true
	}
	return "", false, false
}

// LoginRecord is one append-only entry in a user's login history. Entries
// are never removed.
type LoginRecord struct {
	ID          string
	UserID      string
	At          time.Time
	AgentFamily string
	DeviceClass string
	SourceAddr  string
}

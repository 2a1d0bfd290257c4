// Package notify holds the outbound delivery collaborators. The gate treats
// them as black boxes: a send either succeeds or fails, and the caller never
// blocks its own decision on the outcome.
package notify

import "context"

// Notifier delivers a short-lived passcode to a destination (an email
// address or a phone number, depending on the implementation).
type Notifier interface {
	SendCode(ctx context.Context, destination, code string) error
}

// SubscriptionMailer sends the plan confirmation after a subscription is
// recorded. Only the email channel implements this.
type SubscriptionMailer interface {
	SendSubscriptionConfirmation(ctx context.Context, destination string, details SubscriptionDetails) error
}

// SubscriptionDetails is the payload for the confirmation email.
type SubscriptionDetails struct {
	Plan     string
	StartsAt string
	EndsAt   string
}

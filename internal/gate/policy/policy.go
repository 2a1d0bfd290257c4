// Package policy holds the pure access rules: which agent families must
// step up with a passcode, and when each restricted operation class may run.
// Everything here is a function of its inputs only; callers inject the clock
// so the rules stay independently testable.
package policy

import (
	"fmt"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/pkg/clientinfo"
)

// Hour boundaries for the operation windows, half-open [start, end) in the
// caller's local time. These model staffed support hours, not security.
const (
	generalStartHour = 10
	generalEndHour   = 11

	mobileStartHour = 10
	mobileEndHour   = 13

	subscriptionStartHour = 10
	subscriptionEndHour   = 11

	videoUploadStartHour = 14
	videoUploadEndHour   = 19
)

// trustedFamilies are agent families allowed through without a passcode
// challenge. Everything else, including unrecognized agents, must step up.
var trustedFamilies = map[string]struct{}{
	clientinfo.FamilyEdge:             {},
	clientinfo.FamilyInternetExplorer: {},
}

// RequiresChallenge reports whether the classified client must complete a
// passcode challenge before proceeding. Unknown families require one; the
// default is never to bypass.
func RequiresChallenge(c clientinfo.Client) bool {
	if c.Family == "" {
		return true
	}

	_, trusted := trustedFamilies[c.Family]
	return !trusted
}

// WithinGeneralAccessWindow reports whether general (login-class) access is
// open at now for the given client. Mobile devices get the wider window.
func WithinGeneralAccessWindow(c clientinfo.Client, now time.Time) bool {
	if c.IsMobile() {
		return withinHours(now, mobileStartHour, mobileEndHour)
	}
	return withinHours(now, generalStartHour, generalEndHour)
}

// WithinSubscriptionWindow reports whether subscription processing is open
// at now. Device class is irrelevant here.
func WithinSubscriptionWindow(now time.Time) bool {
	return withinHours(now, subscriptionStartHour, subscriptionEndHour)
}

// WithinVideoUploadWindow reports whether video uploads are open at now.
func WithinVideoUploadWindow(now time.Time) bool {
	return withinHours(now, videoUploadStartHour, videoUploadEndHour)
}

// WithinOperationWindow dispatches to the window predicate for op. The
// client matters only for login-class access.
func WithinOperationWindow(op domain.Operation, c clientinfo.Client, now time.Time) bool {
	switch op {
	case domain.OpSubscription:
		return WithinSubscriptionWindow(now)
	case domain.OpVideoUpload:
		return WithinVideoUploadWindow(now)
	default:
		return WithinGeneralAccessWindow(c, now)
	}
}

// WindowFor describes the applicable window for op in a human-readable form,
// used in time_restricted denials.
func WindowFor(op domain.Operation, c clientinfo.Client) string {
	switch op {
	case domain.OpSubscription:
		return formatWindow(subscriptionStartHour, subscriptionEndHour)
	case domain.OpVideoUpload:
		return formatWindow(videoUploadStartHour, videoUploadEndHour)
	default:
		if c.IsMobile() {
			return formatWindow(mobileStartHour, mobileEndHour)
		}
		return formatWindow(generalStartHour, generalEndHour)
	}
}

func withinHours(now time.Time, start, end int) bool {
	h := now.Hour()
	return h >= start && h < end
}

func formatWindow(start, end int) string {
	return fmt.Sprintf("%02d:00-%02d:00", start, end)
}

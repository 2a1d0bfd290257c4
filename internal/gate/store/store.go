package store

import (
	"context"
	"errors"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite for now)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	LoginHistory() LoginHistory

	ApplyMigrations() error

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store scoped to a single transaction.
type Tx interface {
	Users() Users
	LoginHistory() LoginHistory
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByEmail resolves the unique (optional) email field.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// GetUserByPhone resolves the unique (optional) phone field.
	GetUserByPhone(ctx context.Context, phone string) (domain.User, error)

	// CreateUser inserts a new user (id is provided by the app via ULID).
	// Only the identity fields, plan and friend count are written;
	// passcode state and subscription timestamps are set through their
	// own methods and are ignored on insert.
	CreateUser(ctx context.Context, u domain.User) error

	// SetPasscode stores the fingerprint and expiry of a freshly issued
	// passcode, overwriting any prior one.
	SetPasscode(ctx context.Context, userID, fingerprint string, expiresAt time.Time) error

	// ConsumePasscode atomically clears the stored passcode iff the
	// fingerprint matches and the expiry is strictly after now. Returns
	// true when exactly this call cleared it; concurrent callers racing on
	// the same code observe at most one true.
	ConsumePasscode(ctx context.Context, userID, fingerprint string, now time.Time) (bool, error)

	// ClearExpiredPasscodes nulls out passcode fields whose expiry has
	// passed (housekeeping).
	ClearExpiredPasscodes(ctx context.Context, now time.Time) error

	// UpdateSubscription sets the plan and its start/end timestamps.
	UpdateSubscription(ctx context.Context, userID string, sub domain.Subscription) error

	// UpdateFriendCount sets the cached social-graph size.
	UpdateFriendCount(ctx context.Context, userID string, count int) error
}

type LoginHistory interface {
	// AppendLoginRecord appends one entry. Entries are never removed.
	AppendLoginRecord(ctx context.Context, rec domain.LoginRecord) error

	// ListLoginRecords returns the newest records first, up to limit.
	ListLoginRecords(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error)
}

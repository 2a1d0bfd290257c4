package sqlite

import (
	"context"
	"strings"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/store"
)

const userColumns = `id, email, phone, name,
	passcode_hash, passcode_expires_at,
	plan, subscription_starts_at, subscription_ends_at,
	friend_count, created_at, updated_at`

type usersRepo struct {
	db dbtx
}

func (r *usersRepo) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *usersRepo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *usersRepo) GetUserByPhone(ctx context.Context, phone string) (domain.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE phone = ?`, phone)
	return scanUser(row)
}

func (r *usersRepo) CreateUser(ctx context.Context, u domain.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, email, phone, name, plan, friend_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`,
		u.ID, mapStringNull(u.Email), mapStringNull(u.Phone), u.Name,
		string(planOrFree(u.Subscription.Plan)), u.FriendCount,
	)
	if err != nil && isUniqueViolation(err) {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *usersRepo) SetPasscode(ctx context.Context, userID, fingerprint string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET passcode_hash = ?, passcode_expires_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		fingerprint, expiresAt.UTC(), userID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// ConsumePasscode is the single-use guarantee: the WHERE clause makes the
// read-compare-clear one atomic statement, so two racing verifications can
// never both observe the same live passcode.
func (r *usersRepo) ConsumePasscode(ctx context.Context, userID, fingerprint string, now time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET passcode_hash = NULL, passcode_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND passcode_hash = ? AND passcode_expires_at > ?`,
		userID, fingerprint, now.UTC(),
	)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *usersRepo) ClearExpiredPasscodes(ctx context.Context, now time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET passcode_hash = NULL, passcode_expires_at = NULL, updated_at = CURRENT_TIMESTAMP
		 WHERE passcode_expires_at IS NOT NULL AND passcode_expires_at <= ?`,
		now.UTC(),
	)
	return err
}

func (r *usersRepo) UpdateSubscription(ctx context.Context, userID string, sub domain.Subscription) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET plan = ?, subscription_starts_at = ?, subscription_ends_at = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		string(sub.Plan), mapOptionalTime(sub.StartsAt), mapOptionalTime(sub.EndsAt), userID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func (r *usersRepo) UpdateFriendCount(ctx context.Context, userID string, count int) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET friend_count = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		count, userID,
	)
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

func planOrFree(p domain.Plan) domain.Plan {
	if p == "" {
		return domain.PlanFree
	}
	return p
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

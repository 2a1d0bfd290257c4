package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/pkg/idx"
)

// ErrAlreadyRegistered rejects a registration against an email that is
// already bound to an identity.
var ErrAlreadyRegistered = errors.New("email already registered")

type UserService struct {
	Store store.Store
}

// GetUserByID fetches a user by id.
func (s *UserService) GetUserByID(ctx context.Context, userID string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("%w: load user: %w", ErrDependencyUnavailable, err)
	}
	return user, nil
}

// Register creates a new identity for an email credential exchange. This is
// the only place an identity is created from an email; authentication paths
// never create users as a side effect.
func (s *UserService) Register(ctx context.Context, email, name string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.User{}, errors.New("invalid email address")
	}

	user := domain.User{
		ID:    idx.New().String(),
		Email: email,
		Name:  strings.TrimSpace(name),
		Subscription: domain.Subscription{
			Plan: domain.PlanFree,
		},
	}

	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().GetUserByEmail(ctx, email)
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load user by email: %w", err)
		}

		if err := tx.Users().CreateUser(ctx, user); err != nil {
			// UNIQUE constraint backstop; the precheck already runs in
			// the same transaction.
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyRegistered
			}
			return fmt.Errorf("create user: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyRegistered) {
			return domain.User{}, ErrAlreadyRegistered
		}
		return domain.User{}, fmt.Errorf("%w: register: %w", ErrDependencyUnavailable, err)
	}

	return s.GetUserByID(ctx, user.ID)
}

// GetUserByPhone fetches a user by phone number without creating one.
func (s *UserService) GetUserByPhone(ctx context.Context, phone string) (domain.User, error) {
	user, err := s.Store.Users().GetUserByPhone(ctx, strings.TrimSpace(phone))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("%w: load user by phone: %w", ErrDependencyUnavailable, err)
	}
	return user, nil
}

// EnsurePhoneUser resolves a phone number to an identity, creating one on
// first contact. Mirrors the upsert the phone login flow has always done.
func (s *UserService) EnsurePhoneUser(ctx context.Context, phone string) (domain.User, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return domain.User{}, errors.New("invalid phone number")
	}

	var user domain.User
	err := s.Store.WithTx(ctx, func(tx store.Tx) error {
		existing, err := tx.Users().GetUserByPhone(ctx, phone)
		if err == nil {
			user = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("load user by phone: %w", err)
		}

		user = domain.User{
			ID:    idx.New().String(),
			Phone: phone,
			Subscription: domain.Subscription{
				Plan: domain.PlanFree,
			},
		}
		if err := tx.Users().CreateUser(ctx, user); err != nil {
			return fmt.Errorf("create phone user: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: ensure phone user: %w", ErrDependencyUnavailable, err)
	}

	return s.GetUserByID(ctx, user.ID)
}

// SetFriendCount records the size of the user's social graph. The count
// feeds the daily post allowance for users without a paid plan, so the
// value comes from a trusted caller, never the user themselves.
func (s *UserService) SetFriendCount(ctx context.Context, userID string, count int) (domain.User, error) {
	if count < 0 {
		count = 0
	}

	if err := s.Store.Users().UpdateFriendCount(ctx, userID, count); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("%w: update friend count: %w", ErrDependencyUnavailable, err)
	}

	return s.GetUserByID(ctx, userID)
}

// ListLogins returns the newest login records for a user.
func (s *UserService) ListLogins(ctx context.Context, userID string, limit int) ([]domain.LoginRecord, error) {
	records, err := s.Store.LoginHistory().ListLoginRecords(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: list login records: %w", ErrDependencyUnavailable, err)
	}
	return records, nil
}

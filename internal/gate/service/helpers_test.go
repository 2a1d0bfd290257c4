package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/codequesthq/gate/internal/gate/store"
	"github.com/codequesthq/gate/internal/gate/store/drivers/sqlite"
	"github.com/codequesthq/gate/pkg/idx"
	"github.com/codequesthq/gate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

var testSigningSecret = []byte("test-secret-test-secret-test-secret!")

// newTestStore opens a migrated sqlite store on a per-test temp file so
// concurrent connections observe the same database.
func newTestStore(t *testing.T) store.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "gate.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	require.NoError(t, st.ApplyMigrations())
	return st
}

func newTestTokens(t *testing.T) *jwtx.HS256 {
	t.Helper()

	tokens, err := jwtx.NewHS256(testSigningSecret, "gate-test")
	require.NoError(t, err)
	return tokens
}

// createUser inserts a user and returns the stored row.
func createUser(t *testing.T, st store.Store, u domain.User) domain.User {
	t.Helper()

	if u.ID == "" {
		u.ID = idx.New().String()
	}
	require.NoError(t, st.Users().CreateUser(context.Background(), u))

	stored, err := st.Users().GetUserByID(context.Background(), u.ID)
	require.NoError(t, err)
	return stored
}

// fixedClock returns a Now func pinned to t0; tests that need to move time
// use *movableClock instead.
func fixedClock(t0 time.Time) func() time.Time {
	return func() time.Time { return t0 }
}

type movableClock struct {
	mu  sync.Mutex
	now time.Time
}

func newMovableClock(t0 time.Time) *movableClock { return &movableClock{now: t0} }

func (c *movableClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *movableClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// captureNotifier records sent codes instead of delivering them.
type captureNotifier struct {
	mu    sync.Mutex
	sends []capturedSend
	fail  bool
}

type capturedSend struct {
	Destination string
	Code        string
}

func (n *captureNotifier) SendCode(_ context.Context, destination, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.fail {
		return errTestDelivery
	}
	n.sends = append(n.sends, capturedSend{Destination: destination, Code: code})
	return nil
}

func (n *captureNotifier) last(t *testing.T) capturedSend {
	t.Helper()

	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sends)
	return n.sends[len(n.sends)-1]
}

var errTestDelivery = &deliveryTestError{}

type deliveryTestError struct{}

func (*deliveryTestError) Error() string { return "smtp relay on fire" }

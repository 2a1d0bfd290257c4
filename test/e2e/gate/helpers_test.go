package gate_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	httpapi "github.com/codequesthq/gate/internal/gate/http"
	"github.com/codequesthq/gate/internal/gate/service"
	"github.com/codequesthq/gate/internal/gate/store/drivers/sqlite"
	"github.com/codequesthq/gate/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

/*
 * Common helpers for gate service end-to-end tests. The full HTTP stack runs
 * in-process against a throwaway SQLite database, with outbound email and
 * SMS captured instead of delivered.
 */

const (
	e2eSigningSecret = "e2e-test-secret-0123456789abcdef01"
	e2eIssuer        = "gate-e2e"

	chromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	edgeUA   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36 Edg/120.0.2210.91"
)

// codeCapture records passcodes instead of delivering them.
type codeCapture struct {
	mu    sync.Mutex
	codes []string
}

func (c *codeCapture) SendCode(_ context.Context, _, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.codes = append(c.codes, code)
	return nil
}

func (c *codeCapture) last(t *testing.T) string {
	t.Helper()

	c.mu.Lock()
	defer c.mu.Unlock()
	require.NotEmpty(t, c.codes)
	return c.codes[len(c.codes)-1]
}

type gateServer struct {
	URL   string
	Email *codeCapture
	SMS   *codeCapture
}

// setupGateServer starts the gate service in-process with the clock pinned
// to the given hour and returns its base URL.
func setupGateServer(t *testing.T, hour int) gateServer {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "gate.db") + "?_busy_timeout=5000&_journal_mode=WAL"
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	tokens, err := jwtx.NewHS256([]byte(e2eSigningSecret), e2eIssuer)
	require.NoError(t, err)

	// Pin the clock to the most recent occurrence of the target hour, so
	// tokens issued by it also verify against the real-time clock the authn
	// middleware uses.
	now := time.Now().UTC()
	at := time.Date(now.Year(), now.Month(), now.Day(), hour, 30, 0, 0, time.UTC)
	if at.After(now) {
		at = at.AddDate(0, 0, -1)
	}
	clock := func() time.Time { return at }

	email := &codeCapture{}
	sms := &codeCapture{}

	sessions := &service.SessionService{Store: st, Tokens: tokens, Issuer: e2eIssuer, Now: clock}
	passcodes := &service.PasscodeService{Store: st, Email: email, SMS: sms, Now: clock}

	router := httpapi.NewRouter(tokens, "e2e", st, slog.New(slog.NewTextHandler(io.Discard, nil)))
	router.GateService = &service.GateService{Sessions: sessions, Passcodes: passcodes, Now: clock}
	router.SessionService = sessions
	router.UserService = &service.UserService{Store: st}
	router.PasscodeService = passcodes
	router.SubscriptionService = &service.SubscriptionService{Store: st, Now: clock}
	router.ApplyRoutes()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return gateServer{URL: server.URL, Email: email, SMS: sms}
}

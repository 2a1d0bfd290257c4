package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/codequesthq/gate/internal/gate/domain"
	"github.com/stretchr/testify/require"
)

var sixDigits = regexp.MustCompile(`^[0-9]{6}$`)

func TestIssueDeliversSixDigitCode(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{}
	svc := &PasscodeService{Store: st, Email: email, SMS: &captureNotifier{}}

	user := createUser(t, st, domain.User{Email: "ada@example.com", Phone: "+15550001111"})

	challenge, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", challenge.Destination)
	require.True(t, challenge.ViaEmail, "email is preferred when on record")

	sent := email.last(t)
	require.Regexp(t, sixDigits, sent.Code)

	stored, err := st.Users().GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasscodeHash)
	require.NotNil(t, stored.PasscodeExpiresAt)
	require.NotEqual(t, sent.Code, *stored.PasscodeHash, "plaintext code must not be stored")
}

func TestIssueSMSPrefersPhone(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	sms := &captureNotifier{}
	svc := &PasscodeService{Store: st, Email: &captureNotifier{}, SMS: sms}

	user := createUser(t, st, domain.User{Email: "ada@example.com", Phone: "+15550001111"})

	challenge, err := svc.IssueSMS(context.Background(), user)
	require.NoError(t, err)
	require.Equal(t, "+15550001111", challenge.Destination)
	require.False(t, challenge.ViaEmail)
	require.Regexp(t, sixDigits, sms.last(t).Code)
}

func TestIssueWithoutDestinationFails(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &PasscodeService{Store: st, Email: &captureNotifier{}, SMS: &captureNotifier{}}

	user := createUser(t, st, domain.User{Name: "nobody"})

	_, err := svc.Issue(context.Background(), user)
	require.ErrorIs(t, err, ErrNoDestination)
}

func TestDeliveryFailureKeepsCodeValid(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{fail: true}
	svc := &PasscodeService{Store: st, Email: email, SMS: &captureNotifier{}}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	challenge, err := svc.Issue(context.Background(), user)
	require.ErrorIs(t, err, ErrDeliveryFailed)
	require.Equal(t, user.ID, challenge.UserID, "challenge details still returned")

	// The code persisted despite the failed send.
	stored, err := st.Users().GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.PasscodeHash)
}

func TestVerifySucceedsExactlyOnce(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{}
	svc := &PasscodeService{Store: st, Email: email}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	_, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	code := email.last(t).Code

	require.NoError(t, svc.Verify(context.Background(), user.ID, code))

	// Single-use: the exact same code is now gone.
	err = svc.Verify(context.Background(), user.ID, code)
	require.ErrorIs(t, err, ErrInvalidOrExpiredCode)

	stored, err := st.Users().GetUserByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Nil(t, stored.PasscodeHash)
	require.Nil(t, stored.PasscodeExpiresAt)
}

func TestVerifyRejectsWrongCode(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{}
	svc := &PasscodeService{Store: st, Email: email}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	_, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	code := email.last(t).Code

	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	require.ErrorIs(t, svc.Verify(context.Background(), user.ID, wrong), ErrInvalidOrExpiredCode)

	// The real code is still live after a wrong guess.
	require.NoError(t, svc.Verify(context.Background(), user.ID, code))
}

func TestCodesCompareAsStrings(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	svc := &PasscodeService{Store: st, Email: &captureNotifier{}}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	// A leading-zero code is a legitimate six-character code and is not
	// the same thing as its numeric value.
	require.NoError(t, st.Users().SetPasscode(context.Background(), user.ID, fingerprint("000123"), time.Now().Add(time.Minute)))

	require.ErrorIs(t, svc.Verify(context.Background(), user.ID, "123"), ErrInvalidOrExpiredCode)
	require.NoError(t, svc.Verify(context.Background(), user.ID, "000123"))
}

func TestVerifyAfterExpiryFails(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{}
	clock := newMovableClock(time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC))
	svc := &PasscodeService{Store: st, Email: email, Now: clock.Now}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	_, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	expired := email.last(t).Code

	clock.Advance(PasscodeTTL + time.Second)
	require.ErrorIs(t, svc.Verify(context.Background(), user.ID, expired), ErrInvalidOrExpiredCode)

	// A later-issued code is unaffected by the failed attempt on the old one.
	_, err = svc.Issue(context.Background(), user)
	require.NoError(t, err)
	fresh := email.last(t).Code

	require.ErrorIs(t, svc.Verify(context.Background(), user.ID, expired), ErrInvalidOrExpiredCode)
	require.NoError(t, svc.Verify(context.Background(), user.ID, fresh))
}

func TestIssueOverwritesPriorCode(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{}
	svc := &PasscodeService{Store: st, Email: email}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	_, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	first := email.last(t).Code

	_, err = svc.Issue(context.Background(), user)
	require.NoError(t, err)
	second := email.last(t).Code

	if first != second {
		require.ErrorIs(t, svc.Verify(context.Background(), user.ID, first), ErrInvalidOrExpiredCode)
	}
	require.NoError(t, svc.Verify(context.Background(), user.ID, second))
}

func TestConcurrentVerifySucceedsAtMostOnce(t *testing.T) {
	t.Parallel()

	st := newTestStore(t)
	email := &captureNotifier{}
	svc := &PasscodeService{Store: st, Email: email}

	user := createUser(t, st, domain.User{Email: "ada@example.com"})

	_, err := svc.Issue(context.Background(), user)
	require.NoError(t, err)
	code := email.last(t).Code

	const attempts = 16

	var (
		wg        sync.WaitGroup
		successes atomicCounter
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if svc.Verify(context.Background(), user.ID, code) == nil {
				successes.inc()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, successes.get(), "exactly one verification may consume a code")
}

type atomicCounter struct {
	mu sync.Mutex
	n  int
}

func (c *atomicCounter) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *atomicCounter) get() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestGeneratePasscodeRange(t *testing.T) {
	t.Parallel()

	for i := 0; i < 200; i++ {
		code, err := generatePasscode()
		require.NoError(t, err)
		require.Regexp(t, sixDigits, code)
		require.GreaterOrEqual(t, code, "100000")
		require.LessOrEqual(t, code, "999999")
	}
}

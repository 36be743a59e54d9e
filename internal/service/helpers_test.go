package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/seniorble/guardian/internal/models"
	"github.com/seniorble/guardian/internal/storage/memory"
	"github.com/seniorble/guardian/internal/util"
)

const (
	testEmail    = "guardian@example.com"
	testPassword = "s3cret-pass"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Now().Truncate(time.Second)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []ReuseEvent
}

func (n *recordingNotifier) NotifyTokenReuse(_ context.Context, event ReuseEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []ReuseEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]ReuseEvent(nil), n.events...)
}

func testTokenConfig() *util.TokenConfig {
	return &util.TokenConfig{
		AccessSecret:  []byte("access-secret-for-tests"),
		RefreshSecret: []byte("refresh-secret-for-tests"),
		Issuer:        "seniorble",
		AccessTTL:     15 * time.Minute,
		RefreshTTL:    30 * 24 * time.Hour,
	}
}

type sessionFixture struct {
	sessions *SessionService
	auth     *AuthService
	tokens   *TokenService
	accounts *memory.InMemoryAccountManager
	store    *memory.InMemorySessionManager
	notifier *recordingNotifier
	clock    *testClock
}

func newSessionFixture(t *testing.T) *sessionFixture {
	t.Helper()

	log := zap.NewNop().Sugar()
	clock := newTestClock()

	hasher, err := NewPasswordHasher(util.MinBcryptCost)
	require.NoError(t, err)

	tokens := NewTokenService(testTokenConfig())
	tokens.now = clock.Now

	accounts := memory.NewAccountRepository()
	store := memory.NewSessionRepository(log)
	notifier := &recordingNotifier{}

	sessions := NewSessionService(accounts, store, tokens, hasher, notifier, log)
	sessions.now = clock.Now

	auth := NewAuthService(accounts, hasher, log)
	auth.now = clock.Now

	return &sessionFixture{
		sessions: sessions,
		auth:     auth,
		tokens:   tokens,
		accounts: accounts,
		store:    store,
		notifier: notifier,
		clock:    clock,
	}
}

func (f *sessionFixture) signup(t *testing.T) *models.Account {
	t.Helper()

	account, err := f.auth.Signup(context.Background(), models.SignupRequest{
		Email:    testEmail,
		Password: testPassword,
		Name:     "김보호",
		Phone:    "010-1234-5678",
	})
	require.NoError(t, err)
	return account
}

func (f *sessionFixture) login(t *testing.T) *LoginResult {
	t.Helper()

	res, err := f.sessions.Login(context.Background(), testEmail, testPassword, models.ClientMetadata{
		UserAgent: "test-agent",
		IPAddress: "10.0.0.1",
	})
	require.NoError(t, err)
	return res
}

func (f *sessionFixture) recordFor(t *testing.T, token string) models.RefreshTokenRecord {
	t.Helper()

	rec, err := f.store.FindByHash(context.Background(), HashToken(token))
	require.NoError(t, err)
	return *rec
}

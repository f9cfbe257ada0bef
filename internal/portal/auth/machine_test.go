package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docbridge/internal/models"
	"docbridge/internal/portal/session"
)

// downError stands in for a transport failure talking to the gateway.
type downError struct{}

func (downError) Error() string     { return "connection refused" }
func (downError) Unavailable() bool { return true }

type fakeGateway struct {
	mu sync.Mutex

	loginUser  models.User
	loginToken string
	loginErr   error

	signupURL string
	signupErr error

	verifyErr error

	// When set, Login blocks until the channel is closed. Lets tests slip a
	// logout in while a login is in flight.
	loginGate chan struct{}

	loginCalls int
}

func (g *fakeGateway) Login(_ context.Context, _, _ string, _ models.UserType) (models.User, string, error) {
	g.mu.Lock()
	gate := g.loginGate
	g.loginCalls++
	g.mu.Unlock()

	if gate != nil {
		<-gate
	}
	return g.loginUser, g.loginToken, g.loginErr
}

func (g *fakeGateway) Signup(_ context.Context, _, _ string) (string, error) {
	return g.signupURL, g.signupErr
}

func (g *fakeGateway) VerifyEmail(_ context.Context, _ string) error {
	return g.verifyErr
}

func testUser(userType models.UserType, verified bool) models.User {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	return models.User{
		ID:         "usr-1",
		Email:      "someone@example.com",
		UserType:   userType,
		IsVerified: verified,
		CreatedAt:  &created,
	}
}

func newTestMachine(gateway Gateway, demoMode bool) (*Machine, *session.MemoryStore) {
	store := session.NewMemoryStore()
	return NewMachine("sid-1", store, gateway, demoMode, zerolog.Nop()), store
}

func TestLoginSuccess(t *testing.T) {
	want := testUser(models.UserTypeClient, true)
	gateway := &fakeGateway{loginUser: want, loginToken: "jwt-1"}
	machine, store := newTestMachine(gateway, false)

	got, err := machine.Login(context.Background(), want.Email, "secret", models.UserTypeClient)
	require.NoError(t, err)
	assert.Equal(t, want.ID, got.ID)

	state := machine.State()
	require.True(t, state.Authenticated)
	require.NotNil(t, state.User)
	assert.Equal(t, "jwt-1", state.Token)
	assert.Equal(t, want.Email, state.User.Email)

	token, saved, ok := store.Load(context.Background(), "sid-1")
	require.True(t, ok)
	assert.Equal(t, "jwt-1", token)
	assert.Equal(t, want.ID, saved.ID)
}

func TestLoginRejectionStaysAnonymous(t *testing.T) {
	gateway := &fakeGateway{loginErr: &RejectionError{Message: "invalid credentials"}}
	machine, store := newTestMachine(gateway, false)

	_, err := machine.Login(context.Background(), "x@example.com", "bad", models.UserTypeClient)

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, "invalid credentials", rejection.Message)
	assert.False(t, machine.State().Authenticated)

	_, _, ok := store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestLoginGatewayDownFailsClosed(t *testing.T) {
	gateway := &fakeGateway{loginErr: downError{}}
	machine, store := newTestMachine(gateway, false)

	_, err := machine.Login(context.Background(), "x@example.com", "secret", models.UserTypeClient)
	require.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.False(t, machine.State().Authenticated)

	_, _, ok := store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestLoginGatewayDownDemoModeSynthesizes(t *testing.T) {
	gateway := &fakeGateway{loginErr: downError{}}
	machine, _ := newTestMachine(gateway, true)

	user, err := machine.Login(context.Background(), "demo@example.com", "secret", models.UserTypeOps)
	require.NoError(t, err)
	assert.Equal(t, "demo@example.com", user.Email)
	assert.Equal(t, models.UserTypeOps, user.UserType)
	assert.True(t, user.IsVerified)

	state := machine.State()
	assert.True(t, state.Authenticated)
	assert.NotEmpty(t, state.Token)
}

func TestLoginSupersededByLogout(t *testing.T) {
	gate := make(chan struct{})
	gateway := &fakeGateway{
		loginUser:  testUser(models.UserTypeClient, true),
		loginToken: "jwt-1",
		loginGate:  gate,
	}
	machine, store := newTestMachine(gateway, false)

	errCh := make(chan error, 1)
	go func() {
		_, err := machine.Login(context.Background(), "x@example.com", "secret", models.UserTypeClient)
		errCh <- err
	}()

	// Let the login reach the gateway, then log out underneath it.
	for {
		gateway.mu.Lock()
		started := gateway.loginCalls > 0
		gateway.mu.Unlock()
		if started {
			break
		}
		time.Sleep(time.Millisecond)
	}
	machine.Logout()
	close(gate)

	err := <-errCh
	require.ErrorIs(t, err, ErrSuperseded)
	assert.False(t, machine.State().Authenticated)

	_, _, ok := store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestLogoutClearsStateAndStore(t *testing.T) {
	machine, store := newTestMachine(&fakeGateway{}, false)
	machine.Install("jwt-1", testUser(models.UserTypeClient, true))
	require.NoError(t, store.Save(context.Background(), "sid-1", "jwt-1", testUser(models.UserTypeClient, true)))

	machine.Logout()

	state := machine.State()
	assert.False(t, state.Authenticated)
	assert.Nil(t, state.User)
	assert.Empty(t, state.Token)

	_, _, ok := store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestVerifyEmailFlipsFlagAndRefreshesStore(t *testing.T) {
	machine, store := newTestMachine(&fakeGateway{}, false)
	machine.Install("jwt-1", testUser(models.UserTypeClient, false))

	require.NoError(t, machine.VerifyEmail(context.Background(), "verify-token"))

	state := machine.State()
	require.NotNil(t, state.User)
	assert.True(t, state.User.IsVerified)

	_, saved, ok := store.Load(context.Background(), "sid-1")
	require.True(t, ok)
	assert.True(t, saved.IsVerified)
}

func TestVerifyEmailAnonymousLeavesStateAlone(t *testing.T) {
	machine, _ := newTestMachine(&fakeGateway{}, false)

	require.NoError(t, machine.VerifyEmail(context.Background(), "verify-token"))
	assert.False(t, machine.State().Authenticated)
}

func TestVerifyEmailRejectionPropagates(t *testing.T) {
	gateway := &fakeGateway{verifyErr: &RejectionError{Message: "invalid verification token"}}
	machine, _ := newTestMachine(gateway, false)
	machine.Install("jwt-1", testUser(models.UserTypeClient, false))

	err := machine.VerifyEmail(context.Background(), "wrong")

	var rejection *RejectionError
	require.ErrorAs(t, err, &rejection)
	assert.False(t, machine.State().User.IsVerified)
}

func TestSignupDoesNotAuthenticate(t *testing.T) {
	gateway := &fakeGateway{signupURL: "https://gateway.local/verify-email?token=abc"}
	machine, store := newTestMachine(gateway, false)

	challenge, err := machine.Signup(context.Background(), "new@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "https://gateway.local/verify-email?token=abc", challenge.VerificationURL)
	assert.False(t, machine.State().Authenticated)

	_, _, ok := store.Load(context.Background(), "sid-1")
	assert.False(t, ok)
}

func TestSignupGatewayDownFailsClosed(t *testing.T) {
	gateway := &fakeGateway{signupErr: downError{}}
	machine, _ := newTestMachine(gateway, false)

	_, err := machine.Signup(context.Background(), "new@example.com", "secret")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestStateReturnsCopy(t *testing.T) {
	machine, _ := newTestMachine(&fakeGateway{}, false)
	machine.Install("jwt-1", testUser(models.UserTypeClient, false))

	snapshot := machine.State()
	snapshot.User.Email = "tampered@example.com"

	assert.Equal(t, "someone@example.com", machine.State().User.Email)
}

func TestIsUnavailable(t *testing.T) {
	assert.True(t, isUnavailable(downError{}))
	assert.True(t, isUnavailable(ErrGatewayUnavailable))
	assert.False(t, isUnavailable(&RejectionError{Message: "no"}))
	assert.False(t, isUnavailable(errors.New("something else")))
}

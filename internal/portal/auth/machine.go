// Package auth holds the portal's authentication state machine: one machine
// per browser session, anonymous until a login succeeds, anonymous again
// after logout. Every state write in the portal flows through a machine.
package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"docbridge/internal/models"
	"docbridge/internal/portal/session"
)

// State is the machine's reducer-visible state. Authenticated is true iff
// User and Token are both set; the pair is installed and cleared together.
type State struct {
	User          *models.User
	Token         string
	Authenticated bool
}

// Anonymous is the initial state.
func Anonymous() State {
	return State{}
}

// Gateway is the slice of the credential gateway the machine needs.
// Implementations return ErrGatewayUnavailable-compatible errors (checked via
// IsUnavailable) for transport failures and *RejectionError when the gateway
// answered but refused.
type Gateway interface {
	Login(ctx context.Context, email, password string, userType models.UserType) (models.User, string, error)
	Signup(ctx context.Context, email, password string) (verificationURL string, err error)
	VerifyEmail(ctx context.Context, token string) error
}

// VerificationChallenge is what signup hands back for the user to redeem.
type VerificationChallenge struct {
	VerificationURL string
}

// Machine owns the AuthState for one browser session.
//
// All transitions run under m.mu, which is the single-writer serialization
// the portal relies on. Async operations snapshot the logout epoch before
// calling the gateway and re-check it before applying the response, so a
// login that was in flight when the user logged out cannot resurrect the
// session.
type Machine struct {
	mu    sync.Mutex
	state State
	epoch uint64

	sid      string
	store    session.Store
	gateway  Gateway
	demoMode bool
	log      zerolog.Logger
}

func NewMachine(sid string, store session.Store, gateway Gateway, demoMode bool, log zerolog.Logger) *Machine {
	return &Machine{
		sid:      sid,
		store:    store,
		gateway:  gateway,
		demoMode: demoMode,
		log:      log.With().Str("sid", sid).Logger(),
	}
}

// State returns a copy of the current state. The User pointer is copied too;
// callers never mutate machine-owned memory.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() State {
	st := m.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Install seats a restored session directly, bypassing the gateway. Only the
// bootstrap path uses it.
func (m *Machine) Install(token string, user models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = State{User: &user, Token: token, Authenticated: true}
}

// Login authenticates against the gateway and transitions to authenticated.
//
// A gateway rejection or an unreachable gateway leaves the state unchanged;
// falling back to a locally synthesized session happens only in demo mode.
func (m *Machine) Login(ctx context.Context, email, password string, userType models.UserType) (models.User, error) {
	epoch := m.currentEpoch()

	user, token, err := m.gateway.Login(ctx, email, password, userType)
	if err != nil {
		if !isUnavailable(err) {
			return models.User{}, err
		}
		if !m.demoMode {
			return models.User{}, fmt.Errorf("login: %w", ErrGatewayUnavailable)
		}
		user, token = m.synthesizeSession(email, userType)
		m.log.Warn().Str("email", email).Msg("demo mode: gateway unreachable, session synthesized locally")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch {
		// Logged out while the request was in flight; drop the response.
		return models.User{}, ErrSuperseded
	}

	m.state = State{User: &user, Token: token, Authenticated: true}

	if err := m.store.Save(ctx, m.sid, token, user); err != nil {
		m.log.Error().Err(err).Msg("session persist failed")
	}

	return user, nil
}

// Signup registers a new client account. AuthState does not change: no
// session exists until the user verifies and logs in.
func (m *Machine) Signup(ctx context.Context, email, password string) (VerificationChallenge, error) {
	url, err := m.gateway.Signup(ctx, email, password)
	if err != nil {
		if !isUnavailable(err) {
			return VerificationChallenge{}, err
		}
		if !m.demoMode {
			return VerificationChallenge{}, fmt.Errorf("signup: %w", ErrGatewayUnavailable)
		}
		url = m.synthesizeChallenge(email)
		m.log.Warn().Str("email", email).Msg("demo mode: gateway unreachable, challenge synthesized locally")
	}

	return VerificationChallenge{VerificationURL: url}, nil
}

// VerifyEmail redeems a verification token. If this browser session is
// authenticated, the verified flag flips in place (one way) and the stored
// session is refreshed; an anonymous session's state is untouched.
func (m *Machine) VerifyEmail(ctx context.Context, token string) error {
	epoch := m.currentEpoch()

	if err := m.gateway.VerifyEmail(ctx, token); err != nil {
		if !isUnavailable(err) {
			return err
		}
		if !m.demoMode {
			return fmt.Errorf("verify email: %w", ErrGatewayUnavailable)
		}
		m.log.Warn().Msg("demo mode: gateway unreachable, marking verified locally")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.epoch != epoch || !m.state.Authenticated {
		return nil
	}

	m.state.User.IsVerified = true
	if err := m.store.Save(ctx, m.sid, m.state.Token, *m.state.User); err != nil {
		m.log.Error().Err(err).Msg("session persist failed")
	}
	return nil
}

// Logout clears the state to anonymous and purges the persisted session.
// It always succeeds and invalidates every in-flight operation.
func (m *Machine) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.epoch++
	m.state = Anonymous()

	// Best effort: the in-memory state is authoritative, and a leftover
	// stored session is re-cleared on the next save or expiry.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.store.Clear(ctx, m.sid); err != nil {
		m.log.Error().Err(err).Msg("session purge failed")
	}
}

func (m *Machine) currentEpoch() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.epoch
}

// synthesizeSession builds a demo identity: the requested email and role are
// trusted wholesale and marked verified.
func (m *Machine) synthesizeSession(email string, userType models.UserType) (models.User, string) {
	now := time.Now()
	user := models.User{
		ID:         "demo-" + strconv.FormatInt(now.UnixNano(), 10),
		Email:      email,
		UserType:   userType,
		IsVerified: true,
		CreatedAt:  &now,
	}
	token := "demo-token-" + strconv.FormatInt(now.UnixMilli(), 10)
	return user, token
}

func (m *Machine) synthesizeChallenge(email string) string {
	seed := fmt.Sprintf("%s%d", email, time.Now().UnixMilli())
	return "https://secure-app.local/verify/" + base64.StdEncoding.EncodeToString([]byte(seed))
}

// unavailable is implemented by gateway client errors caused by transport
// failure rather than refusal.
type unavailable interface {
	Unavailable() bool
}

func isUnavailable(err error) bool {
	var u unavailable
	if errors.As(err, &u) {
		return u.Unavailable()
	}
	return errors.Is(err, ErrGatewayUnavailable)
}

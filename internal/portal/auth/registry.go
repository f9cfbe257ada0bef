package auth

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"docbridge/internal/models"
	"docbridge/internal/portal/session"
)

// Revalidator confirms a restored token with the gateway. Optional.
type Revalidator interface {
	Me(ctx context.Context, token string) (models.User, error)
}

// Registry hands out the Machine for each browser session and runs the
// bootstrap: the first time a sid is seen, its persisted session (if any) is
// loaded from the Store and installed before anything consults the state.
type Registry struct {
	mu       sync.Mutex
	machines map[string]*Machine

	store       session.Store
	gateway     Gateway
	demoMode    bool
	revalidator Revalidator
	log         zerolog.Logger
}

type RegistryOption func(*Registry)

// WithRevalidator makes bootstrap confirm restored tokens with the gateway
// instead of trusting local storage unconditionally.
func WithRevalidator(r Revalidator) RegistryOption {
	return func(reg *Registry) {
		reg.revalidator = r
	}
}

func NewRegistry(store session.Store, gateway Gateway, demoMode bool, log zerolog.Logger, opts ...RegistryOption) *Registry {
	reg := &Registry{
		machines: make(map[string]*Machine),
		store:    store,
		gateway:  gateway,
		demoMode: demoMode,
		log:      log,
	}
	for _, opt := range opts {
		opt(reg)
	}
	return reg
}

// Machine returns the state machine for sid, creating and bootstrapping it
// on first sight.
func (r *Registry) Machine(ctx context.Context, sid string) *Machine {
	r.mu.Lock()
	machine, exists := r.machines[sid]
	if !exists {
		machine = NewMachine(sid, r.store, r.gateway, r.demoMode, r.log)
		r.machines[sid] = machine
	}
	r.mu.Unlock()

	if !exists {
		r.bootstrap(ctx, sid, machine)
	}
	return machine
}

// bootstrap restores a persisted session into a freshly created machine.
// Absent or malformed stored data leaves the machine anonymous; by default a
// present session is installed without asking the gateway (trust on read).
func (r *Registry) bootstrap(ctx context.Context, sid string, machine *Machine) {
	token, user, ok := r.store.Load(ctx, sid)
	if !ok {
		return
	}

	if r.revalidator != nil {
		fresh, err := r.revalidator.Me(ctx, token)
		if err != nil {
			if isUnavailable(err) {
				// Can't confirm either way; keep the stored session rather
				// than logging the user out over a gateway blip.
				r.log.Warn().Str("sid", sid).Msg("bootstrap revalidation skipped, gateway unreachable")
			} else {
				r.log.Info().Str("sid", sid).Msg("stored session rejected by gateway, dropped")
				if clearErr := r.store.Clear(ctx, sid); clearErr != nil {
					r.log.Error().Err(clearErr).Msg("session purge failed")
				}
				return
			}
		} else {
			user = fresh
		}
	}

	machine.Install(token, user)
	r.log.Debug().Str("sid", sid).Str("user_id", user.ID).Msg("session restored")
}

// Forget drops the machine for sid. Used when a browser's cookie rotates.
func (r *Registry) Forget(sid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.machines, sid)
}

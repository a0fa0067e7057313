package auth

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/makao-homes/makao/internal/models"
)

// State is one snapshot of the auth store
type State struct {
	User    *User
	Session *Session
	// Loading is true only while the initial session resolution is
	// pending, and transiently again during sign-out
	Loading bool
}

// IsAuthenticated reports whether a session is present
func (s State) IsAuthenticated() bool {
	return s.Session != nil
}

// Store is the single source of truth for "who is signed in". It is an
// explicit, injected object: constructed once per mounted scope, it
// performs a one-shot session resolution, then tracks provider change
// notifications until Close. The admin flag is resolved through a live
// role lookup on every call (profile row with an admin role, active).
type Store struct {
	provider SessionProvider
	roles    RoleLookup
	timeout  time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	state   State
	subs    map[int]func(State)
	nextSub int

	unsubscribe func()
	closeOnce   sync.Once
}

// NewStore creates a store subscribed to the provider's change stream.
// timeout bounds every network round trip the store makes.
func NewStore(provider SessionProvider, roles RoleLookup, timeout time.Duration, logger zerolog.Logger) *Store {
	s := &Store{
		provider: provider,
		roles:    roles,
		timeout:  timeout,
		logger:   logger,
		state:    State{Loading: true},
		subs:     make(map[int]func(State)),
	}
	s.unsubscribe = provider.OnAuthStateChange(s.handleChange)
	return s
}

// GetInitialSession performs the one-time session resolution. Retrieval
// failures map to signed-out and are not surfaced; a timeout also leaves
// the store signed out but is reported distinctly so callers can warn.
// Loading settles to false exactly once, on every path.
func (s *Store) GetInitialSession(ctx context.Context, token string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	session, user, err := s.provider.GetSession(ctx, token)
	if err != nil {
		s.setState(State{Loading: false})
		if IsTimeout(err) {
			return ErrTimeout
		}
		s.logger.Debug().Err(err).Msg("Session resolution failed, treating as signed out")
		return nil
	}

	s.setState(State{Session: session, User: user, Loading: false})
	return nil
}

// SignOut requests teardown from the provider. The subsequent change
// notification clears the session; if the call itself fails, loading is
// restored immediately and the session is left unchanged.
func (s *Store) SignOut(ctx context.Context) error {
	s.setLoading(true)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.provider.SignOut(ctx); err != nil {
		s.setLoading(false)
		if IsTimeout(err) {
			return ErrTimeout
		}
		return err
	}
	return nil
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether the store currently holds a session
func (s *Store) IsAuthenticated() bool {
	return s.State().IsAuthenticated()
}

// IsAdmin resolves the admin flag through a live role lookup. A missing
// profile or lookup failure yields false; a timeout is reported as
// ErrTimeout so it is not silently read as a denial.
func (s *Store) IsAdmin(ctx context.Context) (bool, error) {
	state := s.State()
	if state.Session == nil || state.User == nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	record, err := s.roles.FetchProfile(ctx, state.User.ID)
	if err != nil {
		if IsTimeout(err) {
			return false, ErrTimeout
		}
		s.logger.Warn().Err(err).Str("user_id", state.User.ID).Msg("Role lookup failed")
		return false, nil
	}
	if record == nil {
		return false, nil
	}

	return models.IsAdminRole(record.Role) && record.IsActive, nil
}

// Subscribe registers an observer for state snapshots. The returned
// function unsubscribes and is safe to call more than once.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

// Close releases the provider subscription
func (s *Store) Close() {
	s.closeOnce.Do(s.unsubscribe)
}

// handleChange overwrites the session from a provider notification.
// Notifications are applied in arrival order and always settle loading.
func (s *Store) handleChange(change StateChange) {
	s.setState(State{Session: change.Session, User: change.User, Loading: false})
}

func (s *Store) setState(state State) {
	s.mu.Lock()
	s.state = state
	fns := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

func (s *Store) setLoading(loading bool) {
	s.mu.Lock()
	s.state.Loading = loading
	state := s.state
	fns := s.snapshotSubs()
	s.mu.Unlock()

	for _, fn := range fns {
		fn(state)
	}
}

// snapshotSubs must be called with the lock held
func (s *Store) snapshotSubs() []func(State) {
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(State), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	return fns
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/makao-homes/makao/internal/models"
)

type fakeProvider struct {
	mu      sync.Mutex
	subs    map[int]func(StateChange)
	nextSub int

	session *Session
	user    *User
	getErr  error

	signOutErr    error
	signOutCalled bool
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{subs: make(map[int]func(StateChange))}
}

func (p *fakeProvider) GetSession(ctx context.Context, token string) (*Session, *User, error) {
	if p.getErr != nil {
		return nil, nil, p.getErr
	}
	return p.session, p.user, nil
}

func (p *fakeProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, *User, error) {
	return p.session, p.user, nil
}

func (p *fakeProvider) SignUp(ctx context.Context, email, password string) (*Session, *User, error) {
	return p.session, p.user, nil
}

func (p *fakeProvider) SignOut(ctx context.Context) error {
	p.signOutCalled = true
	if p.signOutErr != nil {
		return p.signOutErr
	}
	p.emit(StateChange{Event: EventSignedOut})
	return nil
}

func (p *fakeProvider) OnAuthStateChange(fn func(StateChange)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.subs, id)
		p.mu.Unlock()
	}
}

func (p *fakeProvider) emit(change StateChange) {
	p.mu.Lock()
	fns := make([]func(StateChange), 0, len(p.subs))
	for _, fn := range p.subs {
		fns = append(fns, fn)
	}
	p.mu.Unlock()
	for _, fn := range fns {
		fn(change)
	}
}

type fakeRoles struct {
	record *RoleRecord
	err    error
}

func (r *fakeRoles) FetchProfile(ctx context.Context, userID string) (*RoleRecord, error) {
	return r.record, r.err
}

func testSession() (*Session, *User) {
	return &Session{Token: "tok", ExpiresAt: time.Now().Add(time.Hour)},
		&User{ID: "user-1", Email: "asha@example.com"}
}

func newTestStore(provider SessionProvider, roles RoleLookup) *Store {
	return NewStore(provider, roles, time.Second, zerolog.Nop())
}

func TestStore_GetInitialSession(t *testing.T) {
	provider := newFakeProvider()
	provider.session, provider.user = testSession()

	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	assert.True(t, store.State().Loading)

	err := store.GetInitialSession(context.Background(), "tok")
	require.NoError(t, err)

	state := store.State()
	assert.False(t, state.Loading)
	assert.True(t, state.IsAuthenticated())
	assert.Equal(t, "user-1", state.User.ID)
}

func TestStore_GetInitialSessionFailureIsSignedOut(t *testing.T) {
	provider := newFakeProvider()
	provider.getErr = fmt.Errorf("%w: connection refused", ErrNetwork)

	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	err := store.GetInitialSession(context.Background(), "tok")
	require.NoError(t, err)

	state := store.State()
	assert.False(t, state.Loading)
	assert.False(t, state.IsAuthenticated())
}

func TestStore_GetInitialSessionTimeoutIsDistinct(t *testing.T) {
	provider := newFakeProvider()
	provider.getErr = fmt.Errorf("%w: %v", ErrTimeout, context.DeadlineExceeded)

	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	err := store.GetInitialSession(context.Background(), "tok")
	assert.ErrorIs(t, err, ErrTimeout)

	state := store.State()
	assert.False(t, state.Loading)
	assert.False(t, state.IsAuthenticated())
}

func TestStore_LoadingSettlesExactlyOnce(t *testing.T) {
	provider := newFakeProvider()
	provider.session, provider.user = testSession()

	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	var settled int
	unsubscribe := store.Subscribe(func(state State) {
		if !state.Loading {
			settled++
		}
	})
	defer unsubscribe()

	require.NoError(t, store.GetInitialSession(context.Background(), "tok"))
	assert.Equal(t, 1, settled)
}

func TestStore_ProviderNotificationsTrackSession(t *testing.T) {
	provider := newFakeProvider()
	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	require.NoError(t, store.GetInitialSession(context.Background(), ""))
	assert.False(t, store.IsAuthenticated())

	session, user := testSession()
	provider.emit(StateChange{Event: EventSignedIn, Session: session, User: user})
	assert.True(t, store.IsAuthenticated())
	assert.Equal(t, "tok", store.State().Session.Token)

	refreshed := &Session{Token: "tok-2", ExpiresAt: time.Now().Add(2 * time.Hour)}
	provider.emit(StateChange{Event: EventTokenRefreshed, Session: refreshed, User: user})
	assert.Equal(t, "tok-2", store.State().Session.Token)

	provider.emit(StateChange{Event: EventSignedOut})
	assert.False(t, store.IsAuthenticated())
	assert.False(t, store.State().Loading)
}

func TestStore_NotificationOrderPreserved(t *testing.T) {
	provider := newFakeProvider()
	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	var tokens []string
	unsubscribe := store.Subscribe(func(state State) {
		token := ""
		if state.Session != nil {
			token = state.Session.Token
		}
		tokens = append(tokens, token)
	})
	defer unsubscribe()

	session, user := testSession()
	provider.emit(StateChange{Event: EventSignedIn, Session: session, User: user})
	provider.emit(StateChange{Event: EventSignedOut})
	provider.emit(StateChange{Event: EventSignedIn, Session: session, User: user})

	assert.Equal(t, []string{"tok", "", "tok"}, tokens)
}

func TestStore_SignOut(t *testing.T) {
	provider := newFakeProvider()
	provider.session, provider.user = testSession()

	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()
	require.NoError(t, store.GetInitialSession(context.Background(), "tok"))

	var sawLoadingPulse bool
	unsubscribe := store.Subscribe(func(state State) {
		if state.Loading {
			sawLoadingPulse = true
		}
	})
	defer unsubscribe()

	require.NoError(t, store.SignOut(context.Background()))

	assert.True(t, provider.signOutCalled)
	assert.True(t, sawLoadingPulse)

	state := store.State()
	assert.False(t, state.Loading)
	assert.False(t, state.IsAuthenticated())
}

func TestStore_SignOutFailureKeepsSession(t *testing.T) {
	provider := newFakeProvider()
	provider.session, provider.user = testSession()

	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()
	require.NoError(t, store.GetInitialSession(context.Background(), "tok"))

	provider.signOutErr = fmt.Errorf("%w: connection reset", ErrNetwork)
	err := store.SignOut(context.Background())
	require.Error(t, err)

	// The local session survives a failed teardown; stale but safe
	state := store.State()
	assert.True(t, state.IsAuthenticated())
	assert.False(t, state.Loading)
}

func TestStore_IsAdmin(t *testing.T) {
	session, user := testSession()

	tests := []struct {
		name    string
		record  *RoleRecord
		err     error
		want    bool
		wantErr error
	}{
		{
			name:   "active admin",
			record: &RoleRecord{Role: models.RoleAdmin, IsActive: true},
			want:   true,
		},
		{
			name:   "active super admin",
			record: &RoleRecord{Role: models.RoleSuperAdmin, IsActive: true},
			want:   true,
		},
		{
			name:   "inactive admin",
			record: &RoleRecord{Role: models.RoleAdmin, IsActive: false},
			want:   false,
		},
		{
			name:   "regular user",
			record: &RoleRecord{Role: models.RoleUser, IsActive: true},
			want:   false,
		},
		{
			name:   "missing profile",
			record: nil,
			want:   false,
		},
		{
			name: "lookup failure denies quietly",
			err:  errors.New("disk corrupt"),
			want: false,
		},
		{
			name:    "lookup timeout is surfaced",
			err:     fmt.Errorf("%w: %v", ErrTimeout, context.DeadlineExceeded),
			want:    false,
			wantErr: ErrTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newFakeProvider()
			provider.session, provider.user = session, user

			store := newTestStore(provider, &fakeRoles{record: tt.record, err: tt.err})
			defer store.Close()
			require.NoError(t, store.GetInitialSession(context.Background(), "tok"))

			got, err := store.IsAdmin(context.Background())
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStore_IsAdminSignedOut(t *testing.T) {
	provider := newFakeProvider()
	store := newTestStore(provider, &fakeRoles{record: &RoleRecord{Role: models.RoleAdmin, IsActive: true}})
	defer store.Close()
	require.NoError(t, store.GetInitialSession(context.Background(), ""))

	got, err := store.IsAdmin(context.Background())
	require.NoError(t, err)
	assert.False(t, got)
}

func TestStore_CloseStopsNotifications(t *testing.T) {
	provider := newFakeProvider()
	store := newTestStore(provider, &fakeRoles{})
	require.NoError(t, store.GetInitialSession(context.Background(), ""))

	store.Close()

	session, user := testSession()
	provider.emit(StateChange{Event: EventSignedIn, Session: session, User: user})
	assert.False(t, store.IsAuthenticated())
}

func TestStore_UnsubscribeIsIdempotent(t *testing.T) {
	provider := newFakeProvider()
	store := newTestStore(provider, &fakeRoles{})
	defer store.Close()

	var calls int
	unsubscribe := store.Subscribe(func(State) { calls++ })
	unsubscribe()
	unsubscribe()

	require.NoError(t, store.GetInitialSession(context.Background(), ""))
	assert.Zero(t, calls)
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/makao-homes/makao/internal/models"
)

// SessionProvider is the session store client boundary: it owns session
// issuance and teardown and publishes state changes to subscribers.
// Implementations must deliver notifications in emission order.
type SessionProvider interface {
	// GetSession resolves a previously issued token. An empty or expired
	// token resolves to (nil, nil, nil): signed out, not an error.
	GetSession(ctx context.Context, token string) (*Session, *User, error)
	SignInWithPassword(ctx context.Context, email, password string) (*Session, *User, error)
	SignUp(ctx context.Context, email, password string) (*Session, *User, error)
	SignOut(ctx context.Context) error
	// OnAuthStateChange registers a listener for sign-in, sign-out and
	// token-refresh events. The returned function unsubscribes; it is
	// safe to call more than once.
	OnAuthStateChange(fn func(StateChange)) (unsubscribe func())
}

// LocalProvider implements SessionProvider against the local users table
// with bcrypt credentials and HS256 session tokens.
type LocalProvider struct {
	db       *gorm.DB
	tokenTTL time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	subs    map[int]func(StateChange)
	nextSub int
}

// NewLocalProvider creates a provider backed by the given database
func NewLocalProvider(db *gorm.DB, tokenTTL time.Duration, logger zerolog.Logger) *LocalProvider {
	return &LocalProvider{
		db:       db,
		tokenTTL: tokenTTL,
		logger:   logger,
		subs:     make(map[int]func(StateChange)),
	}
}

// GetSession validates a session token and loads the identity behind it
func (p *LocalProvider) GetSession(ctx context.Context, token string) (*Session, *User, error) {
	if token == "" {
		return nil, nil, nil
	}

	claims, err := ValidateToken(token)
	if err != nil {
		// Malformed or expired token equals signed out
		return nil, nil, nil
	}

	// Verify the user still exists
	var user models.User
	if err := p.db.WithContext(ctx).Where("id = ?", claims.UserID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, wrapStoreError(err)
	}

	session := &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time}
	return session, &User{ID: user.ID, Email: user.Email}, nil
}

// SignInWithPassword authenticates email+password credentials and issues
// a fresh session
func (p *LocalProvider) SignInWithPassword(ctx context.Context, email, password string) (*Session, *User, error) {
	var user models.User
	if err := p.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, wrapStoreError(err)
	}

	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, identity, err := p.issueSession(&user)
	if err != nil {
		return nil, nil, err
	}

	p.emit(StateChange{Event: EventSignedIn, Session: session, User: identity})
	return session, identity, nil
}

// SignUp registers a new account and signs it in. The very first account
// is provisioned as an active admin; later accounts get the user role.
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*Session, *User, error) {
	passwordHash, err := HashPassword(password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var user models.User
	err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return ErrEmailTaken
		}

		var total int64
		if err := tx.Model(&models.User{}).Count(&total).Error; err != nil {
			return err
		}

		user = models.User{Email: email, PasswordHash: passwordHash}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}

		role := models.RoleUser
		if total == 0 {
			role = models.RoleAdmin
		}
		profile := models.Profile{UserID: user.ID, Role: role, IsActive: true}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, nil, ErrEmailTaken
		}
		return nil, nil, wrapStoreError(err)
	}

	p.logger.Info().Str("user_id", user.ID).Str("email", user.Email).Msg("User registered")

	session, identity, err := p.issueSession(&user)
	if err != nil {
		return nil, nil, err
	}

	p.emit(StateChange{Event: EventSignedIn, Session: session, User: identity})
	return session, identity, nil
}

// SignOut tears down the session and notifies subscribers
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return wrapStoreError(err)
	}
	p.emit(StateChange{Event: EventSignedOut})
	return nil
}

// OnAuthStateChange registers a change listener
func (p *LocalProvider) OnAuthStateChange(fn func(StateChange)) func() {
	p.mu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = fn
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			delete(p.subs, id)
			p.mu.Unlock()
		})
	}
}

func (p *LocalProvider) issueSession(user *models.User) (*Session, *User, error) {
	token, expiresAt, err := GenerateToken(user.ID, user.Email, p.tokenTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt}, &User{ID: user.ID, Email: user.Email}, nil
}

// emit delivers a change notification to all subscribers in a stable
// order, outside the subscriber lock
func (p *LocalProvider) emit(change StateChange) {
	p.mu.Lock()
	ids := make([]int, 0, len(p.subs))
	for id := range p.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(StateChange), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, p.subs[id])
	}
	p.mu.Unlock()

	for _, fn := range fns {
		fn(change)
	}
}

// wrapStoreError maps a backing-store failure to the auth error taxonomy
func wrapStoreError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}

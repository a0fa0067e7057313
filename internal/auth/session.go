package auth

import "time"

// Session is the provider-issued proof of authentication
type Session struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// User is the minimal identity record attached to a session
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Event identifies the kind of auth state change
type Event string

const (
	EventSignedIn       Event = "signed_in"
	EventSignedOut      Event = "signed_out"
	EventTokenRefreshed Event = "token_refreshed"
)

// StateChange is one notification on the auth change stream.
// Session and User are nil for signed-out events.
type StateChange struct {
	Event   Event
	Session *Session
	User    *User
}

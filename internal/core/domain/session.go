package domain

// SessionState is the lifecycle position of an auth session.
type SessionState string

const (
	// SessionUninitialized is the state before durable storage has been read.
	SessionUninitialized SessionState = "uninitialized"
	SessionAnonymous     SessionState = "anonymous"
	SessionAuthenticated SessionState = "authenticated"
)

// Session is the authenticated user plus its token. User and Token are
// either both set or both empty.
type Session struct {
	User  *User  `json:"user,omitempty"`
	Token string `json:"token,omitempty"`
}

// IsZero reports whether the session is empty.
func (s Session) IsZero() bool {
	return s.User == nil && s.Token == ""
}

// IsAuthenticated reports whether the session holds both a user and a token.
func (s Session) IsAuthenticated() bool {
	return s.User != nil && s.Token != ""
}

// State maps the session contents to its lifecycle state.
func (s Session) State() SessionState {
	if s.IsAuthenticated() {
		return SessionAuthenticated
	}
	return SessionAnonymous
}

package session

// Store is the single authoritative place to read and write the Session.
// One Store is constructed per process and passed by reference to every
// component that needs it.
type Store interface {
	// Get returns the stored session, or nil when none exists.
	Get() (*Session, error)

	// Save overwrites all session fields. Concurrent readers observe either
	// the old session or the new one, never a mix.
	Save(*Session) error

	// Clear removes the session and any pending-auth state.
	Clear() error

	// AccessToken returns the stored access token. It fails open: any
	// storage failure yields an empty string, which callers must treat as
	// "unauthenticated", never as an error.
	AccessToken() string
}

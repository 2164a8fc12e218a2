package domain

// Session is the authenticated state held for one browser session.
//
// IsAuthenticated true with a nil User is a transient state: the profile
// fetch is still pending and must either populate User or drop back to
// unauthenticated.
type Session struct {
	User            *User  `json:"user"`
	IsAuthenticated bool   `json:"is_authenticated"`
	IsLoading       bool   `json:"is_loading"`
	Error           string `json:"error,omitempty"`
}

// HasRole reports whether the session belongs to an authenticated user
// with the given role.
func (s Session) HasRole(role string) bool {
	return s.IsAuthenticated && s.User != nil && s.User.Role == role
}

// IsEmailVerified reports whether the session's user has a verified email.
func (s Session) IsEmailVerified() bool {
	return s.User != nil && s.User.EmailVerified
}

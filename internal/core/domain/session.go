package domain

import "time"

// Session is the credential the console keeps for a signed-in browser. The
// browser itself only holds ID in a cookie.
type Session struct {
	ID        string    `json:"id"`
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	Email     string    `json:"email"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	// ExpiresAt is copied from the token's exp claim for display. It is
	// never enforced by the console.
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// Credentials is what the login form submits to the remote API.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Timezone string `json:"timezone"`
}

// LoginResult is the remote API's answer to a successful login.
type LoginResult struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

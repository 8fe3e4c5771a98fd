package authmodel

// AuthRequest is the body of the authentication endpoint.
type AuthRequest struct {
	// UserEmail identifies the account.
	// Example: "ana@example.com"
	UserEmail string `json:"userEmail"`

	// UserPass is the plain password, sent once over TLS.
	// Security: Never log this value
	UserPass string `json:"userPass"`
}

// AuthResponse is returned by both the authentication and the refresh endpoints.
type AuthResponse struct {
	// Token is the short-lived access token (a JWT).
	// Usage: Include in Authorization header: "Bearer <token>"
	Token string `json:"token"`

	// RefreshToken is exchanged for a new pair when Token is rejected.
	// Behavior: Rotated on every refresh, always store the returned value
	RefreshToken string `json:"refreshToken"`

	// Resultado reports whether the credentials were accepted.
	// A false value comes with a human readable Msg and empty tokens.
	Resultado bool `json:"resultado"`

	// Msg is the backend message, shown to the user on failure.
	Msg string `json:"msg"`
}

// RefreshTokenRequest is the body of the refresh endpoint.
type RefreshTokenRequest struct {
	// TokenExpirado is the access token being replaced, possibly expired.
	TokenExpirado string `json:"tokenExpirado"`

	// RefreshToken is the current refresh token.
	RefreshToken string `json:"refreshToken"`
}

// ChangePasswordRequest is the body of the change password endpoint.
type ChangePasswordRequest struct {
	UserID          string `json:"userId"`
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

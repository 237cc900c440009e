package session

// SignInRequest carries a bearer token issued by POST /session/token.
type SignInRequest struct {
	Token string `json:"token" validate:"required"`
}

// TokenRequest asks for a token for userId.
type TokenRequest struct {
	UserID string `json:"userId" validate:"required,max=128"`
}

// TokenResponse is returned by POST /session/token.
type TokenResponse struct {
	Token string `json:"token"`
}

// StatusResponse describes the current session.
type StatusResponse struct {
	SignedIn bool   `json:"signedIn"`
	UserID   string `json:"userId,omitempty"`
	// Source is "remote" while signed in and "local" otherwise.
	Source string `json:"source"`
}

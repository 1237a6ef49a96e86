package models

import "github.com/golang-jwt/jwt/v5"

// LoginRequest holds credentials for authenticating a user. The principal
// may be identified by username or email.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// LoginResponse returns the issued access token alongside the user summary.
// The refresh token travels only in the Set-Cookie header.
type LoginResponse struct {
	UserID      string   `json:"userId"`
	Username    string   `json:"username"`
	Email       string   `json:"email"`
	Image       string   `json:"image"`
	Roles       []string `json:"roles"`
	AccessToken string   `json:"accessToken"`
}

// RegisterRequest is the public signup payload.
type RegisterRequest struct {
	Username  string `json:"username" validate:"required,min=3"`
	Email     string `json:"email" validate:"required,email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Password  string `json:"password" validate:"required,min=6"`
}

// RegisterResponse confirms the created account.
type RegisterResponse struct {
	Username string `json:"username"`
}

// RefreshResponse carries a reissued access token, or only Message when no
// refresh cookie accompanied the request (soft response, kept for client
// compatibility).
type RefreshResponse struct {
	UserID      string `json:"userId,omitempty"`
	Username    string `json:"username,omitempty"`
	Image       string `json:"image,omitempty"`
	AccessToken string `json:"accessToken,omitempty"`
	Message     string `json:"message,omitempty"`
}

// AccessTokenClaims is the stateless access-token payload: subject is the
// username, plus issued-at and expiry. Roles are resolved from the store on
// each request, never embedded in the token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
}

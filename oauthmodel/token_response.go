package oauthmodel

import "strings"

// LoginResponse is returned by the backend login endpoint.
type LoginResponse struct {
	// AccessToken is the short-lived JWT sent as "Authorization: Bearer <access_token>".
	// The real expiry is the token's exp claim.
	AccessToken string `json:"access_token"`

	// RefreshToken is an opaque, longer-lived token used only at the refresh endpoint.
	RefreshToken string `json:"refresh_token"`

	// TokenType is "bearer".
	TokenType string `json:"token_type"`
}

// Complete reports whether both tokens were issued.
func (r LoginResponse) Complete() bool {
	return strings.TrimSpace(r.AccessToken) != "" && strings.TrimSpace(r.RefreshToken) != ""
}

// RefreshResponse is returned by the refresh endpoint. The backend normally
// keeps the refresh token; when it rotates it, RefreshToken is set.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

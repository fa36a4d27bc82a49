package oauthmodel

import "net/url"

// LoginForm builds the form-encoded login body.
func LoginForm(username, password string) url.Values {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	return form
}

// RefreshRequest is the JSON body of the refresh endpoint.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

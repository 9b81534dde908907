package api

import (
	"context"

	"github.com/nhle/tracker-sync/internal/model"
)

// credentialsRequest is the body of login and register calls.
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse is the body returned by login and register.
type AuthResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user,omitempty"`

	// AccessToken is the older name some deployments still send.
	AccessToken string `json:"access_token,omitempty"`
}

// BearerToken returns the token under whichever field the server used.
func (r *AuthResponse) BearerToken() string {
	if r == nil {
		return ""
	}
	if r.Token != "" {
		return r.Token
	}
	return r.AccessToken
}

// Login calls POST /auth/login. Bad credentials come back as a
// *ResponseError classified as validation.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.postAnonymous(ctx, "/auth/login", credentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Register calls POST /auth/register. The server may or may not log the
// new user in; check BearerToken on the response.
func (c *Client) Register(ctx context.Context, email, password string) (*AuthResponse, error) {
	var out AuthResponse
	err := c.postAnonymous(ctx, "/auth/register", credentialsRequest{Email: email, Password: password}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Logout calls POST /auth/logout.
func (c *Client) Logout(ctx context.Context) error {
	return c.Post(ctx, "/auth/logout", nil, nil)
}

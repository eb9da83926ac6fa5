package remote

import (
	"context"
	"net/http"
)

// AuthClient is the typed client for the backend authentication endpoint.
type AuthClient struct {
	c *Client
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials is the backend's answer to a successful login.
type Credentials struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func (s *AuthClient) Login(ctx context.Context, email, password string) (Credentials, error) {
	var creds Credentials
	err := s.c.do(ctx, http.MethodPost, "/api/auth/login",
		loginRequest{Email: email, Password: password}, &creds)
	if err != nil {
		return Credentials{}, err
	}
	return creds, nil
}

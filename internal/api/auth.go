package api

import (
	"context"
	"fmt"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func authPath(mode, suffix string) string {
	if mode == ModeEmployee {
		return "/auth/employee/" + suffix
	}
	return "/auth/" + suffix
}

// Login exchanges credentials for an access token and installs it on the client.
func (c *Client) Login(ctx context.Context, email, password, mode string) (string, error) {
	var resp loginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.post(ctx, authPath(mode, "login"), body, &resp); err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if resp.AccessToken == "" {
		return "", fmt.Errorf("login: empty access token")
	}
	c.SetToken(resp.AccessToken)
	return resp.AccessToken, nil
}

func (c *Client) SendOTP(ctx context.Context, email, mode string) error {
	return c.post(ctx, authPath(mode, "send-otp"), map[string]string{"email": email}, nil)
}

func (c *Client) ResetPassword(ctx context.Context, in ResetPasswordInput, mode string) error {
	if err := Validate(in); err != nil {
		return err
	}
	return c.post(ctx, authPath(mode, "reset-password"), in, nil)
}

// Context loads the signed-in user's projects. userType comes from the token.
func (c *Client) Context(ctx context.Context, userType string) (*UserContext, error) {
	path := "/me/context"
	if userType == ModeEmployee {
		path = "/me/employee-context"
	}
	var uc UserContext
	if err := c.get(ctx, path, nil, &uc); err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	if uc.UserType == "" {
		uc.UserType = userType
	}
	return &uc, nil
}

package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the hosted authentication service (a GoTrue-compatible
// REST API). It is a thin wrapper: session bookkeeping lives in Manager.
type Client struct {
	httpClient *http.Client
	baseURL    string
	anonKey    string
	serviceKey string
}

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// ExpiresAt is not part of the wire format; Manager stamps it on receipt so
// the refresh loop knows when to act.
type StoredSession struct {
	Session
	ExpiresAt time.Time `json:"expires_at"`
}

var ErrInvalidToken = errors.New("authapi: invalid or expired token")

// apiError is the error body shape the auth service returns. Older
// deployments use msg, newer ones error_description.
type apiError struct {
	Msg              string `json:"msg"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

func (e *apiError) message() string {
	switch {
	case e.ErrorDescription != "":
		return e.ErrorDescription
	case e.Msg != "":
		return e.Msg
	case e.Error != "":
		return e.Error
	}
	return "authentication request failed"
}

func NewClient(baseURL, anonKey, serviceKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		anonKey:    anonKey,
		serviceKey: serviceKey,
	}
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body any, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrInvalidToken
	}
	if resp.StatusCode >= 400 {
		var apiErr apiError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil {
			return errors.New(apiErr.message())
		}
		return fmt.Errorf("auth service returned status %d", resp.StatusCode)
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// SignInWithPassword exchanges credentials for a session. The returned error
// message is suitable for direct display ("Invalid login credentials" etc.).
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", map[string]string{
		"email":    email,
		"password": password,
	}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignUp creates an account tagged with the requested role in user metadata.
// Depending on the service's confirmation settings the response may or may
// not carry a usable session.
func (c *Client) SignUp(ctx context.Context, email, password, role string) (*Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/signup", "", map[string]any{
		"email":    email,
		"password": password,
		"data":     map[string]string{"role": role},
	}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetUser resolves an access token to its user. ErrInvalidToken on a
// missing or expired token.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if accessToken == "" {
		return nil, ErrInvalidToken
	}
	if err := c.do(ctx, http.MethodGet, "/user", accessToken, nil, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// RefreshSession trades a refresh token for a fresh session.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	var sess Session
	err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", map[string]string{
		"refresh_token": refreshToken,
	}, &sess)
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// SignOut invalidates the session server-side. Callers clear local state
// regardless of the outcome.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// AdminDeleteUser removes the auth user with the service-role key. The
// backend's cascading deletes take care of dependent rows.
func (c *Client) AdminDeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/admin/users/"+userID, c.serviceKey, nil, nil)
}

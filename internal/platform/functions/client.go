package functions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client invokes the edge-function service. Every function speaks the same
// small contract: JSON in, {"success":true} or {"error":...} out.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		baseURL:    baseURL,
	}
}

type functionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail"`
}

func (c *Client) invoke(ctx context.Context, name, bearer string, body any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+name, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke %s: %w", name, err)
	}
	defer resp.Body.Close()

	var out functionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("invoke %s: status %d", name, resp.StatusCode)
	}
	if resp.StatusCode >= 400 || !out.Success {
		msg := out.Error
		if msg == "" {
			msg = fmt.Sprintf("status %d", resp.StatusCode)
		}
		if out.Detail != "" {
			msg += ": " + out.Detail
		}
		return fmt.Errorf("invoke %s: %s", name, msg)
	}
	return nil
}

// DeleteAccount deletes the calling user's auth account. Requires the
// caller's own access token; the function validates the session itself.
func (c *Client) DeleteAccount(ctx context.Context, accessToken string) error {
	return c.invoke(ctx, "delete-account", accessToken, nil)
}

// EnsureAvatarsBucket idempotently provisions the public avatars bucket.
func (c *Client) EnsureAvatarsBucket(ctx context.Context, accessToken string) error {
	return c.invoke(ctx, "ensure-avatars-bucket", accessToken, nil)
}

// NotifySignup reports a new signup. Callers treat failures as non-fatal.
func (c *Client) NotifySignup(ctx context.Context, email, role, userID string) error {
	return c.invoke(ctx, "notify-signup", "", map[string]string{
		"email":   email,
		"role":    role,
		"user_id": userID,
	})
}

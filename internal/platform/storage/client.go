package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrBucketNotFound is the first-class "bucket missing" case; callers
	// provision the bucket and retry once.
	ErrBucketNotFound = errors.New("storage: bucket not found")
	ErrBucketExists   = errors.New("storage: bucket already exists")
)

// Client talks to the hosted object-storage API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type storageError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e *storageError) text() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

// Upload stores an object and returns its public URL. Existing objects at
// the same path are overwritten.
func (c *Client) Upload(ctx context.Context, bucket, objectPath, contentType string, data io.Reader) (string, error) {
	url := fmt.Sprintf("%s/object/%s/%s", c.baseURL, bucket, objectPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, data)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("storage upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var sErr storageError
		_ = json.NewDecoder(resp.Body).Decode(&sErr)
		if isBucketMissing(resp.StatusCode, sErr.text()) {
			return "", ErrBucketNotFound
		}
		if sErr.text() != "" {
			return "", fmt.Errorf("storage upload: %s", sErr.text())
		}
		return "", fmt.Errorf("storage upload: status %d", resp.StatusCode)
	}

	return c.PublicURL(bucket, objectPath), nil
}

// PublicURL builds the public-access URL for an object in a public bucket.
func (c *Client) PublicURL(bucket, objectPath string) string {
	return fmt.Sprintf("%s/object/public/%s/%s", c.baseURL, bucket, objectPath)
}

// CreateBucket provisions a bucket. ErrBucketExists when it is already
// there, which idempotent callers treat as success.
func (c *Client) CreateBucket(ctx context.Context, name string, public bool) error {
	body, err := json.Marshal(map[string]any{"name": name, "id": name, "public": public})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/bucket", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("storage create bucket: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var sErr storageError
		_ = json.NewDecoder(resp.Body).Decode(&sErr)
		msg := strings.ToLower(sErr.text())
		if resp.StatusCode == http.StatusConflict || strings.Contains(msg, "already exists") {
			return ErrBucketExists
		}
		if sErr.text() != "" {
			return fmt.Errorf("storage create bucket: %s", sErr.text())
		}
		return fmt.Errorf("storage create bucket: status %d", resp.StatusCode)
	}
	return nil
}

func isBucketMissing(status int, msg string) bool {
	msg = strings.ToLower(msg)
	if strings.Contains(msg, "bucket not found") {
		return true
	}
	return status == http.StatusNotFound && strings.Contains(msg, "bucket")
}

// Package client is a typed HTTP client for the student API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pavelanni/otms/internal/model"
)

// APIError is a non-2xx response from the server.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
}

// Client talks to an otms server on behalf of one user.
type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for baseURL. A nil httpClient uses a client with a 30s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Token returns the bearer token obtained by Login.
func (c *Client) Token() string { return c.token }

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var env struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Detail == "" {
			env.Detail = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Detail: env.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Login authenticates and keeps the token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (model.User, error) {
	var resp struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &resp)
	if err != nil {
		return model.User{}, err
	}
	c.token = resp.Token
	return resp.User, nil
}

// Logout revokes the current token.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// AvailableTests lists the tests the student can take.
func (c *Client) AvailableTests(ctx context.Context) ([]model.TestView, error) {
	var resp struct {
		Tests []model.TestView `json:"tests"`
	}
	if err := c.do(ctx, http.MethodGet, "/student/tests", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Tests, nil
}

// StartTest fetches a test's session payload, which starts the server-side clock.
func (c *Client) StartTest(ctx context.Context, testID int64) (model.TestView, error) {
	var v model.TestView
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/student/tests/%d", testID), nil, &v)
	return v, err
}

// Submit sends answers for a test.
func (c *Client) Submit(ctx context.Context, testID int64, answers model.SubmittedAnswers) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/student/tests/%d", testID),
		map[string]any{"answers": answers}, nil)
}

// Result fetches the graded result of a submitted test.
func (c *Client) Result(ctx context.Context, testID int64) (model.TestResult, error) {
	var r model.TestResult
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/student/test-result/%d", testID), nil, &r)
	return r, err
}

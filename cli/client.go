package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type contactForm struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

type contactResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type delivery struct {
	ID        uint      `json:"id"`
	RequestID string    `json:"request_id"`
	Outcome   string    `json:"outcome"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}

type healthStatus struct {
	Status         string   `json:"status"`
	MailConfigured bool     `json:"mail_configured"`
	RateLimitKeys  int      `json:"rate_limit_keys"`
	Healthy        bool     `json:"healthy"`
	Issues         []string `json:"issues"`
}

type client struct {
	base  string
	token string
	http  *http.Client
}

func newClient() *client {
	return &client{
		base:  strings.TrimRight(serverURL, "/"),
		token: adminToken,
		http:  &http.Client{Timeout: 30 * time.Second},
	}
}

// submit returns the server's envelope for any status that carries one.
func (c *client) submit(ctx context.Context, form contactForm) (contactResult, int, error) {
	body, err := json.Marshal(form)
	if err != nil {
		return contactResult{}, 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/contact", bytes.NewReader(body))
	if err != nil {
		return contactResult{}, 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	var res contactResult
	status, err := c.do(req, &res)
	return res, status, err
}

func (c *client) deliveries(ctx context.Context, limit int) ([]delivery, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/v1/deliveries?limit=%d", c.base, limit), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	var rows []delivery
	status, err := c.do(req, &rows)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("server returned %d", status)
	}
	return rows, nil
}

// health decodes the body for 200 and 503 alike.
func (c *client) health(ctx context.Context) (healthStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/health", nil)
	if err != nil {
		return healthStatus{}, err
	}
	var h healthStatus
	_, err = c.do(req, &h)
	return h, err
}

func (c *client) do(req *http.Request, out any) (int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	return resp.StatusCode, nil
}

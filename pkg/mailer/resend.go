package mailer

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

	"github.com/rs/zerolog"
)

const DefaultResendURL = "https://api.resend.com"

// ResendSender delivers payloads through the Resend HTTP API.
type ResendSender struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retrier *retrier
}

type resendOptions struct {
	baseURL    string
	timeout    time.Duration
	client     *http.Client
	initialMs  int
	maxMs      int
	maxRetries int
	logger     zerolog.Logger
}

type ResendOption func(*resendOptions)

func WithBaseURL(u string) ResendOption {
	return func(o *resendOptions) { o.baseURL = strings.TrimRight(u, "/") }
}

func WithTimeout(d time.Duration) ResendOption {
	return func(o *resendOptions) { o.timeout = d }
}

func WithHTTPClient(c *http.Client) ResendOption {
	return func(o *resendOptions) { o.client = c }
}

func WithRetry(initialMs, maxMs, maxRetries int) ResendOption {
	return func(o *resendOptions) {
		o.initialMs = initialMs
		o.maxMs = maxMs
		o.maxRetries = maxRetries
	}
}

func WithLogger(l zerolog.Logger) ResendOption {
	return func(o *resendOptions) { o.logger = l }
}

func NewResendSender(apiKey string, opts ...ResendOption) *ResendSender {
	o := resendOptions{
		baseURL:    DefaultResendURL,
		timeout:    10 * time.Second,
		initialMs:  500,
		maxMs:      5000,
		maxRetries: 2,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	client := o.client
	if client == nil {
		client = &http.Client{Timeout: o.timeout}
	}
	return &ResendSender{
		apiKey:  apiKey,
		baseURL: o.baseURL,
		client:  client,
		retrier: newRetrier(o.initialMs, o.maxMs, o.maxRetries, o.logger),
	}
}

type resendEmail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	ReplyTo string   `json:"reply_to,omitempty"`
	HTML    string   `json:"html"`
	Text    string   `json:"text"`
}

// Send posts p to the provider. Transport errors and 429/5xx answers are
// retried; the Idempotency-Key header keeps retries from duplicating mail.
func (s *ResendSender) Send(ctx context.Context, p Payload) (Result, error) {
	body, err := json.Marshal(resendEmail{
		From:    p.From,
		To:      []string{p.To},
		Subject: p.Subject,
		ReplyTo: p.ReplyTo,
		HTML:    p.HTML,
		Text:    p.Text,
	})
	if err != nil {
		return Result{}, err
	}

	var result Result
	err = s.retrier.do(ctx, func() error {
		res, err := s.post(ctx, body, p.IdempotencyKey)
		if err != nil {
			return err
		}
		result = res
		if res.Error != nil && isRetryableStatus(res.Error.StatusCode) {
			return retryableStatusError{status: res.Error.StatusCode}
		}
		return nil
	}, isRetryableHTTP)
	if err != nil {
		var statusErr retryableStatusError
		if errors.As(err, &statusErr) {
			// The provider answered every attempt; surface its last refusal.
			return result, nil
		}
		return Result{}, err
	}
	return result, nil
}

func (s *ResendSender) post(ctx context.Context, body []byte, idempotencyKey string) (Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var sent struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &sent); err != nil {
			return Result{}, fmt.Errorf("decode provider response: %w", err)
		}
		return Result{ID: sent.ID}, nil
	}

	perr := &ProviderError{}
	if err := json.Unmarshal(data, perr); err != nil || perr.Message == "" {
		perr.Message = strings.TrimSpace(string(data))
		if perr.Message == "" {
			perr.Message = http.StatusText(resp.StatusCode)
		}
	}
	perr.StatusCode = resp.StatusCode
	return Result{Error: perr}, nil
}

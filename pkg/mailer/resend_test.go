package mailer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func testPayload() Payload {
	return Payload{
		From:           testFrom,
		To:             testTo,
		Subject:        "New contact form submission from John Doe",
		ReplyTo:        "john@example.com",
		HTML:           "<p>Hello</p>",
		Text:           "Hello",
		IdempotencyKey: "req-42",
	}
}

func TestResendSenderSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer re_test", r.Header.Get("Authorization"))
		require.Equal(t, "req-42", r.Header.Get("Idempotency-Key"))

		var body resendEmail
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{testTo}, body.To)
		require.Equal(t, "john@example.com", body.ReplyTo)
		require.Equal(t, "Hello", body.Text)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_123"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", WithBaseURL(srv.URL), WithRetry(1, 1, 0))
	res, err := s.Send(context.Background(), testPayload())
	require.NoError(t, err)
	require.Nil(t, res.Error)
	require.Equal(t, "msg_123", res.ID)
}

func TestResendSenderProviderError(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"statusCode":422,"name":"validation_error","message":"Invalid from field"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", WithBaseURL(srv.URL), WithRetry(1, 1, 3))
	res, err := s.Send(context.Background(), testPayload())
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	require.Equal(t, 422, res.Error.StatusCode)
	require.Equal(t, "validation_error", res.Error.Name)
	require.Equal(t, "Invalid from field", res.Error.Message)
	require.EqualValues(t, 1, atomic.LoadInt32(&hits), "client errors are not retried")
}

func TestResendSenderRetriesServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":"msg_retry"}`))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", WithBaseURL(srv.URL), WithRetry(1, 1, 2))
	res, err := s.Send(context.Background(), testPayload())
	require.NoError(t, err)
	require.Equal(t, "msg_retry", res.ID)
	require.EqualValues(t, 2, atomic.LoadInt32(&hits))
}

func TestResendSenderReturnsLastRefusalAfterRetries(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("upstream exploded"))
	}))
	defer srv.Close()

	s := NewResendSender("re_test", WithBaseURL(srv.URL), WithRetry(1, 1, 2))
	res, err := s.Send(context.Background(), testPayload())
	require.NoError(t, err)
	require.NotNil(t, res.Error)
	require.Equal(t, http.StatusInternalServerError, res.Error.StatusCode)
	require.Equal(t, "upstream exploded", res.Error.Message)
	require.EqualValues(t, 3, atomic.LoadInt32(&hits))
}

func TestResendSenderTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	s := NewResendSender("re_test", WithBaseURL(url), WithRetry(1, 1, 1))
	res, err := s.Send(context.Background(), testPayload())
	require.Error(t, err)
	require.Nil(t, res.Error)
}

func TestNewSender(t *testing.T) {
	require.IsType(t, Disabled{}, NewSender(""))
	require.IsType(t, &ResendSender{}, NewSender("re_test"))
}

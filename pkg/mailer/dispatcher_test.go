package mailer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/haasonsaas/contactd/pkg/contact"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

const (
	testFrom = "Contact Form <noreply@example.com>"
	testTo   = "owner@example.com"
)

type fakeSender struct {
	mu     sync.Mutex
	calls  []Payload
	result Result
	err    error
}

func (f *fakeSender) Send(_ context.Context, p Payload) (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, p)
	return f.result, f.err
}

func testSubmission(t *testing.T, message string) contact.Submission {
	t.Helper()
	sub, err := contact.Validate(contact.Fields{
		FirstName: "John",
		LastName:  "Doe",
		Email:     "john@example.com",
		Message:   message,
	})
	require.NoError(t, err)
	return sub
}

func TestBuildPayload(t *testing.T) {
	d := NewDispatcher(&fakeSender{}, testFrom, testTo)
	p := d.Build(testSubmission(t, "<script>alert('x')</script>\nsecond line"))

	require.Equal(t, testFrom, p.From)
	require.Equal(t, testTo, p.To)
	require.Equal(t, "john@example.com", p.ReplyTo)
	require.Equal(t, "New contact form submission from John Doe", p.Subject)

	require.NotContains(t, p.HTML, "<script>")
	require.Contains(t, p.HTML, "&lt;script&gt;alert(&#39;x&#39;)&lt;/script&gt;<br>\nsecond line")
	require.Contains(t, p.HTML, "John Doe")

	require.Contains(t, p.Text, "Message:\nscriptalert('x')/script\nsecond line")
	require.NotContains(t, p.Text, "&#39;")
	require.Equal(t, p, d.Build(testSubmission(t, "<script>alert('x')</script>\nsecond line")))
}

func TestSubjectCollapsesWhitespace(t *testing.T) {
	sub := testSubmission(t, "hi")
	sub.Plain.FirstName = "John\r\nBcc: x@example.com"
	require.False(t, strings.ContainsAny(subject(sub), "\r\n"))
}

func TestDispatchSends(t *testing.T) {
	sender := &fakeSender{result: Result{ID: "msg_1"}}
	d := NewDispatcher(sender, testFrom, testTo)
	require.True(t, d.Configured())

	ctx := WithIdempotencyKey(context.Background(), "req-1")
	receipt, err := d.Dispatch(ctx, testSubmission(t, "Hello"))
	require.NoError(t, err)
	require.Equal(t, "msg_1", receipt.ID)

	require.Len(t, sender.calls, 1)
	require.Equal(t, testTo, sender.calls[0].To)
	require.Equal(t, "john@example.com", sender.calls[0].ReplyTo)
	require.Equal(t, "req-1", sender.calls[0].IdempotencyKey)
}

func TestDispatchProviderRejected(t *testing.T) {
	perr := &ProviderError{StatusCode: 422, Name: "validation_error", Message: "bad from"}
	d := NewDispatcher(&fakeSender{result: Result{Error: perr}}, testFrom, testTo)

	_, err := d.Dispatch(context.Background(), testSubmission(t, "Hello"))
	var derr *DispatchError
	require.True(t, errors.As(err, &derr))
	require.Equal(t, ProviderRejected, derr.Kind)

	var got *ProviderError
	require.True(t, errors.As(err, &got))
	require.Equal(t, "validation_error", got.Name)
}

func TestDispatchProviderUnavailable(t *testing.T) {
	boom := errors.New("connection reset")
	d := NewDispatcher(&fakeSender{err: boom}, testFrom, testTo)

	_, err := d.Dispatch(context.Background(), testSubmission(t, "Hello"))
	var derr *DispatchError
	require.True(t, errors.As(err, &derr))
	require.Equal(t, ProviderUnavailable, derr.Kind)
	require.ErrorIs(t, err, boom)
}

func TestDispatchNotConfigured(t *testing.T) {
	for _, sender := range []Sender{Disabled{}, nil, NewSender("")} {
		d := NewDispatcher(sender, testFrom, testTo)
		require.False(t, d.Configured())

		_, err := d.Dispatch(context.Background(), testSubmission(t, "Hello"))
		var derr *DispatchError
		require.True(t, errors.As(err, &derr))
		require.Equal(t, NotConfigured, derr.Kind)
		require.ErrorIs(t, err, ErrNotConfigured)
	}
}

func TestDispatchRecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(provider)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	d := NewDispatcher(&fakeSender{err: errors.New("timeout")}, testFrom, testTo)
	_, err := d.Dispatch(context.Background(), testSubmission(t, "Hello"))
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "mailer.send", span.Name())
	var outcome string
	for _, attr := range span.Attributes() {
		if attr.Key == "mail.outcome" {
			outcome = attr.Value.AsString()
		}
	}
	require.Equal(t, "unavailable", outcome)
}

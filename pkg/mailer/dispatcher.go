package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/haasonsaas/contactd/pkg/contact"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/haasonsaas/contactd/pkg/mailer"

// Kind classifies a failed dispatch.
type Kind int

const (
	NotConfigured Kind = iota + 1
	ProviderRejected
	ProviderUnavailable
)

func (k Kind) String() string {
	switch k {
	case NotConfigured:
		return "not_configured"
	case ProviderRejected:
		return "rejected"
	case ProviderUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type DispatchError struct {
	Kind Kind
	Err  error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("dispatch %s: %v", e.Kind, e.Err)
}

func (e *DispatchError) Unwrap() error { return e.Err }

// Receipt identifies a message accepted by the provider.
type Receipt struct {
	ID string
}

// Dispatcher turns a validated submission into an email to the practice
// mailbox with Reply-To pointing back at the submitter.
type Dispatcher struct {
	sender     Sender
	from       string
	to         string
	configured bool
}

func NewDispatcher(sender Sender, from, to string) *Dispatcher {
	return &Dispatcher{
		sender:     sender,
		from:       from,
		to:         to,
		configured: !isDisabled(sender),
	}
}

// Configured reports whether a real provider is behind this dispatcher.
func (d *Dispatcher) Configured() bool { return d.configured }

// Build renders the payload for sub. It is deterministic.
func (d *Dispatcher) Build(sub contact.Submission) Payload {
	return Payload{
		From:    d.from,
		To:      d.to,
		Subject: subject(sub),
		ReplyTo: sub.ReplyTo,
		HTML:    renderHTML(sub.HTML),
		Text:    renderText(sub.Plain),
	}
}

// Dispatch sends sub through the provider. Failures are *DispatchError.
func (d *Dispatcher) Dispatch(ctx context.Context, sub contact.Submission) (Receipt, error) {
	if !d.configured {
		return Receipt{}, &DispatchError{Kind: NotConfigured, Err: ErrNotConfigured}
	}

	p := d.Build(sub)
	p.IdempotencyKey = IdempotencyKey(ctx)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "mailer.send")
	defer span.End()

	res, err := d.sender.Send(ctx, p)
	switch {
	case errors.Is(err, ErrNotConfigured):
		err = &DispatchError{Kind: NotConfigured, Err: err}
	case err != nil:
		err = &DispatchError{Kind: ProviderUnavailable, Err: err}
	case res.Error != nil:
		err = &DispatchError{Kind: ProviderRejected, Err: res.Error}
	}
	if err != nil {
		var derr *DispatchError
		errors.As(err, &derr)
		span.SetAttributes(attribute.String("mail.outcome", derr.Kind.String()))
		span.RecordError(err)
		span.SetStatus(codes.Error, derr.Kind.String())
		return Receipt{}, err
	}

	span.SetAttributes(
		attribute.String("mail.outcome", "sent"),
		attribute.String("mail.message_id", res.ID),
	)
	return Receipt{ID: res.ID}, nil
}

func subject(sub contact.Submission) string {
	// Collapse whitespace so a crafted name cannot smuggle header line breaks.
	name := strings.Join(strings.Fields(sub.FullName()), " ")
	return "New contact form submission from " + name
}

type idempotencyKey struct{}

// WithIdempotencyKey attaches the key that Dispatch forwards to the provider.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKey{}, key)
}

func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKey{}).(string)
	return key
}

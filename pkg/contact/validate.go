package contact

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength    = 50
	MaxMessageLength = 5000
)

// Kind identifies which validation rule rejected a submission.
type Kind int

const (
	MissingFields Kind = iota + 1
	InvalidEmail
	FieldTooLong
	MessageTooLong
)

func (k Kind) String() string {
	switch k {
	case MissingFields:
		return "missing_fields"
	case InvalidEmail:
		return "invalid_email"
	case FieldTooLong:
		return "field_too_long"
	case MessageTooLong:
		return "message_too_long"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Message is the text shown to the person filling in the form.
func (k Kind) Message() string {
	switch k {
	case MissingFields:
		return "All fields are required."
	case InvalidEmail:
		return "Please enter a valid email address."
	case FieldTooLong:
		return "Name fields are too long."
	case MessageTooLong:
		return "Message is too long. Please keep it under 5000 characters."
	default:
		return "Invalid submission."
	}
}

type ValidationError struct {
	Kind Kind
}

func (e *ValidationError) Error() string {
	return e.Kind.Message()
}

// Fields are the four values posted by the contact form.
type Fields struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Message   string `json:"message"`
}

// Submission is a validated contact form. HTML holds the escaped values for
// the HTML email body, Plain holds the variants for the text body. ReplyTo
// is the address exactly as typed, which passed the syntax check.
type Submission struct {
	HTML    Fields
	Plain   Fields
	ReplyTo string
}

// FullName is the plain-text "First Last" form of the submitter's name.
func (s Submission) FullName() string {
	return s.Plain.FirstName + " " + s.Plain.LastName
}

var validate = validator.New()

// Validate sanitizes raw and checks it. Rules run in a fixed order and the
// first failure is returned: required fields, then email syntax, then
// name lengths, then message length.
func Validate(raw Fields) (Submission, error) {
	clean := Fields{
		FirstName: Sanitize(raw.FirstName),
		LastName:  Sanitize(raw.LastName),
		Email:     Sanitize(raw.Email),
		Message:   Sanitize(raw.Message),
	}

	if clean.FirstName == "" || clean.LastName == "" || clean.Email == "" || clean.Message == "" {
		return Submission{}, &ValidationError{Kind: MissingFields}
	}
	// Escaping turns legal local parts such as o'brien into entities, so the
	// syntax check runs on the address as typed.
	replyTo := strings.TrimSpace(raw.Email)
	if err := validate.Var(replyTo, "email"); err != nil {
		return Submission{}, &ValidationError{Kind: InvalidEmail}
	}
	// Lengths are measured on the input as typed; escaping and the sanitize
	// cap would otherwise skew them.
	if runeLen(raw.FirstName) > MaxNameLength || runeLen(raw.LastName) > MaxNameLength {
		return Submission{}, &ValidationError{Kind: FieldTooLong}
	}
	if runeLen(raw.Message) > MaxMessageLength {
		return Submission{}, &ValidationError{Kind: MessageTooLong}
	}

	return Submission{
		HTML:    clean,
		ReplyTo: replyTo,
		Plain: Fields{
			FirstName: SanitizeForPlainText(raw.FirstName),
			LastName:  SanitizeForPlainText(raw.LastName),
			Email:     SanitizeForPlainText(raw.Email),
			Message:   SanitizeForPlainText(raw.Message),
		},
	}, nil
}

package mailer

import (
	"fmt"
	"strings"

	"github.com/haasonsaas/contactd/pkg/contact"
)

// renderHTML expects fields that were already HTML-escaped by
// contact.Sanitize; it must not escape them again.
func renderHTML(f contact.Fields) string {
	message := strings.ReplaceAll(f.Message, "\n", "<br>\n")

	var b strings.Builder
	b.WriteString(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">`)
	b.WriteString("\n")
	b.WriteString(`  <h2 style="color: #2f4f4f;">New Contact Form Submission</h2>`)
	b.WriteString("\n")
	fmt.Fprintf(&b, "  <p><strong>Name:</strong> %s %s</p>\n", f.FirstName, f.LastName)
	fmt.Fprintf(&b, "  <p><strong>Email:</strong> %s</p>\n", f.Email)
	b.WriteString("  <p><strong>Message:</strong></p>\n")
	fmt.Fprintf(&b, `  <div style="background: #f5f5f5; padding: 15px; border-radius: 5px;">%s</div>`, message)
	b.WriteString("\n")
	b.WriteString(`  <p style="color: #888; font-size: 12px;">Reply to this email to respond directly to the sender.</p>`)
	b.WriteString("\n</div>\n")
	return b.String()
}

func renderText(f contact.Fields) string {
	var b strings.Builder
	b.WriteString("New Contact Form Submission\n\n")
	fmt.Fprintf(&b, "Name: %s %s\n", f.FirstName, f.LastName)
	fmt.Fprintf(&b, "Email: %s\n\n", f.Email)
	b.WriteString("Message:\n")
	b.WriteString(f.Message)
	b.WriteString("\n\nReply to this email to respond directly to the sender.\n")
	return b.String()
}

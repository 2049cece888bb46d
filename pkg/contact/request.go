package contact

import (
	"net/http"
	"strings"

	"github.com/seancfoley/ipaddress-go/ipaddr"
)

// UnknownClient is the shared bucket for requests that carry no forwarding
// headers. Every such client draws from the same rate-limit budget.
const UnknownClient = "unknown"

// ClientKey derives the rate-limit key from proxy headers: the first hop of
// X-Forwarded-For, then X-Real-IP, then UnknownClient. The headers are not
// authenticated, so the key is only as trustworthy as the proxy in front.
// Values that parse as IP addresses are canonicalized so that equivalent
// spellings of one address share a bucket.
func ClientKey(h http.Header) string {
	if xff := h.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return canonicalIP(ip)
		}
	}
	if ip := strings.TrimSpace(h.Get("X-Real-IP")); ip != "" {
		return canonicalIP(ip)
	}
	return UnknownClient
}

func canonicalIP(raw string) string {
	addr, err := ipaddr.NewIPAddressString(raw).ToAddress()
	if err != nil || addr == nil {
		return raw
	}
	return addr.ToCanonicalString()
}

// FieldsFromBody picks the four form fields out of a decoded JSON object.
// Absent or non-string values become empty strings.
func FieldsFromBody(body map[string]any) Fields {
	return Fields{
		FirstName: stringValue(body["firstName"]),
		LastName:  stringValue(body["lastName"]),
		Email:     stringValue(body["email"]),
		Message:   stringValue(body["message"]),
	}
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

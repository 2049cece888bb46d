package health

import (
	"context"
	"fmt"
	"time"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Status struct {
	Status         string   `json:"status"`
	MailConfigured bool     `json:"mail_configured"`
	RateLimitKeys  int      `json:"rate_limit_keys"`
	Healthy        bool     `json:"healthy"`
	Issues         []string `json:"issues,omitempty"`
}

type Inputs struct {
	MailConfigured bool
	RateLimitKeys  int
	// DB is nil when the delivery log is disabled.
	DB      Pinger
	Timeout time.Duration
}

// Check aggregates the service's dependencies. An unconfigured mail provider
// is reported as an issue but does not make the service unhealthy: the
// contact route still answers, with a 500.
func Check(ctx context.Context, in Inputs) *Status {
	status := &Status{
		Status:         "ok",
		MailConfigured: in.MailConfigured,
		RateLimitKeys:  in.RateLimitKeys,
		Healthy:        true,
		Issues:         []string{},
	}

	if !in.MailConfigured {
		status.Status = "degraded"
		status.Issues = append(status.Issues, "mail provider not configured")
	}

	if in.DB != nil {
		timeout := in.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Second
		}
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := in.DB.PingContext(pingCtx); err != nil {
			status.Status = "unhealthy"
			status.Healthy = false
			status.Issues = append(status.Issues, fmt.Sprintf("delivery log unreachable: %v", err))
		}
	}

	return status
}

package notification

import (
	"context"
	"time"
)

type ActivityType string

const (
	ActivityRegistered      ActivityType = "user.registered"
	ActivityActivated       ActivityType = "user.activated"
	ActivityLoggedIn        ActivityType = "user.logged_in"
	ActivityLoginFailed     ActivityType = "user.login_failed"
	ActivityTokenRefreshed  ActivityType = "user.token_refreshed"
	ActivityLoggedOut       ActivityType = "user.logged_out"
	ActivityPasswordForgot  ActivityType = "user.password_forgot"
	ActivityPasswordChanged ActivityType = "user.password_reset"
)

// ActivityEvent is an audit record of an authentication step. It never
// carries secrets.
type ActivityEvent struct {
	Type       ActivityType      `json:"type"`
	UserID     string            `json:"user_id,omitempty"`
	Email      string            `json:"email,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ActivitySink receives activity events. Delivery is best effort: callers log
// failures and carry on.
type ActivitySink interface {
	Record(ctx context.Context, event ActivityEvent) error
}

// Package notify carries access-control events out of the service layer.
// Events double as toast payloads for admin UIs (title/description keys are
// i18n lookups, not prose) and as the audit trail consumed by the worker.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/orbita-academy/orbita-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Severity classifies a notification for UI rendering.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Event names recorded in the audit trail.
const (
	EventLoginSuccess       = "login_success"
	EventLoginFailed        = "login_failed"
	EventLoginInactive      = "login_inactive"
	EventLogout             = "logout"
	EventUserRegistered     = "user_registered"
	EventUserUpdated        = "user_updated"
	EventPermissionsUpdated = "permissions_updated"
	EventUserActivated      = "user_activated"
	EventUserDeactivated    = "user_deactivated"
)

// Notification is the (titleKey, descriptionKey, severity) triple consumers
// render, plus the event metadata the audit worker persists.
type Notification struct {
	Event          string    `json:"event"`
	TitleKey       string    `json:"title_key"`
	DescriptionKey string    `json:"description_key"`
	Severity       Severity  `json:"severity"`
	UserID         int       `json:"user_id,omitempty"`
	Username       string    `json:"username,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// Notifier publishes notifications. Implementations must never fail the
// calling operation: delivery is best-effort by contract.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// RedisNotifier pushes every notification onto the audit queue and publishes
// it on the live events channel.
type RedisNotifier struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisNotifier creates a RedisNotifier.
func NewRedisNotifier(rdb *redis.Client, log zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		rdb: rdb,
		log: log.With().Str("component", "notifier").Logger(),
	}
}

// Notify enqueues and broadcasts n. Errors are logged, never returned, so a
// Redis hiccup cannot fail a login or a permission update.
func (r *RedisNotifier) Notify(ctx context.Context, n Notification) {
	if n.OccurredAt.IsZero() {
		n.OccurredAt = time.Now().UTC()
	}

	raw, err := json.Marshal(n)
	if err != nil {
		r.log.Error().Err(err).Str("event", n.Event).Msg("Marshal notification failed")
		return
	}

	if err := r.rdb.RPush(ctx, config.CacheKey.AccessEventsQueue(), raw).Err(); err != nil {
		r.log.Error().Err(err).Str("event", n.Event).Msg("Enqueue notification failed")
	}
	if err := r.rdb.Publish(ctx, config.CacheKey.AccessEventsChannel(), raw).Err(); err != nil {
		r.log.Error().Err(err).Str("event", n.Event).Msg("Publish notification failed")
	}
}

// NopNotifier discards notifications. Used by CLI tools.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notification) {}

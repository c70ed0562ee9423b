package domain

import "time"

// SessionEventType names a session mutation recorded in the audit trail.
type SessionEventType string

const (
	EventLogin               SessionEventType = "login"
	EventOnboardingCompleted SessionEventType = "onboarding_completed"
	EventModeChanged         SessionEventType = "mode_changed"
	EventLogout              SessionEventType = "logout"
	EventTokenCleared        SessionEventType = "token_cleared"
)

// SessionEvent is emitted after a session mutation has been persisted.
// TokenFingerprint is a digest prefix, never the credential itself.
type SessionEvent struct {
	DeviceID         string           `json:"device_id" bson:"device_id"`
	Type             SessionEventType `json:"type" bson:"type"`
	Role             Role             `json:"role" bson:"role"`
	Mode             Mode             `json:"mode" bson:"mode"`
	Onboarded        bool             `json:"onboarded" bson:"onboarded"`
	TokenFingerprint string           `json:"token_fingerprint,omitempty" bson:"token_fingerprint,omitempty"`
	OccurredAt       time.Time        `json:"occurred_at" bson:"occurred_at"`
}

// Rates are the display exchange rates (RUB per unit).
type Rates struct {
	USD float64 `json:"usd"`
	EUR float64 `json:"eur"`
}

// DefaultRates is used until a refresh from the backend succeeds.
func DefaultRates() Rates {
	return Rates{USD: 89.45, EUR: 97.82}
}

// Valid reports whether both rates are positive.
func (r Rates) Valid() bool {
	return r.USD > 0 && r.EUR > 0
}

package models

import (
	"time"

	"gofalre.io/storefront/models/enum"
)

// SessionEvent is an out-of-band credential notification delivered over the
// session bus, e.g. a revocation published by another device or process.
type SessionEvent struct {
	ID     string                `json:"id"`
	Type   enum.SessionEventType `json:"type"`
	Reason string                `json:"reason,omitempty"`
	At     time.Time             `json:"at"`
}

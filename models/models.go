package models

import "time"

// Vertical identifies one of the simulated product verticals.
type Vertical string

const (
	VerticalCommerce  Vertical = "commerce"
	VerticalContent   Vertical = "content"
	VerticalSaaS      Vertical = "saas"
	VerticalCommunity Vertical = "community"
	VerticalFintech   Vertical = "fintech"
)

// Verticals lists every supported vertical in a stable order.
func Verticals() []Vertical {
	return []Vertical{VerticalCommerce, VerticalContent, VerticalSaaS, VerticalCommunity, VerticalFintech}
}

// IsValidVertical reports whether v names a supported vertical.
func IsValidVertical(v string) bool {
	switch Vertical(v) {
	case VerticalCommerce, VerticalContent, VerticalSaaS, VerticalCommunity, VerticalFintech:
		return true
	default:
		return false
	}
}

// User is one simulated signup. Immutable after generation; anomaly
// mutations may delete it, and the storage layer cascades to dependents.
type User struct {
	UserID   string    `json:"userId"`
	SignupAt time.Time `json:"signupAt"`
	Country  string    `json:"country"`
	Channel  string    `json:"channel"`
}

// Session belongs to exactly one user. StartedAt is never before the
// owning user's SignupAt.
type Session struct {
	SessionID string    `json:"sessionId"`
	UserID    string    `json:"userId"`
	StartedAt time.Time `json:"startedAt"`
	Device    string    `json:"device"`
}

// Event belongs to exactly one session. EventTime is never before the
// owning session's StartedAt, and events inside a session are time-ordered.
type Event struct {
	EventID   string    `json:"eventId"`
	UserID    string    `json:"userId"`
	SessionID string    `json:"sessionId"`
	EventTime time.Time `json:"eventTime"`
	EventName string    `json:"eventName"`
}

// Order is a leaf record referencing its user. An order only exists when a
// purchase-class event exists for the same user at or before OrderTime.
type Order struct {
	OrderID   string    `json:"orderId"`
	UserID    string    `json:"userId"`
	OrderTime time.Time `json:"orderTime"`
	Amount    float64   `json:"amount"`
}

// DatasetVersion records one completed generation cycle.
type DatasetVersion struct {
	ID          int64     `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	ProductType Vertical  `json:"productType"`
	SignupMin   time.Time `json:"signupMin"`
	SignupMax   time.Time `json:"signupMax"`
	UserCount   int       `json:"userCount"`
	EventCount  int       `json:"eventCount"`
}

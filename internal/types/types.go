package types

import (
	"strings"
	"time"
)

// TradeType is the option side of a trade
type TradeType string

const (
	Put  TradeType = "put"
	Call TradeType = "call"
)

// ParseTradeType accepts "put"/"call" in any case
func ParseTradeType(s string) (TradeType, bool) {
	switch TradeType(strings.ToLower(strings.TrimSpace(s))) {
	case Put:
		return Put, true
	case Call:
		return Call, true
	}
	return "", false
}

type Trade struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Ticker      string    `json:"ticker" bson:"ticker"`
	StrikePrice float64   `json:"strike_price" bson:"strike_price"`
	TradeType   TradeType `json:"trade_type" bson:"trade_type"`
	ExpiryDate  string    `json:"expiry_date" bson:"expiry_date"`
	Premium     *float64  `json:"premium" bson:"premium,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// PushKeys is the key bundle a browser hands out with its push subscription
type PushKeys struct {
	P256dh string `json:"p256dh" bson:"p256dh"`
	Auth   string `json:"auth" bson:"auth"`
}

type PushRegistration struct {
	Endpoint string   `json:"endpoint" bson:"endpoint"`
	Keys     PushKeys `json:"keys" bson:"keys"`
}

type User struct {
	ID               string            `json:"id" bson:"_id"`
	Email            string            `json:"email,omitempty" bson:"email,omitempty"`
	PasswordHash     string            `json:"-" bson:"password,omitempty"`
	PushRegistration *PushRegistration `json:"push_subscription,omitempty" bson:"push_subscription"`
	TelegramChatID   int64             `json:"telegram_chat_id,omitempty" bson:"telegram_chat_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at" bson:"created_at"`
}

// IsGuest reports whether the account was created without credentials
func (u *User) IsGuest() bool {
	return u.PasswordHash == ""
}

// Severity orders alert tiers; a higher value is more urgent
type Severity int

const (
	SeverityNotice Severity = iota + 1
	SeverityWarning
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityNotice:
		return "notice"
	case SeverityWarning:
		return "warning"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// Alert is produced fresh every monitoring cycle and never persisted
type Alert struct {
	Ticker       string    `json:"ticker"`
	TradeID      string    `json:"trade_id"`
	UserID       string    `json:"user_id"`
	TradeType    TradeType `json:"trade_type"`
	Severity     Severity  `json:"severity"`
	Threshold    float64   `json:"threshold"`
	StrikePrice  float64   `json:"strike_price"`
	CurrentPrice float64   `json:"current_price"`
	Message      string    `json:"message"`
}

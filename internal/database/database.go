package database

import (
	"context"

	"github.com/pkg/errors"

	"options-tracker/internal/types"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

const (
	DriverMongo  = "mongo"
	DriverSQLite = "sqlite"
)

// Store is the document store shared by the HTTP API and the alert monitor
type Store interface {
	InsertTrade(ctx context.Context, trade *types.Trade) error
	ListTrades(ctx context.Context) ([]types.Trade, error)
	ListTradesByUser(ctx context.Context, userID string) ([]types.Trade, error)
	// DeleteTrade removes a trade owned by userID, ErrNotFound when there is none
	DeleteTrade(ctx context.Context, userID, tradeID string) error

	// InsertUser fails with ErrDuplicate when the id is taken
	InsertUser(ctx context.Context, user *types.User) error
	GetUser(ctx context.Context, id string) (*types.User, error)
	// SetPushRegistration replaces the registration, creating the user record if needed
	SetPushRegistration(ctx context.Context, userID string, reg types.PushRegistration) error
	ClearPushRegistration(ctx context.Context, userID string) error
	SetTelegramChat(ctx context.Context, userID string, chatID int64) error

	SaveMetric(ctx context.Context, name string, value float64) error
	// GetMetric returns 0 for a metric never saved
	GetMetric(ctx context.Context, name string) (float64, error)

	Close(ctx context.Context) error
}

type Config struct {
	Driver     string
	MongoURL   string
	DBName     string
	SQLitePath string
}

// Open connects to the backend named by cfg.Driver
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMongo, "":
		if cfg.MongoURL == "" {
			return nil, errors.New("mongo store requires MONGO_URL")
		}
		return NewMongo(ctx, cfg.MongoURL, cfg.DBName)
	case DriverSQLite:
		return NewSQLite(cfg.SQLitePath)
	}
	return nil, errors.Errorf("unknown store driver %q", cfg.Driver)
}

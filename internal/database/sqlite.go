package database

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"options-tracker/internal/types"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	ticker TEXT NOT NULL,
	strike_price REAL NOT NULL,
	trade_type TEXT NOT NULL,
	expiry_date TEXT NOT NULL,
	premium REAL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_trades_user_id ON trades(user_id);

CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT,
	password TEXT,
	push_endpoint TEXT,
	push_p256dh TEXT,
	push_auth TEXT,
	telegram_chat_id INTEGER,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS metrics (
	metric_name TEXT PRIMARY KEY,
	metric_value REAL NOT NULL
);`

// SQLite is a single file Store for local runs and tests
type SQLite struct {
	db *sql.DB
}

func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create db directory")
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set WAL mode")
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "set busy timeout")
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to create tables")
	}

	log.WithField("path", dbPath).Info("Database initialized successfully.")
	return &SQLite{db: db}, nil
}

const tradeColumns = `id, user_id, ticker, strike_price, trade_type, expiry_date, premium, created_at`

func (s *SQLite) InsertTrade(ctx context.Context, t *types.Trade) error {
	var premium sql.NullFloat64
	if t.Premium != nil {
		premium = sql.NullFloat64{Float64: *t.Premium, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trades (`+tradeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.Ticker, t.StrikePrice, string(t.TradeType), t.ExpiryDate, premium, t.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrDuplicate, "trade %s", t.ID)
		}
		return errors.Wrap(err, "failed to insert trade")
	}
	return nil
}

func (s *SQLite) ListTrades(ctx context.Context) ([]types.Trade, error) {
	return s.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades ORDER BY created_at`)
}

func (s *SQLite) ListTradesByUser(ctx context.Context, userID string) ([]types.Trade, error) {
	return s.queryTrades(ctx, `SELECT `+tradeColumns+` FROM trades WHERE user_id = ? ORDER BY created_at`, userID)
}

func (s *SQLite) queryTrades(ctx context.Context, query string, args ...any) ([]types.Trade, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query trades")
	}
	defer rows.Close()

	trades := make([]types.Trade, 0)
	for rows.Next() {
		var (
			t         types.Trade
			tradeType string
			premium   sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.Ticker, &t.StrikePrice, &tradeType, &t.ExpiryDate, &premium, &t.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan trade row")
		}
		t.TradeType = types.TradeType(tradeType)
		if premium.Valid {
			p := premium.Float64
			t.Premium = &p
		}
		trades = append(trades, t)
	}
	return trades, rows.Err()
}

func (s *SQLite) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM trades WHERE id = ? AND user_id = ?`, tradeID, userID)
	if err != nil {
		return errors.Wrap(err, "failed to delete trade")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "check rows affected")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "trade %s", tradeID)
	}
	return nil
}

func (s *SQLite) InsertUser(ctx context.Context, u *types.User) error {
	var endpoint, p256dh, auth sql.NullString
	if u.PushRegistration != nil {
		endpoint = sql.NullString{String: u.PushRegistration.Endpoint, Valid: true}
		p256dh = sql.NullString{String: u.PushRegistration.Keys.P256dh, Valid: true}
		auth = sql.NullString{String: u.PushRegistration.Keys.Auth, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password, push_endpoint, push_p256dh, push_auth, telegram_chat_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, nullString(u.Email), nullString(u.PasswordHash), endpoint, p256dh, auth, nullInt(u.TelegramChatID), u.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.Wrapf(ErrDuplicate, "user %s", u.ID)
		}
		return errors.Wrap(err, "failed to insert user")
	}
	return nil
}

func (s *SQLite) GetUser(ctx context.Context, id string) (*types.User, error) {
	var (
		u                      types.User
		email, password        sql.NullString
		endpoint, p256dh, auth sql.NullString
		chatID                 sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, password, push_endpoint, push_p256dh, push_auth, telegram_chat_id, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &email, &password, &endpoint, &p256dh, &auth, &chatID, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(ErrNotFound, "user %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}

	u.Email = email.String
	u.PasswordHash = password.String
	u.TelegramChatID = chatID.Int64
	if endpoint.Valid && endpoint.String != "" {
		u.PushRegistration = &types.PushRegistration{
			Endpoint: endpoint.String,
			Keys:     types.PushKeys{P256dh: p256dh.String, Auth: auth.String},
		}
	}
	return &u, nil
}

func (s *SQLite) SetPushRegistration(ctx context.Context, userID string, reg types.PushRegistration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, push_endpoint, push_p256dh, push_auth, created_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   push_endpoint = excluded.push_endpoint,
		   push_p256dh = excluded.push_p256dh,
		   push_auth = excluded.push_auth`,
		userID, reg.Endpoint, reg.Keys.P256dh, reg.Keys.Auth, time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save push registration")
	}
	return nil
}

func (s *SQLite) ClearPushRegistration(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET push_endpoint = NULL, push_p256dh = NULL, push_auth = NULL WHERE id = ?`, userID)
	if err != nil {
		return errors.Wrap(err, "failed to clear push registration")
	}
	return nil
}

func (s *SQLite) SetTelegramChat(ctx context.Context, userID string, chatID int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, telegram_chat_id, created_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET telegram_chat_id = excluded.telegram_chat_id`,
		userID, nullInt(chatID), time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save telegram chat")
	}
	return nil
}

func (s *SQLite) Close(_ context.Context) error {
	return s.db.Close()
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

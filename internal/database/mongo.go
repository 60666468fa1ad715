package database

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"options-tracker/internal/types"
)

const (
	tradesCollection  = "trades"
	usersCollection   = "users"
	metricsCollection = "metrics"
)

// Mongo keeps trades and users as documents, keyed by their string ids
type Mongo struct {
	client  *mongo.Client
	trades  *mongo.Collection
	users   *mongo.Collection
	metrics *mongo.Collection
}

func NewMongo(ctx context.Context, mongoURL, dbName string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, errors.Wrap(err, "ping mongodb")
	}

	db := client.Database(dbName)
	m := &Mongo{
		client:  client,
		trades:  db.Collection(tradesCollection),
		users:   db.Collection(usersCollection),
		metrics: db.Collection(metricsCollection),
	}

	_, err = m.trades.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "user_id", Value: 1}}})
	if err != nil {
		log.Warnf("Could not create user_id index on trades (may already exist): %v", err)
	}

	log.WithField("database", dbName).Info("Connected to MongoDB")
	return m, nil
}

func (m *Mongo) InsertTrade(ctx context.Context, t *types.Trade) error {
	if _, err := m.trades.InsertOne(ctx, t); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrDuplicate, "trade %s", t.ID)
		}
		return errors.Wrap(err, "failed to insert trade")
	}
	return nil
}

func (m *Mongo) ListTrades(ctx context.Context) ([]types.Trade, error) {
	return m.findTrades(ctx, bson.D{})
}

func (m *Mongo) ListTradesByUser(ctx context.Context, userID string) ([]types.Trade, error) {
	return m.findTrades(ctx, bson.D{{Key: "user_id", Value: userID}})
}

// findTrades skips documents that do not decode so a single bad record cannot hide the rest
func (m *Mongo) findTrades(ctx context.Context, filter bson.D) ([]types.Trade, error) {
	cursor, err := m.trades.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query trades")
	}
	defer cursor.Close(ctx)

	trades := make([]types.Trade, 0)
	for cursor.Next(ctx) {
		var t types.Trade
		if err := cursor.Decode(&t); err != nil {
			log.WithField("document", cursor.Current.String()).Warnf("Skipping malformed trade: %v", err)
			continue
		}
		trades = append(trades, t)
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate trades")
	}
	return trades, nil
}

func (m *Mongo) DeleteTrade(ctx context.Context, userID, tradeID string) error {
	res, err := m.trades.DeleteOne(ctx, bson.M{"_id": tradeID, "user_id": userID})
	if err != nil {
		return errors.Wrap(err, "failed to delete trade")
	}
	if res.DeletedCount == 0 {
		return errors.Wrapf(ErrNotFound, "trade %s", tradeID)
	}
	return nil
}

func (m *Mongo) InsertUser(ctx context.Context, u *types.User) error {
	if _, err := m.users.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errors.Wrapf(ErrDuplicate, "user %s", u.ID)
		}
		return errors.Wrap(err, "failed to insert user")
	}
	return nil
}

func (m *Mongo) GetUser(ctx context.Context, id string) (*types.User, error) {
	var u types.User
	err := m.users.FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.Wrapf(ErrNotFound, "user %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user")
	}
	return &u, nil
}

func (m *Mongo) SetPushRegistration(ctx context.Context, userID string, reg types.PushRegistration) error {
	_, err := m.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":         bson.M{"push_subscription": reg},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC()},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save push registration")
	}
	return nil
}

func (m *Mongo) ClearPushRegistration(ctx context.Context, userID string) error {
	_, err := m.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"push_subscription": nil}},
	)
	if err != nil {
		return errors.Wrap(err, "failed to clear push registration")
	}
	return nil
}

func (m *Mongo) SetTelegramChat(ctx context.Context, userID string, chatID int64) error {
	_, err := m.users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$set":         bson.M{"telegram_chat_id": chatID},
			"$setOnInsert": bson.M{"created_at": time.Now().UTC(), "push_subscription": nil},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save telegram chat")
	}
	return nil
}

func (m *Mongo) Close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := m.client.Disconnect(ctx); err != nil {
		return errors.Wrap(err, "disconnect mongodb")
	}
	log.Info("MongoDB client disconnected.")
	return nil
}

package database

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func (s *SQLite) SaveMetric(ctx context.Context, name string, value float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO metrics (metric_name, metric_value) VALUES (?, ?);`, name, value)
	if err != nil {
		return errors.Wrap(err, "failed to save metric")
	}
	log.Debugf("Metric saved: %s = %f", name, value)
	return nil
}

func (s *SQLite) GetMetric(ctx context.Context, name string) (float64, error) {
	var value float64
	err := s.db.QueryRowContext(ctx,
		`SELECT metric_value FROM metrics WHERE metric_name = ?;`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debugf("Metric %s not found in the database, defaulting to 0", name)
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", name)
	}
	return value, nil
}

type metricDocument struct {
	Name  string  `bson:"_id"`
	Value float64 `bson:"value"`
}

func (m *Mongo) SaveMetric(ctx context.Context, name string, value float64) error {
	_, err := m.metrics.UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$set": bson.M{"value": value}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(err, "failed to save metric")
	}
	log.Debugf("Metric saved: %s = %f", name, value)
	return nil
}

func (m *Mongo) GetMetric(ctx context.Context, name string) (float64, error) {
	var doc metricDocument
	err := m.metrics.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		log.Debugf("Metric %s not found in the database, defaulting to 0", name)
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrapf(err, "failed to get metric %s", name)
	}
	return doc.Value, nil
}

package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/signin-portal/internal/core/domain"
	"github.com/99minutos/signin-portal/internal/core/ports"
)

const (
	attemptCollection = "signin_attempts"
	attemptRetention  = 90 * 24 * time.Hour
)

// AttemptRepository implements ports.AttemptRepository using MongoDB.
type AttemptRepository struct {
	coll *mongo.Collection
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(db *mongo.Database) *AttemptRepository {
	return &AttemptRepository{coll: db.Collection(attemptCollection)}
}

var _ ports.AttemptRepository = (*AttemptRepository)(nil)

// InsertAttempt appends one sign-in attempt to the audit collection.
func (r *AttemptRepository) InsertAttempt(ctx context.Context, attempt *domain.SignInAttempt) error {
	_, err := r.coll.InsertOne(ctx, attemptDocument(attempt, time.Now().UTC()))
	return err
}

func attemptDocument(a *domain.SignInAttempt, recordedAt time.Time) bson.M {
	doc := bson.M{
		"email":       a.Email,
		"outcome":     string(a.Outcome),
		"session_id":  a.SessionKey,
		"timestamp":   a.Timestamp.UTC(),
		"recorded_at": recordedAt,
	}
	if a.Reason != "" {
		doc["reason"] = a.Reason
	}
	if a.UserID != "" {
		doc["user_id"] = a.UserID
	}
	if a.RequestID != "" {
		doc["request_id"] = a.RequestID
	}
	return doc
}

// EnsureIndexes indexes attempts by email and expires them after the
// retention window.
func (r *AttemptRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}, {Key: "timestamp", Value: -1}}},
		{
			Keys:    bson.D{{Key: "recorded_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(attemptRetention.Seconds())),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexes)
	return err
}

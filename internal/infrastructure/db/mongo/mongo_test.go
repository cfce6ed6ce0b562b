package mongo

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/99minutos/signin-portal/internal/core/domain"
)

func TestAccountDoc_ToDomain(t *testing.T) {
	oid := primitive.NewObjectID()
	doc := accountDoc{
		ID:           oid,
		Email:        "user@example.com",
		Name:         "User",
		PasswordHash: "hash",
		CreatedAt:    1700000000,
	}

	a := doc.toDomain()

	if a.ID != oid.Hex() || a.Email != "user@example.com" || a.PasswordHash != "hash" {
		t.Fatalf("unexpected account: %+v", a)
	}
	if !a.CreatedAt.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("unexpected created_at: %v", a.CreatedAt)
	}
	if !a.UpdatedAt.IsZero() {
		t.Fatalf("expected zero updated_at, got %v", a.UpdatedAt)
	}
}

func TestAttemptDocument_OmitsEmptyFields(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := attemptDocument(&domain.SignInAttempt{
		Email:      "user@example.com",
		Outcome:    domain.OutcomeFailure,
		Reason:     "login: invalid credentials",
		SessionKey: "sid",
		Timestamp:  ts,
	}, ts)

	if doc["outcome"] != "failure" || doc["reason"] != "login: invalid credentials" {
		t.Fatalf("unexpected document: %v", doc)
	}
	if _, ok := doc["user_id"]; ok {
		t.Fatal("user_id must be omitted for failed attempts")
	}
	if _, ok := doc["request_id"]; ok {
		t.Fatal("request_id must be omitted when empty")
	}
}

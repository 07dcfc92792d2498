package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/helpinghands/volunteer-dashboard/internal/core/domain"
	"github.com/helpinghands/volunteer-dashboard/internal/core/ports"
)

const auditCollection = "auth_audit"

var _ ports.AuditRepository = (*AuditRepository)(nil)

// AuditRepository implements ports.AuditRepository using MongoDB.
type AuditRepository struct {
	coll *mongo.Collection
}

// NewAuditRepository creates a new AuditRepository.
func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{coll: db.Collection(auditCollection)}
}

type auditDoc struct {
	Kind       string    `bson:"kind"`
	ActorID    string    `bson:"actor_id,omitempty"`
	SubjectID  string    `bson:"subject_id,omitempty"`
	Roles      []string  `bson:"roles,omitempty"`
	Path       string    `bson:"path,omitempty"`
	Outcome    string    `bson:"outcome,omitempty"`
	At         time.Time `bson:"at"`
	RecordedAt time.Time `bson:"recorded_at"`
}

// EnsureIndexes creates the lookup index used by List.
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "subject_id", Value: 1}, {Key: "at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("audit indexes: %w", err)
	}
	return nil
}

// Insert persists an entry to the auth_audit collection.
func (r *AuditRepository) Insert(ctx context.Context, entry *domain.AuditEntry) error {
	doc := auditDoc{
		Kind:       string(entry.Kind),
		ActorID:    entry.ActorID,
		SubjectID:  entry.SubjectID,
		Roles:      entry.Roles,
		Path:       entry.Path,
		Outcome:    entry.Outcome,
		At:         entry.At.UTC(),
		RecordedAt: time.Now().UTC(),
	}

	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns the most recent entries about subjectID, newest first.
func (r *AuditRepository) List(ctx context.Context, subjectID string, limit int64) ([]domain.AuditEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(limit)

	cur, err := r.coll.Find(ctx, bson.M{"subject_id": subjectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find audit entries: %w", err)
	}
	defer cur.Close(ctx)

	entries := []domain.AuditEntry{}
	for cur.Next(ctx) {
		var doc auditDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode audit entry: %w", err)
		}
		entries = append(entries, domain.AuditEntry{
			Kind:      domain.AuditKind(doc.Kind),
			ActorID:   doc.ActorID,
			SubjectID: doc.SubjectID,
			Roles:     doc.Roles,
			Path:      doc.Path,
			Outcome:   doc.Outcome,
			At:        doc.At,
		})
	}
	return entries, cur.Err()
}

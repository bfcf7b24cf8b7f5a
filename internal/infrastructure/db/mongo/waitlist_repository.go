package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/haphazard/site/internal/core/domain"
)

const collectionWaitlist = "waitlist"

// WaitlistRepository stores waiting-list entries, one per email.
type WaitlistRepository struct {
	col *mongo.Collection
}

func NewWaitlistRepository(db *mongo.Database) *WaitlistRepository {
	return &WaitlistRepository{col: db.Collection(collectionWaitlist)}
}

// Add inserts entry and fills in its ID.
func (r *WaitlistRepository) Add(ctx context.Context, entry *domain.WaitlistEntry) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	entry.ID = primitive.NewObjectID().Hex()
	if _, err := r.col.InsertOne(ctx, entry); err != nil {
		entry.ID = ""
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrAlreadyOnWaitlist
		}
		return fmt.Errorf("insert waitlist entry: %w", err)
	}
	return nil
}

// MarkSynced records when the entry reached the newsletter provider.
func (r *WaitlistRepository) MarkSynced(ctx context.Context, email string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"synced_at": at.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("mark waitlist entry synced: %w", err)
	}
	return nil
}

// ListUnsynced returns up to limit entries without synced_at, oldest first.
func (r *WaitlistRepository) ListUnsynced(ctx context.Context, limit int64) ([]domain.WaitlistEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}}).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{"synced_at": bson.M{"$exists": false}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list unsynced waitlist entries: %w", err)
	}

	var entries []domain.WaitlistEntry
	if err := cur.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode waitlist entries: %w", err)
	}
	return entries, nil
}

// EnsureIndexes creates the unique email index and the backfill index.
func (r *WaitlistRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "synced_at", Value: 1}, {Key: "created_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

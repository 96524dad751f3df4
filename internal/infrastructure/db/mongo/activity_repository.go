package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/miniblog/social-api/internal/core/domain"
)

const collectionActivities = "activities"

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	col *mongo.Collection
}

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionActivities)}
}

type mongoActivity struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	ActorID    string             `bson:"actor_id"`
	Kind       string             `bson:"kind"`
	TargetID   string             `bson:"target_id"`
	CreatedAt  time.Time          `bson:"created_at"`
	RecordedAt time.Time          `bson:"recorded_at"`
}

// Insert persists an activity to the activities audit collection.
func (r *ActivityRepository) Insert(ctx context.Context, a *domain.Activity) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoActivity{
		ActorID:    a.ActorID,
		Kind:       string(a.Kind),
		TargetID:   a.TargetID,
		CreatedAt:  a.CreatedAt.UTC(),
		RecordedAt: time.Now().UTC(),
	}
	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		a.ID = oid.Hex()
	}
	return nil
}

func (r *ActivityRepository) ListByActor(ctx context.Context, actorID string, limit int) ([]*domain.Activity, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))
	cur, err := r.col.Find(ctx, bson.M{"actor_id": actorID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find activities: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoActivity
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode activities: %w", err)
	}
	out := make([]*domain.Activity, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.Activity{
			ID:        d.ID.Hex(),
			ActorID:   d.ActorID,
			Kind:      domain.ActivityKind(d.Kind),
			TargetID:  d.TargetID,
			CreatedAt: d.CreatedAt.UTC(),
		})
	}
	return out, nil
}

func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "actor_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

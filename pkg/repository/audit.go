package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/example/marketplace/pkg/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Audit actions recorded for mutating API operations.
const (
	AuditSignUp         = "sign_up"
	AuditPasswordChange = "password_change"
	AuditAvatarUpload   = "avatar_upload"
	AuditCreateReview   = "create_review"
	AuditCreateOrder    = "create_order"
	AuditUpdateOrder    = "update_order"
)

// Entity kinds sharing the audit collection.
const (
	EntityUser   = "user"
	EntityOrder  = "order"
	EntityReview = "review"
)

// EntityKey builds the collection-wide entity id. Ids are namespaced by
// kind so order #1 and user #1 never share a trail.
func EntityKey(kind string, id uint) string {
	return fmt.Sprintf("%s:%d", kind, id)
}

// AuditEntry is one recorded mutation. EntityID is an EntityKey for the
// row the action touched.
type AuditEntry struct {
	ID        string    `bson:"_id,omitempty"`
	Service   string    `bson:"service"`
	Action    string    `bson:"action"`
	EntityID  string    `bson:"entity_id"`
	UserID    uint      `bson:"user_id"`
	Data      bson.M    `bson:"data"`
	CreatedAt time.Time `bson:"created_at"`
}

// AuditRepository keeps the mutation trail in MongoDB, off the
// relational hot path.
type AuditRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewAuditRepository(cfg *config.MongoDBConfig) (*AuditRepository, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}

	return &AuditRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (r *AuditRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *AuditRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// Record appends one entry attributed to this service.
func (r *AuditRepository) Record(ctx context.Context, action, entityID string, userID uint, data bson.M) error {
	_, err := r.collection.InsertOne(ctx, &AuditEntry{
		Service:   "marketplace-api",
		Action:    action,
		EntityID:  entityID,
		UserID:    userID,
		Data:      data,
		CreatedAt: time.Now(),
	})
	return err
}

// EntityHistory returns the most recent entries for one entity, newest
// first.
func (r *AuditRepository) EntityHistory(ctx context.Context, entityID string, limit int64) ([]*AuditEntry, error) {
	filter := bson.M{"entity_id": entityID}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit)

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var entries []*AuditEntry
	if err = cursor.All(ctx, &entries); err != nil {
		return nil, err
	}

	return entries, nil
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/creativecanvas/backend/internal/models"
)

const (
	usersCollection     = "users"
	creationsCollection = "creations"
)

type mongoCollection interface {
	ReplaceOne(ctx context.Context, filter, replacement any, opts ...options.Lister[options.ReplaceOptions]) (*mongo.UpdateResult, error)
	UpdateOne(ctx context.Context, filter, update any, opts ...options.Lister[options.UpdateOneOptions]) (*mongo.UpdateResult, error)
	Find(ctx context.Context, filter any, opts ...options.Lister[options.FindOptions]) (*mongo.Cursor, error)
	FindOneAndUpdate(ctx context.Context, filter, update any, opts ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult
	DeleteOne(ctx context.Context, filter any, opts ...options.Lister[options.DeleteOneOptions]) (*mongo.DeleteResult, error)
}

type creationDocument struct {
	ID          string    `bson:"_id"`
	CreationID  string    `bson:"creationId"`
	UserID      string    `bson:"userId"`
	DrawingRef  string    `bson:"drawingRef"`
	ImageRef    string    `bson:"imageRef"`
	VideoRef    *string   `bson:"videoRef,omitempty"`
	ImagePrompt string    `bson:"imagePrompt"`
	VideoPrompt *string   `bson:"videoPrompt,omitempty"`
	Description *string   `bson:"description,omitempty"`
	Style       *string   `bson:"style,omitempty"`
	CreatedAt   time.Time `bson:"createdAt"`
}

type userDocument struct {
	ID        string    `bson:"_id"`
	Email     string    `bson:"email"`
	CreatedAt time.Time `bson:"createdAt"`
}

// creationKey scopes document ids by user so two users may hold the same creation id.
func creationKey(userID, creationID string) string {
	return userID + "/" + creationID
}

func toCreationDocument(c models.Creation) creationDocument {
	return creationDocument{
		ID:          creationKey(c.UserID, c.ID),
		CreationID:  c.ID,
		UserID:      c.UserID,
		DrawingRef:  c.DrawingRef,
		ImageRef:    c.ImageRef,
		VideoRef:    c.VideoRef,
		ImagePrompt: c.ImagePrompt,
		VideoPrompt: c.VideoPrompt,
		Description: c.Description,
		Style:       c.Style,
		CreatedAt:   c.CreatedAt.UTC(),
	}
}

func (d creationDocument) toModel() models.Creation {
	return models.Creation{
		ID:          d.CreationID,
		UserID:      d.UserID,
		DrawingRef:  d.DrawingRef,
		ImageRef:    d.ImageRef,
		VideoRef:    d.VideoRef,
		ImagePrompt: d.ImagePrompt,
		VideoPrompt: d.VideoPrompt,
		Description: d.Description,
		Style:       d.Style,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// ConnectMongo dials the document store and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureMongoIndexes creates the listing index on the creations collection.
func EnsureMongoIndexes(ctx context.Context, database *mongo.Database) error {
	_, err := database.Collection(creationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("create creations index: %w", err)
	}
	return nil
}

// MongoUserRepository provides MongoDB-backed persistence for users.
type MongoUserRepository struct {
	coll mongoCollection
}

// NewMongoUserRepository constructs a user repository over database.
func NewMongoUserRepository(database *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{coll: database.Collection(usersCollection)}
}

// Ensure inserts the user on first sight and returns the stored record.
func (r *MongoUserRepository) Ensure(ctx context.Context, user models.User) (models.User, error) {
	res := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: user.ID}},
		bson.D{{Key: "$setOnInsert", Value: bson.D{
			{Key: "email", Value: user.Email},
			{Key: "createdAt", Value: user.CreatedAt.UTC()},
		}}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)

	var doc userDocument
	if err := res.Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, fmt.Errorf("upsert user: %w", err)
	}

	return models.User{ID: doc.ID, Email: doc.Email, CreatedAt: doc.CreatedAt.UTC()}, nil
}

// MongoCreationRepository provides MongoDB-backed persistence for creations.
type MongoCreationRepository struct {
	coll mongoCollection
}

// NewMongoCreationRepository constructs a creation repository over database.
func NewMongoCreationRepository(database *mongo.Database) *MongoCreationRepository {
	return &MongoCreationRepository{coll: database.Collection(creationsCollection)}
}

// Save writes the creation document, replacing any document with the same id.
func (r *MongoCreationRepository) Save(ctx context.Context, creation models.Creation) error {
	doc := toCreationDocument(creation)
	if _, err := r.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true)); err != nil {
		return fmt.Errorf("replace creation: %w", err)
	}
	return nil
}

// AttachVideo merges the video fields into an existing document.
func (r *MongoCreationRepository) AttachVideo(ctx context.Context, userID, creationID, videoRef, videoPrompt string) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: creationKey(userID, creationID)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "videoRef", Value: videoRef},
			{Key: "videoPrompt", Value: videoPrompt},
		}}},
	)
	if err != nil {
		return fmt.Errorf("attach video: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByUser returns the user's creations, newest first.
func (r *MongoCreationRepository) ListByUser(ctx context.Context, userID string) ([]models.Creation, error) {
	cursor, err := r.coll.Find(ctx,
		bson.D{{Key: "userId", Value: userID}},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "creationId", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find creations: %w", err)
	}

	var docs []creationDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode creations: %w", err)
	}

	creations := make([]models.Creation, 0, len(docs))
	for _, doc := range docs {
		creations = append(creations, doc.toModel())
	}
	return creations, nil
}

// Delete removes the creation document.
func (r *MongoCreationRepository) Delete(ctx context.Context, userID, creationID string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: creationKey(userID, creationID)}})
	if err != nil {
		return fmt.Errorf("delete creation: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

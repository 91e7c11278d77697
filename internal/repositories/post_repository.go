package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/nano-feed/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	// GetPostWithCreator resolves the creator reference inline.
	GetPostWithCreator(ctx context.Context, id string) (*models.PostView, error)
	// ListPosts returns posts newest first with creators resolved.
	ListPosts(ctx context.Context, skip, limit int64) ([]models.PostView, error)
	CountPosts(ctx context.Context) (int64, error)
	UpdatePost(ctx context.Context, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
	users      string
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts"), users: "users"}
}

// postWithCreator is the shape produced by the creator $lookup stage.
type postWithCreator struct {
	models.Post `bson:",inline"`
	Creators    []models.UserCompact `bson:"creator_docs"`
}

func (p postWithCreator) view() models.PostView {
	v := models.PostView{Post: p.Post, Creator: models.UserCompact{ID: p.CreatorID}}
	if len(p.Creators) > 0 {
		v.Creator = p.Creators[0]
	}
	return v
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID().Hex()
	post.CreatedAt = time.Now()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	var post models.Post
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostWithCreator retrieves a post and joins its creator from the users collection
func (r *MongoPostRepository) GetPostWithCreator(ctx context.Context, id string) (*models.PostView, error) {
	views, err := r.aggregate(ctx, bson.D{{Key: "$match", Value: bson.M{"_id": id}}})
	if err != nil {
		return nil, err
	}
	if len(views) == 0 {
		return nil, ErrNotFound
	}
	return &views[0], nil
}

// ListPosts retrieves a page of posts from MongoDB, newest first
func (r *MongoPostRepository) ListPosts(ctx context.Context, skip, limit int64) ([]models.PostView, error) {
	return r.aggregate(ctx,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}}},
		bson.D{{Key: "$skip", Value: skip}},
		bson.D{{Key: "$limit", Value: limit}},
	)
}

func (r *MongoPostRepository) aggregate(ctx context.Context, stages ...bson.D) ([]models.PostView, error) {
	pipeline := mongo.Pipeline(stages)
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         r.users,
			"localField":   "creator",
			"foreignField": "_id",
			"as":           "creator_docs",
		}}},
		bson.D{{Key: "$project", Value: bson.M{
			"creator_docs.password": 0,
			"creator_docs.posts":    0,
		}}},
	)

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []postWithCreator
	if err = cursor.All(ctx, &rows); err != nil {
		return nil, err
	}

	views := make([]models.PostView, len(rows))
	for i, row := range rows {
		views[i] = row.view()
	}
	return views, nil
}

// CountPosts counts every post in the collection
func (r *MongoPostRepository) CountPosts(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.D{})
}

// UpdatePost updates the editable fields of a post in MongoDB
func (r *MongoPostRepository) UpdatePost(ctx context.Context, post *models.Post) error {
	post.UpdatedAt = time.Now()
	update := bson.M{
		"$set": bson.M{
			"title":      post.Title,
			"content":    post.Content,
			"image_url":  post.ImageURL,
			"updated_at": post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// EnsureIndexes creates the sort index used by ListPosts.
func (r *MongoPostRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: -1}},
		Options: options.Index().SetName("created_at_desc"),
	})
	return err
}

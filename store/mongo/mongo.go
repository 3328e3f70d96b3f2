// Package mongo provides a MongoDB backed store.
package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/aloks98/gofeed/store"
)

// Config holds MongoDB store configuration.
type Config struct {
	// URI is the connection string, e.g. mongodb://localhost:27017.
	URI string

	// Database is the database name. Defaults to "network".
	Database string

	// Client is an existing client. If provided, URI is ignored and Close does not disconnect it.
	Client *mongo.Client
}

// Store implements store.Store on two collections, users and posts.
type Store struct {
	client     *mongo.Client
	ownsClient bool
	users      *mongo.Collection
	posts      *mongo.Collection
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	Password  string             `bson:"password"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Title     string             `bson:"title"`
	Content   string             `bson:"content"`
	ImageURL  string             `bson:"imageUrl"`
	Creator   primitive.ObjectID `bson:"creator"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// New connects to MongoDB. Call Migrate to create indexes.
func New(ctx context.Context, cfg *Config) (*Store, error) {
	client := cfg.Client
	owns := false
	if client == nil {
		var err error
		client, err = mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, err
		}
		owns = true
	}

	name := cfg.Database
	if name == "" {
		name = "network"
	}
	db := client.Database(name)

	return &Store{
		client:     client,
		ownsClient: owns,
		users:      db.Collection("users"),
		posts:      db.Collection("posts"),
	}, nil
}

// Close disconnects the client if the store created it.
func (s *Store) Close() error {
	if !s.ownsClient {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ping verifies the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Migrate creates the indexes the queries rely on.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}},
		{Keys: bson.D{{Key: "creator", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "imageUrl", Value: 1}}},
	})
	return err
}

// CreateUser inserts a user.
func (s *Store) CreateUser(ctx context.Context, u *store.User) error {
	doc := userDoc{
		ID:        primitive.NewObjectID(),
		Email:     u.Email,
		Name:      u.Name,
		Password:  u.PasswordHash,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

// GetUser returns a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (*store.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}
	return s.findUser(ctx, bson.M{"_id": oid})
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*store.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*store.User, error) {
	var doc userDoc
	err := s.users.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.toUser(), nil
}

// UpdateUserStatus sets a user's status.
func (s *Store) UpdateUserStatus(ctx context.Context, id, status string, at time.Time) error {
	return s.setUser(ctx, id, bson.M{"status": status, "updatedAt": at})
}

// UpdatePasswordHash replaces a user's password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, id, hash string, at time.Time) error {
	return s.setUser(ctx, id, bson.M{"password": hash, "updatedAt": at})
}

func (s *Store) setUser(ctx context.Context, id string, fields bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": fields})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// CreatePost inserts a post.
func (s *Store) CreatePost(ctx context.Context, p *store.Post) error {
	creator, err := primitive.ObjectIDFromHex(p.Creator.OwnerID())
	if err != nil {
		return err
	}

	doc := postDoc{
		ID:        primitive.NewObjectID(),
		Title:     p.Title,
		Content:   p.Content,
		ImageURL:  p.ImageURL,
		Creator:   creator,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if _, err := s.posts.InsertOne(ctx, doc); err != nil {
		return err
	}
	p.ID = doc.ID.Hex()
	return nil
}

// GetPost returns a post by id, populating the creator when expand is set.
func (s *Store) GetPost(ctx context.Context, id string, expand bool) (*store.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, store.ErrNotFound
	}

	var doc postDoc
	err = s.posts.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p := doc.toPost()
	if expand {
		creators, err := s.usersByID(ctx, []primitive.ObjectID{doc.Creator})
		if err != nil {
			return nil, err
		}
		p.Creator.User = creators[doc.Creator]
	}
	return p, nil
}

// ListPosts returns a window of all posts, newest first, with creators populated.
func (s *Store) ListPosts(ctx context.Context, w store.Window) ([]*store.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(max(w.Offset, 0)))
	if w.Limit > 0 {
		opts.SetLimit(int64(w.Limit))
	}

	cur, err := s.posts.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []postDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}

	ids := make([]primitive.ObjectID, 0, len(docs))
	for _, d := range docs {
		ids = append(ids, d.Creator)
	}
	creators, err := s.usersByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	posts := make([]*store.Post, 0, len(docs))
	for _, d := range docs {
		p := d.toPost()
		p.Creator.User = creators[d.Creator]
		posts = append(posts, p)
	}
	return posts, nil
}

func (s *Store) usersByID(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*store.User, error) {
	out := make(map[primitive.ObjectID]*store.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	for _, d := range docs {
		out[d.ID] = d.toUser()
	}
	return out, nil
}

// CountPosts returns the number of posts.
func (s *Store) CountPosts(ctx context.Context) (int64, error) {
	return s.posts.CountDocuments(ctx, bson.D{})
}

// ListPostIDsByCreator returns the ids of a user's posts, newest first.
func (s *Store) ListPostIDsByCreator(ctx context.Context, userID string) ([]string, error) {
	ids := []string{}
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return ids, nil
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetProjection(bson.M{"_id": 1})
	cur, err := s.posts.Find(ctx, bson.M{"creator": oid}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		ids = append(ids, doc.ID.Hex())
	}
	return ids, cur.Err()
}

// UpdatePost writes the mutable fields of p.
func (s *Store) UpdatePost(ctx context.Context, p *store.Post) error {
	oid, err := primitive.ObjectIDFromHex(p.ID)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := s.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     p.Title,
		"content":   p.Content,
		"imageUrl":  p.ImageURL,
		"updatedAt": p.UpdatedAt,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// DeletePost removes a post.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ErrNotFound
	}

	res, err := s.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ImageInUse reports whether any post references path.
func (s *Store) ImageInUse(ctx context.Context, path string) (bool, error) {
	n, err := s.posts.CountDocuments(ctx, bson.M{"imageUrl": path}, options.Count().SetLimit(1))
	return n > 0, err
}

func (d userDoc) toUser() *store.User {
	return &store.User{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Name:         d.Name,
		PasswordHash: d.Password,
		Status:       d.Status,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

func (d postDoc) toPost() *store.Post {
	return &store.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Content:   d.Content,
		ImageURL:  d.ImageURL,
		Creator:   store.CreatorRef{ID: d.Creator.Hex()},
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}
}

var _ store.Store = (*Store)(nil)

package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusdesk-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	UsersCollection  = "users"
	IssuesCollection = "issues"
)

// EnsureIndexes creates the unique email index and the owner/recency index
// used by student-scoped listings.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	_, err := db.Collection(UsersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("users email index: %w", err)
	}

	_, err = db.Collection(IssuesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "studentId", Value: 1}, {Key: "createdAt", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("issues owner index: %w", err)
	}
	return nil
}

// MongoHealth pings the cluster behind a client.
type MongoHealth struct {
	Client *mongo.Client
}

func (h MongoHealth) Ping(ctx context.Context) error {
	if h.Client == nil {
		return errors.New("mongo client not configured")
	}
	return h.Client.Ping(ctx, nil)
}

type MongoUserStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoUserStore(db *mongo.Database, timeout time.Duration) *MongoUserStore {
	return &MongoUserStore{coll: db.Collection(UsersCollection), timeout: timeout}
}

func (s *MongoUserStore) Create(ctx context.Context, u *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now

	if _, err := s.coll.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (s *MongoUserStore) ByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *MongoUserStore) ByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *MongoUserStore) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	if err := s.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

type MongoIssueStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoIssueStore(db *mongo.Database, timeout time.Duration) *MongoIssueStore {
	return &MongoIssueStore{coll: db.Collection(IssuesCollection), timeout: timeout}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

func (s *MongoIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	issue.CreatedAt, issue.UpdatedAt = now, now

	_, err := s.coll.InsertOne(ctx, issue)
	return err
}

func (s *MongoIssueStore) Find(ctx context.Context, f IssueFilter, skip, limit int64) ([]models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	findOptions := options.Find().SetSort(newestFirst)
	if skip > 0 {
		findOptions.SetSkip(skip)
	}
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := s.coll.Find(ctx, f.bson(), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := make([]models.Issue, 0)
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (s *MongoIssueStore) FindOne(ctx context.Context, f IssueFilter) (*models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var issue models.Issue
	if err := s.coll.FindOne(ctx, f.bson()).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (s *MongoIssueStore) Count(ctx context.Context, f IssueFilter) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.coll.CountDocuments(ctx, f.bson())
}

func (s *MongoIssueStore) Update(ctx context.Context, f IssueFilter, u IssueUpdate) (*models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var issue models.Issue
	err := s.coll.FindOneAndUpdate(ctx, f.bson(), bson.M{"$set": u.set(time.Now().UTC())}, opts).Decode(&issue)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (s *MongoIssueStore) Delete(ctx context.Context, f IssueFilter) (*models.Issue, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var issue models.Issue
	if err := s.coll.FindOneAndDelete(ctx, f.bson()).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &issue, nil
}

func (s *MongoIssueStore) MarkNotified(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}, "status": models.Resolved},
		bson.M{"$set": bson.M{"notified": true, "updatedAt": time.Now().UTC()}},
	)
	return err
}

func (s *MongoIssueStore) CountBy(ctx context.Context, field string) ([]GroupCount, error) {
	if field != GroupByCategory && field != GroupByStatus {
		return nil, fmt.Errorf("store: cannot group issues by %q", field)
	}
	pipeline := []bson.M{
		{"$group": bson.M{"_id": "$" + field, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	}
	rows := make([]GroupCount, 0)
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoIssueStore) CountByMonth(ctx context.Context) ([]MonthCount, error) {
	pipeline := []bson.M{
		{"$group": bson.M{"_id": bson.M{"$month": "$createdAt"}, "count": bson.M{"$sum": 1}}},
		{"$sort": bson.M{"_id": 1}},
	}
	rows := make([]MonthCount, 0)
	if err := s.aggregate(ctx, pipeline, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *MongoIssueStore) aggregate(ctx context.Context, pipeline []bson.M, out interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

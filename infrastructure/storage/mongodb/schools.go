package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// AllFilter matches every document.
func AllFilter() bson.M {
	return bson.M{}
}

// TopicFilter matches schools whose topics array contains topic.
func TopicFilter(topic string) bson.M {
	return bson.M{"topics": topic}
}

// NameFilter matches documents by exact name.
func NameFilter(name string) bson.M {
	return bson.M{"name": name}
}

// SetTopicsUpdate replaces the topics array.
func SetTopicsUpdate(topics []string) bson.M {
	return bson.M{"$set": bson.M{"topics": topics}}
}

// NameIndexModel indexes schools by ascending name.
func NameIndexModel() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "name", Value: 1}},
	}
}

// NameProjection keeps only the name field.
func NameProjection() bson.D {
	return bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 0}}
}

// CityCountPipeline counts schools located in city.
func CityCountPipeline(city string) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "city", Value: city}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$city"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
}

// Schools queries the schools collection.
type Schools struct {
	collection   *mongo.Collection
	queryTimeout time.Duration
}

// NewSchools creates a schools repository over collection.
func NewSchools(collection *mongo.Collection, queryTimeout time.Duration) *Schools {
	return &Schools{collection: collection, queryTimeout: queryTimeout}
}

// ListAll returns every school document.
func (s *Schools) ListAll(ctx context.Context) ([]bson.M, error) {
	return s.find(ctx, AllFilter())
}

// InsertSchool inserts a document built from fields and returns its id.
func (s *Schools) InsertSchool(ctx context.Context, fields map[string]any) (string, error) {
	if len(fields) == 0 {
		return "", fmt.Errorf("%w: no fields", ErrInvalidArgument)
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	doc := make(bson.M, len(fields))
	for k, v := range fields {
		doc[k] = v
	}

	res, err := s.collection.InsertOne(ctx, doc)
	if err != nil {
		return "", wrapError(err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		return oid.Hex(), nil
	}
	return fmt.Sprint(res.InsertedID), nil
}

// UpdateTopics sets topics on every school named name and returns the
// number of documents modified.
func (s *Schools) UpdateTopics(ctx context.Context, name string, topics []string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.collection.UpdateMany(ctx, NameFilter(name), SetTopicsUpdate(topics))
	if err != nil {
		return 0, wrapError(err)
	}
	return res.ModifiedCount, nil
}

// SchoolsByTopic returns schools teaching topic.
func (s *Schools) SchoolsByTopic(ctx context.Context, topic string) ([]bson.M, error) {
	return s.find(ctx, TopicFilter(topic))
}

// Names returns the name of every school.
func (s *Schools) Names(ctx context.Context) ([]string, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, AllFilter(), options.Find().SetProjection(NameProjection()))
	if err != nil {
		return nil, wrapError(err)
	}
	var docs []struct {
		Name string `bson:"name"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapError(err)
	}

	names := make([]string, len(docs))
	for i, d := range docs {
		names[i] = d.Name
	}
	return names, nil
}

// CountByCity returns how many schools are located in city.
func (s *Schools) CountByCity(ctx context.Context, city string) (int64, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	cursor, err := s.collection.Aggregate(ctx, CityCountPipeline(city))
	if err != nil {
		return 0, wrapError(err)
	}
	var groups []struct {
		Total int64 `bson:"total"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return 0, wrapError(err)
	}
	if len(groups) == 0 {
		return 0, nil
	}
	return groups[0].Total, nil
}

// DeleteByName removes every school named name and returns the count removed.
func (s *Schools) DeleteByName(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, fmt.Errorf("%w: empty name", ErrInvalidArgument)
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	res, err := s.collection.DeleteMany(ctx, NameFilter(name))
	if err != nil {
		return 0, wrapError(err)
	}
	return res.DeletedCount, nil
}

// CreateNameIndex creates an ascending index on name and returns its name.
func (s *Schools) CreateNameIndex(ctx context.Context) (string, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	name, err := s.collection.Indexes().CreateOne(ctx, NameIndexModel())
	if err != nil {
		return "", wrapError(err)
	}
	return name, nil
}

func (s *Schools) find(ctx context.Context, filter bson.M) ([]bson.M, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	cursor, err := s.collection.Find(ctx, filter)
	if err != nil {
		return nil, wrapError(err)
	}
	docs := []bson.M{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, wrapError(err)
	}
	return docs, nil
}

package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// StudentAverage is a student with the mean of their topic scores.
type StudentAverage struct {
	ID           primitive.ObjectID `bson:"_id" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	AverageScore float64            `bson:"averageScore" json:"averageScore"`
}

// TopStudentsPipeline averages topic scores per student and sorts by that
// average descending. A topic without a score counts as 0 and a student
// without topics averages 0.
func TopStudentsPipeline() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$project", Value: bson.D{
			{Key: "name", Value: 1},
			{Key: "averageScore", Value: averageScoreExpr()},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "averageScore", Value: -1}}}},
	}
}

// averageScoreExpr is sum(topic.score or 0) / len(topics), or 0 when there
// are no topics.
func averageScoreExpr() bson.D {
	scores := bson.D{{Key: "$map", Value: bson.D{
		{Key: "input", Value: "$$topics"},
		{Key: "as", Value: "t"},
		{Key: "in", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$$t.score", 0}}}},
	}}}
	count := bson.D{{Key: "$size", Value: "$$topics"}}

	return bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{
			{Key: "topics", Value: bson.D{{Key: "$ifNull", Value: bson.A{"$topics", bson.A{}}}}},
		}},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$gt", Value: bson.A{count, 0}}},
			bson.D{{Key: "$divide", Value: bson.A{bson.D{{Key: "$sum", Value: scores}}, count}}},
			0,
		}}}},
	}}}
}

// Students queries the students collection.
type Students struct {
	collection   *mongo.Collection
	queryTimeout time.Duration
}

// NewStudents creates a students repository over collection.
func NewStudents(collection *mongo.Collection, queryTimeout time.Duration) *Students {
	return &Students{collection: collection, queryTimeout: queryTimeout}
}

// TopStudents returns all students sorted by average score, best first.
func (s *Students) TopStudents(ctx context.Context) ([]StudentAverage, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	cursor, err := s.collection.Aggregate(ctx, TopStudentsPipeline())
	if err != nil {
		return nil, wrapError(err)
	}
	students := []StudentAverage{}
	if err := cursor.All(ctx, &students); err != nil {
		return nil, wrapError(err)
	}
	return students, nil
}

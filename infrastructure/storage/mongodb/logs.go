package mongodb

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// LogMethods are the HTTP methods reported by LogStats, in display order.
var LogMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE"}

// topIPLimit bounds the IP ranking.
const topIPLimit = 10

// MethodCount is the number of log entries for one HTTP method.
type MethodCount struct {
	Method string `json:"method"`
	Count  int64  `json:"count"`
}

// IPCount is the number of log entries from one client address.
type IPCount struct {
	IP    string `bson:"_id" json:"ip"`
	Count int64  `bson:"count" json:"count"`
}

// LogStats summarises the nginx log collection.
type LogStats struct {
	Total        int64         `json:"total"`
	Methods      []MethodCount `json:"methods"`
	StatusChecks int64         `json:"status_checks"`
	TopIPs       []IPCount     `json:"top_ips"`
}

// MethodFilter matches log entries by HTTP method.
func MethodFilter(method string) bson.M {
	return bson.M{"method": method}
}

// StatusCheckFilter matches GET requests to /status.
func StatusCheckFilter() bson.M {
	return bson.M{"method": "GET", "path": "/status"}
}

// TopIPsPipeline ranks client addresses by request count.
func TopIPsPipeline(limit int) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$ip"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
}

// Logs queries the nginx log collection.
type Logs struct {
	collection   *mongo.Collection
	queryTimeout time.Duration
}

// NewLogs creates a log repository over collection.
func NewLogs(collection *mongo.Collection, queryTimeout time.Duration) *Logs {
	return &Logs{collection: collection, queryTimeout: queryTimeout}
}

// Stats computes the log summary.
func (l *Logs) Stats(ctx context.Context) (LogStats, error) {
	ctx, cancel := withTimeout(ctx, l.queryTimeout)
	defer cancel()

	var stats LogStats
	var err error

	if stats.Total, err = l.collection.CountDocuments(ctx, AllFilter()); err != nil {
		return LogStats{}, wrapError(err)
	}

	stats.Methods = make([]MethodCount, len(LogMethods))
	for i, m := range LogMethods {
		n, err := l.collection.CountDocuments(ctx, MethodFilter(m))
		if err != nil {
			return LogStats{}, wrapError(err)
		}
		stats.Methods[i] = MethodCount{Method: m, Count: n}
	}

	if stats.StatusChecks, err = l.collection.CountDocuments(ctx, StatusCheckFilter()); err != nil {
		return LogStats{}, wrapError(err)
	}

	cursor, err := l.collection.Aggregate(ctx, TopIPsPipeline(topIPLimit))
	if err != nil {
		return LogStats{}, wrapError(err)
	}
	stats.TopIPs = []IPCount{}
	if err := cursor.All(ctx, &stats.TopIPs); err != nil {
		return LogStats{}, wrapError(err)
	}

	return stats, nil
}

// WriteTo renders stats in the nginx report layout.
func (s LogStats) WriteTo(w io.Writer) (int64, error) {
	var total int64
	write := func(format string, args ...any) error {
		n, err := fmt.Fprintf(w, format, args...)
		total += int64(n)
		return err
	}

	if err := write("%d logs\nMethods:\n", s.Total); err != nil {
		return total, err
	}
	for _, m := range s.Methods {
		if err := write("\tmethod %s: %d\n", m.Method, m.Count); err != nil {
			return total, err
		}
	}
	if err := write("%d status check\n", s.StatusChecks); err != nil {
		return total, err
	}
	if len(s.TopIPs) == 0 {
		return total, nil
	}
	if err := write("IPs:\n"); err != nil {
		return total, err
	}
	for _, ip := range s.TopIPs {
		if err := write("\t%s: %d\n", ip.IP, ip.Count); err != nil {
			return total, err
		}
	}
	return total, nil
}

package repository

import (
	"context"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LogsRepository stores audit and access log entries in the logs collection.
type LogsRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

// NewLogsRepository creates a new logs repository.
func NewLogsRepository(db *MongoDB) *LogsRepository {
	return &LogsRepository{
		collection: db.Logs,
		now:        time.Now,
	}
}

// stamp assigns the id and timestamp of entries that have none.
func (r *LogsRepository) stamp(entry *model.LogEntry) {
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = r.now()
	}
}

// Create inserts one entry.
func (r *LogsRepository) Create(ctx context.Context, entry *model.LogEntry) error {
	r.stamp(entry)
	_, err := r.collection.InsertOne(ctx, entry)
	return err
}

// CreateMany inserts entries in one unordered bulk write.
func (r *LogsRepository) CreateMany(ctx context.Context, entries []*model.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		r.stamp(entry)
		docs = append(docs, entry)
	}
	_, err := r.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	return err
}

// Query returns the matching entries ordered by timestamp.
func (r *LogsRepository) Query(ctx context.Context, opts model.LogQueryOptions) ([]model.LogEntry, error) {
	order := -1
	if opts.OldestFirst {
		order = 1
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "timestamp", Value: order}, {Key: "_id", Value: order}})
	if opts.Limit > 0 {
		findOptions.SetLimit(int64(opts.Limit))
	}
	if opts.Skip > 0 {
		findOptions.SetSkip(int64(opts.Skip))
	}

	cursor, err := r.collection.Find(ctx, logFilter(opts), findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	entries := make([]model.LogEntry, 0)
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// Count returns the number of matching entries.
func (r *LogsRepository) Count(ctx context.Context, opts model.LogQueryOptions) (int64, error) {
	return r.collection.CountDocuments(ctx, logFilter(opts))
}

func logFilter(opts model.LogQueryOptions) bson.D {
	filter := bson.D{}
	for _, f := range []struct{ key, value string }{
		{"request_id", opts.RequestID},
		{"action_type", opts.ActionType},
		{"job_id", opts.JobID},
		{"batch_id", opts.BatchID},
		{"printer", opts.Printer},
		{"level", opts.Level},
	} {
		if f.value != "" {
			filter = append(filter, bson.E{Key: f.key, Value: f.value})
		}
	}

	window := bson.D{}
	if opts.StartTime != nil {
		window = append(window, bson.E{Key: "$gte", Value: *opts.StartTime})
	}
	if opts.EndTime != nil {
		window = append(window, bson.E{Key: "$lte", Value: *opts.EndTime})
	}
	if len(window) > 0 {
		filter = append(filter, bson.E{Key: "timestamp", Value: window})
	}
	return filter
}

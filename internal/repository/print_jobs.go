package repository

import (
	"context"
	"errors"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PrintJobDocument is an archived finished job. Labels keep only their encoded
// payload and box number; the render geometry is not worth storing.
type PrintJobDocument struct {
	ID               string              `bson:"_id"`
	TransactionNo    string              `bson:"transaction_no"`
	Company          string              `bson:"company"`
	RequestedPrinter string              `bson:"requested_printer,omitempty"`
	PrinterName      string              `bson:"printer_name,omitempty"`
	BatchID          string              `bson:"batch_id,omitempty"`
	IdempotencyKey   string              `bson:"idempotency_key,omitempty"`
	Labels           []ArchivedLabel     `bson:"labels"`
	Settings         model.PrintSettings `bson:"settings"`
	Status           string              `bson:"status"`
	Progress         int                 `bson:"progress"`
	Message          string              `bson:"message,omitempty"`
	ErrorMessage     string              `bson:"error_message,omitempty"`
	CreatedAt        time.Time           `bson:"created_at"`
	StartedAt        *time.Time          `bson:"started_at,omitempty"`
	CompletedAt      *time.Time          `bson:"completed_at,omitempty"`
	ReadAt           *time.Time          `bson:"read_at,omitempty"`
	ArchivedAt       time.Time           `bson:"archived_at"`
}

// ArchivedLabel is the stored form of one label.
type ArchivedLabel struct {
	BoxNumber int    `bson:"box_number"`
	Article   string `bson:"article,omitempty"`
	Encoded   string `bson:"encoded"`
}

// NewPrintJobDocument converts a job for storage.
func NewPrintJobDocument(job *model.PrintJob) *PrintJobDocument {
	labels := make([]ArchivedLabel, len(job.Labels))
	for i, l := range job.Labels {
		labels[i] = ArchivedLabel{BoxNumber: l.BoxNumber, Article: l.Article, Encoded: l.Encoded}
	}
	return &PrintJobDocument{
		ID:               job.ID,
		TransactionNo:    job.TransactionNo,
		Company:          job.Company,
		RequestedPrinter: job.RequestedPrinter,
		PrinterName:      job.PrinterName,
		BatchID:          job.BatchID,
		IdempotencyKey:   job.IdempotencyKey,
		Labels:           labels,
		Settings:         job.Settings,
		Status:           string(job.Status),
		Progress:         job.Progress,
		Message:          job.Message,
		ErrorMessage:     job.ErrorMessage,
		CreatedAt:        job.CreatedAt,
		StartedAt:        job.StartedAt,
		CompletedAt:      job.CompletedAt,
		ReadAt:           job.ReadAt,
		ArchivedAt:       time.Now().UTC(),
	}
}

// ToModel converts the document back to a job.
func (d *PrintJobDocument) ToModel() *model.PrintJob {
	labels := make([]model.QRLabel, len(d.Labels))
	for i, l := range d.Labels {
		labels[i] = model.QRLabel{BoxNumber: l.BoxNumber, Article: l.Article, Encoded: l.Encoded}
	}
	return &model.PrintJob{
		ID:               d.ID,
		TransactionNo:    d.TransactionNo,
		Company:          d.Company,
		RequestedPrinter: d.RequestedPrinter,
		PrinterName:      d.PrinterName,
		BatchID:          d.BatchID,
		IdempotencyKey:   d.IdempotencyKey,
		Labels:           labels,
		Settings:         d.Settings,
		Status:           model.JobStatus(d.Status),
		Progress:         d.Progress,
		Message:          d.Message,
		ErrorMessage:     d.ErrorMessage,
		CreatedAt:        d.CreatedAt,
		StartedAt:        d.StartedAt,
		CompletedAt:      d.CompletedAt,
		ReadAt:           d.ReadAt,
	}
}

// JobArchiveRepository stores finished print jobs.
type JobArchiveRepository struct {
	collection *mongo.Collection
}

// NewJobArchiveRepository creates a new job archive repository.
func NewJobArchiveRepository(db *MongoDB) *JobArchiveRepository {
	return &JobArchiveRepository{collection: db.PrintJobs}
}

// Save upserts a finished job.
func (r *JobArchiveRepository) Save(ctx context.Context, job *model.PrintJob) error {
	doc := NewPrintJobDocument(job)
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	return err
}

// FindByID returns the archived job or nil when it does not exist.
func (r *JobArchiveRepository) FindByID(ctx context.Context, id string) (*model.PrintJob, error) {
	var doc PrintJobDocument
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.ToModel(), nil
}

// FindByBatch returns the archived jobs of a batch in creation order.
func (r *JobArchiveRepository) FindByBatch(ctx context.Context, batchID string) ([]model.PrintJob, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"batch_id": batchID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []PrintJobDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	jobs := make([]model.PrintJob, len(docs))
	for i := range docs {
		jobs[i] = *docs[i].ToModel()
	}
	return jobs, nil
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guttosm/label-print-service/internal/domain/model"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TransactionDocument stores a transaction. Weights are kept as decimal strings
// so their scale survives the round trip.
type TransactionDocument struct {
	Company           string        `bson:"company"`
	TransactionNo     string        `bson:"transaction_no"`
	EntryDate         string        `bson:"entry_date"`
	VendorName        *string       `bson:"vendor_name,omitempty"`
	CustomerName      *string       `bson:"customer_name,omitempty"`
	ItemDescription   *string       `bson:"item_description,omitempty"`
	BatchNumber       string        `bson:"batch_number"`
	ManufacturingDate *string       `bson:"manufacturing_date,omitempty"`
	ExpiryDate        *string       `bson:"expiry_date,omitempty"`
	SKUID             string        `bson:"sku_id"`
	ApprovalAuthority *string       `bson:"approval_authority,omitempty"`
	TotalNetWeight    *string       `bson:"total_net_weight,omitempty"`
	TotalGrossWeight  *string       `bson:"total_gross_weight,omitempty"`
	Boxes             []BoxDocument `bson:"boxes"`
	UpdatedAt         time.Time     `bson:"updated_at"`
}

// BoxDocument stores one box.
type BoxDocument struct {
	BoxNumber   int     `bson:"box_number"`
	NetWeight   *string `bson:"net_weight,omitempty"`
	GrossWeight *string `bson:"gross_weight,omitempty"`
	Article     *string `bson:"article,omitempty"`
}

func decimalString(d decimal.NullDecimal) *string {
	if !d.Valid {
		return nil
	}
	s := d.Decimal.String()
	if exp := d.Decimal.Exponent(); exp < 0 {
		s = d.Decimal.StringFixed(-exp)
	}
	return &s
}

func parseDecimal(field string, s *string) (decimal.NullDecimal, error) {
	if s == nil {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("%s: %w", field, err)
	}
	return decimal.NewNullDecimal(d), nil
}

// NewTransactionDocument converts a transaction for storage.
func NewTransactionDocument(tx *model.Transaction) *TransactionDocument {
	boxes := make([]BoxDocument, len(tx.Boxes))
	for i, b := range tx.Boxes {
		boxes[i] = BoxDocument{
			BoxNumber:   b.BoxNumber,
			NetWeight:   decimalString(b.NetWeight),
			GrossWeight: decimalString(b.GrossWeight),
			Article:     b.Article,
		}
	}
	return &TransactionDocument{
		Company:           tx.Company,
		TransactionNo:     tx.TransactionNo,
		EntryDate:         tx.EntryDate,
		VendorName:        tx.VendorName,
		CustomerName:      tx.CustomerName,
		ItemDescription:   tx.ItemDescription,
		BatchNumber:       tx.BatchNumber,
		ManufacturingDate: tx.ManufacturingDate,
		ExpiryDate:        tx.ExpiryDate,
		SKUID:             tx.SKUID,
		ApprovalAuthority: tx.ApprovalAuthority,
		TotalNetWeight:    decimalString(tx.TotalNetWeight),
		TotalGrossWeight:  decimalString(tx.TotalGrossWeight),
		Boxes:             boxes,
		UpdatedAt:         time.Now().UTC(),
	}
}

// ToModel converts the document back to a transaction.
func (d *TransactionDocument) ToModel() (*model.Transaction, error) {
	tx := &model.Transaction{
		TransactionNo:     d.TransactionNo,
		Company:           d.Company,
		EntryDate:         d.EntryDate,
		VendorName:        d.VendorName,
		CustomerName:      d.CustomerName,
		ItemDescription:   d.ItemDescription,
		BatchNumber:       d.BatchNumber,
		ManufacturingDate: d.ManufacturingDate,
		ExpiryDate:        d.ExpiryDate,
		SKUID:             d.SKUID,
		ApprovalAuthority: d.ApprovalAuthority,
		Boxes:             make([]model.Box, len(d.Boxes)),
	}

	var err error
	if tx.TotalNetWeight, err = parseDecimal("total_net_weight", d.TotalNetWeight); err != nil {
		return nil, err
	}
	if tx.TotalGrossWeight, err = parseDecimal("total_gross_weight", d.TotalGrossWeight); err != nil {
		return nil, err
	}
	for i, b := range d.Boxes {
		box := model.Box{BoxNumber: b.BoxNumber, Article: b.Article}
		if box.NetWeight, err = parseDecimal("net_weight", b.NetWeight); err != nil {
			return nil, err
		}
		if box.GrossWeight, err = parseDecimal("gross_weight", b.GrossWeight); err != nil {
			return nil, err
		}
		tx.Boxes[i] = box
	}
	return tx, nil
}

// TransactionRepository stores transactions supplied by the inventory front end.
type TransactionRepository struct {
	collection *mongo.Collection
}

// NewTransactionRepository creates a new transaction repository.
func NewTransactionRepository(db *MongoDB) *TransactionRepository {
	return &TransactionRepository{collection: db.Transactions}
}

// Upsert stores tx keyed by company and transaction number.
func (r *TransactionRepository) Upsert(ctx context.Context, tx *model.Transaction) error {
	doc := NewTransactionDocument(tx)
	filter := bson.M{"company": doc.Company, "transaction_no": doc.TransactionNo}
	_, err := r.collection.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	return err
}

// FindByNumber returns the transaction or nil when it does not exist.
func (r *TransactionRepository) FindByNumber(ctx context.Context, company, transactionNo string) (*model.Transaction, error) {
	var doc TransactionDocument
	err := r.collection.FindOne(ctx, bson.M{"company": company, "transaction_no": transactionNo}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.ToModel()
}

// List returns the most recently updated transactions, optionally of one company.
func (r *TransactionRepository) List(ctx context.Context, company string, limit int) ([]model.Transaction, error) {
	filter := bson.M{}
	if company != "" {
		filter["company"] = company
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	var docs []TransactionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	out := make([]model.Transaction, 0, len(docs))
	for i := range docs {
		tx, err := docs[i].ToModel()
		if err != nil {
			return nil, fmt.Errorf("transaction %s: %w", docs[i].TransactionNo, err)
		}
		out = append(out, *tx)
	}
	return out, nil
}

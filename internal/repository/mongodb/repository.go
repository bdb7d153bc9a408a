package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/batchdesk/internal/domain/models"
)

// ErrNoReport is returned when no expiry report has been stored yet.
var ErrNoReport = errors.New("no expiry report stored")

// Repository defines the interface for expiry report storage.
type Repository interface {
	SaveExpiryReport(ctx context.Context, report models.ExpiryReport) error
	LatestExpiryReport(ctx context.Context) (*models.ExpiryReport, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client:   client,
		dbName:   dbName,
		collName: "expiry_reports",
	}, nil
}

func (r *MongoDBRepository) collection() *mongo.Collection {
	return r.client.Database(r.dbName).Collection(r.collName)
}

// SaveExpiryReport stores one sweep result.
func (r *MongoDBRepository) SaveExpiryReport(ctx context.Context, report models.ExpiryReport) error {
	if _, err := r.collection().InsertOne(ctx, report); err != nil {
		return fmt.Errorf("failed to insert expiry report: %w", err)
	}
	return nil
}

// LatestExpiryReport returns the most recently generated report.
func (r *MongoDBRepository) LatestExpiryReport(ctx context.Context) (*models.ExpiryReport, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "generated_at", Value: -1}})

	var report models.ExpiryReport
	err := r.collection().FindOne(ctx, bson.D{}, opts).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest expiry report: %w", err)
	}
	return &report, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

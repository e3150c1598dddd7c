package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/lotprice/internal/domain/models"
	"github.com/mamadbah2/lotprice/internal/domain/ports"
)

const (
	snapshotsCollection   = "feature_snapshots"
	predictionsCollection = "predictions"
)

// Repository is the archive of computed feature bundles and price predictions.
type Repository interface {
	ports.SnapshotArchive
	LatestSnapshot(ctx context.Context, lotID int64) (*models.FeatureSnapshot, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

// predictionDocument stores the prediction along with its inputs.
type predictionDocument struct {
	models.PricePrediction `bson:",inline"`
	Features               map[string]float64 `bson:"features"`
	Order                  []string           `bson:"order"`
}

// SaveFeatureSnapshot stores one computed bundle.
func (r *MongoDBRepository) SaveFeatureSnapshot(ctx context.Context, snapshot models.FeatureSnapshot) error {
	collection := r.client.Database(r.dbName).Collection(snapshotsCollection)
	if _, err := collection.InsertOne(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to insert feature snapshot for lot %d: %w", snapshot.LotID, err)
	}
	return nil
}

// SavePrediction stores a prediction with the features it was computed from.
func (r *MongoDBRepository) SavePrediction(ctx context.Context, prediction models.PricePrediction) error {
	doc := predictionDocument{
		PricePrediction: prediction,
		Features:        prediction.Features.Map(),
		Order:           prediction.Features.Names(),
	}

	collection := r.client.Database(r.dbName).Collection(predictionsCollection)
	if _, err := collection.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to insert prediction for lot %d: %w", prediction.LotID, err)
	}
	return nil
}

// LatestSnapshot returns the most recent snapshot of a lot, or nil when none was archived.
func (r *MongoDBRepository) LatestSnapshot(ctx context.Context, lotID int64) (*models.FeatureSnapshot, error) {
	collection := r.client.Database(r.dbName).Collection(snapshotsCollection)
	opts := options.FindOne().SetSort(bson.D{{Key: "computed_at", Value: -1}})

	var snapshot models.FeatureSnapshot
	err := collection.FindOne(ctx, bson.D{{Key: "lot_id", Value: lotID}}, opts).Decode(&snapshot)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for lot %d: %w", lotID, err)
	}
	return &snapshot, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

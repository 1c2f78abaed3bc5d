package report

import (
	"context"
	"errors"
	"time"

	"go-itam/internal/common/errs"
	"go-itam/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ReportRepository interface {
	Create(ctx context.Context, report *ReportDefinition) error
	Get(ctx context.Context, id string) (*ReportDefinition, error)
	// List returns public reports plus those owned by userID. An empty
	// userID lists everything.
	List(ctx context.Context, userID string) ([]ReportDefinition, error)
	Update(ctx context.Context, id string, report *ReportDefinition) error
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}

type ReportRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewReportRepository(db *database.MongodbDB) ReportRepository {
	return &ReportRepositoryImpl{
		Collection: db.DB.Collection("report_definitions"),
	}
}

func reportObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, errs.NotFoundError{Resource: "report", Err: err}
	}
	return oid, nil
}

func (r *ReportRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_by", Value: 1}}},
		{Keys: bson.D{{Key: "is_public", Value: 1}, {Key: "name", Value: 1}}},
	})
	return err
}

func (r *ReportRepositoryImpl) Create(ctx context.Context, report *ReportDefinition) error {
	if report.ID.IsZero() {
		report.ID = primitive.NewObjectID()
	}
	report.CreatedAt = time.Now().UTC()
	report.UpdatedAt = report.CreatedAt
	_, err := r.Collection.InsertOne(ctx, report)
	return err
}

func (r *ReportRepositoryImpl) Get(ctx context.Context, id string) (*ReportDefinition, error) {
	oid, err := reportObjectID(id)
	if err != nil {
		return nil, err
	}
	var report ReportDefinition
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFoundError{Resource: "report", Err: err}
	}
	if err != nil {
		return nil, err
	}
	return &report, nil
}

func (r *ReportRepositoryImpl) List(ctx context.Context, userID string) ([]ReportDefinition, error) {
	filter := bson.M{}
	if userID != "" {
		filter = bson.M{"$or": bson.A{
			bson.M{"is_public": true},
			bson.M{"created_by": userID},
		}}
	}

	cursor, err := r.Collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	reports := []ReportDefinition{}
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *ReportRepositoryImpl) Update(ctx context.Context, id string, report *ReportDefinition) error {
	oid, err := reportObjectID(id)
	if err != nil {
		return err
	}
	report.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"name":        report.Name,
			"description": report.Description,
			"type":        report.Type,
			"columns":     report.Columns,
			"filters":     report.Filters,
			"sorting":     report.Sorting,
			"is_public":   report.IsPublic,
			"per_page":    report.PerPage,
			"updated_at":  report.UpdatedAt,
		},
	}
	res, err := r.Collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return errs.NotFoundError{Resource: "report"}
	}
	return nil
}

func (r *ReportRepositoryImpl) Delete(ctx context.Context, id string) error {
	oid, err := reportObjectID(id)
	if err != nil {
		return err
	}
	res, err := r.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return errs.NotFoundError{Resource: "report"}
	}
	return nil
}

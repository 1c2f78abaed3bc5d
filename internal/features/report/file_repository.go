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

type FileRepository interface {
	Create(ctx context.Context, file *ReportFile) error
	Get(ctx context.Context, id string) (*ReportFile, error)
	// ListByUser returns unexpired files generated by userID, newest first.
	// An empty userID lists every user's files.
	ListByUser(ctx context.Context, userID string, now time.Time) ([]ReportFile, error)
	ListExpired(ctx context.Context, now time.Time) ([]ReportFile, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	EnsureIndexes(ctx context.Context) error
}

type FileRepositoryImpl struct {
	Collection *mongo.Collection
}

func NewFileRepository(db *database.MongodbDB) FileRepository {
	return &FileRepositoryImpl{
		Collection: db.DB.Collection("report_files"),
	}
}

func (r *FileRepositoryImpl) EnsureIndexes(ctx context.Context) error {
	_, err := r.Collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "expires_at", Value: 1}}},
		{Keys: bson.D{{Key: "generated_by", Value: 1}, {Key: "created_at", Value: -1}}},
	})
	return err
}

func (r *FileRepositoryImpl) Create(ctx context.Context, file *ReportFile) error {
	if file.ID.IsZero() {
		file.ID = primitive.NewObjectID()
	}
	_, err := r.Collection.InsertOne(ctx, file)
	return err
}

func (r *FileRepositoryImpl) Get(ctx context.Context, id string) (*ReportFile, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, errs.NotFoundError{Resource: "report file", Err: err}
	}
	var file ReportFile
	err = r.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&file)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, errs.NotFoundError{Resource: "report file", Err: err}
	}
	if err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *FileRepositoryImpl) ListByUser(ctx context.Context, userID string, now time.Time) ([]ReportFile, error) {
	filter := bson.M{"expires_at": bson.M{"$gt": now}}
	if userID != "" {
		filter["generated_by"] = userID
	}
	return r.find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
}

func (r *FileRepositoryImpl) ListExpired(ctx context.Context, now time.Time) ([]ReportFile, error) {
	return r.find(ctx, bson.M{"expires_at": bson.M{"$lte": now}}, options.Find())
}

func (r *FileRepositoryImpl) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]ReportFile, error) {
	cursor, err := r.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	files := []ReportFile{}
	if err := cursor.All(ctx, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (r *FileRepositoryImpl) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := r.Collection.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"proctorexam/internal/model"
)

// ResultRepo handles MongoDB operations for exam results
type ResultRepo interface {
	Create(ctx context.Context, result *model.Result) error
	GetByID(ctx context.Context, id string) (*model.Result, error)
	ExistsForStudent(ctx context.Context, studentID, examID string) (bool, error)
	ListByExam(ctx context.Context, examID string) ([]*model.Result, error)
	ListByStudent(ctx context.Context, studentID string) ([]*model.Result, error)
	Delete(ctx context.Context, id string) (*model.Result, error)
	DeleteByExam(ctx context.Context, examID string) (int64, error)
	DeleteByStudent(ctx context.Context, studentID string) (int64, error)
	Count(ctx context.Context) (int64, error)
}

type resultRepo struct {
	collection *mongo.Collection
}

// NewResultRepo creates a new result repository
func NewResultRepo(db *mongo.Database) ResultRepo {
	return &resultRepo{
		collection: db.Collection(resultsCollection),
	}
}

func (r *resultRepo) Create(ctx context.Context, result *model.Result) error {
	if result.SubmittedAt.IsZero() {
		result.SubmittedAt = time.Now()
	}

	res, err := r.collection.InsertOne(ctx, result)
	if err != nil {
		return err
	}
	result.ID = insertedHex(res)
	return nil
}

func (r *resultRepo) GetByID(ctx context.Context, id string) (*model.Result, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}

	var result model.Result
	err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) ExistsForStudent(ctx context.Context, studentID, examID string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx,
		bson.M{"studentId": studentID, "examId": examID},
		options.Count().SetLimit(1))
	return n > 0, err
}

func (r *resultRepo) list(ctx context.Context, filter bson.M, sort bson.D) ([]*model.Result, error) {
	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	results := []*model.Result{}
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	return results, nil
}

// ListByExam returns results ranked by score, best first
func (r *resultRepo) ListByExam(ctx context.Context, examID string) ([]*model.Result, error) {
	return r.list(ctx, bson.M{"examId": examID}, bson.D{{Key: "score", Value: -1}})
}

// ListByStudent returns a student's results, newest first
func (r *resultRepo) ListByStudent(ctx context.Context, studentID string) ([]*model.Result, error) {
	return r.list(ctx, bson.M{"studentId": studentID}, bson.D{{Key: "submittedAt", Value: -1}})
}

// Delete removes a result and returns it, nil if it did not exist
func (r *resultRepo) Delete(ctx context.Context, id string) (*model.Result, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}

	var result model.Result
	err := r.collection.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&result)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *resultRepo) DeleteByExam(ctx context.Context, examID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"examId": examID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *resultRepo) DeleteByStudent(ctx context.Context, studentID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"studentId": studentID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

func (r *resultRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

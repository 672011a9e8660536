package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"proctorexam/internal/model"
)

// ExamRepo handles MongoDB operations for exams
type ExamRepo interface {
	Create(ctx context.Context, exam *model.Exam) error
	GetByID(ctx context.Context, id string) (*model.Exam, error)
	GetByKey(ctx context.Context, key string) (*model.Exam, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]*model.Exam, error)
	ListByCreator(ctx context.Context, creatorID string) ([]*model.Exam, error)
	Update(ctx context.Context, id string, input *model.ExamInput) (*model.Exam, error)
	SetActive(ctx context.Context, id string, active bool) error
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int64, error)
}

type examRepo struct {
	collection *mongo.Collection
}

// NewExamRepo creates a new exam repository
func NewExamRepo(db *mongo.Database) ExamRepo {
	return &examRepo{
		collection: db.Collection(examsCollection),
	}
}

func (r *examRepo) Create(ctx context.Context, exam *model.Exam) error {
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = time.Now()
	}

	result, err := r.collection.InsertOne(ctx, exam)
	if err != nil {
		return err
	}
	exam.ID = insertedHex(result)
	return nil
}

func (r *examRepo) findOne(ctx context.Context, filter bson.M) (*model.Exam, error) {
	var exam model.Exam
	err := r.collection.FindOne(ctx, filter).Decode(&exam)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepo) GetByID(ctx context.Context, id string) (*model.Exam, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *examRepo) GetByKey(ctx context.Context, key string) (*model.Exam, error) {
	return r.findOne(ctx, bson.M{"examKey": key})
}

func (r *examRepo) ExistsByKey(ctx context.Context, key string) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"examKey": key}, options.Count().SetLimit(1))
	return n > 0, err
}

func (r *examRepo) GetByIDs(ctx context.Context, ids []string) (map[string]*model.Exam, error) {
	out := make(map[string]*model.Exam, len(ids))
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return out, nil
	}

	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var exams []*model.Exam
	if err := cursor.All(ctx, &exams); err != nil {
		return nil, err
	}
	for _, e := range exams {
		out[e.ID] = e
	}
	return out, nil
}

func (r *examRepo) ListByCreator(ctx context.Context, creatorID string) ([]*model.Exam, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"createdBy": creatorID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	exams := []*model.Exam{}
	if err := cursor.All(ctx, &exams); err != nil {
		return nil, err
	}
	return exams, nil
}

// Update replaces the editable fields and returns the updated exam, nil if
// it does not exist
func (r *examRepo) Update(ctx context.Context, id string, input *model.ExamInput) (*model.Exam, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, nil
	}

	set := bson.M{
		"title":        input.Title,
		"duration":     input.Duration,
		"passingMarks": input.PassingMarks,
		"questions":    input.Questions,
	}
	if input.ProctoringEnabled != nil {
		set["proctoringEnabled"] = *input.ProctoringEnabled
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var exam model.Exam
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&exam)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (r *examRepo) SetActive(ctx context.Context, id string, active bool) error {
	oid, ok := objectID(id)
	if !ok {
		return mongo.ErrNoDocuments
	}
	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"isActive": active}})
	return err
}

func (r *examRepo) Delete(ctx context.Context, id string) (bool, error) {
	oid, ok := objectID(id)
	if !ok {
		return false, nil
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, err
	}
	return result.DeletedCount > 0, nil
}

func (r *examRepo) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveyflow/internal/model"
)

// QuotaRepo handles MongoDB operations for quota definitions, their durable
// counts, and the quota-response links. The Redis counter is authoritative
// for limit enforcement; the documents here mirror it for durability and
// admin visibility.
type QuotaRepo interface {
	Create(ctx context.Context, quota *model.Quota) error
	CreateMany(ctx context.Context, quotas []model.Quota) error
	GetByID(ctx context.Context, id string) (*model.Quota, error)
	GetBySurveyID(ctx context.Context, surveyID string) ([]model.Quota, error)
	Update(ctx context.Context, quota *model.Quota) error
	Delete(ctx context.Context, id string) error

	// Durable count bookkeeping
	IncrementCount(ctx context.Context, quotaID string) error
	ResetCount(ctx context.Context, quotaID string) error

	// Quota-response links
	CreateLink(ctx context.Context, link *model.QuotaResponse) error
	HasLink(ctx context.Context, quotaID, responseID string) (bool, error)
	DeleteLinks(ctx context.Context, quotaID string) (int64, error)
}

type quotaRepo struct {
	quotas *mongo.Collection
	links  *mongo.Collection
}

// NewQuotaRepo creates a new quota repository and ensures the link
// collection's uniqueness index on (quotaId, responseId).
func NewQuotaRepo(db *mongo.Database) (QuotaRepo, error) {
	r := &quotaRepo{
		quotas: db.Collection("quotas"),
		links:  db.Collection("quota_responses"),
	}

	_, err := r.links.Indexes().CreateOne(context.Background(), mongo.IndexModel{
		Keys:    bson.D{{Key: "quotaId", Value: 1}, {Key: "responseId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (r *quotaRepo) Create(ctx context.Context, quota *model.Quota) error {
	quota.CreatedAt = time.Now()
	quota.UpdatedAt = time.Now()
	_, err := r.quotas.InsertOne(ctx, quota)
	return err
}

func (r *quotaRepo) CreateMany(ctx context.Context, quotas []model.Quota) error {
	if len(quotas) == 0 {
		return nil
	}
	docs := make([]interface{}, len(quotas))
	for i := range quotas {
		quotas[i].CreatedAt = time.Now()
		quotas[i].UpdatedAt = time.Now()
		docs[i] = quotas[i]
	}
	_, err := r.quotas.InsertMany(ctx, docs)
	return err
}

func (r *quotaRepo) GetByID(ctx context.Context, id string) (*model.Quota, error) {
	var quota model.Quota
	err := r.quotas.FindOne(ctx, bson.M{"_id": id}).Decode(&quota)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &quota, nil
}

func (r *quotaRepo) GetBySurveyID(ctx context.Context, surveyID string) ([]model.Quota, error) {
	cursor, err := r.quotas.Find(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var quotas []model.Quota
	if err := cursor.All(ctx, &quotas); err != nil {
		return nil, err
	}
	return quotas, nil
}

func (r *quotaRepo) Update(ctx context.Context, quota *model.Quota) error {
	quota.UpdatedAt = time.Now()
	_, err := r.quotas.ReplaceOne(ctx, bson.M{"_id": quota.ID}, quota)
	return err
}

func (r *quotaRepo) Delete(ctx context.Context, id string) error {
	_, err := r.quotas.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

func (r *quotaRepo) IncrementCount(ctx context.Context, quotaID string) error {
	_, err := r.quotas.UpdateOne(ctx, bson.M{"_id": quotaID}, bson.M{
		"$inc": bson.M{"count": 1},
		"$set": bson.M{"updatedAt": time.Now()},
	})
	return err
}

func (r *quotaRepo) ResetCount(ctx context.Context, quotaID string) error {
	_, err := r.quotas.UpdateOne(ctx, bson.M{"_id": quotaID}, bson.M{
		"$set": bson.M{"count": 0, "updatedAt": time.Now()},
	})
	return err
}

func (r *quotaRepo) CreateLink(ctx context.Context, link *model.QuotaResponse) error {
	if link.CountedAt.IsZero() {
		link.CountedAt = time.Now()
	}
	_, err := r.links.InsertOne(ctx, link)
	if mongo.IsDuplicateKeyError(err) {
		// Link already recorded; counting is idempotent
		return nil
	}
	return err
}

func (r *quotaRepo) HasLink(ctx context.Context, quotaID, responseID string) (bool, error) {
	err := r.links.FindOne(ctx, bson.M{"quotaId": quotaID, "responseId": responseID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *quotaRepo) DeleteLinks(ctx context.Context, quotaID string) (int64, error) {
	res, err := r.links.DeleteMany(ctx, bson.M{"quotaId": quotaID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

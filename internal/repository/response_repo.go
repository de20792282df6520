package repository

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"surveyflow/internal/model"
)

// ResponseRepo handles MongoDB operations for completed responses
type ResponseRepo interface {
	Create(ctx context.Context, response *model.Response) error
	GetByID(ctx context.Context, id string) (*model.Response, error)
	GetBySessionID(ctx context.Context, sessionID string) (*model.Response, error)
	GetBySurveyID(ctx context.Context, surveyID string) ([]*model.Response, error)
}

type responseRepo struct {
	collection *mongo.Collection
}

// NewResponseRepo creates a new response repository
func NewResponseRepo(db *mongo.Database) ResponseRepo {
	return &responseRepo{
		collection: db.Collection("responses"),
	}
}

func (r *responseRepo) Create(ctx context.Context, response *model.Response) error {
	if response.CompletedAt.IsZero() {
		response.CompletedAt = time.Now()
	}
	_, err := r.collection.InsertOne(ctx, response)
	return err
}

func (r *responseRepo) GetByID(ctx context.Context, id string) (*model.Response, error) {
	var response model.Response
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepo) GetBySessionID(ctx context.Context, sessionID string) (*model.Response, error) {
	var response model.Response
	err := r.collection.FindOne(ctx, bson.M{"sessionId": sessionID}).Decode(&response)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *responseRepo) GetBySurveyID(ctx context.Context, surveyID string) ([]*model.Response, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"surveyId": surveyID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var responses []*model.Response
	if err := cursor.All(ctx, &responses); err != nil {
		return nil, err
	}
	return responses, nil
}

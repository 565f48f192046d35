package repository

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tourhub/internal/domain/entity"
	"tourhub/pkg/errors"
)

type fakePairCollection struct {
	upsertErr error
	existing  *entity.Conversation
	reads     int
}

func (f *fakePairCollection) FindOneAndUpdate(_ context.Context, _ interface{}, update interface{}, _ ...options.Lister[options.FindOneAndUpdateOptions]) *mongo.SingleResult {
	if f.upsertErr != nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, f.upsertErr, nil)
	}
	fields := update.(bson.M)["$setOnInsert"].(bson.M)
	return mongo.NewSingleResultFromDocument(entity.Conversation{
		ID:           fields["_id"].(string),
		Participants: fields["participants"].([]string),
	}, nil, nil)
}

func (f *fakePairCollection) FindOne(_ context.Context, _ interface{}, _ ...options.Lister[options.FindOneOptions]) *mongo.SingleResult {
	f.reads++
	if f.existing == nil {
		return mongo.NewSingleResultFromDocument(bson.D{}, mongo.ErrNoDocuments, nil)
	}
	return mongo.NewSingleResultFromDocument(f.existing, nil, nil)
}

func TestMongoFindOrCreatePairInserts(t *testing.T) {
	coll := &fakePairCollection{}

	c, created, err := findOrCreatePair(context.Background(), coll, "m1", "admin")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, c.ID)
	assert.Equal(t, 0, coll.reads)
}

func TestMongoFindOrCreatePairDuplicateKeyReadsWinner(t *testing.T) {
	winner := &entity.Conversation{ID: "winner", Participants: []string{"admin", "m1"}}
	coll := &fakePairCollection{
		upsertErr: mongo.CommandError{Code: 11000, Message: "E11000 duplicate key error"},
		existing:  winner,
	}

	c, created, err := findOrCreatePair(context.Background(), coll, "m1", "admin")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "winner", c.ID)
	assert.Equal(t, 1, coll.reads)
}

func TestMongoFindOrCreatePairErrors(t *testing.T) {
	coll := &fakePairCollection{upsertErr: mongo.CommandError{Code: 2, Message: "bad value"}}
	_, _, err := findOrCreatePair(context.Background(), coll, "m1", "admin")
	assert.True(t, errors.Is(err, errors.CodeInternal))
	assert.Equal(t, 0, coll.reads)

	coll = &fakePairCollection{upsertErr: mongo.CommandError{Code: 11000}}
	_, _, err = findOrCreatePair(context.Background(), coll, "m1", "admin")
	assert.True(t, errors.Is(err, errors.CodeInternal))
}

func TestMongoFindOrCreateDirectRace(t *testing.T) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		t.Skip("MONGO_URI not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)
	defer client.Disconnect(context.Background())

	db := client.Database(fmt.Sprintf("tourhub_test_%d", time.Now().UnixNano()))
	defer db.Drop(context.Background())

	require.NoError(t, EnsureMongoIndexes(ctx, db))
	assertSingleConversationPerPair(t, NewMongoConversationRepository(db))
}

package database

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

type testDoc struct {
	Key   string   `bson:"key"`
	Name  string   `bson:"name,omitempty"`
	Count int      `bson:"count"`
	Tags  []string `bson:"tags"`
	Flag  bool     `bson:"flag"`
}

func TestMemoryFindOne(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")

	require.NoError(t, coll.InsertOne(ctx, testDoc{Key: "a", Count: 1, Tags: []string{"x"}}))

	var got testDoc
	require.NoError(t, coll.FindOne(ctx, bson.M{"key": "a"}, &got))
	assert.Equal(t, 1, got.Count)
	assert.Equal(t, []string{"x"}, got.Tags)

	err := coll.FindOne(ctx, bson.M{"key": "missing"}, &got)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryCollectionsAreShared(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Collection("docs").InsertOne(ctx, testDoc{Key: "a"}))

	var got testDoc
	require.NoError(t, store.Collection("docs").FindOne(ctx, bson.M{"key": "a"}, &got))
	assert.ErrorIs(t, store.Collection("other").FindOne(ctx, bson.M{"key": "a"}, &got), ErrNotFound)
}

func TestMemoryUpdateOperators(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")
	require.NoError(t, coll.InsertOne(ctx, testDoc{Key: "a", Tags: []string{}}))

	res, err := coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{
		"$inc":      bson.M{"count": 2},
		"$addToSet": bson.M{"tags": "x"},
		"$set":      bson.M{"flag": true},
	}, false)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1, Modified: 1}, res)

	// $addToSet keeps one copy, $inc still applies
	_, err = coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{
		"$inc":      bson.M{"count": 1},
		"$addToSet": bson.M{"tags": "x"},
	}, false)
	require.NoError(t, err)

	_, err = coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{"$push": bson.M{"tags": "x"}}, false)
	require.NoError(t, err)

	var got testDoc
	require.NoError(t, coll.FindOne(ctx, bson.M{"key": "a"}, &got))
	assert.Equal(t, 3, got.Count)
	assert.Equal(t, []string{"x", "x"}, got.Tags)
	assert.True(t, got.Flag)
}

func TestMemoryUpdateReportsNoChange(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")
	require.NoError(t, coll.InsertOne(ctx, testDoc{Key: "a", Name: "same"}))

	res, err := coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{"$set": bson.M{"name": "same"}}, false)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{Matched: 1}, res)

	res, err = coll.UpdateOne(ctx, bson.M{"key": "missing"}, bson.M{"$set": bson.M{"name": "x"}}, false)
	require.NoError(t, err)
	assert.Equal(t, UpdateResult{}, res)
}

func TestMemoryUpsert(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")

	update := bson.M{
		"$setOnInsert": bson.M{"name": "first"},
		"$inc":         bson.M{"count": 1},
		"$push":        bson.M{"tags": "t"},
	}
	res, err := coll.UpdateOne(ctx, bson.M{"key": "a"}, update, true)
	require.NoError(t, err)
	assert.True(t, res.Upserted)

	update["$setOnInsert"] = bson.M{"name": "second"}
	res, err = coll.UpdateOne(ctx, bson.M{"key": "a"}, update, true)
	require.NoError(t, err)
	assert.False(t, res.Upserted)
	assert.Equal(t, int64(1), res.Modified)

	var got testDoc
	require.NoError(t, coll.FindOne(ctx, bson.M{"key": "a"}, &got))
	assert.Equal(t, "first", got.Name)
	assert.Equal(t, 2, got.Count)
	assert.Equal(t, []string{"t", "t"}, got.Tags)
}

func TestMemoryFindFiltersSortAndLimit(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")
	for _, d := range []testDoc{
		{Key: "a", Count: 5, Tags: []string{"red"}},
		{Key: "b", Count: 9, Tags: []string{"blue"}, Flag: true},
		{Key: "c", Count: 5, Tags: []string{"red", "blue"}, Flag: true},
		{Key: "d", Count: 1, Tags: []string{}},
	} {
		require.NoError(t, coll.InsertOne(ctx, d))
	}

	var got []testDoc
	require.NoError(t, coll.Find(ctx, bson.M{"key": bson.M{"$in": []string{"a", "d", "zz"}}}, &got, FindOptions{}))
	assert.Equal(t, []string{"a", "d"}, keys(got))

	require.NoError(t, coll.Find(ctx, bson.M{"tags": "blue"}, &got, FindOptions{}))
	assert.Equal(t, []string{"b", "c"}, keys(got))

	require.NoError(t, coll.Find(ctx, bson.M{"flag": true}, &got, FindOptions{}))
	assert.Equal(t, []string{"b", "c"}, keys(got))

	require.NoError(t, coll.Find(ctx, bson.M{"key": bson.M{"$ne": "a"}}, &got, FindOptions{}))
	assert.Equal(t, []string{"b", "c", "d"}, keys(got))

	// ties keep insertion order
	opts := FindOptions{Sort: bson.D{{Key: "count", Value: -1}}, Limit: 3}
	require.NoError(t, coll.Find(ctx, bson.M{}, &got, opts))
	assert.Equal(t, []string{"b", "a", "c"}, keys(got))

	require.NoError(t, coll.Find(ctx, bson.M{"key": "none"}, &got, FindOptions{}))
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestMemoryRejectsUnknownOperator(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")
	require.NoError(t, coll.InsertOne(ctx, testDoc{Key: "a"}))

	_, err := coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{"$rename": bson.M{"name": "title"}}, false)
	assert.Error(t, err)

	_, err = coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{"$push": bson.M{"count": 1}}, false)
	assert.Error(t, err)
}

func TestMemoryConcurrentIncrements(t *testing.T) {
	ctx := context.Background()
	coll := NewMemoryStore().Collection("docs")
	require.NoError(t, coll.InsertOne(ctx, testDoc{Key: "a", Tags: []string{}}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := coll.UpdateOne(ctx, bson.M{"key": "a"}, bson.M{"$inc": bson.M{"count": 1}}, false)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	var got testDoc
	require.NoError(t, coll.FindOne(ctx, bson.M{"key": "a"}, &got))
	assert.Equal(t, 50, got.Count)
}

func keys(docs []testDoc) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.Key
	}
	return out
}

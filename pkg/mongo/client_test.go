package mongo_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionguard/pkg/mongo"
)

func TestNew_EmptyURL(t *testing.T) {
	t.Parallel()
	_, err := mongo.New(context.Background(), mongo.Config{})
	assert.ErrorIs(t, err, mongo.ErrEmptyConnectionURL)
}

func TestNew_Live(t *testing.T) {
	url := os.Getenv("MONGODB_URL")
	if url == "" {
		t.Skip("MONGODB_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := mongo.NewWithDatabase(ctx, mongo.Config{ConnectionURL: url, Database: "sessionguard_test", RetryAttempts: 1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(context.Background()) })

	assert.Equal(t, "sessionguard_test", db.Name())
	assert.NoError(t, mongo.Healthcheck(db.Client())(ctx))
}

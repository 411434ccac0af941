//go:build integration

package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/datastore/storetest"
)

var (
	testStore datastore.SubscriberStore
	teardown  func()
)

func TestMain(m *testing.M) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		log.Error().Err(err).Msg("Error creating docker pool")
		os.Exit(1)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "mongo",
		Tag:        "7",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		log.Error().Err(err).Msg("Error starting mongo image")
		os.Exit(1)
	}
	_ = resource.Expire(120)

	uri := fmt.Sprintf("mongodb://%s", resource.GetHostPort("27017/tcp"))

	var client *mongo.Client
	err = pool.Retry(func() error {
		var err error
		client, err = mongo.Connect(context.Background(), options.Client().ApplyURI(uri))
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return client.Ping(ctx, nil)
	})
	if err != nil {
		log.Error().Err(err).Msg("Timed out waiting for mongo container")
		_ = pool.Purge(resource)
		os.Exit(1)
	}

	coll := client.Database("newsletter_test").Collection("subscribers")
	if err := EnsureIndexes(context.Background(), coll); err != nil {
		log.Error().Err(err).Msg("Error creating indexes")
		_ = pool.Purge(resource)
		os.Exit(1)
	}

	testStore = New(coll)
	teardown = func() {
		if _, err := coll.DeleteMany(context.Background(), bson.M{}); err != nil {
			log.Error().Err(err).Msg("Error resetting collection")
			_ = pool.Purge(resource)
			os.Exit(1)
		}
	}

	code := m.Run()
	_ = client.Disconnect(context.Background())
	_ = pool.Purge(resource)
	os.Exit(code)
}

func TestSubscriberMongoStore(t *testing.T) {
	storetest.RunTests(t, testStore, teardown)
}

// Package storetest holds the conformance suite every SubscriberStore
// backend runs from its own package tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/models"
)

func RunTests(t *testing.T, s datastore.SubscriberStore, teardown func()) {
	for _, tf := range []func(t *testing.T, s datastore.SubscriberStore){
		testRoundTrip,
		testDuplicateInsert,
		testDeleteTwice,
		testCaseInsensitiveEmail,
		testConcurrentInsert,
		testCount,
	} {
		tf(t, s)
		teardown()
	}
}

func testRoundTrip(t *testing.T, s datastore.SubscriberStore) {
	t.Run("testRoundTrip", func(t *testing.T) {
		ctx := context.Background()

		actual, err := s.FindByEmail(ctx, "a@x.com")
		require.Error(t, err)
		assert.ErrorIs(t, err, datastore.ErrSubscriberNotFound)
		assert.Nil(t, actual)

		before := time.Now().Add(-time.Second)
		created, err := s.Insert(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", created.Email)
		assert.NotEmpty(t, created.ID)
		assert.True(t, created.CreatedAt.After(before))

		actual, err = s.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assertEquivalentRecords(t, created, actual)
	})
}

func testDuplicateInsert(t *testing.T, s datastore.SubscriberStore) {
	t.Run("testDuplicateInsert", func(t *testing.T) {
		ctx := context.Background()

		first, err := s.Insert(ctx, "dup@x.com")
		require.NoError(t, err)

		_, err = s.Insert(ctx, "dup@x.com")
		assert.ErrorIs(t, err, datastore.ErrSubscriberExists)
		assert.False(t, errors.Is(err, datastore.ErrStoreUnavailable))

		actual, err := s.FindByEmail(ctx, "dup@x.com")
		require.NoError(t, err)
		assertEquivalentRecords(t, first, actual)

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

func testDeleteTwice(t *testing.T, s datastore.SubscriberStore) {
	t.Run("testDeleteTwice", func(t *testing.T) {
		ctx := context.Background()

		created, err := s.Insert(ctx, "gone@x.com")
		require.NoError(t, err)

		deleted, err := s.DeleteByEmail(ctx, "gone@x.com")
		require.NoError(t, err)
		assertEquivalentRecords(t, created, deleted)

		_, err = s.DeleteByEmail(ctx, "gone@x.com")
		assert.ErrorIs(t, err, datastore.ErrSubscriberNotFound)

		_, err = s.FindByEmail(ctx, "gone@x.com")
		assert.ErrorIs(t, err, datastore.ErrSubscriberNotFound)
	})
}

func testCaseInsensitiveEmail(t *testing.T, s datastore.SubscriberStore) {
	t.Run("testCaseInsensitiveEmail", func(t *testing.T) {
		ctx := context.Background()

		created, err := s.Insert(ctx, "  Mixed.Case@Example.COM ")
		require.NoError(t, err)
		assert.Equal(t, "mixed.case@example.com", created.Email)

		_, err = s.Insert(ctx, "mixed.case@example.com")
		assert.ErrorIs(t, err, datastore.ErrSubscriberExists)

		actual, err := s.FindByEmail(ctx, "MIXED.CASE@EXAMPLE.COM")
		require.NoError(t, err)
		assertEquivalentRecords(t, created, actual)

		deleted, err := s.DeleteByEmail(ctx, "Mixed.Case@example.com")
		require.NoError(t, err)
		assert.Equal(t, created.ID, deleted.ID)
	})
}

func testConcurrentInsert(t *testing.T, s datastore.SubscriberStore) {
	t.Run("testConcurrentInsert", func(t *testing.T) {
		ctx := context.Background()

		const workers = 8
		var wg sync.WaitGroup
		results := make(chan error, workers)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Insert(ctx, "race@x.com")
				results <- err
			}()
		}
		wg.Wait()
		close(results)

		var succeeded, duplicates int
		for err := range results {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, datastore.ErrSubscriberExists):
				duplicates++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, workers-1, duplicates)
	})
}

func testCount(t *testing.T, s datastore.SubscriberStore) {
	t.Run("testCount", func(t *testing.T) {
		ctx := context.Background()

		count, err := s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		for i := 0; i < 3; i++ {
			_, err := s.Insert(ctx, fmt.Sprintf("user%d@x.com", i))
			require.NoError(t, err)
		}

		count, err = s.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		require.NoError(t, s.Ping(ctx))
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *models.Subscriber) {
	assert.Equal(t, obj1.ID, obj2.ID)
	assert.Equal(t, obj1.Email, obj2.Email)
	assert.Equal(t, obj1.CreatedAt.Unix(), obj2.CreatedAt.Unix())
}

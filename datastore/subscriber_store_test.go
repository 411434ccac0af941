package datastore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/datastore/memory"
	"github.com/vikiai/newsletter/metrics"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a@x.com", "a@x.com"},
		{"  A@X.com\t", "a@x.com"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, datastore.NormalizeEmail(tt.in), "input %q", tt.in)
	}
}

func TestUnavailable(t *testing.T) {
	assert.NoError(t, datastore.Unavailable("op", nil))

	cause := errors.New("connection refused")
	err := datastore.Unavailable("find subscriber", cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, datastore.ErrStoreUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "find subscriber: connection refused", err.Error())

	// Wrapping twice keeps the innermost operation name.
	again := datastore.Unavailable("outer", err)
	assert.Equal(t, err, again)

	var ue *datastore.UnavailableError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, "find subscriber", ue.Op)
}

func TestInstrumentRecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	s := datastore.Instrument(memory.New())

	insertOK := sampleCount(t, "insert", "ok")
	insertDup := sampleCount(t, "insert", "duplicate")
	deleteMissing := sampleCount(t, "delete_by_email", "not_found")

	_, err := s.Insert(ctx, "metrics@x.com")
	require.NoError(t, err)
	_, err = s.Insert(ctx, "metrics@x.com")
	assert.ErrorIs(t, err, datastore.ErrSubscriberExists)
	_, err = s.DeleteByEmail(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, datastore.ErrSubscriberNotFound)

	assert.Equal(t, insertOK+1, sampleCount(t, "insert", "ok"))
	assert.Equal(t, insertDup+1, sampleCount(t, "insert", "duplicate"))
	assert.Equal(t, deleteMissing+1, sampleCount(t, "delete_by_email", "not_found"))
}

func sampleCount(t *testing.T, op, outcome string) uint64 {
	t.Helper()
	var m dto.Metric
	observer := metrics.StoreOperationDuration.WithLabelValues(op, outcome)
	require.NoError(t, observer.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

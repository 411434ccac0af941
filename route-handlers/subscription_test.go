package routehandlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vikiai/newsletter/datastore"
	"github.com/vikiai/newsletter/datastore/memory"
	"github.com/vikiai/newsletter/models"
	"github.com/vikiai/newsletter/subscription"
	"github.com/vikiai/newsletter/webutil"
)

type apiResponse struct {
	Message string             `json:"message"`
	Error   string             `json:"error"`
	Data    *models.Subscriber `json:"data"`
}

// brokenStore fails every call as if the database were down.
type brokenStore struct{}

var errConnRefused = errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

func (brokenStore) FindByEmail(context.Context, string) (*models.Subscriber, error) {
	return nil, datastore.Unavailable("find_by_email", errConnRefused)
}

func (brokenStore) Insert(context.Context, string) (*models.Subscriber, error) {
	return nil, datastore.Unavailable("insert", errConnRefused)
}

func (brokenStore) DeleteByEmail(context.Context, string) (*models.Subscriber, error) {
	return nil, datastore.Unavailable("delete_by_email", errConnRefused)
}

func (brokenStore) Count(context.Context) (int64, error) {
	return 0, datastore.Unavailable("count", errConnRefused)
}

func (brokenStore) Ping(context.Context) error { return datastore.Unavailable("ping", errConnRefused) }

func (brokenStore) Close(context.Context) error { return nil }

func newAPIRouter(store datastore.SubscriberStore) http.Handler {
	h := NewSubscriptionHandler(subscription.NewService(store))
	r := chi.NewRouter()
	r.Post("/api/subscribe", webutil.MakeHandler(h.HandleSubscribe))
	r.Post("/api/unsubscribe", webutil.MakeHandler(h.HandleUnsubscribe))
	r.Get("/api/seed", webutil.MakeHandler(h.HandleSeed))
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) (int, apiResponse) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(webutil.HeaderContentType, webutil.ContentTypeJSONUTF8)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, webutil.ContentTypeJSONUTF8, rec.Header().Get(webutil.HeaderContentType))
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestSubscribeThenDuplicate(t *testing.T) {
	h := newAPIRouter(memory.New())

	code, resp := do(t, h, http.MethodPost, "/api/subscribe", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusCreated, code)
	assert.Equal(t, "Subscribed successfully!", resp.Message)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "a@x.com", resp.Data.Email)
	assert.NotEmpty(t, resp.Data.ID)
	assert.False(t, resp.Data.CreatedAt.IsZero())

	code, resp = do(t, h, http.MethodPost, "/api/subscribe", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "This email is already subscribed.", resp.Message)
	assert.Nil(t, resp.Data)
}

func TestSubscribeDuplicateIgnoresCase(t *testing.T) {
	h := newAPIRouter(memory.New())

	code, _ := do(t, h, http.MethodPost, "/api/subscribe", `{"email":"A@X.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, h, http.MethodPost, "/api/subscribe", `{"email":"a@x.COM"}`)
	assert.Equal(t, http.StatusConflict, code)
}

func TestUnsubscribeThenNotFound(t *testing.T) {
	h := newAPIRouter(memory.New())

	code, _ := do(t, h, http.MethodPost, "/api/subscribe", `{"email":"a@x.com"}`)
	require.Equal(t, http.StatusCreated, code)

	code, resp := do(t, h, http.MethodPost, "/api/unsubscribe", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "The email a@x.com has been unsubscribed and deleted.", resp.Message)

	code, resp = do(t, h, http.MethodPost, "/api/unsubscribe", `{"email":"a@x.com"}`)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Email not found in subscribers list.", resp.Message)
}

func TestMissingEmail(t *testing.T) {
	h := newAPIRouter(memory.New())

	for _, path := range []string{"/api/subscribe", "/api/unsubscribe"} {
		for _, body := range []string{`{}`, `{"email":""}`, ``} {
			code, resp := do(t, h, http.MethodPost, path, body)
			assert.Equal(t, http.StatusBadRequest, code, "%s %q", path, body)
			assert.Equal(t, "Email is required.", resp.Message)
			assert.Empty(t, resp.Error)
		}
	}
}

func TestInvalidBodies(t *testing.T) {
	h := newAPIRouter(memory.New())

	code, resp := do(t, h, http.MethodPost, "/api/subscribe", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, webutil.MsgInvalidPayload, resp.Message)

	code, resp = do(t, h, http.MethodPost, "/api/subscribe", `{"email":"`+strings.Repeat("a", 255)+`"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, webutil.MsgEmailTooLong, resp.Message)
}

// Only a missing address is rejected; the format is not checked.
func TestSubscribeAcceptsAnyNonEmptyAddress(t *testing.T) {
	h := newAPIRouter(memory.New())

	for _, email := range []string{"user@localhost", "nope"} {
		code, resp := do(t, h, http.MethodPost, "/api/subscribe", `{"email":"`+email+`"}`)
		assert.Equal(t, http.StatusCreated, code, email)
		require.NotNil(t, resp.Data)
		assert.Equal(t, email, resp.Data.Email)
	}
}

func TestStoreFaultIsServerError(t *testing.T) {
	h := newAPIRouter(brokenStore{})

	for _, path := range []string{"/api/subscribe", "/api/unsubscribe"} {
		code, resp := do(t, h, http.MethodPost, path, `{"email":"a@x.com"}`)
		assert.Equal(t, http.StatusInternalServerError, code)
		assert.Equal(t, "Server error", resp.Message)
		assert.Contains(t, resp.Error, "connection refused")
	}
}

func TestSeed(t *testing.T) {
	h := newAPIRouter(memory.New())

	code, resp := do(t, h, http.MethodGet, "/api/seed", "")
	assert.Equal(t, http.StatusOK, code)
	require.NotNil(t, resp.Data)
	assert.Equal(t, subscription.SeedEmail, resp.Data.Email)

	code, resp = do(t, h, http.MethodGet, "/api/seed", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Server error", resp.Message)
	assert.NotEmpty(t, resp.Error)
}

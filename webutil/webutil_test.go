package webutil

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) MessageResponse {
	t.Helper()
	var body MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDecodeEmailRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantMsg string
	}{
		{name: "valid", body: `{"email":"a@x.com"}`, want: "a@x.com"},
		{name: "trimmed", body: `{"email":"  a@x.com "}`, want: "a@x.com"},
		{name: "extra fields ignored", body: `{"email":"a@x.com","name":"A"}`, want: "a@x.com"},
		{name: "empty object", body: `{}`, wantMsg: MsgEmailRequired},
		{name: "empty body", body: ``, wantMsg: MsgEmailRequired},
		{name: "blank email", body: `{"email":"   "}`, wantMsg: MsgEmailRequired},
		{name: "null email", body: `{"email":null}`, wantMsg: MsgEmailRequired},
		{name: "no domain dot", body: `{"email":"user@localhost"}`, want: "user@localhost"},
		{name: "free form", body: `{"email":"nope"}`, want: "nope"},
		{name: "too long", body: `{"email":"` + strings.Repeat("a", 250) + `@x.com"}`, wantMsg: MsgEmailTooLong},
		{name: "malformed json", body: `{"email":`, wantMsg: MsgInvalidPayload},
		{name: "wrong type", body: `{"email":42}`, wantMsg: MsgInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req, err := DecodeEmailRequest(r)

			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.want, req.Email)
				return
			}

			var httpErr *HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, http.StatusBadRequest, httpErr.Code)
			assert.Equal(t, tt.wantMsg, httpErr.Message)
		})
	}
}

func TestMakeHandlerHTTPError(t *testing.T) {
	h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		return ErrConflictWrap("This email is already subscribed.", errors.New("email is already subscribed"))
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/subscribe", nil))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ContentTypeJSONUTF8, rec.Header().Get(HeaderContentType))
	assert.JSONEq(t, `{"message":"This email is already subscribed."}`, rec.Body.String())
}

func TestMakeHandlerUnclassifiedError(t *testing.T) {
	h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		return errors.New("socket closed")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Server error", body.Message)
	assert.Equal(t, "socket closed", body.Error)
}

func TestMakeHandlerErrorAfterWrite(t *testing.T) {
	h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		RespondWithMessage(w, http.StatusOK, "done")
		return errors.New("late failure")
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"done"}`, rec.Body.String())
}

func TestMakeHandlerSuccess(t *testing.T) {
	h := MakeHandler(func(w http.ResponseWriter, r *http.Request) error {
		RespondWithJSON(w, http.StatusCreated, MessageResponse{Message: "ok", Data: map[string]string{"email": "a@x.com"}})
		return nil
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"message":"ok","data":{"email":"a@x.com"}}`, rec.Body.String())
}

func TestErrInternalServerWrap(t *testing.T) {
	cause := errors.New("db down")
	he := ErrInternalServerWrap(cause)
	assert.Equal(t, http.StatusInternalServerError, he.Code)
	assert.Equal(t, "Server error", he.Message)
	assert.Equal(t, "db down", he.Detail)
	assert.ErrorIs(t, he, cause)
}

func TestWrapHelpersDefaultMessages(t *testing.T) {
	cause := errors.New("cause")

	assert.Equal(t, http.StatusNotFound, ErrNotFoundWrap("", cause).Code)
	assert.Equal(t, msgNotFound, ErrNotFoundWrap("", cause).Message)
	assert.Equal(t, http.StatusConflict, ErrConflictWrap("", cause).Code)
	assert.Equal(t, msgConflict, ErrConflictWrap("", cause).Message)
	assert.Equal(t, msgBadRequest, ErrBadRequestWrap("", cause).Message)
	assert.ErrorIs(t, ErrConflictWrap("taken", cause), cause)
}

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeroomhq/homeroom/pkg/schema"
)

func TestPostJSON_Success(t *testing.T) {
	var gotAuth, gotContentType string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		json.NewDecoder(r.Body).Decode(&gotBody)
		json.NewEncoder(w).Encode(map[string]any{"id": "msg_1"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	out, err := c.PostJSON(context.Background(), "/emails", map[string]any{"to": "a@b.c"}, Auth{Bearer: "key-123"})
	require.NoError(t, err)
	assert.Equal(t, "msg_1", out["id"])
	assert.Equal(t, "Bearer key-123", gotAuth)
	assert.Contains(t, gotContentType, "application/json")
	assert.Equal(t, "a@b.c", gotBody["to"])
}

func TestPostForm_BasicAuth(t *testing.T) {
	var gotUser, gotPass, gotTo string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, _ = r.BasicAuth()
		require.NoError(t, r.ParseForm())
		gotTo = r.PostForm.Get("To")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"sid": "CA123"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	form := url.Values{}
	form.Set("To", "+15005550006")
	out, err := c.PostForm(context.Background(), "/Calls.json", form, Auth{Username: "AC1", Password: "token"})
	require.NoError(t, err)
	assert.Equal(t, "CA123", out["sid"])
	assert.Equal(t, "AC1", gotUser)
	assert.Equal(t, "token", gotPass)
	assert.Equal(t, "+15005550006", gotTo)
}

func TestGetJSON_Query(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "me", r.URL.Query().Get("teacherId"))
		json.NewEncoder(w).Encode(map[string]any{"courses": []any{}})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	q := url.Values{}
	q.Set("teacherId", "me")
	out, err := c.GetJSON(context.Background(), "/courses", q, Auth{})
	require.NoError(t, err)
	assert.Contains(t, out, "courses")
}

func TestNon2xx_TransportFailureWithMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]any{"message": "Invalid phone number"})
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	_, err := c.PostForm(context.Background(), "/Calls.json", url.Values{}, Auth{})
	require.Error(t, err)

	var ge *schema.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, schema.ErrCodeTransportFailure, ge.Code)
	assert.Contains(t, ge.Message, "Invalid phone number")
	assert.Equal(t, http.StatusBadRequest, ge.Details["status_code"])
}

func TestNetworkFailure_TransportFailure(t *testing.T) {
	c := New("http://127.0.0.1:1", 0)
	_, err := c.GetJSON(context.Background(), "/anything", nil, Auth{})
	require.Error(t, err)

	var ge *schema.GatewayError
	require.True(t, errors.As(err, &ge))
	assert.Equal(t, schema.ErrCodeTransportFailure, ge.Code)
	assert.Contains(t, ge.Message, "request failed")
}

func TestNonJSONBody_WrappedAsRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}))
	defer srv.Close()

	c := New(srv.URL, 0)
	out, err := c.GetJSON(context.Background(), "/ping", nil, Auth{})
	require.NoError(t, err)
	assert.Equal(t, "OK", out["raw"])
}

func TestErrorSummary_Shapes(t *testing.T) {
	assert.Equal(t, "top-level", errorSummary([]byte(`{"message":"top-level"}`)))
	assert.Equal(t, "nested", errorSummary([]byte(`{"error":{"message":"nested"}}`)))
	assert.Equal(t, "plain string", errorSummary([]byte(`{"error":"plain string"}`)))
	assert.Equal(t, "not json", errorSummary([]byte("not json")))
	assert.Equal(t, "no response body", errorSummary(nil))
}

package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func authedHandler(t *testing.T, gotUserID *int64) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := GetUserIDFromContext(r.Context())
		require.True(t, ok, "middleware must put the user ID into the context")
		*gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenMiddlewareAcceptsValidToken(t *testing.T) {
	tokens := newFakeTokenRepo()
	plain, hash, err := NewToken()
	require.NoError(t, err)
	require.NoError(t, tokens.Create(context.Background(), 42, hash))

	var gotUserID int64
	handler := TokenMiddleware(tokens)(authedHandler(t, &gotUserID))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+plain)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(42), gotUserID)
}

func TestTokenMiddlewareRejections(t *testing.T) {
	tokens := newFakeTokenRepo()

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc123"},
		{"malformed header", "Bearer"},
		{"unknown token", "Bearer deadbeef"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := TokenMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler must not run for unauthenticated requests")
			}))

			req := httptest.NewRequest(http.MethodPost, "/logout", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body, "message")
		})
	}
}

func TestTokenMiddlewareRejectsRevokedToken(t *testing.T) {
	tokens := newFakeTokenRepo()
	plain, hash, err := NewToken()
	require.NoError(t, err)
	require.NoError(t, tokens.Create(context.Background(), 7, hash))
	require.NoError(t, tokens.DeleteForUser(context.Background(), 7))

	handler := TokenMiddleware(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("a revoked token must not authenticate")
	}))

	req := httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.Header.Set("Authorization", "Bearer "+plain)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

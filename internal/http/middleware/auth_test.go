package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	_, _ = w.Write([]byte("hello " + UserID(r.Context())))
})

func TestRequireUser(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		userID   string
		code     int
		location string
		body     string
	}{
		{"signed in", "/app", "u1", http.StatusOK, "", "hello u1"},
		{"page redirects with callback", "/issues/7?x=1", "", http.StatusSeeOther, "/login?callbackUrl=%2Fissues%2F7%3Fx%3D1", ""},
		{"api gets 401", "/api/threads", "", http.StatusUnauthorized, "", `{"error":"Unauthorized"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.userID != "" {
				req = req.WithContext(WithUserID(req.Context(), tt.userID))
			}
			rec := httptest.NewRecorder()
			RequireUser(ok).ServeHTTP(rec, req)

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, tt.location, rec.Header().Get("Location"))
			if tt.body != "" {
				assert.Contains(t, rec.Body.String(), tt.body)
			}
		})
	}
}

func TestRedirectIfSignedIn(t *testing.T) {
	h := RedirectIfSignedIn("/app")(ok)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/login", nil)
	h.ServeHTTP(rec, req.WithContext(WithUserID(req.Context(), "u1")))
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app", rec.Header().Get("Location"))

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginURL(t *testing.T) {
	assert.Equal(t, "/login", LoginURL("/"))
	assert.Equal(t, "/login?callbackUrl=%2Femails", LoginURL("/emails"))
}

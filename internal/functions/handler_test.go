package functions

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bandscope-backend/internal/platform/authapi"
	"bandscope-backend/internal/platform/resend"
	"bandscope-backend/internal/platform/storage"
)

const goodToken = "valid-access-token"

type fixture struct {
	router      *gin.Engine
	deletedUser string
	bucketCalls int
	bucketCode  int
	mailCalls   int
	mailCode    int
}

func newFixture(t *testing.T, resendKey string) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{bucketCode: http.StatusOK, mailCode: http.StatusOK}

	authSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/user":
			if r.Header.Get("Authorization") != "Bearer "+goodToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{
				"id":    "6f1e1c66-0000-4000-8000-000000000001",
				"email": "user@example.com",
			})
		case r.Method == http.MethodDelete && strings.HasPrefix(r.URL.Path, "/admin/users/"):
			f.deletedUser = strings.TrimPrefix(r.URL.Path, "/admin/users/")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("{}"))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(authSrv.Close)

	storageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/bucket" {
			f.bucketCalls++
			w.WriteHeader(f.bucketCode)
			if f.bucketCode == http.StatusConflict {
				json.NewEncoder(w).Encode(map[string]string{"message": "Bucket already exists"})
			}
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(storageSrv.Close)

	resendSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mailCalls++
		w.WriteHeader(f.mailCode)
		if f.mailCode >= 400 {
			json.NewEncoder(w).Encode(map[string]string{"message": "invalid sender"})
			return
		}
		w.Write([]byte("{}"))
	}))
	t.Cleanup(resendSrv.Close)

	h := NewHandler(
		authapi.NewClient(authSrv.URL, "anon-key", "service-key"),
		storage.NewClient(storageSrv.URL, "service-key"),
		resend.NewClientWithBaseURL(resendKey, resendSrv.URL),
		"avatars",
		"feedback@bandscope.net",
		"BandScope <noreply@bandscope.net>",
	)
	f.router = gin.New()
	h.RegisterRoutes(f.router)
	return f
}

func (f *fixture) post(path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestDeleteAccount(t *testing.T) {
	f := newFixture(t, "re_key")

	rec := f.post("/delete-account", goodToken, "{}")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, "6f1e1c66-0000-4000-8000-000000000001", f.deletedUser)
}

func TestDeleteAccountRejectsMissingToken(t *testing.T) {
	f := newFixture(t, "re_key")

	rec := f.post("/delete-account", "", "{}")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.deletedUser)
}

func TestDeleteAccountRejectsBadToken(t *testing.T) {
	f := newFixture(t, "re_key")

	rec := f.post("/delete-account", "expired", "{}")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, f.deletedUser)
}

func TestEnsureAvatarsBucketCreates(t *testing.T) {
	f := newFixture(t, "re_key")

	rec := f.post("/ensure-avatars-bucket", goodToken, "{}")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, 1, f.bucketCalls)
}

func TestEnsureAvatarsBucketExistingIsSuccess(t *testing.T) {
	f := newFixture(t, "re_key")
	f.bucketCode = http.StatusConflict

	rec := f.post("/ensure-avatars-bucket", goodToken, "{}")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestNotifySignupSendsEmail(t *testing.T) {
	f := newFixture(t, "re_key")

	rec := f.post("/notify-signup", "", `{"email":"new@example.com","role":"band","user_id":"abc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
	assert.Equal(t, 1, f.mailCalls)
}

func TestNotifySignupWithoutAPIKey(t *testing.T) {
	f := newFixture(t, "")

	rec := f.post("/notify-signup", "", `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email service not configured")
	assert.Zero(t, f.mailCalls)
}

func TestNotifySignupSurfacesProviderDetail(t *testing.T) {
	f := newFixture(t, "re_key")
	f.mailCode = http.StatusUnprocessableEntity

	rec := f.post("/notify-signup", "", `{"email":"new@example.com"}`)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Failed to send notification", body["error"])
	assert.NotEmpty(t, body["detail"])
}

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpserver "tasks_api/internal/http"
	"tasks_api/internal/repository"
	"tasks_api/internal/service"
	"tasks_api/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func startServer(t *testing.T, store repository.TaskStore) (*httptest.Server, *ws.Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := ws.NewHub()
	r := httpserver.NewRouter(httpserver.Deps{
		Tasks:        service.NewTaskService(store, service.WithNotifier(hub)),
		Identity:     service.NewIdentityExtractor(),
		Store:        store,
		Hub:          hub,
		StoreBackend: "test",
		Version:      "test",
		RateLimit:    1000,
	})
	ts := httptest.NewServer(r)
	t.Cleanup(func() {
		hub.Close()
		ts.Close()
	})
	return ts, hub
}

// unsignedToken mimics what the upstream identity provider hands out; the
// server never checks the signature.
func unsignedToken(t *testing.T, email string) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	return s
}

func call(t *testing.T, ts *httptest.Server, method, path, email string, body any) (int, []byte) {
	t.Helper()

	var rdr *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	} else {
		rdr = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, rdr)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if email != "" {
		req.Header.Set("Authorization", "Bearer "+unsignedToken(t, email))
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

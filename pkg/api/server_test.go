package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkivdb/arkiv/pkg/config"
	"github.com/arkivdb/arkiv/pkg/record"
	"github.com/arkivdb/arkiv/pkg/store"
)

const testAPIKey = "sekrit"

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	dir := t.TempDir()
	rs, err := store.Open(config.DefaultStoreConfig("api-test", filepath.Join(dir, "api-test.zip")))
	require.NoError(t, err)

	cfg := config.DefaultServerConfig()
	cfg.APIKey = testAPIKey

	metrics := NewMetrics(prometheus.NewRegistry())
	return NewRouter(rs, cfg, metrics)
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("X-API-Key", testAPIKey)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestHealthNeedsNoAuth(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)
}

func TestAPIKeyRequired(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("GET", "/api/v1/records", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest("GET", "/api/v1/records", nil)
	req.Header.Set("X-API-Key", "wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestInsertAndGet(t *testing.T) {
	router := newTestRouter(t)

	payload := RecordPayload{
		Data:     []byte(`{"city":"Oslo"}`),
		Metadata: record.Metadata{"source": "test"},
	}
	w := doRequest(t, router, "POST", "/api/v1/records/city", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/records/city", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	require.True(t, resp.Success)

	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var rec RecordResponse
	require.NoError(t, json.Unmarshal(raw, &rec))

	assert.Equal(t, "city", rec.Name)
	assert.JSONEq(t, `{"city":"Oslo"}`, string(rec.Data))
	assert.Equal(t, "test", rec.Metadata["source"])
	assert.True(t, rec.Valid)
	assert.NotEmpty(t, rec.Metadata.Checksum())
}

func TestGetMissingRecord(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "GET", "/api/v1/records/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestInsertDuplicate(t *testing.T) {
	router := newTestRouter(t)

	payload := RecordPayload{Data: []byte("once")}
	w := doRequest(t, router, "POST", "/api/v1/records/dup", payload)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "POST", "/api/v1/records/dup", payload)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateMissingRecord(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "PUT", "/api/v1/records/ghost", RecordPayload{Data: []byte("x")})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateRecord(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "POST", "/api/v1/records/doc", RecordPayload{Data: []byte("v1")})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "PUT", "/api/v1/records/doc", RecordPayload{Data: []byte("v2")})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/records/doc", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var rec RecordResponse
	require.NoError(t, json.Unmarshal(raw, &rec))

	assert.Equal(t, []byte("v2"), rec.Data)
	assert.NotEmpty(t, rec.Metadata[record.MetaPreviousChecksum])
}

func TestDeleteRecord(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "POST", "/api/v1/records/gone", RecordPayload{Data: []byte("bye")})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "DELETE", "/api/v1/records/gone", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/records/gone", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Deleting an absent record is a no-op that still succeeds.
	w = doRequest(t, router, "DELETE", "/api/v1/records/gone", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data := resp.Data.(map[string]interface{})
	assert.Equal(t, true, data["deleted"])
}

func TestListAndSearch(t *testing.T) {
	router := newTestRouter(t)

	for _, name := range []string{"user:1", "user:2", "config"} {
		w := doRequest(t, router, "POST", "/api/v1/records/"+name, RecordPayload{Data: []byte(name)})
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := doRequest(t, router, "GET", "/api/v1/records", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.Len(t, resp.Data, 3)

	w = doRequest(t, router, "GET", "/api/v1/records?q=user", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp = decodeResponse(t, w)
	assert.Len(t, resp.Data, 2)
}

func TestCompactAndBackup(t *testing.T) {
	router := newTestRouter(t)
	dir := t.TempDir()

	w := doRequest(t, router, "POST", "/api/v1/records/keep", RecordPayload{Data: []byte("keep")})
	require.Equal(t, http.StatusOK, w.Code)
	w = doRequest(t, router, "DELETE", "/api/v1/records/keep", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "POST", "/api/v1/compact", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	dst := filepath.Join(dir, "backup.zip")
	w = doRequest(t, router, "POST", "/api/v1/backup", BackupRequest{Destination: dst})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "POST", "/api/v1/backup", BackupRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStats(t *testing.T) {
	router := newTestRouter(t)

	w := doRequest(t, router, "POST", "/api/v1/records/one", RecordPayload{Data: []byte("one")})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, router, "GET", "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeResponse(t, w)
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var stats StatsResponse
	require.NoError(t, json.Unmarshal(raw, &stats))

	assert.Equal(t, 1, stats.Records)
	assert.Greater(t, stats.SizeBytes, int64(0))
	assert.True(t, stats.SizeOK)
}

func TestInsertRejectsBadJSON(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest("POST", "/api/v1/records/bad", bytes.NewReader([]byte("{not json")))
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

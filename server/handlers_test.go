package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexshd/anchorbench/survey"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	store   *survey.MemoryStore
	metrics *Metrics
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	store := survey.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	handlers := NewHandlers(store, survey.NewGenerator(1), metrics, DefaultConfig(), logger)
	return &testServer{
		router:  New(handlers, reg),
		store:   store,
		metrics: metrics,
	}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createDataset(t *testing.T, name string) survey.Dataset {
	t.Helper()

	w := s.do(t, http.MethodPost, "/v1/datasets", `{"name":"`+name+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var d survey.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
	return d
}

func decodeMap(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &e), w.Body.String())
	return e
}

func TestHandleHealth(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, ServiceVersion, resp.Version)
}

func TestRequestIDPropagation(t *testing.T) {
	s := setupTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/datasets", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = s.do(t, http.MethodGet, "/v1/datasets", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHandleAnalyze(t *testing.T) {
	s := setupTestServer(t)

	body := `{"responses":[{"q1":10,"q2":20},{"q1":20,"q2":40},{"q1":30,"q2":60}]}`
	w := s.do(t, http.MethodPost, "/v1/analyze", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	m := decodeMap(t, w)
	assert.Equal(t, 1.0, m["r"])
	assert.Equal(t, 0.0, m["pValue"])
	assert.Nil(t, m["tStatistic"], "perfect fit has infinite t")
	assert.Equal(t, 3.0, m["n"])
	assert.Equal(t, 20.0, m["meanQ1"])
	assert.Equal(t, 40.0, m["meanQ2"])

	reg, ok := m["regression"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2.0, reg["slope"])
	assert.Equal(t, 0.0, reg["intercept"])
}

func TestHandleAnalyze_InsufficientData(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/analyze", `{"responses":[{"q1":10,"q2":20},{"q1":20,"q2":40}]}`)
	require.Equal(t, http.StatusOK, w.Code)

	m := decodeMap(t, w)
	assert.Nil(t, m["r"])
	assert.Nil(t, m["pValue"])
	assert.Nil(t, m["regression"])
	assert.Equal(t, 2.0, m["n"])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.analyses.WithLabelValues(outcomeInsufficientData)))
}

func TestHandleAnalyze_Invalid(t *testing.T) {
	s := setupTestServer(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"malformed json", `{"responses":`, "INVALID_REQUEST"},
		{"anchor out of range", `{"responses":[{"q1":0,"q2":20}]}`, "INVALID_RESPONSE"},
		{"estimate out of range", `{"responses":[{"q1":5,"q2":1001}]}`, "INVALID_RESPONSE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/v1/analyze", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestDatasetLifecycle(t *testing.T) {
	s := setupTestServer(t)
	d := s.createDataset(t, "lecture")
	assert.NotEmpty(t, d.ID)

	for _, body := range []string{
		`{"q1":10,"q2":30,"respondentId":"a"}`,
		`{"q1":20,"q2":50,"respondentId":"b"}`,
		`{"q1":30,"q2":70,"respondentId":"c"}`,
	} {
		w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/responses", body)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := s.do(t, http.MethodGet, "/v1/datasets/"+d.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	var got survey.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 3, got.Responses)

	w = s.do(t, http.MethodGet, "/v1/datasets/"+d.ID+"/correlation", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeMap(t, w)
	assert.Equal(t, 1.0, m["r"])
	assert.Equal(t, 3.0, m["n"])
	assert.Contains(t, m["interpretation"], "strong positive")

	w = s.do(t, http.MethodGet, "/v1/datasets", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list []survey.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(s.metrics.responses.WithLabelValues(sourceSurvey)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.analyses.WithLabelValues(outcomeOK)))
}

func TestHandleAppendResponse_Errors(t *testing.T) {
	s := setupTestServer(t)
	d := s.createDataset(t, "errors")

	w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/responses", `{"q1":10,"q2":30,"respondentId":"a"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/responses", `{"q1":11,"q2":31,"respondentId":"a"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_RESPONSE", decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/responses", `{"q1":101,"q2":31,"respondentId":"b"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decodeError(t, w).Error, "q1")

	w = s.do(t, http.MethodPost, "/v1/datasets/missing/responses", `{"q1":10,"q2":30,"respondentId":"a"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "DATASET_NOT_FOUND", decodeError(t, w).Code)

	w = s.do(t, http.MethodGet, "/v1/datasets/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/v1/datasets/missing/correlation", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleCreateDataset_RequiresName(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/datasets", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w).Code)
}

func TestHandleGenerateTestData(t *testing.T) {
	tests := []struct {
		name string
		body string
		want int
	}{
		{"empty body uses default", "", 30},
		{"zero count uses default", `{"count":0}`, 30},
		{"explicit count", `{"count":12,"mode":"random"}`, 12},
		{"clamped high", `{"count":1000,"anchorStrength":0.9}`, 500},
		{"clamped low", `{"count":-4}`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t)
			d := s.createDataset(t, "synthetic")

			w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/testdata", tt.body)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())

			var resp TestDataResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.want, resp.Generated)

			rs, err := s.store.Responses(context.Background(), d.ID)
			require.NoError(t, err)
			assert.Len(t, rs, tt.want)
			assert.Equal(t, float64(tt.want), testutil.ToFloat64(s.metrics.responses.WithLabelValues(sourceSynthetic)))
		})
	}
}

func TestHandleGenerateTestData_Errors(t *testing.T) {
	s := setupTestServer(t)
	d := s.createDataset(t, "synthetic")

	w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/testdata", `{"mode":"chaotic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_MODE", decodeError(t, w).Code)

	w = s.do(t, http.MethodPost, "/v1/datasets/missing/testdata", `{"count":5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

// TestSyntheticDatasetIsSignificant drives the whole stack: generate an
// anchored population over HTTP, then analyze it.
func TestSyntheticDatasetIsSignificant(t *testing.T) {
	s := setupTestServer(t)
	d := s.createDataset(t, "anchored")

	w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/testdata", `{"count":400,"anchorStrength":0.6}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/datasets/"+d.ID+"/correlation", "")
	require.Equal(t, http.StatusOK, w.Code)

	m := decodeMap(t, w)
	assert.Greater(t, m["r"].(float64), 0.4)
	assert.Less(t, m["pValue"].(float64), 0.05)
	assert.Contains(t, m["interpretation"], "IS statistically significant")
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.do(t, http.MethodPost, "/v1/analyze", `{"responses":[{"q1":1,"q2":5},{"q1":2,"q2":3},{"q1":3,"q2":9}]}`)

	w := s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `anchorbench_analyses_total{outcome="ok"} 1`)
	assert.Contains(t, body, "anchorbench_analysis_duration_seconds_count 1")
	assert.Contains(t, body, "anchorbench_p_value_count 1")
}

func TestNilMetricsIsSafe(t *testing.T) {
	handlers := NewHandlers(survey.NewMemoryStore(), survey.NewGenerator(3), nil, DefaultConfig(), nil)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"), handlers)

	req := httptest.NewRequest(http.MethodPost, "/v1/analyze",
		bytes.NewBufferString(`{"responses":[{"q1":1,"q2":5},{"q1":2,"q2":3},{"q1":3,"q2":9}]}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfig_ClampCount(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30, cfg.clampCount(0))
	assert.Equal(t, 1, cfg.clampCount(-10))
	assert.Equal(t, 77, cfg.clampCount(77))
	assert.Equal(t, 500, cfg.clampCount(501))
}

func TestHandleAppendResponse_RequiresRespondentID(t *testing.T) {
	s := setupTestServer(t)
	d := s.createDataset(t, "anonymous")

	for _, body := range []string{
		`{"q1":10,"q2":30}`,
		`{"q1":10,"q2":30,"respondentId":""}`,
		`{"q1":10,"q2":30,"respondentId":"` + strings.Repeat("x", 129) + `"}`,
	} {
		w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/responses", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, "INVALID_RESPONDENT", decodeError(t, w).Code)

		w = s.do(t, http.MethodPost, "/v1/survey", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}

	rs, err := s.store.Responses(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Empty(t, rs)
}

func TestSubmission_ClosedDataset(t *testing.T) {
	s := setupTestServer(t)
	first := s.createDataset(t, "first")
	s.createDataset(t, "second")

	w := s.do(t, http.MethodPost, "/v1/datasets/"+first.ID+"/responses", `{"q1":10,"q2":30,"respondentId":"a"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "SESSION_CLOSED", decodeError(t, w).Code)

	// Synthetic data is an administrative write and ignores the status.
	w = s.do(t, http.MethodPost, "/v1/datasets/"+first.ID+"/testdata", `{"count":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSurveySubmit_FollowsOpenDataset(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodPost, "/v1/survey", `{"q1":10,"q2":30,"respondentId":"a"}`)
	assert.Equal(t, http.StatusForbidden, w.Code, "nothing open yet")
	assert.Equal(t, "SESSION_CLOSED", decodeError(t, w).Code)

	first := s.createDataset(t, "first")
	w = s.do(t, http.MethodPost, "/v1/survey", `{"q1":10,"q2":30,"respondentId":"a"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/v1/survey", `{"q1":12,"q2":33,"respondentId":"a"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	second := s.createDataset(t, "second")
	w = s.do(t, http.MethodPost, "/v1/survey", `{"q1":20,"q2":40,"respondentId":"a"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var got survey.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, second.ID, got.ID)
	assert.Equal(t, 1, got.Responses)

	firstNow, err := s.store.Get(context.Background(), first.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, firstNow.Responses)
}

func TestSessionStatus(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(t, http.MethodGet, "/v1/session/status", "")
	require.Equal(t, http.StatusOK, w.Code)
	m := decodeMap(t, w)
	assert.Equal(t, false, m["open"])
	assert.Nil(t, m["datasetId"])
	assert.Nil(t, m["datasetName"])

	d := s.createDataset(t, "lecture")
	w = s.do(t, http.MethodGet, "/v1/session/status", "")
	var status SessionStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Open)
	require.NotNil(t, status.DatasetID)
	assert.Equal(t, d.ID, *status.DatasetID)
	assert.Equal(t, "lecture", *status.DatasetName)
}

func TestDatasetOpenClose(t *testing.T) {
	s := setupTestServer(t)
	first := s.createDataset(t, "first")
	second := s.createDataset(t, "second")
	assert.Equal(t, survey.StatusOpen, second.Status)

	w := s.do(t, http.MethodPut, "/v1/datasets/"+first.ID+"/open", "")
	require.Equal(t, http.StatusOK, w.Code)
	var opened survey.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opened))
	assert.Equal(t, survey.StatusOpen, opened.Status)
	assert.Nil(t, opened.ClosedAt)

	w = s.do(t, http.MethodGet, "/v1/datasets/"+second.ID, "")
	var other survey.Dataset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &other))
	assert.Equal(t, survey.StatusClosed, other.Status)
	assert.NotNil(t, other.ClosedAt)

	w = s.do(t, http.MethodPut, "/v1/datasets/"+first.ID+"/close", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/v1/survey", `{"q1":10,"q2":30,"respondentId":"a"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)

	for _, path := range []string{"/v1/datasets/missing/open", "/v1/datasets/missing/close"} {
		w = s.do(t, http.MethodPut, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}
}

func TestDatasetResponsesListClearDelete(t *testing.T) {
	s := setupTestServer(t)
	d := s.createDataset(t, "scratch")

	for _, body := range []string{
		`{"q1":10,"q2":30,"respondentId":"a"}`,
		`{"q1":20,"q2":50,"respondentId":"b"}`,
	} {
		w := s.do(t, http.MethodPost, "/v1/datasets/"+d.ID+"/responses", body)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w := s.do(t, http.MethodGet, "/v1/datasets/"+d.ID+"/responses", "")
	require.Equal(t, http.StatusOK, w.Code)
	var rs []survey.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rs))
	require.Len(t, rs, 2)
	assert.Equal(t, 10, rs[0].Q1)
	assert.Equal(t, "b", rs[1].RespondentID)
	assert.False(t, rs[0].ReceivedAt.IsZero())

	w = s.do(t, http.MethodDelete, "/v1/datasets/"+d.ID+"/responses", "")
	require.Equal(t, http.StatusOK, w.Code)
	var cleared ClearResponsesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cleared))
	assert.Equal(t, 2, cleared.Cleared)

	w = s.do(t, http.MethodGet, "/v1/datasets/"+d.ID+"/responses", "")
	assert.JSONEq(t, `[]`, w.Body.String())

	w = s.do(t, http.MethodDelete, "/v1/datasets/"+d.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/v1/datasets/" + d.ID},
		{http.MethodDelete, "/v1/datasets/" + d.ID},
		{http.MethodGet, "/v1/datasets/" + d.ID + "/responses"},
		{http.MethodDelete, "/v1/datasets/" + d.ID + "/responses"},
	} {
		w = s.do(t, tc.method, tc.path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method+" "+tc.path)
	}

	w = s.do(t, http.MethodGet, "/v1/session/status", "")
	assert.Equal(t, false, decodeMap(t, w)["open"])
}

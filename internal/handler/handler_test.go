package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/songkhoe/backend/internal/advisory"
	"github.com/songkhoe/backend/internal/azure"
	"github.com/songkhoe/backend/internal/report"
	"github.com/songkhoe/backend/internal/service"
	"github.com/songkhoe/backend/internal/slot"
	"github.com/songkhoe/backend/internal/store"
	"github.com/songkhoe/backend/pkg/api"
	"github.com/songkhoe/backend/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const stubAdvisories = `[{"category":"cardio","title":"Huyết áp ổn định","content":"Tiếp tục theo dõi mỗi sáng.","severity":"low"}]`

type stubCompleter struct {
	text  string
	err   error
	calls int32
}

func (s *stubCompleter) Complete(ctx context.Context, req advisory.CompletionRequest) (string, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.text, s.err
}

type testEnv struct {
	router *gin.Engine
	store  *store.HealthLogStore
}

func newTestEnvWithSlot(t *testing.T, s slot.Slot, backend advisory.Backend) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	st := store.NewHealthLogStore(s, logger)
	_, err := st.Load(context.Background())
	require.NoError(t, err)

	board := advisory.NewBoard(advisory.New(backend, logger), logger)

	recordService := service.NewRecordService(st, board, nil, logger)
	dashboardService := service.NewDashboardService(st, logger)
	exportService := service.NewExportService(st, report.NewPDFGenerator(logger), report.NewXLSXGenerator(logger), nil, nil, logger)

	server := &Server{
		Records:   NewRecordHandler(recordService, logger),
		Dashboard: NewDashboardHandler(dashboardService, logger),
		Advisory:  NewAdvisoryHandler(board, st, logger),
		Export:    NewExportHandler(exportService, logger),
		Health:    NewHealthHandler(st, board.Configured),
	}

	router, err := NewRouter(server, RouterOptions{}, logger)
	require.NoError(t, err)

	return &testEnv{router: router, store: st}
}

func newTestEnv(t *testing.T, backend advisory.Backend) *testEnv {
	t.Helper()
	s, err := slot.NewFileSlot(afero.NewMemMapFs(), "/data", store.DefaultKey, zap.NewNop())
	require.NoError(t, err)
	return newTestEnvWithSlot(t, s, backend)
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) api.ErrorResponse {
	t.Helper()
	var resp api.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

func seed(t *testing.T, st *store.HealthLogStore, n int) []model.HealthRecord {
	t.Helper()
	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	records := make([]model.HealthRecord, 0, n)
	for i := 0; i < n; i++ {
		rec := model.HealthRecord{
			ID:            "seed-" + string(rune('a'+i)),
			Timestamp:     base.AddDate(0, 0, i).UnixMilli(),
			Systolic:      120 + float64(i),
			Diastolic:     80,
			HeartRate:     70,
			Weight:        60,
			Height:        165,
			BMI:           22.04,
			SleepDuration: 7,
			SleepQuality:  7,
		}
		require.NoError(t, st.Append(context.Background(), rec))
		records = append(records, rec)
	}
	return records
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, advisory.Unconfigured{Reason: "no key"})

	w := env.do(http.MethodGet, "/api/v1/health", "")
	require.Equal(t, http.StatusOK, w.Code)

	var status api.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, "healthy", status.Status)
	assert.Equal(t, "file:/data/health_logs_v1.json", status.Storage)
	assert.False(t, status.AdvisoryConfigured)
	assert.Equal(t, 0, status.RecordCount)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestCreateRecord_FillsDefaults(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/v1/records", `{"systolic":150,"weight":70,"height":170,"expenseNote":" thuốc huyết áp "}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var rec model.HealthRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.NotEmpty(t, rec.ID)
	assert.NotZero(t, rec.Timestamp)
	assert.Equal(t, 150.0, rec.Systolic)
	assert.Equal(t, 80.0, rec.Diastolic, "omitted fields keep the form defaults")
	assert.Equal(t, 70.0, rec.HeartRate)
	assert.InDelta(t, 24.22, rec.BMI, 0.01)
	assert.Equal(t, "thuốc huyết áp", rec.ExpenseNote)

	assert.Equal(t, 1, env.store.Len())
}

func TestCreateRecord_Rejected(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "out of range", body: `{"systolic":300}`},
		{name: "unknown field", body: `{"mood":"happy"}`},
		{name: "wrong type", body: `{"steps":"many"}`},
		{name: "malformed", body: `{"systolic":`},
		{name: "array", body: `[1,2,3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(http.MethodPost, "/api/v1/records", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decodeError(t, w)
			assert.Equal(t, CodeValidation, resp.Code)
			assert.NotEmpty(t, resp.Message)
		})
	}

	assert.Equal(t, 0, env.store.Len())
}

func TestCreateRecord_FieldErrorsInDetails(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/api/v1/records", `{"systolic":300,"sleepQuality":11}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decodeError(t, w)
	require.NotNil(t, resp.Details)
	fields, ok := (*resp.Details)["fields"].([]interface{})
	require.True(t, ok, "details: %v", *resp.Details)
	assert.Len(t, fields, 2)
}

func TestCreateRecord_StorageFailure(t *testing.T) {
	blob := azure.NewMockBlobStorageClient(nil)
	s, err := slot.NewBlobSlot(blob, store.DefaultKey)
	require.NoError(t, err)
	env := newTestEnvWithSlot(t, s, nil)

	blob.FailUploads = true
	w := env.do(http.MethodPost, "/api/v1/records", `{"systolic":130}`)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, CodeStorage, decodeError(t, w).Code)
	assert.Equal(t, 0, env.store.Len())
}

func TestListRecords(t *testing.T) {
	env := newTestEnv(t, nil)
	seeded := seed(t, env.store, 3)

	w := env.do(http.MethodGet, "/api/v1/records", "")
	require.Equal(t, http.StatusOK, w.Code)
	var list api.RecordList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 3, list.Count)
	assert.Equal(t, seeded[2].ID, list.Records[0].ID, "newest first")
	assert.Equal(t, seeded[0].ID, list.Records[2].ID)

	w = env.do(http.MethodGet, "/api/v1/records?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, seeded[2].ID, list.Records[0].ID)

	w = env.do(http.MethodGet, "/api/v1/records?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, CodeValidation, decodeError(t, w).Code)

	w = env.do(http.MethodGet, "/api/v1/records?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRecordDefaults(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/v1/records/defaults", "")
	require.Equal(t, http.StatusOK, w.Code)

	var in model.RecordInput
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &in))
	assert.Equal(t, 120.0, in.Systolic)
	assert.Equal(t, 165.0, in.Height)
}

func TestDeleteRecord(t *testing.T) {
	env := newTestEnv(t, nil)
	seeded := seed(t, env.store, 2)

	w := env.do(http.MethodDelete, "/api/v1/records/"+seeded[0].ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, env.store.Len())

	w = env.do(http.MethodDelete, "/api/v1/records/does-not-exist", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 1, env.store.Len())
}

func TestClearRecords_ResetsAdvisories(t *testing.T) {
	completer := &stubCompleter{text: stubAdvisories}
	env := newTestEnv(t, advisory.Configured{Completer: completer})
	seed(t, env.store, 3)

	w := env.do(http.MethodPost, "/api/v1/advisories/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodDelete, "/api/v1/records", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, 0, env.store.Len())

	w = env.do(http.MethodGet, "/api/v1/advisories", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state api.AdvisoryState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Empty(t, state.Advisories)
}

func TestAdvisories_Configured(t *testing.T) {
	completer := &stubCompleter{text: stubAdvisories}
	env := newTestEnv(t, advisory.Configured{Completer: completer})
	seed(t, env.store, 2)

	w := env.do(http.MethodGet, "/api/v1/advisories", "")
	require.Equal(t, http.StatusOK, w.Code)
	var state api.AdvisoryState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Empty(t, state.Advisories)
	assert.True(t, state.Configured)
	assert.Nil(t, state.UpdatedAt)

	w = env.do(http.MethodPost, "/api/v1/advisories/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	require.Len(t, state.Advisories, 1)
	assert.Equal(t, model.CategoryCardio, state.Advisories[0].Category)
	assert.Equal(t, uint64(1), state.Sequence)
	assert.NotNil(t, state.UpdatedAt)
	assert.False(t, state.Discarded)
	assert.Equal(t, int32(1), atomic.LoadInt32(&completer.calls))

	w = env.do(http.MethodGet, "/api/v1/advisories", "")
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Len(t, state.Advisories, 1)
}

func TestAdvisories_Failures(t *testing.T) {
	tests := []struct {
		name      string
		backend   advisory.Backend
		wantTitle string
	}{
		{name: "not configured", backend: advisory.Unconfigured{Reason: "no key"}, wantTitle: advisory.NotConfiguredEntry().Title},
		{name: "call fails", backend: advisory.Configured{Completer: &stubCompleter{err: errors.New("quota")}}, wantTitle: advisory.UnavailableEntry().Title},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.backend)
			seed(t, env.store, 1)

			w := env.do(http.MethodPost, "/api/v1/advisories/refresh", "")
			require.Equal(t, http.StatusOK, w.Code)

			var state api.AdvisoryState
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
			require.Len(t, state.Advisories, 1)
			assert.Equal(t, tt.wantTitle, state.Advisories[0].Title)
			assert.Equal(t, model.SeverityLow, state.Advisories[0].Severity)
		})
	}
}

func TestAdvisories_NoRecordsSkipsCall(t *testing.T) {
	completer := &stubCompleter{text: stubAdvisories}
	env := newTestEnv(t, advisory.Configured{Completer: completer})

	w := env.do(http.MethodPost, "/api/v1/advisories/refresh", "")
	require.Equal(t, http.StatusOK, w.Code)

	var state api.AdvisoryState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.Empty(t, state.Advisories)
	assert.Equal(t, int32(0), atomic.LoadInt32(&completer.calls))
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	var summary service.DashboardSummary
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.True(t, summary.Empty)

	seed(t, env.store, 3)
	w = env.do(http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &summary))
	assert.False(t, summary.Empty)
	assert.Equal(t, 3, summary.RecordCount)
	require.NotNil(t, summary.Latest)
	assert.Equal(t, 122.0, summary.Latest.Systolic)
	assert.Len(t, summary.Series, 3)
}

func TestExports(t *testing.T) {
	env := newTestEnv(t, nil)
	seed(t, env.store, 2)

	w := env.do(http.MethodGet, "/api/v1/export/json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "health_logs_")
	var doc service.JSONExport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, 2, doc.RecordCount)

	w = env.do(http.MethodGet, "/api/v1/export/pdf", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	w = env.do(http.MethodGet, "/api/v1/export/xlsx", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/api/v1/medications", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestIDIsPropagated(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))
}

func TestCORS_ExposesResponseHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/export/json", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	exposed := w.Header().Get("Access-Control-Expose-Headers")
	assert.Contains(t, exposed, ArchivePathHeader)
	assert.Contains(t, exposed, "Content-Disposition")
}

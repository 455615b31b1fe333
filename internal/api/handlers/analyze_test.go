package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frostdev-ops/ranalyzer-go/internal/ai"
	"github.com/frostdev-ops/ranalyzer-go/internal/config"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/analysis"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/classifier"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/drift"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/files"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/kpi"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/normalizer"
	"github.com/frostdev-ops/ranalyzer-go/internal/core/outlier"
	"github.com/frostdev-ops/ranalyzer-go/internal/database/models"
)

const measCollecXML = `<?xml version="1.0"?>
<measCollecFile>
  <fileHeader beginTime="2025-06-01T10:15:00Z"/>
  <measData>
    <managedElement localDn="eNB-1"/>
    <measInfo>
      <measType p="1">pmSinrAvg</measType>
      <measType p="2">pmBlerP95</measType>
      <measValue measObjLdn="EUtranCellFDD=Cell-1">
        <r p="1">2.0</r>
        <r p="2">15.0</r>
      </measValue>
    </measInfo>
  </measData>
</measCollecFile>`

type memRepo struct {
	baselines map[string]*models.Baseline
}

func (r *memRepo) GetBySite(_ context.Context, siteID string) (*models.Baseline, error) {
	return r.baselines[siteID], nil
}

func (r *memRepo) Upsert(_ context.Context, b *models.Baseline) error {
	r.baselines[b.SiteID] = b
	return nil
}

func (r *memRepo) Delete(_ context.Context, siteID string) error {
	delete(r.baselines, siteID)
	return nil
}

func (r *memRepo) ListSites(_ context.Context) ([]string, error) { return nil, nil }

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	tables := kpi.DefaultTables()
	repo := &memRepo{baselines: map[string]*models.Baseline{}}
	comparator := drift.New(repo, drift.Config{}, logger)

	service := analysis.NewService(
		normalizer.New(tables, logger),
		classifier.New(tables.Thresholds, classifier.Config{}),
		outlier.New(outlier.Config{Seed: 42}, logger),
		comparator,
		ai.NewSummarizer(nil, false, logger),
		logger,
	)

	store, err := files.NewStore(t.TempDir(), 24, logger)
	require.NoError(t, err)

	responder := ai.NewResponder(nil, false, logger)
	return NewHandlers(&config.Config{}, logger, service, comparator, responder, store)
}

func multipartBody(t *testing.T, field, filename string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func postFile(t *testing.T, h gin.HandlerFunc, path string, body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.POST(path, h)

	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestAnalyzeEndpoint(t *testing.T) {
	h := newTestHandlers(t)

	body, contentType := multipartBody(t, "file", "report.xml", []byte(measCollecXML))
	rec := postFile(t, h.Analyze, "/analyze", body, contentType)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			RootCause string `json:"root_cause"`
			Severity  string `json:"severity"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, classifier.LabelTDDMisalignment, resp.Data.RootCause)
	assert.Equal(t, "high", resp.Data.Severity)
}

func TestAnalyzeEndpointUnknownSchema(t *testing.T) {
	h := newTestHandlers(t)

	body, contentType := multipartBody(t, "file", "report.xml", []byte(`<unknownFormat/>`))
	rec := postFile(t, h.Analyze, "/analyze", body, contentType)

	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
		Details struct {
			MarkersSearched []string `json:"markers_searched"`
		} `json:"details"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, []string{"mdc", "measCollecFile", "pmContainer"}, resp.Details.MarkersSearched)
}

func TestAnalyzeEndpointMissingFile(t *testing.T) {
	h := newTestHandlers(t)

	body, contentType := multipartBody(t, "wrongfield", "report.xml", []byte(measCollecXML))
	rec := postFile(t, h.Analyze, "/analyze", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnalyzeEndpointMalformedXML(t *testing.T) {
	h := newTestHandlers(t)

	body, contentType := multipartBody(t, "file", "report.xml", []byte(`<mdc><unclosed`))
	rec := postFile(t, h.Analyze, "/analyze", body, contentType)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskEndpoint(t *testing.T) {
	h := newTestHandlers(t)

	router := gin.New()
	router.POST("/ask", h.Ask)

	payload := `{"question": "what is wrong?", "rca_result": {"root_cause": "Congestion", "severity": "high"}}`
	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data struct {
			Answer     string  `json:"answer"`
			Confidence float64 `json:"confidence"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Data.Answer, "Congestion")
}

func TestAskEndpointMissingQuestion(t *testing.T) {
	h := newTestHandlers(t)

	router := gin.New()
	router.POST("/ask", h.Ask)

	req := httptest.NewRequest(http.MethodPost, "/ask", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBaselineLifecycle(t *testing.T) {
	h := newTestHandlers(t)

	router := gin.New()
	router.GET("/sites/:site/baseline", h.GetBaseline)
	router.POST("/sites/:site/baseline/refresh", h.RefreshBaseline)

	// No baseline yet.
	req := httptest.NewRequest(http.MethodGet, "/sites/eNB-1_Cell-1/baseline", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Refresh from an uploaded file.
	body, contentType := multipartBody(t, "file", "report.xml", []byte(measCollecXML))
	req = httptest.NewRequest(http.MethodPost, "/sites/eNB-1_Cell-1/baseline/refresh", body)
	req.Header.Set("Content-Type", contentType)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	// Baseline now exists.
	req = httptest.NewRequest(http.MethodGet, "/sites/eNB-1_Cell-1/baseline", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRefreshBaselineUnknownSite(t *testing.T) {
	h := newTestHandlers(t)

	router := gin.New()
	router.POST("/sites/:site/baseline/refresh", h.RefreshBaseline)

	body, contentType := multipartBody(t, "file", "report.xml", []byte(measCollecXML))
	req := httptest.NewRequest(http.MethodPost, "/sites/not-in-file/baseline/refresh", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solvi-app/vatscan/internal/entity"
	"github.com/solvi-app/vatscan/internal/export"
	"github.com/solvi-app/vatscan/internal/repository"
)

func init() { gin.SetMode(gin.TestMode) }

type stubScanner struct {
	rec  *entity.InvoiceRecord
	err  error
	path string
}

func (s *stubScanner) ProcessImage(_ context.Context, imagePath string) (*entity.InvoiceRecord, error) {
	s.path = imagePath
	return s.rec, s.err
}

type memRepo struct {
	recs map[uuid.UUID]*entity.InvoiceRecord
}

func newMemRepo() *memRepo { return &memRepo{recs: map[uuid.UUID]*entity.InvoiceRecord{}} }

func (m *memRepo) Create(_ context.Context, rec *entity.InvoiceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	m.recs[rec.ID] = rec
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*entity.InvoiceRecord, error) {
	rec, ok := m.recs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rec, nil
}

func (m *memRepo) List(context.Context, repository.Filter) ([]*entity.InvoiceRecord, error) {
	out := make([]*entity.InvoiceRecord, 0, len(m.recs))
	for _, rec := range m.recs {
		out = append(out, rec)
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, rec *entity.InvoiceRecord) error {
	if _, ok := m.recs[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	m.recs[rec.ID] = rec
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := m.recs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.recs, id)
	return nil
}

func testServer(t *testing.T, scanner Scanner, repo repository.InvoiceRepository) *gin.Engine {
	t.Helper()
	if repo == nil {
		repo = newMemRepo()
	}
	s := New(scanner, repo, export.NewService(repo, nil), t.TempDir(), nil)
	return s.Router()
}

func sampleRecord() *entity.InvoiceRecord {
	vendor := "Krónan ehf"
	total := decimal.RequireFromString("39254")
	return &entity.InvoiceRecord{
		ID:           uuid.New(),
		Vendor:       &vendor,
		CurrencyCode: "ISK",
		Total:        &total,
	}
}

func multipartUpload(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestScanInvoice(t *testing.T) {
	scanner := &stubScanner{rec: sampleRecord()}
	r := testServer(t, scanner, nil)

	body, contentType := multipartUpload(t, "file", "receipt.png")
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/scan", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, scanner.path)

	var got entity.InvoiceRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Krónan ehf", *got.Vendor)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestScanInvoiceRejectsUnknownType(t *testing.T) {
	r := testServer(t, &stubScanner{}, nil)

	body, contentType := multipartUpload(t, "file", "notes.txt")
	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/scan", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
}

func TestScanInvoiceMissingFile(t *testing.T) {
	r := testServer(t, &stubScanner{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/invoices/scan", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetInvoice(t *testing.T) {
	repo := newMemRepo()
	rec := sampleRecord()
	require.NoError(t, repo.Create(context.Background(), rec))
	r := testServer(t, &stubScanner{}, repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/"+rec.ID.String(), nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/"+uuid.NewString(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListInvoices(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), sampleRecord()))
	r := testServer(t, &stubScanner{}, repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Invoices []*entity.InvoiceRecord `json:"invoices"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Invoices, 1)
}

func TestListInvoicesBadDate(t *testing.T) {
	r := testServer(t, &stubScanner{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices?from=12.03.2025", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDeleteInvoice(t *testing.T) {
	repo := newMemRepo()
	rec := sampleRecord()
	require.NoError(t, repo.Create(context.Background(), rec))
	r := testServer(t, &stubScanner{}, repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/invoices/"+rec.ID.String(), nil))
	require.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/v1/invoices/"+rec.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExportInvoices(t *testing.T) {
	repo := newMemRepo()
	require.NoError(t, repo.Create(context.Background(), sampleRecord()))
	r := testServer(t, &stubScanner{}, repo)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/invoices/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotEmpty(t, w.Body.Bytes())
}

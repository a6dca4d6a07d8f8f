package reports

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tanx-mis/tanx-mis/internal/storage"
	"github.com/tanx-mis/tanx-mis/pkg/checksum"
)

// memStore is an in-memory storage.Storage used to test the attachment
// endpoints without touching the filesystem.
type memStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemStore() *memStore {
	return &memStore{blobs: make(map[string][]byte)}
}

func (m *memStore) Upload(ctx context.Context, path string, reader io.Reader, size int64) (*storage.UploadResult, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}

	sum, err := checksum.CalculateSHA256(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.blobs[path] = data
	m.mu.Unlock()

	return &storage.UploadResult{Path: path, Size: int64(len(data)), Checksum: sum}, nil
}

func (m *memStore) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	m.mu.Lock()
	data, ok := m.blobs[path]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", path)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memStore) Delete(ctx context.Context, path string) error {
	m.mu.Lock()
	delete(m.blobs, path)
	m.mu.Unlock()
	return nil
}

func (m *memStore) GetURL(ctx context.Context, path string, ttl time.Duration) (string, error) {
	return "mem://" + path, nil
}

func (m *memStore) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	_, ok := m.blobs[path]
	m.mu.Unlock()
	return ok, nil
}

func (m *memStore) GetMetadata(ctx context.Context, path string) (*storage.FileMetadata, error) {
	m.mu.Lock()
	data, ok := m.blobs[path]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("blob not found: %s", path)
	}

	sum, err := checksum.CalculateSHA256(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &storage.FileMetadata{Path: path, Size: int64(len(data)), Checksum: sum}, nil
}

func (m *memStore) has(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[path]
	return ok
}

var attachmentCols = []string{
	"id", "report_id", "file_name", "storage_key", "checksum", "size_bytes",
	"content_type", "uploaded_by", "created_at",
}

func attachmentRow(key string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(attachmentCols).
		AddRow("att-1", "rep-1", "register.jpg", key, "abc123", int64(11),
			strPtr("image/jpeg"), "user-2", now)
}

func doMultipart(t *testing.T, r *gin.Engine, path, fieldName, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fieldName != "" {
		part, err := mw.CreateFormFile(fieldName, fileName)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- Attachments --------------------------------------------------------

func TestUploadAttachment_StoresBlobAndChecksum(t *testing.T) {
	mock, store, r := newReportRouter(t)
	now := time.Now()

	content := "photo-bytes"
	wantSum, err := checksum.CalculateSHA256(bytes.NewReader([]byte(content)))
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("PENDING"))

	mock.ExpectQuery(`INSERT INTO report_attachments`).
		WithArgs("rep-1", "register.jpg", sqlmock.AnyArg(), wantSum,
			int64(len(content)), sqlmock.AnyArg(), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("att-1", now))

	w := doMultipart(t, r, "/reports/rep-1/attachments", "file", "register.jpg", content)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), wantSum)
	assert.Len(t, store.blobs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadAttachment_NoFile(t *testing.T) {
	mock, _, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("PENDING"))

	w := doMultipart(t, r, "/reports/rep-1/attachments", "", "", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No file provided")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadAttachment_ReportNotFound(t *testing.T) {
	mock, store, r := newReportRouter(t)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-missing").
		WillReturnRows(sqlmock.NewRows(reportCols))

	w := doMultipart(t, r, "/reports/rep-missing/attachments", "file", "register.jpg", "photo-bytes")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, store.blobs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDownloadAttachment_StreamsContent(t *testing.T) {
	mock, store, r := newReportRouter(t)

	key := "org-1/reports/rep-1/blob-1-register.jpg"
	_, err := store.Upload(context.Background(), key, bytes.NewReader([]byte("photo-bytes")), 11)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("APPROVED"))

	mock.ExpectQuery(`SELECT .* FROM report_attachments WHERE report_id = \$1 AND id = \$2`).
		WithArgs("rep-1", "att-1").
		WillReturnRows(attachmentRow(key))

	req := httptest.NewRequest(http.MethodGet, "/reports/rep-1/attachments/att-1/download", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "photo-bytes", w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "register.jpg")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteAttachment_RemovesBlob(t *testing.T) {
	mock, store, r := newReportRouter(t)

	key := "org-1/reports/rep-1/blob-1-register.jpg"
	_, err := store.Upload(context.Background(), key, bytes.NewReader([]byte("photo-bytes")), 11)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("PENDING"))

	mock.ExpectQuery(`SELECT .* FROM report_attachments WHERE report_id = \$1 AND id = \$2`).
		WithArgs("rep-1", "att-1").
		WillReturnRows(attachmentRow(key))

	mock.ExpectExec(`DELETE FROM report_attachments WHERE report_id = \$1 AND id = \$2`).
		WithArgs("rep-1", "att-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodDelete, "/reports/rep-1/attachments/att-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.has(key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteReport_CleansUpBlobs(t *testing.T) {
	mock, store, r := newReportRouter(t)

	key := "org-1/reports/rep-1/blob-1-register.jpg"
	_, err := store.Upload(context.Background(), key, bytes.NewReader([]byte("photo-bytes")), 11)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT .* FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnRows(reportRowWithStatus("REJECTED"))

	mock.ExpectQuery(`SELECT .* FROM report_attachments WHERE report_id = \$1`).
		WithArgs("rep-1").
		WillReturnRows(attachmentRow(key))

	mock.ExpectExec(`DELETE FROM reports WHERE organization_id = \$1 AND id = \$2`).
		WithArgs("org-1", "rep-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := doJSON(t, r, http.MethodDelete, "/reports/rep-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, store.has(key))
	assert.NoError(t, mock.ExpectationsWereMet())
}

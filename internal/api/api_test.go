package api

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/starford/dayvault/internal/history"
	"github.com/starford/dayvault/internal/models"
	"github.com/starford/dayvault/internal/testutil"
)

// testEnv sets up a temp work dir, SQLite ledger, service, and router.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (http.Handler, string) {
	t.Helper()

	dbFile, err := os.CreateTemp("", "dayvault-api-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := history.Open(dbFile.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	workDir := t.TempDir()
	svc := NewService(db, workDir, nil)
	return NewRouter(svc, authToken != "", authToken, 0), workDir
}

func exportArchive(t *testing.T) []byte {
	t.Helper()
	p := testutil.ExportZip(t, map[string]string{
		"Journal.json": testutil.Journal(t,
			map[string]any{
				"uuid":         "AAAAAAAA1111",
				"creationDate": "2024-01-15T10:00:00Z",
				"text":         "# Trip\n\\!fun ![](dayone-moment://AB12)",
				"photos":       []map[string]any{{"identifier": "AB12", "md5": "deadbeef"}},
			},
			map[string]any{
				"uuid":         "AAAAAAAA1111",
				"creationDate": "2024-01-15T10:00:00Z",
				"text":         "# Trip\n\\!fun ![](dayone-moment://AB12)",
				"photos":       []map[string]any{{"identifier": "AB12", "md5": "deadbeef"}},
			},
		),
		"photos/deadbeef.jpeg": "jpeg",
	})
	data, err := os.ReadFile(p)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func uploadRequest(t *testing.T, filename string, data []byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatal(err)
		}
		_, _ = part.Write(data)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/convert", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func zipContents(t *testing.T, body []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("response is not a zip: %v", err)
	}
	out := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		out[f.Name] = string(data)
	}
	return out
}

func listRuns(t *testing.T, router http.Handler) []models.Run {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/conversions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	var resp ConversionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.Conversions
}

func TestConvert_ReturnsVaultZip(t *testing.T) {
	router, workDir := testEnv(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "export.zip", exportArchive(t), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("convert status = %d, body = %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/zip" {
		t.Errorf("content-type = %q", ct)
	}
	if got := w.Header().Get(HeaderConverted); got != "1" {
		t.Errorf("converted header = %q, want 1", got)
	}
	if got := w.Header().Get(HeaderSkipped); got != "1" {
		t.Errorf("skipped header = %q, want 1", got)
	}

	files := zipContents(t, w.Body.Bytes())
	entry, ok := files["entries/2024-01-15 Trip.md"]
	if !ok {
		t.Fatalf("entry missing from zip, got %v", files)
	}
	if !strings.Contains(entry, "uuid: AAAAAAAA1111") || !strings.Contains(entry, "!fun ![[deadbeef.jpeg]]") {
		t.Errorf("entry = %q", entry)
	}
	if files["attachments/deadbeef.jpeg"] != "jpeg" {
		t.Errorf("attachment missing from zip")
	}

	// Workspace is removed once the response is written.
	left, _ := os.ReadDir(workDir)
	if len(left) != 0 {
		t.Errorf("workspace not cleaned up: %v", left)
	}
}

func TestConvert_DedupDisabled(t *testing.T) {
	router, _ := testEnv(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "export.zip", exportArchive(t), map[string]string{"dedup": "false"}))
	if w.Code != http.StatusOK {
		t.Fatalf("convert status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get(HeaderConverted); got != "2" {
		t.Errorf("converted header = %q, want 2", got)
	}
	files := zipContents(t, w.Body.Bytes())
	if _, ok := files["entries/2024-01-15 Trip (AAAAAAAA).md"]; !ok {
		t.Errorf("disambiguated entry missing, got %v", files)
	}
}

func TestConvert_RecordsHistory(t *testing.T) {
	router, _ := testEnv(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "export.zip", exportArchive(t), nil))
	if w.Code != http.StatusOK {
		t.Fatalf("convert status = %d", w.Code)
	}
	id := w.Header().Get(HeaderRunID)

	runs := listRuns(t, router)
	if len(runs) != 1 {
		t.Fatalf("len(runs) = %d, want 1", len(runs))
	}
	if runs[0].ID != id || runs[0].Status != models.RunSucceeded || runs[0].Converted != 1 {
		t.Errorf("run = %+v", runs[0])
	}

	req := httptest.NewRequest(http.MethodGet, "/conversions/"+id, nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	var run models.Run
	_ = json.Unmarshal(w.Body.Bytes(), &run)
	if run.Source != "export.zip" {
		t.Errorf("source = %q", run.Source)
	}
}

func TestConvert_MalformedArchive(t *testing.T) {
	router, _ := testEnv(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "export.zip", []byte("not a zip"), nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422, body = %s", w.Code, w.Body.String())
	}

	runs := listRuns(t, router)
	if len(runs) != 1 || runs[0].Status != models.RunFailed || runs[0].Error == "" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestConvert_NoJournalInArchive(t *testing.T) {
	router, _ := testEnv(t, "")
	data, err := os.ReadFile(testutil.ExportZip(t, map[string]string{"photos/a.jpeg": "x"}))
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "export.zip", data, nil))
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", w.Code)
	}
}

func TestConvert_MissingFileField(t *testing.T) {
	router, _ := testEnv(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "", nil, map[string]string{"wrong": "data"}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing field = %d, want 400", w.Code)
	}
}

func TestConvert_RejectsNonZipName(t *testing.T) {
	router, _ := testEnv(t, "")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "journal.json", []byte("{}"), nil))
	if w.Code != http.StatusBadRequest {
		t.Errorf("non-zip upload = %d, want 400", w.Code)
	}
}

func TestGetConversion_NotFound(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/conversions/nope", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing run = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := uploadRequest(t, "export.zip", exportArchive(t), nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed convert = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/conversions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/conversions", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	router, _ := testEnv(t, "")

	req := httptest.NewRequest(http.MethodGet, "/conversions", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

func TestIndexPage(t *testing.T) {
	w := httptest.NewRecorder()
	IndexPage(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `action="/api/convert"`) {
		t.Errorf("index page = %d %q", w.Code, w.Body.String())
	}
}

type brokenLedger struct{}

func (brokenLedger) Record(models.Run) error        { return errors.New("disk full") }
func (brokenLedger) Get(string) (*models.Run, error) { return nil, errors.New("disk full") }
func (brokenLedger) List(int) ([]models.Run, error)  { return nil, errors.New("disk full") }

func TestInternalErrorsUseServiceLogger(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, nil))
	router := NewRouter(NewService(brokenLedger{}, t.TempDir(), logger), false, "", 0)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversions", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if strings.Contains(w.Body.String(), "disk full") {
		t.Errorf("internal error leaked to client: %s", w.Body.String())
	}
	if !strings.Contains(logs.String(), `"msg":"list conversions failed"`) || !strings.Contains(logs.String(), "disk full") {
		t.Errorf("service logger did not receive the failure: %q", logs.String())
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/conversions/r1", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(logs.String(), `"id":"r1"`) {
		t.Errorf("get failure not logged with id: %q", logs.String())
	}
}

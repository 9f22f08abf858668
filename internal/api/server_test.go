package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dgallion1/gspan/internal/config"
	"github.com/dgallion1/gspan/internal/export"
	"github.com/dgallion1/gspan/internal/pipeline"
	"github.com/dgallion1/gspan/internal/render"
	"github.com/dgallion1/gspan/internal/source"
	"github.com/dgallion1/gspan/internal/transcript"
)

const testKey = "test-key"

var sampleHTML = `<html><head><title>Debate</title></head><body>` +
	`<p>JOHN SMITH [0:01]: Good <b>evening</b>.</p>` +
	`<p>` + strings.Repeat("+", 50) + `</p>` +
	`<p>---</p><p>Published: Yes</p><p>---</p><p>Fact check here.</p>` +
	`<p>` + strings.Repeat("-", 50) + `</p>` +
	`<hr><p>DO NOT WRITE BELOW THIS LINE</p>` +
	`</body></html>`

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	cfg := config.Default()
	cfg.APIKey = testKey
	if mutate != nil {
		mutate(&cfg)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	var fetcher pipeline.Fetcher
	if cfg.ExportURLTemplate != "" {
		fetcher = export.NewClient(cfg.ExportURLTemplate, cfg.ExportToken, cfg.FetchTimeout)
	}
	stats := pipeline.NewParseStats(time.Hour)
	worker := pipeline.NewWorker(fetcher, transcript.New(transcript.Options{Logger: log}), source.Options{}, stats, log)
	orch := pipeline.NewOrchestrator(cfg, worker, log)
	orch.Start(t.Context())
	t.Cleanup(orch.Stop)

	return NewServer(orch, render.New(), stats, log, cfg), orch
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+testKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, filename, contents string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(contents))
	}
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestHealth_NoAuth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestAuth_Rejects(t *testing.T) {
	s, _ := newTestServer(t, nil)
	tests := []struct {
		name   string
		header string
		value  string
	}{
		{"missing", "", ""},
		{"wrong scheme", "Authorization", "Basic abc"},
		{"empty bearer", "Authorization", "Bearer "},
		{"wrong key", "Authorization", "Bearer nope"},
		{"wrong header key", "X-API-Key", "nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(sampleHTML))
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestAuth_APIKeyHeader(t *testing.T) {
	s, _ := newTestServer(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/stats/parse", nil)
	req.Header.Set("X-API-Key", testKey)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestParse_RawHTML(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/parse", strings.NewReader(sampleHTML), "text/html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var out struct {
		Status   string           `json:"status"`
		Contents []map[string]any `json:"contents"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Status != "live" {
		t.Errorf("expected live status, got %q", out.Status)
	}
	if len(out.Contents) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out.Contents))
	}
	if out.Contents[0]["type"] != "speaker" {
		t.Errorf("expected speaker first, got %v", out.Contents[0]["type"])
	}
	if out.Contents[1]["type"] != "annotation" {
		t.Errorf("expected annotation second, got %v", out.Contents[1]["type"])
	}
	if rec.Header().Get("X-Gspan-Diagnostics") != "0" {
		t.Errorf("expected 0 diagnostics, got %q", rec.Header().Get("X-Gspan-Diagnostics"))
	}
}

func TestParse_MetadataOutsideFrontmatterIsDiagnosed(t *testing.T) {
	s, _ := newTestServer(t, nil)
	// The metadata sits before the first delimiter, so it is dropped and the
	// body line is read as metadata instead.
	misplaced := `<html><body>` +
		`<p>JOHN SMITH [0:01]: Good evening.</p>` +
		`<p>` + strings.Repeat("+", 50) + `</p>` +
		`<p>Published: Yes</p><p>---</p><p>Fact check here.</p>` +
		`<p>` + strings.Repeat("-", 50) + `</p>` +
		`</body></html>`
	rec := do(t, s, http.MethodPost, "/api/parse", strings.NewReader(misplaced), "text/html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("X-Gspan-Diagnostics"); got != "1" {
		t.Errorf("expected 1 diagnostic, got %q", got)
	}
	if strings.Contains(rec.Body.String(), `"published":true`) {
		t.Errorf("expected misplaced published flag to be ignored, got %s", rec.Body.String())
	}
}

func TestParse_MultipartText(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body, ct := multipartBody(t, "notes.txt", "JANE DOE: Hello.\n\n: [(laughter)]\n", nil)
	rec := do(t, s, http.MethodPost, "/api/parse", body, ct)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"soundbite":"(laughter)"`) {
		t.Errorf("expected soundbite record, got %s", rec.Body.String())
	}
}

func TestParse_Errors(t *testing.T) {
	s, _ := newTestServer(t, func(c *config.Config) { c.MaxUploadBytes = 64 })

	rec := do(t, s, http.MethodPost, "/api/parse?filename=data.csv", strings.NewReader("a,b"), "text/csv")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unsupported type, got %d", rec.Code)
	}

	rec = do(t, s, http.MethodPost, "/api/parse", strings.NewReader(strings.Repeat("x", 200)), "text/html")
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413 for oversized body, got %d", rec.Code)
	}

	body, ct := multipartBody(t, "", "", map[string]string{"title": "x"})
	rec = do(t, s, http.MethodPost, "/api/parse", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing file, got %d", rec.Code)
	}
}

func TestRender_HTML(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/render?title=Preview", strings.NewReader(sampleHTML), "text/html")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html") {
		t.Errorf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	out := rec.Body.String()
	for _, want := range []string{"<title>Preview</title>", "JOHN SMITH", `<aside class="annotation">`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in preview", want)
		}
	}
}

func waitForJob(t *testing.T, s *Server, id string) pipeline.JobSnapshot {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		rec := do(t, s, http.MethodGet, "/api/jobs/"+id, nil, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 polling job, got %d", rec.Code)
		}
		var snap struct {
			pipeline.JobSnapshot
			Result json.RawMessage `json:"result"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
			t.Fatalf("decode job: %v", err)
		}
		if snap.Status == pipeline.StatusCompleted || snap.Status == pipeline.StatusFailed {
			return snap.JobSnapshot
		}
		if time.Now().After(deadline) {
			t.Fatalf("job %s did not finish, status %q", id, snap.Status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func submit(t *testing.T, s *Server, body io.Reader, ct string) string {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/jobs", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	id, _ := out["job_id"].(string)
	if id == "" {
		t.Fatal("expected job_id")
	}
	return id
}

func TestJobs_UploadLifecycle(t *testing.T) {
	s, _ := newTestServer(t, nil)
	body, ct := multipartBody(t, "debate.html", sampleHTML, map[string]string{"title": "Night One"})
	id := submit(t, s, body, ct)

	snap := waitForJob(t, s, id)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q: %v", snap.Status, snap.Summary.Errors)
	}
	if snap.Title != "Night One" {
		t.Errorf("expected submitted title, got %q", snap.Title)
	}
	if snap.Summary.Speakers != 1 || snap.Summary.Annotations != 1 {
		t.Errorf("unexpected summary %+v", snap.Summary)
	}

	rec := do(t, s, http.MethodGet, "/api/jobs", nil, "")
	if !strings.Contains(rec.Body.String(), id) {
		t.Errorf("expected job in listing")
	}
	if strings.Contains(rec.Body.String(), `"result"`) {
		t.Errorf("expected listing without results")
	}

	rec = do(t, s, http.MethodDelete, "/api/jobs/"+id, nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	rec = do(t, s, http.MethodGet, "/api/jobs/"+id, nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestJobs_FetchByDocID(t *testing.T) {
	exportSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/export/doc-7" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(sampleHTML))
	}))
	defer exportSrv.Close()

	s, _ := newTestServer(t, func(c *config.Config) {
		c.ExportURLTemplate = exportSrv.URL + "/export/{id}"
	})

	id := submit(t, s, strings.NewReader("doc_id=doc-7"), "application/x-www-form-urlencoded")
	snap := waitForJob(t, s, id)
	if snap.Status != pipeline.StatusCompleted {
		t.Fatalf("expected completed, got %q: %v", snap.Status, snap.Summary.Errors)
	}
	if snap.Filename != "doc-7.html" {
		t.Errorf("expected derived filename, got %q", snap.Filename)
	}

	id = submit(t, s, strings.NewReader("doc_id=missing"), "application/x-www-form-urlencoded")
	snap = waitForJob(t, s, id)
	if snap.Status != pipeline.StatusFailed {
		t.Errorf("expected failed for a missing document, got %q", snap.Status)
	}
}

func TestJobs_Batch(t *testing.T) {
	s, _ := newTestServer(t, nil)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, contents := range map[string]string{
		"one.html":  sampleHTML,
		"two.txt":   "JANE DOE [1:00]: Thank you.",
		"sheet.csv": "a,b",
	} {
		fw, err := mw.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write([]byte(contents))
	}
	mw.Close()

	rec := do(t, s, http.MethodPost, "/api/jobs/batch", &buf, mw.FormDataContentType())
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", rec.Code, rec.Body.String())
	}
	var out struct {
		Jobs []jobTicket `json:"jobs"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Jobs) != 3 {
		t.Fatalf("expected 3 tickets, got %d", len(out.Jobs))
	}
	queued := 0
	for _, ticket := range out.Jobs {
		switch {
		case ticket.Filename == "sheet.csv":
			if ticket.Error == "" || ticket.JobID != "" {
				t.Errorf("expected csv to be rejected, got %+v", ticket)
			}
		case ticket.Error != "":
			t.Errorf("unexpected rejection %+v", ticket)
		default:
			queued++
			waitForJob(t, s, ticket.JobID)
		}
	}
	if queued != 2 {
		t.Errorf("expected 2 queued jobs, got %d", queued)
	}
}

func TestJobs_SubmitRequiresInput(t *testing.T) {
	s, _ := newTestServer(t, nil)
	rec := do(t, s, http.MethodPost, "/api/jobs", strings.NewReader(""), "application/x-www-form-urlencoded")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestStats_AfterParse(t *testing.T) {
	s, _ := newTestServer(t, nil)
	do(t, s, http.MethodPost, "/api/parse", strings.NewReader(sampleHTML), "text/html")

	rec := do(t, s, http.MethodGet, "/api/stats/parse", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out struct {
		Stats pipeline.StatsSnapshot `json:"stats"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Stats.Count != 1 || out.Stats.Records != 2 {
		t.Errorf("unexpected stats %+v", out.Stats)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct{ in, want string }{
		{"../../etc/passwd", "passwd"},
		{"dir/file.html", "file.html"},
		{"", "unnamed"},
		{"a..b.txt", "a_b.txt"},
		{`C:\docs\notes.docx`, "notes.docx"},
	}
	for _, tt := range tests {
		if got := sanitizeFilename(tt.in); got != tt.want {
			t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

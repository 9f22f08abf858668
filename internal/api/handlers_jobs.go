package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/gspan/internal/pipeline"
	"github.com/dgallion1/gspan/internal/source"
	"github.com/go-chi/chi/v5"
)

// maxBatchFiles caps the number of uploads in one batch request.
const maxBatchFiles = 10

// jobTicket is returned for every job the API accepts or rejects.
type jobTicket struct {
	JobID    string             `json:"job_id,omitempty"`
	DocID    string             `json:"doc_id,omitempty"`
	Filename string             `json:"filename,omitempty"`
	Status   pipeline.JobStatus `json:"status,omitempty"`
	PollURL  string             `json:"poll_url,omitempty"`
	Error    string             `json:"error,omitempty"`
}

func ticketFor(job *pipeline.Job) jobTicket {
	snap := job.Snapshot()
	return jobTicket{
		JobID:    snap.ID,
		DocID:    snap.DocID,
		Filename: snap.Filename,
		Status:   snap.Status,
		PollURL:  "/api/jobs/" + snap.ID,
	}
}

// handleSubmitJob queues an uploaded "file", or a "doc_id" to fetch from the
// export service. An optional "title" overrides the loader's title.
func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1<<20)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			jsonError(w, "invalid multipart form: "+err.Error(), uploadErrorStatus(err))
			return
		}
		defer r.MultipartForm.RemoveAll()
	}

	docID := strings.TrimSpace(r.FormValue("doc_id"))
	var job *pipeline.Job
	if file, header, err := r.FormFile("file"); err == nil {
		file.Close()
		filename, data, err := s.readFormFile(header)
		if err != nil {
			jsonError(w, err.Error(), uploadErrorStatus(err))
			return
		}
		job = pipeline.NewJob(docID, filename, data)
	} else if docID != "" {
		job = pipeline.NewJob(docID, "", nil)
	} else {
		jsonError(w, "file or doc_id is required", http.StatusBadRequest)
		return
	}
	job.Title = strings.TrimSpace(r.FormValue("title"))

	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), submitErrorStatus(err))
		return
	}
	s.log.Info("job queued", "job_id", job.ID, "doc_id", job.DocID, "filename", job.Filename)
	writeJSON(w, http.StatusAccepted, ticketFor(job))
}

// handleBatchSubmit queues every "files" upload and "doc_ids" value. Items
// that cannot be queued are reported inline; the request itself succeeds.
func (s *Server) handleBatchSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*maxBatchFiles+maxBatchFiles<<20)
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		jsonError(w, "invalid multipart form: "+err.Error(), uploadErrorStatus(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	var docIDs []string
	for _, id := range r.MultipartForm.Value["doc_ids"] {
		if id = strings.TrimSpace(id); id != "" {
			docIDs = append(docIDs, id)
		}
	}
	switch {
	case len(files) == 0 && len(docIDs) == 0:
		jsonError(w, "at least one file or doc_id is required", http.StatusBadRequest)
		return
	case len(files) > maxBatchFiles:
		jsonError(w, fmt.Sprintf("at most %d files per batch", maxBatchFiles), http.StatusBadRequest)
		return
	}

	tickets := make([]jobTicket, 0, len(files)+len(docIDs))
	submit := func(job *pipeline.Job) {
		if err := s.orchestrator.Submit(job); err != nil {
			tickets = append(tickets, jobTicket{JobID: job.ID, DocID: job.DocID, Filename: job.Filename, Error: err.Error()})
			return
		}
		tickets = append(tickets, ticketFor(job))
	}
	for _, fh := range files {
		filename, data, err := s.readFormFile(fh)
		if err != nil {
			tickets = append(tickets, jobTicket{Filename: sanitizeFilename(fh.Filename), Error: err.Error()})
			continue
		}
		submit(pipeline.NewJob("", filename, data))
	}
	for _, id := range docIDs {
		submit(pipeline.NewJob(id, "", nil))
	}

	s.log.Info("batch queued", "files", len(files), "doc_ids", len(docIDs))
	writeJSON(w, http.StatusAccepted, map[string]any{"jobs": tickets})
}

// readFormFile validates the extension and size of one uploaded part.
func (s *Server) readFormFile(fh *multipart.FileHeader) (string, []byte, error) {
	filename := sanitizeFilename(fh.Filename)
	if !source.IsSupportedExtension(filename) {
		return filename, nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	f, err := fh.Open()
	if err != nil {
		return filename, nil, fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()
	data, err := readLimited(f, s.cfg.MaxUploadBytes)
	if err != nil {
		return filename, nil, err
	}
	return filename, data, nil
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.orchestrator.GetJob(chi.URLParam(r, "jobID"))
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	snap := job.Snapshot()
	if r.URL.Query().Get("result") == "false" {
		snap.Result = nil
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.orchestrator.ListJobs()
	out := make([]pipeline.JobSnapshot, 0, len(jobs))
	for _, job := range jobs {
		snap := job.Snapshot()
		snap.Result = nil
		out = append(out, snap)
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": out})
}

func (s *Server) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if !s.orchestrator.DeleteJob(chi.URLParam(r, "jobID")) {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func isMultipart(r *http.Request) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return mediaType == "multipart/form-data"
}

func submitErrorStatus(err error) int {
	if errors.Is(err, pipeline.ErrQueueFull) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// writeJSON encodes v without escaping markup characters.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// sanitizeFilename keeps only a safe base name.
func sanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		return "unnamed"
	}
	return name
}

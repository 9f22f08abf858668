package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/dgallion1/gspan/internal/source"
	"github.com/dgallion1/gspan/internal/transcript"
)

// upload is a document received on a synchronous endpoint.
type upload struct {
	filename string
	title    string
	data     []byte
}

var errTooLarge = errors.New("upload too large")

// readUpload accepts a multipart form with a "file" field, or a raw body whose
// type is taken from the "filename" query parameter (default upload.html).
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, int, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if isMultipart(r) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, http.StatusBadRequest, fmt.Errorf("file is required: %w", err)
		}
		defer file.Close()

		data, err := readLimited(file, s.cfg.MaxUploadBytes)
		if err != nil {
			return nil, uploadErrorStatus(err), err
		}
		return &upload{
			filename: sanitizeFilename(header.Filename),
			title:    r.FormValue("title"),
			data:     data,
		}, 0, nil
	}

	data, err := readLimited(r.Body, s.cfg.MaxUploadBytes)
	if err != nil {
		return nil, uploadErrorStatus(err), err
	}
	filename := r.URL.Query().Get("filename")
	if filename == "" {
		filename = "upload.html"
	}
	return &upload{
		filename: sanitizeFilename(filename),
		title:    r.URL.Query().Get("title"),
		data:     data,
	}, 0, nil
}

func readLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds max size (%d bytes): %w", limit, errTooLarge)
	}
	return data, nil
}

func uploadErrorStatus(err error) int {
	var maxErr *http.MaxBytesError
	if errors.Is(err, errTooLarge) || errors.As(err, &maxErr) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

// parseUpload reads, loads and parses the request document.
func (s *Server) parseUpload(w http.ResponseWriter, r *http.Request) (*upload, *source.Source, *transcript.Document, bool) {
	up, status, err := s.readUpload(w, r)
	if err != nil {
		jsonError(w, err.Error(), status)
		return nil, nil, nil, false
	}
	if !source.IsSupportedExtension(up.filename) {
		jsonError(w, fmt.Sprintf("unsupported file type: %s", filepath.Ext(up.filename)), http.StatusBadRequest)
		return nil, nil, nil, false
	}

	worker := s.orchestrator.Worker()
	src, err := worker.Load(up.data, up.filename)
	if err != nil {
		jsonError(w, err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, nil, false
	}
	doc, err := worker.Parse(src)
	if err != nil {
		s.log.Error("parse failed", "filename", up.filename, "error", err)
		jsonError(w, "parse failed: "+err.Error(), http.StatusUnprocessableEntity)
		return nil, nil, nil, false
	}
	if up.title != "" {
		src.Title = up.title
	}
	return up, src, doc, true
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	_, _, doc, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := doc.WriteJSON(&buf); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Gspan-Diagnostics", fmt.Sprint(len(doc.Diagnostics)))
	w.Write(buf.Bytes())
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	up, src, doc, ok := s.parseUpload(w, r)
	if !ok {
		return
	}

	title := src.Title
	if strings.TrimSpace(title) == "" {
		title = up.filename
	}
	var buf bytes.Buffer
	if err := s.renderer.Render(&buf, title, doc); err != nil {
		jsonError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

package pipeline

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/gspan/internal/transcript"
)

// JobStatus represents the state of a parse job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusFetching  JobStatus = "fetching"
	StatusLoading   JobStatus = "loading"
	StatusParsing   JobStatus = "parsing"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Job tracks the state of a single document parse. A job carries either
// uploaded bytes with a filename or a document ID to fetch.
type Job struct {
	mu sync.Mutex

	ID    string `json:"job_id"`
	DocID string `json:"doc_id"`

	Status   JobStatus `json:"status"`
	Phase    string    `json:"phase"`
	Filename string    `json:"filename"`
	Title    string    `json:"title"`

	Summary Summary `json:"summary"`

	ContentHash string    `json:"content_hash,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Internal: not serialized.
	fileData []byte
	result   *transcript.Document
	errors   []string
}

// Summary counts what a finished parse produced.
type Summary struct {
	DocumentStatus transcript.Status `json:"document_status,omitempty"`
	Speakers       int               `json:"speakers"`
	Soundbites     int               `json:"soundbites"`
	Other          int               `json:"other"`
	Annotations    int               `json:"annotations"`
	Diagnostics    int               `json:"diagnostics"`
	Errors         []string          `json:"errors"`
}

// NewJob returns a queued job with a fresh ID.
func NewJob(docID, filename string, data []byte) *Job {
	now := time.Now()
	j := &Job{
		ID:        uuid.NewString(),
		DocID:     docID,
		Filename:  filename,
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: now,
		UpdatedAt: now,
		fileData:  data,
	}
	if data != nil {
		j.ContentHash = ContentHashHex(data)
	}
	return j
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// List returns every tracked job, newest first.
func (s *JobStore) List() []*Job {
	s.mu.Lock()
	out := make([]*Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		out = append(out, job)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Delete forgets a job. It reports whether the job existed.
func (s *JobStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.jobs[id]
	delete(s.jobs, id)
	return ok
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes jobs not updated within the TTL and returns how many were
// dropped.
func (s *JobStore) Cleanup() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	n := 0
	for id, job := range s.jobs {
		job.mu.Lock()
		updated := job.UpdatedAt
		job.mu.Unlock()
		if now.Sub(updated) > s.ttl {
			delete(s.jobs, id)
			n++
		}
	}
	return n
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.Summary.Errors = j.errors
	j.UpdatedAt = time.Now()
}

// SetFileData sets the raw file bytes for processing.
func (j *Job) SetFileData(data []byte) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.fileData = data
	j.ContentHash = ContentHashHex(data)
}

// FileData returns the raw file bytes.
func (j *Job) FileData() []byte {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.fileData
}

func (j *Job) setDefaultFilename(name string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.Filename == "" {
		j.Filename = name
	}
}

// SetResult stores the parsed document, fills the summary and releases the
// raw bytes. title is used only when the job has none.
func (j *Job) SetResult(title string, doc *transcript.Document) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = doc
	j.fileData = nil
	if j.Title == "" {
		j.Title = title
	}
	j.Summary.DocumentStatus = doc.Status
	j.Summary.Speakers = doc.Count(transcript.TypeSpeaker)
	j.Summary.Soundbites = doc.Count(transcript.TypeSoundbite)
	j.Summary.Other = doc.Count(transcript.TypeOther)
	j.Summary.Annotations = doc.Count(transcript.TypeAnnotation)
	j.Summary.Diagnostics = len(doc.Diagnostics)
	j.UpdatedAt = time.Now()
}

// Result returns the parsed document, or nil before completion.
func (j *Job) Result() *transcript.Document {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID          string               `json:"job_id"`
	DocID       string               `json:"doc_id,omitempty"`
	Status      JobStatus            `json:"status"`
	Phase       string               `json:"phase"`
	Filename    string               `json:"filename"`
	Title       string               `json:"title"`
	Summary     Summary              `json:"summary"`
	ContentHash string               `json:"content_hash,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	Result      *transcript.Document `json:"result,omitempty"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	sum := j.Summary
	if sum.Errors == nil {
		sum.Errors = []string{}
	} else {
		sum.Errors = append([]string(nil), sum.Errors...)
	}
	return JobSnapshot{
		ID:          j.ID,
		DocID:       j.DocID,
		Status:      j.Status,
		Phase:       j.Phase,
		Filename:    j.Filename,
		Title:       j.Title,
		Summary:     sum,
		ContentHash: j.ContentHash,
		CreatedAt:   j.CreatedAt,
		UpdatedAt:   j.UpdatedAt,
		Result:      j.result,
	}
}

// ContentHashHex computes SHA-256 of content and returns hex string.
func ContentHashHex(data []byte) string {
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:])
}

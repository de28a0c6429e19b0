package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/arkivdb/arkiv/pkg/record"
	"github.com/arkivdb/arkiv/pkg/store"
)

// Server holds the API server state
type Server struct {
	service RecordService
	metrics *Metrics
}

// NewServer creates a new API server
func NewServer(service RecordService, metrics *Metrics) *Server {
	return &Server{
		service: service,
		metrics: metrics,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.metrics.RecordHealthCheck(true)
	sendSuccess(w, map[string]string{"status": "healthy"})
}

// handleListRecords lists record names, filtered by the optional q
// query parameter.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var (
		names []string
		err   error
	)
	if q := r.URL.Query().Get("q"); q != "" {
		names, err = s.service.Search(q)
	} else {
		names, err = s.service.List()
	}
	if err != nil {
		s.metrics.RecordStoreOperation("list", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to list records: %v", err), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}

	s.metrics.RecordStoreOperation("list", true, time.Since(start))
	sendSuccess(w, names)
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, ok := recordName(w, r)
	if !ok {
		s.metrics.RecordStoreOperation("get", false, time.Since(start))
		return
	}

	rec, err := s.service.Get(name)
	if err != nil {
		s.metrics.RecordStoreOperation("get", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to get record: %v", err), errStatus(err))
		return
	}
	if rec == nil {
		s.metrics.RecordStoreOperation("get", false, time.Since(start))
		sendError(w, "Record not found", http.StatusNotFound)
		return
	}

	data, err := rec.Raw()
	if err != nil {
		s.metrics.RecordStoreOperation("get", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to decode record: %v", err), http.StatusInternalServerError)
		return
	}

	s.metrics.RecordStoreOperation("get", true, time.Since(start))
	sendSuccess(w, RecordResponse{
		Name:     name,
		Data:     data,
		Metadata: rec.Metadata(),
		Valid:    rec.Validate(),
	})
}

func (s *Server) handleInsertRecord(w http.ResponseWriter, r *http.Request) {
	s.handleWriteRecord(w, r, "insert", s.service.Insert)
}

func (s *Server) handleUpdateRecord(w http.ResponseWriter, r *http.Request) {
	s.handleWriteRecord(w, r, "update", s.service.Update)
}

func (s *Server) handleWriteRecord(
	w http.ResponseWriter,
	r *http.Request,
	op string,
	write func(string, []byte, record.Metadata) (*record.Record, error),
) {
	start := time.Now()
	name, ok := recordName(w, r)
	if !ok {
		s.metrics.RecordStoreOperation(op, false, time.Since(start))
		return
	}

	var payload RecordPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.metrics.RecordStoreOperation(op, false, time.Since(start))
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}

	rec, err := write(name, payload.Data, payload.Metadata)
	if err != nil {
		s.metrics.RecordStoreOperation(op, false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to %s record: %v", op, err), errStatus(err))
		return
	}

	s.metrics.RecordStoreOperation(op, true, time.Since(start))
	sendSuccess(w, map[string]interface{}{
		"name":     name,
		"checksum": rec.Metadata().Checksum(),
	})
}

func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	name, ok := recordName(w, r)
	if !ok {
		s.metrics.RecordStoreOperation("delete", false, time.Since(start))
		return
	}

	deleted, err := s.service.Delete(name)
	if err != nil {
		s.metrics.RecordStoreOperation("delete", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to delete record: %v", err), errStatus(err))
		return
	}

	s.metrics.RecordStoreOperation("delete", true, time.Since(start))
	sendSuccess(w, map[string]interface{}{"name": name, "deleted": deleted})
}

func (s *Server) handleCompact(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	if err := s.service.Compact(); err != nil {
		s.metrics.RecordStoreOperation("compact", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to compact store: %v", err), errStatus(err))
		return
	}

	s.metrics.RecordStoreOperation("compact", true, time.Since(start))
	sendSuccess(w, map[string]string{"message": "Store compacted"})
}

func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req BackupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.metrics.RecordStoreOperation("backup", false, time.Since(start))
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return
	}
	if req.Destination == "" {
		s.metrics.RecordStoreOperation("backup", false, time.Since(start))
		sendError(w, "Destination is required", http.StatusBadRequest)
		return
	}

	if err := s.service.Backup(req.Destination); err != nil {
		s.metrics.RecordStoreOperation("backup", false, time.Since(start))
		sendError(w, fmt.Sprintf("Failed to back up store: %v", err), errStatus(err))
		return
	}

	s.metrics.RecordStoreOperation("backup", true, time.Since(start))
	sendSuccess(w, map[string]string{"destination": req.Destination})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	names, err := s.service.List()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to read store: %v", err), http.StatusInternalServerError)
		return
	}
	size, err := s.service.Size()
	if err != nil {
		sendError(w, fmt.Sprintf("Failed to read store: %v", err), http.StatusInternalServerError)
		return
	}

	stats := StatsResponse{
		Records:   len(names),
		SizeBytes: size,
		SizeOK:    true,
	}
	if err := s.service.ValidateSize(); err != nil {
		stats.SizeOK = false
		stats.SizeError = err.Error()
	}

	s.metrics.UpdateStoreStats(stats.Records, stats.SizeBytes)
	sendSuccess(w, stats)
}

// recordName extracts and unescapes the name URL parameter, writing an
// error response when it is missing or malformed.
func recordName(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "name")
	if name == "" {
		sendError(w, "Record name is required", http.StatusBadRequest)
		return "", false
	}
	unescaped, err := url.QueryUnescape(name)
	if err != nil {
		sendError(w, "Invalid record name encoding", http.StatusBadRequest)
		return "", false
	}
	return unescaped, true
}

// errStatus maps store errors to HTTP status codes.
func errStatus(err error) int {
	var sizeErr *store.SizeLimitError
	switch {
	case errors.Is(err, store.ErrRecordExists):
		return http.StatusConflict
	case errors.Is(err, store.ErrRecordNotFound):
		return http.StatusNotFound
	case errors.As(err, &sizeErr):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

package handler

import (
	"encoding/json"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/blockfactory/internal/domain"
)

// RecordResponse is the JSON view of a workspace contents record.
type RecordResponse struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Content   domain.Content `json:"content"`
	Tags      []string       `json:"tags"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Pagination describes the page a list response covers.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
}

// RecordListResponse is the body returned by GET /records.
type RecordListResponse struct {
	Data       []RecordResponse `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// CreateRecordRequest is the body accepted by POST /records.
// Content is optional; an absent or null content starts the record empty.
type CreateRecordRequest struct {
	Name    string         `json:"name"`
	Content domain.Content `json:"content"`
}

// ListRecords handles GET /records?page=&limit=.
func (s *Server) ListRecords(w http.ResponseWriter, r *http.Request) {
	page, err := optionalIntQuery(r, "page")
	if err != nil {
		requestError(w, "invalid page parameter", err)
		return
	}
	limit, err := optionalIntQuery(r, "limit")
	if err != nil {
		requestError(w, "invalid limit parameter", err)
		return
	}

	result, err := s.records.List(r.Context(), domain.NewPaginationParams(page, limit))
	if err != nil {
		s.serviceError(w, r, err, "records not found")
		return
	}

	data := make([]RecordResponse, len(result.Items))
	for i, rec := range result.Items {
		data[i] = recordToResponse(rec)
	}
	writeJSON(w, http.StatusOK, RecordListResponse{
		Data: data,
		Pagination: Pagination{
			Page:       result.Page,
			Limit:      result.Limit,
			Total:      result.Total,
			TotalPages: totalPages(result.Total, result.Limit),
		},
	})
}

// CreateRecord handles POST /records.
func (s *Server) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var body CreateRecordRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		requestError(w, "request body must be a JSON object with a name", err)
		return
	}

	rec, err := s.records.Create(r.Context(), body.Name, body.Content)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusCreated, recordToResponse(rec))
}

// GetRecord handles GET /records/{name}.
func (s *Server) GetRecord(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		requestError(w, "invalid record name", err)
		return
	}

	rec, err := s.records.Get(r.Context(), name)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// DeleteRecord handles DELETE /records/{name}.
func (s *Server) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		requestError(w, "invalid record name", err)
		return
	}

	if err := s.records.Delete(r.Context(), name); err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetRecordContent handles PUT /records/{name}/content.
// The body is the new content, a JSON object. A literal null is rejected with 422.
func (s *Server) SetRecordContent(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		requestError(w, "invalid record name", err)
		return
	}

	var content domain.Content
	if err := json.NewDecoder(r.Body).Decode(&content); err != nil {
		requestError(w, "request body must be a JSON object", err)
		return
	}

	rec, err := s.records.SetContent(r.Context(), name, content)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// ExportRecord handles GET /records/{name}/export.
// The response is the record content stamped with its name, served as a
// download named <name>.json.
func (s *Server) ExportRecord(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		requestError(w, "invalid record name", err)
		return
	}

	content, err := s.records.Export(r.Context(), name)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name + ".json"}))
	writeJSON(w, http.StatusOK, content)
}

// recordToResponse converts a domain record to its JSON view.
func recordToResponse(rec *domain.TaggedRecord) RecordResponse {
	return RecordResponse{
		ID:        rec.ID,
		Name:      rec.Name(),
		Content:   rec.Content(),
		Tags:      rec.Tags(),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}

// totalPages returns the number of pages needed for total items at limit per page.
func totalPages(total int64, limit int) int64 {
	if limit <= 0 || total == 0 {
		return 0
	}
	l := int64(limit)
	return (total + l - 1) / l
}

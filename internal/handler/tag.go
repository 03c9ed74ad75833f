package handler

import (
	"net/http"
)

// TagListResponse is the body returned by GET /records/{name}/tags.
// Tags are in insertion order.
type TagListResponse struct {
	Tags []string `json:"tags"`
}

// TagStatusResponse is the body returned by GET /records/{name}/tags/{tag}.
type TagStatusResponse struct {
	Tag     string `json:"tag"`
	Present bool   `json:"present"`
}

// ListRecordTags handles GET /records/{name}/tags.
func (s *Server) ListRecordTags(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "name")
	if err != nil {
		requestError(w, "invalid record name", err)
		return
	}

	tags, err := s.records.ListTags(r.Context(), name)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{Tags: tags})
}

// AddRecordTag handles PUT /records/{name}/tags/{tag}.
// Adding a tag that is already present succeeds without changing the order.
func (s *Server) AddRecordTag(w http.ResponseWriter, r *http.Request) {
	name, tag, ok := recordTagParams(w, r)
	if !ok {
		return
	}

	rec, err := s.records.AddTag(r.Context(), name, tag)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// GetRecordTag handles GET /records/{name}/tags/{tag}.
// An absent tag is reported as present=false, not 404; 404 means the record is missing.
func (s *Server) GetRecordTag(w http.ResponseWriter, r *http.Request) {
	name, tag, ok := recordTagParams(w, r)
	if !ok {
		return
	}

	present, err := s.records.HasTag(r.Context(), name, tag)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, TagStatusResponse{Tag: tag, Present: present})
}

// RemoveRecordTag handles DELETE /records/{name}/tags/{tag}.
// Removing a tag that is not present succeeds and leaves the tags unchanged.
func (s *Server) RemoveRecordTag(w http.ResponseWriter, r *http.Request) {
	name, tag, ok := recordTagParams(w, r)
	if !ok {
		return
	}

	rec, err := s.records.RemoveTag(r.Context(), name, tag)
	if err != nil {
		s.serviceError(w, r, err, "record not found")
		return
	}
	writeJSON(w, http.StatusOK, recordToResponse(rec))
}

// recordTagParams binds the {name} and {tag} path parameters, writing a 400
// and returning ok=false if either is malformed.
func recordTagParams(w http.ResponseWriter, r *http.Request) (name, tag string, ok bool) {
	name, err := pathParam(r, "name")
	if err != nil {
		requestError(w, "invalid record name", err)
		return "", "", false
	}
	tag, err = pathParam(r, "tag")
	if err != nil {
		requestError(w, "invalid tag id", err)
		return "", "", false
	}
	return name, tag, true
}

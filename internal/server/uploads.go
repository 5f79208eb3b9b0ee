package server

import (
	"net/http"
)

type presignRequest struct {
	Key         string `form:"key"`
	ContentType string `form:"contentType"`
}

// handlePresignUpload hands out a presigned PUT URL for an image key.
// Upload mechanics stay with the object store; only the key ever
// reaches the program and material records.
func (s *Service) handlePresignUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		s.respondJSON(w, http.StatusNotImplemented, errorResponse{Error: "object storage not configured"})
		return
	}

	var req presignRequest
	if err := decoder.Decode(&req, r.URL.Query()); err != nil || req.Key == "" {
		s.respondJSON(w, http.StatusBadRequest, errorResponse{Error: "key is required"})
		return
	}
	if req.ContentType == "" {
		req.ContentType = "image/jpeg"
	}

	url, err := s.uploads.PresignUpload(r.Context(), req.Key, req.ContentType)
	if err != nil {
		s.respondError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"key": req.Key, "url": url})
}

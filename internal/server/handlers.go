package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/fuda/internal/models"
)

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("resolve request", zap.String("query", req.Query))
	response, err := s.engine.Resolve(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("resolve failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleResolveBatch(w http.ResponseWriter, r *http.Request) {
	var req models.ResolveBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Debug("batch resolve request",
		zap.Int("queries", len(req.Queries)), zap.String("mode", req.Mode))
	response, err := s.engine.ResolveBatch(r.Context(), &req)
	if err != nil {
		s.logger.Error("batch resolve failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleExact(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	result := s.engine.Exact(query)
	if result == nil {
		s.respondError(w, http.StatusNotFound, "tag not found")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handleAlias(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	result := s.engine.Alias(query)
	if result == nil {
		s.respondError(w, http.StatusNotFound, "alias not found")
		return
	}
	s.respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePrefixSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		s.respondError(w, http.StatusBadRequest, "missing query parameter q")
		return
	}
	limit := s.config.Matching.MaxResults
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.respondError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	results := s.engine.Prefix(query, limit)
	if results == nil {
		results = []*models.LookupResult{}
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"query":   query,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	var req models.ReloadRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}
	response, err := s.engine.Reload(r.Context(), &req)
	if err != nil {
		s.logger.Error("reload failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.respondJSON(w, http.StatusOK, response)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"tag_count":    stats.TagCount,
		"index_size":   stats.IndexSize,
		"index_loaded": stats.IndexLoaded,
		"config": map[string]interface{}{
			"max_results":     s.config.Matching.MaxResults,
			"min_similarity":  s.config.Matching.MinSimilarity,
			"count_weight":    s.config.Matching.CountWeight,
			"fuzzy_threshold": s.config.Matching.FuzzyThreshold,
			"catalog_path":    s.config.Data.CatalogPath,
			"index_path":      s.config.Data.IndexPath,
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	stats := s.engine.Stats()
	status := "ok"
	if stats.TagCount == 0 {
		status = "empty"
	}
	s.respondJSON(w, http.StatusOK, models.HealthResponse{
		Status:      status,
		IndexLoaded: stats.IndexLoaded,
		TagCount:    stats.TagCount,
	})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

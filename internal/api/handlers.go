package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/address"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/doccache"
	"github.com/Blakeem/AI-Prompt-Guide-MCP-sub002/internal/engine"
)

// handleListDocuments lists the virtual paths of every known document.
func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	paths, err := s.engine.Store().List()
	if err != nil {
		jsonError(w, "failed to list documents: "+err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"documents": paths})
}

// handleGetDocument fetches a full parsed document; the wildcard segment is
// the virtual path.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	path := "/" + chi.URLParam(r, "*")
	doc, err := s.engine.GetDocument(r.Context(), path, doccache.AccessDirect)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, doc)
}

// handleGetSection reads one section body. The address query parameter
// accepts any section form; context supplies the document for bare slugs.
func (s *Server) handleGetSection(w http.ResponseWriter, r *http.Request) {
	addr := r.URL.Query().Get("address")
	if addr == "" {
		jsonError(w, "address query parameter is required", http.StatusBadRequest)
		return
	}
	body, err := s.engine.GetSection(r.Context(), addr, r.URL.Query().Get("context"))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"address": addr, "body": body})
}

// handleMutateSection applies one section edit and returns the new document
// content.
func (s *Server) handleMutateSection(w http.ResponseWriter, r *http.Request) {
	var m engine.Mutation
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	content, err := s.engine.MutateSection(r.Context(), m)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"path": m.Path, "content": content})
}

type referencesRequest struct {
	Path  string `json:"path"`
	Depth int    `json:"depth"`
}

// handleLoadReferences expands the reference tree of one document.
func (s *Server) handleLoadReferences(w http.ResponseWriter, r *http.Request) {
	var req referencesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	doc, err := s.engine.GetDocument(r.Context(), req.Path, doccache.AccessReference)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	forest, err := s.engine.LoadReferenceTree(r.Context(), doc.Content, doc.Path, req.Depth)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, map[string]any{"path": doc.Path, "references": forest})
}

// handleSearch shortlists candidate documents for a query.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	candidates := s.engine.Search(q)
	if candidates == nil {
		candidates = []string{}
	}
	writeJSON(w, map[string]any{"query": q, "candidates": candidates})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.engine.Stats())
}

// writeEngineError maps engine error types onto HTTP statuses, carrying the
// available-alternatives context through to the client.
func writeEngineError(w http.ResponseWriter, err error) {
	var invalid *address.InvalidAddressError
	var docNF *engine.DocumentNotFoundError
	var secNF *engine.SectionNotFoundError
	var notTask *engine.NotATaskError
	var precond *engine.PreconditionFailedError

	switch {
	case errors.As(err, &invalid):
		jsonError(w, invalid.Error(), http.StatusBadRequest)
	case errors.As(err, &docNF):
		writeJSONStatus(w, http.StatusNotFound, map[string]any{
			"error":        docNF.Error(),
			"alternatives": docNF.Alternatives,
		})
	case errors.As(err, &secNF):
		writeJSONStatus(w, http.StatusNotFound, map[string]any{
			"error":     secNF.Error(),
			"available": secNF.Available,
		})
	case errors.As(err, &notTask):
		jsonError(w, notTask.Error(), http.StatusUnprocessableEntity)
	case errors.As(err, &precond):
		writeJSONStatus(w, http.StatusConflict, map[string]any{
			"error":        precond.Error(),
			"current_hash": precond.Actual,
		})
	default:
		jsonError(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, status int) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

package api

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/dgallion1/lorebase/internal/dedupe"
	"github.com/dgallion1/lorebase/internal/export"
	"github.com/dgallion1/lorebase/internal/knowledge"
	"github.com/go-chi/chi/v5"
)

// handleKnowledgeList lists stored entries. ?source=external reads the
// read-only secondary source instead.
func (s *Server) handleKnowledgeList(w http.ResponseWriter, r *http.Request) {
	var (
		entries []knowledge.Entry
		err     error
	)
	if r.URL.Query().Get("source") == "external" {
		entries, err = s.store.ListExternal(r.Context())
	} else {
		entries, err = s.store.List(r.Context())
	}
	if err != nil {
		jsonError(w, "failed to list entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []knowledge.Entry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"entries": entries})
}

func (s *Server) handleKnowledgeAdd(w http.ResponseWriter, r *http.Request) {
	var entry knowledge.Entry
	if err := json.NewDecoder(r.Body).Decode(&entry); err != nil {
		jsonError(w, "invalid entry: "+err.Error(), http.StatusBadRequest)
		return
	}
	entry.Title = strings.TrimSpace(entry.Title)
	if entry.Title == "" {
		jsonError(w, "title is required", http.StatusBadRequest)
		return
	}
	entry.Category = knowledge.ParseCategory(string(entry.Category))
	if entry.ID == "" {
		entry.ID = knowledge.NewID()
	}
	if entry.Details == nil {
		entry.Details = map[string]string{}
	}

	if err := s.store.Add(r.Context(), entry); err != nil {
		jsonError(w, "failed to store entry: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(entry)
}

func (s *Server) handleKnowledgeDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.Delete(r.Context(), id); err != nil {
		jsonError(w, "failed to delete entry: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"deleted": id})
}

// handleContext assembles the bounded prompt fragment for a query text.
func (s *Server) handleContext(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query       string `json:"query"`
		ExcerptHTML string `json:"excerpt_html"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		jsonError(w, "query is required", http.StatusBadRequest)
		return
	}

	matched, err := s.matcher.MatchAll(r.Context(), req.Query)
	if err != nil {
		jsonError(w, "failed to match entries: "+err.Error(), http.StatusInternalServerError)
		return
	}

	fragment := s.assembler.Assemble(matched, req.ExcerptHTML)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"context": fragment,
		"matched": len(matched),
	})
}

func (s *Server) handleDuplicates(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	groups := dedupe.FindDuplicates(entries)
	if groups == nil {
		groups = []dedupe.Group{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"groups": groups})
}

func (s *Server) handleDuplicatesMerge(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeleteOriginals bool `json:"delete_originals"`
	}
	if r.Body != nil {
		// An empty body means merge with defaults.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	entries, err := s.store.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	groups := dedupe.FindDuplicates(entries)
	results := s.merger.MergeAll(r.Context(), groups, req.DeleteOriginals)

	merged := 0
	for _, res := range results {
		if res.Err == nil {
			merged++
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"groups":  len(groups),
		"merged":  merged,
		"results": results,
	})
}

// handleExport downloads one entry rendered as .txt or .doc.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	entries, err := s.store.List(r.Context())
	if err != nil {
		jsonError(w, "failed to list entries: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var entry *knowledge.Entry
	for i := range entries {
		if entries[i].ID == id {
			entry = &entries[i]
			break
		}
	}
	if entry == nil {
		jsonError(w, "entry not found", http.StatusNotFound)
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "txt"
	}

	body := export.EntryHTML(*entry)
	name := export.SanitizeFilename(entry.Title)

	var payload, contentType, ext string
	switch format {
	case "txt":
		payload = export.RenderText(body)
		contentType = "text/plain; charset=utf-8"
		ext = ".txt"
	case "doc":
		payload = export.RenderDoc(entry.Title, body)
		contentType = "application/msword"
		ext = ".doc"
	default:
		jsonError(w, "unsupported format: "+format, http.StatusBadRequest)
		return
	}

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": name + ext})
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	w.Write([]byte(payload))
}

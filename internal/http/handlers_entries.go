package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"motocusto/internal/auth"
)

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.deps.Entries.Configuration(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, cfg)
}

// handlePutSettings replaces the whole configuration. The new prices apply
// to every entry, past ones included.
func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var req configurationRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		decodeError(w, err)
		return
	}

	saved, err := s.deps.Entries.SaveConfiguration(r.Context(), auth.UserIDFromContext(r.Context()), req.toConfiguration())
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, saved)
}

// handleListEntries returns every entry with its breakdown, oldest first.
func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	list, _, err := s.deps.Dashboard.Breakdowns(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, list)
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		decodeError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	saved, err := s.deps.Entries.Save(r.Context(), userID, req.toEntry(""))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeEntry(w, r, userID, saved.ID, http.StatusCreated)
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	e, err := s.deps.Entries.Get(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		decodeError(w, err)
		return
	}

	userID := auth.UserIDFromContext(r.Context())
	saved, err := s.deps.Entries.Save(r.Context(), userID, req.toEntry(chi.URLParam(r, "id")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.writeEntry(w, r, userID, saved.ID, http.StatusOK)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Entries.Delete(r.Context(), auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	NoContent(w)
}

func (s *Server) handleEntryBreakdown(w http.ResponseWriter, r *http.Request) {
	s.writeEntry(w, r, auth.UserIDFromContext(r.Context()), chi.URLParam(r, "id"), http.StatusOK)
}

// writeEntry answers with the stored entry and its breakdown under the
// current configuration.
func (s *Server) writeEntry(w http.ResponseWriter, r *http.Request, userID, entryID string, status int) {
	eb, err := s.deps.Dashboard.Breakdown(r.Context(), userID, entryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().Status(status).Body(eb).Write(w)
}

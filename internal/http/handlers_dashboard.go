package http

import (
	"bytes"
	"net/http"
	"strconv"

	"motocusto/internal/auth"
	applog "motocusto/internal/log"
	"motocusto/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.deps.Dashboard.Dashboard(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, d)
}

// handleWeek serves the Monday to Sunday week containing ?date (default
// today).
func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	day, err := ParseDayParam(r, "date", s.now)
	if err != nil {
		BadRequestError(w, err.Error())
		return
	}

	week, err := s.deps.Dashboard.Week(r.Context(), auth.UserIDFromContext(r.Context()), day)
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, week)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.deps.Advice.Suggest(r.Context(), auth.UserIDFromContext(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	OK(w, map[string][]string{"suggestions": suggestions})
}

// handleExport streams the user's entries as an Excel workbook. The file is
// built in memory first so a failure still gets a JSON error.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	cfg, entries, err := s.deps.Dashboard.History(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := report.WriteEntriesXLSX(&buf, entries, cfg); err != nil {
		writeError(w, r, err)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Report exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldCount, len(entries))

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="motocusto.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

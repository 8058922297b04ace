package http

import (
	"fmt"
	"net/http"
	"sync/atomic"

	"wallet/internal/core"
	"wallet/internal/currency"
	"wallet/internal/ledger"
	"wallet/internal/log"
	"wallet/internal/period"
	"wallet/internal/rates"
	"wallet/internal/report"
)

func (s *Server) periodView(r *http.Request) (period.View, error) {
	p, err := ParsePeriodParams(r.URL.Query(), s.wallet.Now())
	if err != nil {
		return period.View{}, err
	}
	return period.Build(p.Mode, p.Cursor, s.wallet.State()), nil
}

// handleStats returns the aggregated view of a week, month or year.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	v, err := s.periodView(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleStatsPDF(w http.ResponseWriter, r *http.Request) {
	v, err := s.periodView(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	insight := report.Analyze(r.Context(), s.insights, v.Week)
	data, err := report.BuildPDF(report.FromView(v, insight))
	if err != nil {
		writeError(w, r, fmt.Errorf("build %s report: %w", v.Mode, err))
		return
	}
	atomic.AddInt64(&s.appMetrics.pdfRendered, 1)
	log.FromContext(r.Context()).InfoContext(r.Context(), "Period report rendered",
		log.FieldPeriodMode, string(v.Mode),
		"bytes", len(data))
	writePDF(w, period.ReportFilename(v.Mode, v.Cursor), data)
}

// handleHistory lists archived weeks, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ledger.History(s.wallet.State().History))
}

// archivedWeek finds an archived week by id. The open week is not a history entry.
func (s *Server) archivedWeek(id string) (core.WeekData, error) {
	st := s.wallet.State()
	if st.CurrentWeek.ID == id {
		return core.WeekData{}, fmt.Errorf("%w: %s", core.ErrWeekNotFound, id)
	}
	return st.FindWeek(id)
}

func (s *Server) handleHistoryReport(w http.ResponseWriter, r *http.Request) {
	wk, err := s.archivedWeek(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weekReportView{
		Week:     toWeekView(wk),
		Insights: report.Insights(wk),
		Analysis: report.Analyze(r.Context(), s.insights, wk),
		Totals:   ledger.CategoryTotals(wk.Transactions),
	})
}

func (s *Server) handleHistoryReportPDF(w http.ResponseWriter, r *http.Request) {
	wk, err := s.archivedWeek(r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	filename := period.WeekReportFilename(wk)
	if data, ok := s.weekPDFCache.Get(wk.ID); ok {
		atomic.AddInt64(&s.appMetrics.cacheHits, 1)
		writePDF(w, filename, data)
		return
	}
	atomic.AddInt64(&s.appMetrics.cacheMisses, 1)

	data, err := report.BuildPDF(report.FromWeek(wk, report.Analyze(r.Context(), s.insights, wk)))
	if err != nil {
		writeError(w, r, fmt.Errorf("build week report %s: %w", wk.ID, err))
		return
	}
	s.weekPDFCache.Set(wk.ID, data)
	atomic.AddInt64(&s.appMetrics.pdfRendered, 1)
	writePDF(w, filename, data)
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	presets := s.wallet.State().Presets
	if presets == nil {
		presets = []string{}
	}
	writeJSON(w, http.StatusOK, presets)
}

// handleAddPreset answers 201 for a new title and 200 when nothing changed.
func (s *Server) handleAddPreset(w http.ResponseWriter, r *http.Request) {
	var req presetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rc, added := s.wallet.AddPreset(r.Context(), sanitizeInput(req.Title))
	status := http.StatusOK
	if added {
		status = http.StatusCreated
		atomic.AddInt64(&s.appMetrics.mutations, 1)
	}
	writeJSON(w, status, map[string]any{
		"added":   added,
		"saved":   rc.Saved,
		"notice":  rc.Notice,
		"presets": rc.State.Presets,
	})
}

func (s *Server) handleRemovePreset(w http.ResponseWriter, r *http.Request) {
	rc, removed := s.wallet.RemovePreset(r.Context(), r.PathValue("title"))
	if !removed {
		ErrorResponse(http.StatusNotFound, "preset not found").Write(w)
		return
	}
	atomic.AddInt64(&s.appMetrics.mutations, 1)
	writeJSON(w, http.StatusOK, map[string]any{
		"saved":   rc.Saved,
		"notice":  rc.Notice,
		"presets": rc.State.Presets,
	})
}

// handleTitles returns every title used in the current week and the history
// for autocompletion.
func (s *Server) handleTitles(w http.ResponseWriter, r *http.Request) {
	st := s.wallet.State()
	weeks := append([]core.WeekData{st.CurrentWeek}, st.History...)
	writeJSON(w, http.StatusOK, ledger.Titles(weeks...))
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	if s.rates == nil {
		writeJSON(w, http.StatusOK, rates.Info{Rate: currency.DefaultRate, Source: rates.SourceFallback})
		return
	}
	writeJSON(w, http.StatusOK, s.rates.Info())
}

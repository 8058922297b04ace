package http

import (
	"net/http"
	"sync/atomic"

	"wallet/internal/core"
	"wallet/internal/ledger"
	"wallet/internal/services"
)

// handleState returns the current week, its lists under the query filter and
// the saved presets.
func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	f, err := ParseFilter(r.URL.Query())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toStateView(s.wallet.State(), f))
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	st := s.wallet.State()
	writeJSON(w, http.StatusOK, map[string]any{
		"summary":      ledger.Summarize(st.CurrentWeek),
		"totalSavings": st.TotalSavings,
		"slices":       ledger.PieSlices(ledger.Summarize(st.CurrentWeek)),
	})
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	d, err := req.draft()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rc, tx, err := s.wallet.AddTransaction(r.Context(), d)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondReceipt(w, http.StatusCreated, rc, &tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	e, err := req.edit()
	if err != nil {
		writeError(w, r, err)
		return
	}
	rc, tx, err := s.wallet.EditTransaction(r.Context(), r.PathValue("id"), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondReceipt(w, http.StatusOK, rc, &tx)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	rc, err := s.wallet.DeleteTransaction(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondReceipt(w, http.StatusOK, rc, nil)
}

func (s *Server) handleToggleTransaction(w http.ResponseWriter, r *http.Request) {
	rc, tx, err := s.wallet.ToggleConfirmed(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondReceipt(w, http.StatusOK, rc, &tx)
}

func (s *Server) handleSetIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rc, err := s.wallet.SetIncome(r.Context(), string(req.Income))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.respondReceipt(w, http.StatusOK, rc, nil)
}

func (s *Server) handleClosePrompt(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.wallet.ClosePrompt())
}

// handleCloseWeek archives the current week. A missing or invalid nextIncome
// opens the new week with zero income.
func (s *Server) handleCloseWeek(w http.ResponseWriter, r *http.Request) {
	var req closeWeekRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rc, err := s.wallet.CloseWeek(r.Context(), string(req.NextIncome))
	if err != nil {
		writeError(w, r, err)
		return
	}
	atomic.AddInt64(&s.appMetrics.mutations, 1)
	closed := rc.State.History[len(rc.State.History)-1]
	writeJSON(w, http.StatusOK, map[string]any{
		"saved":        rc.Saved,
		"notice":       rc.Notice,
		"closedWeek":   toWeekView(closed),
		"currentWeek":  toWeekView(rc.State.CurrentWeek),
		"totalSavings": rc.State.TotalSavings,
	})
}

func (s *Server) respondReceipt(w http.ResponseWriter, status int, rc services.Receipt, tx *core.Transaction) {
	atomic.AddInt64(&s.appMetrics.mutations, 1)
	writeJSON(w, status, toReceiptView(rc.State, rc.Saved, rc.Notice, tx))
}

package http

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"gastos/internal/core"
	applog "gastos/internal/log"
)

type dashboardView struct {
	Owner         string
	Month         int
	Year          int
	BudgetSet     bool
	Summary       core.PeriodSummary
	PendingDelete int64
	Categories    []core.Category
	Sources       []core.Source
	Notice        string
	Error         string
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}

	owner := s.owner.resolve(r)
	month, year, err := period(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}

	view := dashboardView{
		Owner:      owner,
		Month:      month,
		Year:       year,
		Categories: core.Categories(),
		Sources:    core.Sources(),
		Notice:     r.URL.Query().Get("notice"),
		Error:      r.URL.Query().Get("err"),
	}

	summary, budgetSet, err := s.ledger.Summary(r.Context(), owner, month, year)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	view.BudgetSet = budgetSet
	if !budgetSet {
		// The expense view stays gated until a budget exists for the
		// selected period.
		s.render(w, "budget_gate.html", view)
		return
	}
	view.Summary = summary
	if id, ok := s.sessions.flow(owner).Pending(); ok {
		view.PendingDelete = id
	}
	s.render(w, "dashboard.html", view)
}

func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.beginMutation(w, r)
	if !ok {
		return
	}
	req, err := parseBudgetForm(r, owner)
	if err != nil {
		s.redirectError(w, r, req.Month, req.Year, err)
		return
	}
	if err := s.ledger.SetBudget(r.Context(), req); err != nil {
		s.redirectError(w, r, req.Month, req.Year, err)
		return
	}
	s.redirect(w, r, req.Month, req.Year, "Orçamento salvo!")
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.beginMutation(w, r)
	if !ok {
		return
	}
	req, err := parseExpenseForm(r, owner)
	if err != nil {
		s.redirectError(w, r, req.Date.Month(), req.Date.Year(), err)
		return
	}
	if _, err := s.ledger.Register(r.Context(), req); err != nil {
		s.redirectError(w, r, req.Date.Month(), req.Date.Year(), err)
		return
	}
	s.redirect(w, r, req.Date.Month(), req.Date.Year(), "Gasto salvo!")
}

func (s *Server) handleRequestDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.beginMutation(w, r)
	if !ok {
		return
	}
	month, year, err := period(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	id, err := parseID(r)
	if err != nil {
		s.redirectError(w, r, month, year, err)
		return
	}
	s.sessions.flow(owner).Request(id)
	s.redirect(w, r, month, year, "")
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.beginMutation(w, r)
	if !ok {
		return
	}
	month, year, err := period(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	id, confirmed := s.sessions.flow(owner).Confirm()
	if !confirmed {
		// Nothing pending; a stray confirm changes nothing.
		s.redirect(w, r, month, year, "")
		return
	}
	if err := s.ledger.Delete(r.Context(), owner, id, month, year); err != nil {
		s.redirectError(w, r, month, year, err)
		return
	}
	s.redirect(w, r, month, year, "Gasto removido.")
}

func (s *Server) handleCancelDelete(w http.ResponseWriter, r *http.Request) {
	owner, ok := s.beginMutation(w, r)
	if !ok {
		return
	}
	month, year, err := period(r)
	if err != nil {
		s.renderError(w, r, err)
		return
	}
	s.sessions.flow(owner).Cancel()
	s.redirect(w, r, month, year, "")
}

// beginMutation enforces POST and parses the form, resolving the owner.
func (s *Server) beginMutation(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return "", false
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "malformed form", http.StatusBadRequest)
		return "", false
	}
	return s.owner.resolve(r), true
}

func (s *Server) redirect(w http.ResponseWriter, r *http.Request, month, year int, notice string) {
	q := url.Values{}
	if month >= 1 && month <= 12 {
		q.Set("month", fmt.Sprint(month))
		q.Set("year", fmt.Sprint(year))
	}
	if notice != "" {
		q.Set("notice", notice)
	}
	target := "/"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func (s *Server) redirectError(w http.ResponseWriter, r *http.Request, month, year int, err error) {
	if !errors.Is(err, core.ErrInvalidInput) {
		s.renderError(w, r, err)
		return
	}
	q := url.Values{}
	if month >= 1 && month <= 12 {
		q.Set("month", fmt.Sprint(month))
		q.Set("year", fmt.Sprint(year))
	}
	q.Set("err", err.Error())
	http.Redirect(w, r, "/?"+q.Encode(), http.StatusSeeOther)
}

func (s *Server) renderError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, core.ErrInvalidInput):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	s.log.ErrorContext(r.Context(), "request failed",
		applog.FieldPath, r.URL.Path,
		applog.FieldStatusCode, status,
		applog.FieldError, err)
	http.Error(w, err.Error(), status)
}

func (s *Server) render(w http.ResponseWriter, name string, view dashboardView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, view); err != nil {
		s.log.Error("template render failed", applog.FieldError, err)
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	w.WriteHeader(http.StatusMethodNotAllowed)
}

package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"budgetviz/internal/core"
	"budgetviz/internal/log"
	"budgetviz/internal/rollover"
	"budgetviz/internal/services"
)

// BudgetResponse is the body of GET /api/budget.
type BudgetResponse struct {
	Key       string             `json:"key"`
	Budget    core.Budget        `json:"budget"`
	Stored    bool               `json:"stored"`
	Breakdown rollover.Breakdown `json:"breakdown"`
}

// DraftResponse is the body of GET /api/budget/draft.
type DraftResponse struct {
	Key         string       `json:"key"`
	PreviousKey string       `json:"previousKey"`
	Previous    *core.Budget `json:"previous,omitempty"`
	Draft       core.Budget  `json:"draft"`
}

// DeleteResponse is the body of DELETE /api/transactions/{id}.
type DeleteResponse struct {
	Deleted int `json:"deleted"`
}

// monthFromQuery renders the month named by ?key=, or the cursor month.
func (s *Server) monthFromQuery(r *http.Request) (services.MonthView, error) {
	t, ok, err := ParseMonthKey(r, s.svc.Location())
	if err != nil {
		return services.MonthView{}, err
	}
	if !ok {
		return s.svc.MonthView(), nil
	}
	return s.svc.MonthViewAt(t), nil
}

func (s *Server) handleMonth(w http.ResponseWriter, r *http.Request) {
	view, err := s.monthFromQuery(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Data(view).Write(w)
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	dir, err := core.ParseDirection(chi.URLParam(r, "direction"))
	if err != nil {
		NotFoundError(err.Error()).Write(w)
		return
	}
	cursor := s.svc.NavigateMonth(dir)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Cursor moved",
		log.FieldMonthKey, core.KeyFor(cursor))
	NewJSONResponse().Data(s.svc.MonthView()).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	tpl, err := req.Template(s.svc.Location())
	if err != nil {
		FromError(err).Write(w)
		return
	}

	created, err := s.svc.AddTransaction(r.Context(), tpl, req.Occurrences)
	s.logMutationError(r, "Failed to add transaction", log.OpCreate, err)
	MutationResponse(http.StatusCreated, created, err).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.svc.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Data(tx).Write(w)
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	scope, err := ParseScope(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	var req TransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	orig, err := s.svc.Transaction(chi.URLParam(r, "id"))
	if err != nil {
		FromError(err).Write(w)
		return
	}
	fields, err := req.Fields(s.svc.Location(), orig)
	if err != nil {
		FromError(err).Write(w)
		return
	}

	changed, err := s.svc.EditTransaction(r.Context(), orig.ID, fields, scope)
	s.logMutationError(r, "Failed to edit transaction", log.OpUpdate, err)
	MutationResponse(http.StatusOK, changed, err).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	scope, err := ParseDeleteScope(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	seriesID := strings.TrimSpace(r.URL.Query().Get("series"))

	n, err := s.svc.DeleteTransaction(r.Context(), chi.URLParam(r, "id"), seriesID, scope)
	s.logMutationError(r, "Failed to delete transaction", log.OpDelete, err)
	MutationResponse(http.StatusOK, DeleteResponse{Deleted: n}, err).Write(w)
}

func (s *Server) handleSeries(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	members := s.svc.Series(id)
	if len(members) == 0 {
		NotFoundError("series not found: " + id).Write(w)
		return
	}
	NewJSONResponse().Data(members).Write(w)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	view, err := s.monthFromQuery(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Data(BudgetResponse{
		Key:       view.Key,
		Budget:    view.Budget,
		Stored:    view.HasBudget,
		Breakdown: view.Breakdown,
	}).Write(w)
}

func (s *Server) handleBudgetDraft(w http.ResponseWriter, r *http.Request) {
	view, err := s.monthFromQuery(r)
	if err != nil {
		FromError(err).Write(w)
		return
	}
	NewJSONResponse().Data(DraftResponse{
		Key:         view.Key,
		PreviousKey: view.PreviousKey,
		Previous:    view.PreviousBudget,
		Draft:       view.Draft,
	}).Write(w)
}

func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	var req BudgetRequest
	if err := decodeJSON(r, &req); err != nil {
		BadRequestError(err.Error()).Write(w)
		return
	}
	b, err := req.Budget()
	if err != nil {
		FromError(err).Write(w)
		return
	}

	key := strings.TrimSpace(req.Month)
	if key == "" {
		key = core.KeyFor(s.svc.Cursor())
	}
	err = s.svc.SaveBudgetFor(r.Context(), key, b)
	s.logMutationError(r, "Failed to save budget", log.OpSave, err)
	if err != nil && !errors.Is(err, core.ErrPersistence) {
		FromError(err).Write(w)
		return
	}

	at, _ := core.ParseKey(key, s.svc.Location())
	view := s.svc.MonthViewAt(at)
	MutationResponse(http.StatusOK, BudgetResponse{
		Key:       view.Key,
		Budget:    view.Budget,
		Stored:    view.HasBudget,
		Breakdown: view.Breakdown,
	}, err).Write(w)
}

// logMutationError logs failures that are not the caller's fault.
func (s *Server) logMutationError(r *http.Request, msg, op string, err error) {
	if err == nil || core.IsValidation(err) || errors.Is(err, core.ErrNotFound) {
		return
	}
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ComponentHTTP, op, nil)
}

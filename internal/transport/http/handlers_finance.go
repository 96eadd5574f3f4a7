package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/audit"
	"schoolhub/internal/finance"
	"schoolhub/internal/identity"
	"schoolhub/internal/identity/roles"
	"schoolhub/internal/platform/middleware"
	"schoolhub/internal/transport/http/shared"
	dErrors "schoolhub/pkg/domain-errors"
)

// auditedRole is the one role whose financial views leave a trail: the
// most-privileged role overseeing day-to-day financial staff.
const auditedRole = roles.SuperAdmin

// FinanceHandler serves expenses, waivers, collections, analytics and the
// audit-log review endpoint.
type FinanceHandler struct {
	finance  *finance.Service
	recorder *audit.Recorder
	gate     *identity.Gate
	logger   *slog.Logger
}

func NewFinanceHandler(svc *finance.Service, recorder *audit.Recorder, gate *identity.Gate, logger *slog.Logger) *FinanceHandler {
	return &FinanceHandler{finance: svc, recorder: recorder, gate: gate, logger: logger}
}

func (h *FinanceHandler) Register(r chi.Router) {
	r.Route("/finance", func(r chi.Router) {
		staff := h.gate.Require(roles.Accountant, roles.Admin, roles.SuperAdmin)
		admins := h.gate.Require(roles.Admin, roles.SuperAdmin)

		r.With(staff).Get("/expenses", h.handleListExpenses)
		r.With(staff).Post("/expenses", h.handleCreateExpense)
		r.With(admins).Delete("/expenses/{id}", h.handleDeleteExpense)

		r.With(staff).Get("/waivers", h.handleListWaivers)
		r.With(staff).Post("/waivers", h.handleCreateWaiver)
		r.With(admins).Delete("/waivers/{id}", h.handleDeleteWaiver)

		r.With(staff).Get("/collections", h.handleListCollections)
		r.With(staff).Post("/collections", h.handleCreateCollection)

		r.With(admins).Get("/analytics", h.handleAnalytics)
		r.With(h.gate.Require(roles.SuperAdmin)).Get("/audit-log", h.handleAuditLog)
	})
}

// recordView writes the audit entry for a privileged view. Called only after
// the data fetch succeeded, and only for the audited role; the recorder
// swallows its own failures.
func (h *FinanceHandler) recordView(r *http.Request, ic *identity.Context, action string, filters map[string]string) {
	if ic.Role != auditedRole {
		return
	}
	ctx := r.Context()
	h.recorder.Record(ctx, audit.Entry{
		UserID:    ic.UserID,
		UserRole:  ic.Role,
		UserName:  ic.Name,
		Action:    action,
		Filters:   filters,
		Client:    middleware.GetClientTag(ctx),
		RequestID: middleware.GetRequestID(ctx),
	})
}

func (h *FinanceHandler) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}

	q := r.URL.Query()
	filter := finance.ExpenseFilter{
		Month:          q.Get("month"),
		Category:       q.Get("category"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}

	expenses, err := h.finance.ListExpenses(r.Context(), filter)
	if err != nil {
		h.logInternal(r, "list expenses", err)
		shared.WriteError(w, err)
		return
	}

	filters := map[string]string{}
	if filter.Month != "" {
		filters["month"] = filter.Month
	}
	if filter.Category != "" {
		filters["category"] = filter.Category
	}
	if filter.IncludeDeleted {
		filters["include_deleted"] = "true"
	}
	h.recordView(r, ic, audit.ActionExpensesView, filters)

	shared.WriteJSON(w, http.StatusOK, expenses)
}

func (h *FinanceHandler) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var in finance.CreateExpenseInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	expense, err := h.finance.CreateExpense(r.Context(), in)
	if err != nil {
		h.logInternal(r, "create expense", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, expense)
}

type deleteRequest struct {
	Reason string `json:"reason"`
}

func (h *FinanceHandler) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := finance.Actor{UserID: ic.UserID, UserName: ic.Name}
	expense, found, err := h.finance.DeleteExpense(r.Context(), chi.URLParam(r, "id"), req.Reason, actor)
	if err != nil {
		h.logInternal(r, "delete expense", err)
		shared.WriteError(w, err)
		return
	}
	if !found {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "expense not found"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, expense)
}

func (h *FinanceHandler) handleListWaivers(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}

	q := r.URL.Query()
	filter := finance.WaiverFilter{
		StudentID:      q.Get("student_id"),
		Term:           q.Get("term"),
		IncludeDeleted: q.Get("include_deleted") == "true",
	}

	waivers, err := h.finance.ListWaivers(r.Context(), filter)
	if err != nil {
		h.logInternal(r, "list waivers", err)
		shared.WriteError(w, err)
		return
	}

	filters := map[string]string{}
	if filter.StudentID != "" {
		filters["student_id"] = filter.StudentID
	}
	if filter.Term != "" {
		filters["term"] = filter.Term
	}
	if filter.IncludeDeleted {
		filters["include_deleted"] = "true"
	}
	h.recordView(r, ic, audit.ActionWaiversView, filters)

	shared.WriteJSON(w, http.StatusOK, waivers)
}

func (h *FinanceHandler) handleCreateWaiver(w http.ResponseWriter, r *http.Request) {
	var in finance.CreateWaiverInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	waiver, err := h.finance.CreateWaiver(r.Context(), in)
	if err != nil {
		h.logInternal(r, "create waiver", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, waiver)
}

func (h *FinanceHandler) handleDeleteWaiver(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	actor := finance.Actor{UserID: ic.UserID, UserName: ic.Name}
	waiver, found, err := h.finance.DeleteWaiver(r.Context(), chi.URLParam(r, "id"), req.Reason, actor)
	if err != nil {
		h.logInternal(r, "delete waiver", err)
		shared.WriteError(w, err)
		return
	}
	if !found {
		shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "fee waiver not found"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, waiver)
}

func (h *FinanceHandler) handleListCollections(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}

	q := r.URL.Query()
	filter := finance.CollectionFilter{
		StudentID: q.Get("student_id"),
		Month:     q.Get("month"),
	}

	collections, err := h.finance.ListCollections(r.Context(), filter)
	if err != nil {
		h.logInternal(r, "list collections", err)
		shared.WriteError(w, err)
		return
	}

	filters := map[string]string{}
	if filter.StudentID != "" {
		filters["student_id"] = filter.StudentID
	}
	if filter.Month != "" {
		filters["month"] = filter.Month
	}
	h.recordView(r, ic, audit.ActionCollectionsView, filters)

	shared.WriteJSON(w, http.StatusOK, collections)
}

func (h *FinanceHandler) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var in finance.CreateCollectionInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	collection, err := h.finance.CreateCollection(r.Context(), in)
	if err != nil {
		h.logInternal(r, "create collection", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, collection)
}

func (h *FinanceHandler) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}

	summary, err := h.finance.Analytics(r.Context())
	if err != nil {
		h.logInternal(r, "finance analytics", err)
		shared.WriteError(w, err)
		return
	}

	h.recordView(r, ic, audit.ActionFinanceAnalytics, map[string]string{})
	shared.WriteJSON(w, http.StatusOK, summary)
}

func (h *FinanceHandler) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.recorder.List(r.Context(), limit)
	if err != nil {
		h.logInternal(r, "list audit log", dErrors.Wrap(err, dErrors.CodeInternal, "internal server error"))
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

func (h *FinanceHandler) logInternal(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(r.Context(), op+" failed",
		"request_id", middleware.GetRequestID(r.Context()),
		"error", err.Error(),
	)
}

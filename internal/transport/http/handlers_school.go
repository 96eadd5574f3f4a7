package httptransport

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"schoolhub/internal/identity"
	"schoolhub/internal/identity/roles"
	"schoolhub/internal/school"
	"schoolhub/internal/transport/http/shared"
	dErrors "schoolhub/pkg/domain-errors"
)

// SchoolHandler serves the student, class and notice CRUD endpoints.
type SchoolHandler struct {
	school *school.Service
	gate   *identity.Gate
	logger *slog.Logger
}

func NewSchoolHandler(svc *school.Service, gate *identity.Gate, logger *slog.Logger) *SchoolHandler {
	return &SchoolHandler{school: svc, gate: gate, logger: logger}
}

func (h *SchoolHandler) Register(r chi.Router) {
	r.Route("/students", func(r chi.Router) {
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin, roles.Teacher)).Get("/", h.handleListStudents)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin, roles.Teacher)).Get("/{id}", h.handleGetStudent)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Post("/", h.handleCreateStudent)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Put("/{id}", h.handleUpdateStudent)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Delete("/{id}", h.handleDeleteStudent)
	})
	r.Route("/classes", func(r chi.Router) {
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin, roles.Teacher)).Get("/", h.handleListClasses)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin, roles.Teacher)).Get("/{id}", h.handleGetClass)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Post("/", h.handleCreateClass)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Put("/{id}", h.handleUpdateClass)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Delete("/{id}", h.handleDeleteClass)
	})
	r.Route("/notices", func(r chi.Router) {
		r.With(h.gate.RequireResolved()).Get("/", h.handleListNotices)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Post("/", h.handleCreateNotice)
		r.With(h.gate.Require(roles.Admin, roles.SuperAdmin)).Delete("/{id}", h.handleDeleteNotice)
	})
}

func (h *SchoolHandler) handleListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.school.ListStudents(r.Context())
	if err != nil {
		h.logInternal(r, "list students", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, students)
}

func (h *SchoolHandler) handleGetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.school.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, student)
}

func (h *SchoolHandler) handleCreateStudent(w http.ResponseWriter, r *http.Request) {
	var in school.StudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	student, err := h.school.CreateStudent(r.Context(), in)
	if err != nil {
		h.logInternal(r, "create student", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, student)
}

func (h *SchoolHandler) handleUpdateStudent(w http.ResponseWriter, r *http.Request) {
	var in school.StudentInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	student, err := h.school.UpdateStudent(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.logInternal(r, "update student", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, student)
}

func (h *SchoolHandler) handleDeleteStudent(w http.ResponseWriter, r *http.Request) {
	if err := h.school.DeleteStudent(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchoolHandler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.school.ListClasses(r.Context())
	if err != nil {
		h.logInternal(r, "list classes", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, classes)
}

func (h *SchoolHandler) handleGetClass(w http.ResponseWriter, r *http.Request) {
	class, err := h.school.GetClass(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, class)
}

func (h *SchoolHandler) handleCreateClass(w http.ResponseWriter, r *http.Request) {
	var in school.ClassInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	class, err := h.school.CreateClass(r.Context(), in)
	if err != nil {
		h.logInternal(r, "create class", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, class)
}

func (h *SchoolHandler) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	var in school.ClassInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	class, err := h.school.UpdateClass(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.logInternal(r, "update class", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, class)
}

func (h *SchoolHandler) handleDeleteClass(w http.ResponseWriter, r *http.Request) {
	if err := h.school.DeleteClass(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchoolHandler) handleListNotices(w http.ResponseWriter, r *http.Request) {
	notices, err := h.school.ListNotices(r.Context())
	if err != nil {
		h.logInternal(r, "list notices", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, notices)
}

func (h *SchoolHandler) handleCreateNotice(w http.ResponseWriter, r *http.Request) {
	ic, ok := identity.FromContext(r.Context())
	if !ok {
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "internal server error"))
		return
	}
	var in school.NoticeInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	notice, err := h.school.CreateNotice(r.Context(), in, ic.UserID)
	if err != nil {
		h.logInternal(r, "create notice", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, notice)
}

func (h *SchoolHandler) handleDeleteNotice(w http.ResponseWriter, r *http.Request) {
	if err := h.school.DeleteNotice(r.Context(), chi.URLParam(r, "id")); err != nil {
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SchoolHandler) logInternal(r *http.Request, op string, err error) {
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return
	}
	h.logger.ErrorContext(r.Context(), op+" failed", "error", err.Error())
}

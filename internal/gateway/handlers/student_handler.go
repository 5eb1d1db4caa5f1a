// ============================================================================
// internal/gateway/handlers/student_handler.go
// /students endpoints
// ============================================================================

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classflow/internal/classdetail"
	"classflow/internal/gateway/util"
	"classflow/internal/shared"
	"classflow/internal/store"
)

// StudentHandler serves student CRUD.
type StudentHandler struct {
	DA    store.DataAccess
	Audit *Auditor
}

// ListStudents handles GET /students, optionally filtered by ?classId= and
// always narrowed to the caller's scope.
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.DA.GetStudents(r.Context(), r.URL.Query().Get("classId"))
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	user := util.UserFromContext(r.Context())
	classes, err := h.DA.GetClasses(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	scoped := classdetail.ScopeStudents(user, classdetail.ScopeClasses(user, classes), students)
	util.WriteJSON(w, http.StatusOK, scoped)
}

// GetStudent handles GET /students/{id}. Non-admins may only fetch students
// enrolled in one of their own classes, same rule as ScopeStudents.
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	student, err := h.DA.GetStudent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	user := util.UserFromContext(r.Context())
	if user == nil || user.Role != shared.RoleAdmin {
		// Unassigned students are visible to admins only.
		if student.ClassID == "" {
			util.WriteJSONError(w, http.StatusForbidden, "permission denied")
			return
		}
		class, err := h.DA.GetClass(r.Context(), student.ClassID)
		if err != nil {
			util.HandleStoreError(w, err)
			return
		}
		if !requireClassAccess(w, r, class) {
			return
		}
	}
	util.WriteJSON(w, http.StatusOK, student)
}

// CreateStudent handles POST /students
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTStudentRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	created, err := h.DA.CreateStudent(r.Context(), reqBody.ToRecord())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "create", "students", map[string]string{"id": created.ID, "code": created.Code})
	util.WriteJSON(w, http.StatusCreated, created)
}

// UpdateStudent handles PUT /students/{id}
func (h *StudentHandler) UpdateStudent(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTStudentRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.DA.UpdateStudent(r.Context(), id, reqBody.ToRecord())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "update", "students", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, updated)
}

// DeleteStudent handles DELETE /students/{id}
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.DA.DeleteStudent(r.Context(), id); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "delete", "students", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "student deleted"})
}

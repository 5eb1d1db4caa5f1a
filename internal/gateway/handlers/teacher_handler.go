// ============================================================================
// internal/gateway/handlers/teacher_handler.go
// /teachers endpoints
// ============================================================================

package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"classflow/internal/gateway/util"
	"classflow/internal/store"
)

// TeacherHandler serves teacher CRUD.
type TeacherHandler struct {
	DA    store.DataAccess
	Audit *Auditor
}

// ListTeachers handles GET /teachers
func (h *TeacherHandler) ListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := h.DA.GetTeachers(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, teachers)
}

// GetTeacher handles GET /teachers/{id}
func (h *TeacherHandler) GetTeacher(w http.ResponseWriter, r *http.Request) {
	teacher, err := h.DA.GetTeacher(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, teacher)
}

// CreateTeacher handles POST /teachers
func (h *TeacherHandler) CreateTeacher(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTTeacherRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	created, err := h.DA.CreateTeacher(r.Context(), reqBody.ToRecord())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "create", "teachers", map[string]string{"id": created.ID, "code": created.Code})
	util.WriteJSON(w, http.StatusCreated, created)
}

// UpdateTeacher handles PUT /teachers/{id}
func (h *TeacherHandler) UpdateTeacher(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTTeacherRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.DA.UpdateTeacher(r.Context(), id, reqBody.ToRecord())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "update", "teachers", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, updated)
}

// DeleteTeacher handles DELETE /teachers/{id}
func (h *TeacherHandler) DeleteTeacher(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.DA.DeleteTeacher(r.Context(), id); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "delete", "teachers", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "teacher deleted"})
}

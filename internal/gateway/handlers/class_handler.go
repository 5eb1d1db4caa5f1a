// ============================================================================
// internal/gateway/handlers/class_handler.go
// /classes and /sessions endpoints
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

// ClassHandler serves class CRUD, the stored schedule, and the composed
// class-detail view.
type ClassHandler struct {
	DA    store.DataAccess
	Audit *Auditor
}

// ListClasses handles GET /classes, narrowed to the caller's scope.
func (h *ClassHandler) ListClasses(w http.ResponseWriter, r *http.Request) {
	classes, err := h.DA.GetClasses(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	scoped := classdetail.ScopeClasses(util.UserFromContext(r.Context()), classes)
	util.WriteJSON(w, http.StatusOK, scoped)
}

// GetClass handles GET /classes/{id}
func (h *ClassHandler) GetClass(w http.ResponseWriter, r *http.Request) {
	class, err := h.DA.GetClass(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, class) {
		return
	}
	util.WriteJSON(w, http.StatusOK, class)
}

// CreateClass handles POST /classes
func (h *ClassHandler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTClassRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}
	record, err := reqBody.ToRecord()
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	created, err := h.DA.CreateClass(r.Context(), record)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "create", "classes", map[string]string{"id": created.ID, "code": created.Code})
	util.WriteJSON(w, http.StatusCreated, created)
}

// UpdateClass handles PUT /classes/{id}
func (h *ClassHandler) UpdateClass(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTClassRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}
	record, err := reqBody.ToRecord()
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.DA.UpdateClass(r.Context(), id, record)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "update", "classes", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, updated)
}

// DeleteClass handles DELETE /classes/{id}
func (h *ClassHandler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.DA.DeleteClass(r.Context(), id); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "delete", "classes", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "class deleted"})
}

// GetSessions handles GET /sessions/{classId}. A class with no stored
// schedule gets one generated (and persisted) from its start date and
// weekday.
func (h *ClassHandler) GetSessions(w http.ResponseWriter, r *http.Request) {
	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), chi.URLParam(r, "classId")); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	util.WriteJSON(w, http.StatusOK, o.Sessions())
}

// SaveSessions handles PUT /sessions/{classId}
func (h *ClassHandler) SaveSessions(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTSessionsSaveRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	classID := chi.URLParam(r, "classId")
	class, err := h.DA.GetClass(r.Context(), classID)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, class) {
		return
	}
	if err := h.DA.SaveSessions(r.Context(), classID, reqBody.Sessions); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "update", "sessions", map[string]string{"classId": classID})
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "sessions saved"})
}

// classDetailResponse is the composed payload for the class detail view.
type classDetailResponse struct {
	Class    *shared.ClassRecord        `json:"class"`
	Students []shared.StudentRecord     `json:"students"`
	Sessions []shared.SessionDescriptor `json:"sessions"`
}

// GetClassDetails handles GET /classes/{id}/details: the quick-render
// payload (class, roster, schedule). Stats arrive via the separate stats
// endpoint so the roster renders without waiting on aggregation.
func (h *ClassHandler) GetClassDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	class, err := h.DA.GetClass(r.Context(), id)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, class) {
		return
	}

	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), id); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, classDetailResponse{
		Class:    o.Class(),
		Students: o.Students(),
		Sessions: o.Sessions(),
	})
}

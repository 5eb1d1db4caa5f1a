// ============================================================================
// internal/gateway/handlers/cm_handler.go
// /cms endpoints: CRUD plus details, statistics, search, active
// ============================================================================

package handlers

import (
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"classflow/internal/attendance"
	"classflow/internal/classdetail"
	"classflow/internal/gateway/util"
	"classflow/internal/shared"
	"classflow/internal/store"
)

// CMHandler serves class manager CRUD and the per-CM rollup views.
type CMHandler struct {
	DA    store.DataAccess
	Audit *Auditor
}

// ListCMs handles GET /cms
func (h *CMHandler) ListCMs(w http.ResponseWriter, r *http.Request) {
	cms, err := h.DA.GetCMs(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, cms)
}

// GetCM handles GET /cms/{id}
func (h *CMHandler) GetCM(w http.ResponseWriter, r *http.Request) {
	cm, err := h.DA.GetCM(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, cm)
}

// CreateCM handles POST /cms
func (h *CMHandler) CreateCM(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTCMRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	created, err := h.DA.CreateCM(r.Context(), reqBody.ToRecord())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "create", "cms", map[string]string{"id": created.ID, "code": created.Code})
	util.WriteJSON(w, http.StatusCreated, created)
}

// UpdateCM handles PUT /cms/{id}
func (h *CMHandler) UpdateCM(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTCMRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	id := chi.URLParam(r, "id")
	updated, err := h.DA.UpdateCM(r.Context(), id, reqBody.ToRecord())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "update", "cms", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, updated)
}

// DeleteCM handles DELETE /cms/{id}
func (h *CMHandler) DeleteCM(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.DA.DeleteCM(r.Context(), id); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "delete", "cms", map[string]string{"id": id})
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "cm deleted"})
}

// cmClassSummary is one class row inside a CM details view.
type cmClassSummary struct {
	Class        shared.ClassRecord `json:"class"`
	StudentCount int                `json:"studentCount"`
}

// cmDetailsResponse composes a CM with the classes they manage.
type cmDetailsResponse struct {
	CM            *shared.CMRecord `json:"cm"`
	Classes       []cmClassSummary `json:"classes"`
	TotalStudents int              `json:"totalStudents"`
}

// GetCMDetails handles GET /cms/{id}/details
func (h *CMHandler) GetCMDetails(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	cm, err := h.DA.GetCM(r.Context(), id)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	classes, err := h.managedClasses(r, id)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	resp := cmDetailsResponse{CM: cm, Classes: []cmClassSummary{}}
	for _, class := range classes {
		students, err := h.DA.GetStudents(r.Context(), class.ID)
		if err != nil {
			log.Printf("Warning: failed to count students of class %s: %v", class.ID, err)
			students = nil
		}
		resp.Classes = append(resp.Classes, cmClassSummary{Class: class, StudentCount: len(students)})
		resp.TotalStudents += len(students)
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

// GetCMStatistics handles GET /cms/{id}/statistics: the attendance rollup
// across every class the CM manages. A class whose attendance cannot be
// loaded contributes its size and session count with zero attendance.
func (h *CMHandler) GetCMStatistics(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, err := h.DA.GetCM(r.Context(), id); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	classes, err := h.managedClasses(r, id)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	var rollup attendance.Rollup
	for _, class := range classes {
		students, err := h.DA.GetStudents(r.Context(), class.ID)
		if err != nil {
			students = nil
		}

		o := classdetail.New(h.DA)
		var stats *attendance.ClassStats
		if err := o.Open(r.Context(), class.ID); err == nil {
			stats, err = o.LoadClassStats(r.Context())
			if err != nil {
				log.Printf("Warning: stats rollup failed for class %s: %v", class.ID, err)
				stats = nil
			}
		}
		rollup.AddClass(len(students), class.TotalSessions, stats)
	}
	util.WriteJSON(w, http.StatusOK, rollup.Summary())
}

// SearchCMs handles GET /cms/search?q=
func (h *CMHandler) SearchCMs(w http.ResponseWriter, r *http.Request) {
	keyword := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q")))

	cms, err := h.DA.GetCMs(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	matched := []shared.CMRecord{}
	for _, cm := range cms {
		if keyword == "" ||
			strings.Contains(strings.ToLower(cm.Name), keyword) ||
			strings.Contains(strings.ToLower(cm.Code), keyword) ||
			strings.Contains(strings.ToLower(cm.Email), keyword) {
			matched = append(matched, cm)
		}
	}
	util.WriteJSON(w, http.StatusOK, matched)
}

// GetActiveCMs handles GET /cms/active
func (h *CMHandler) GetActiveCMs(w http.ResponseWriter, r *http.Request) {
	cms, err := h.DA.GetCMs(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	active := []shared.CMRecord{}
	for _, cm := range cms {
		if cm.Active {
			active = append(active, cm)
		}
	}
	util.WriteJSON(w, http.StatusOK, active)
}

func (h *CMHandler) managedClasses(r *http.Request, cmID string) ([]shared.ClassRecord, error) {
	classes, err := h.DA.GetClasses(r.Context())
	if err != nil {
		return nil, err
	}
	managed := make([]shared.ClassRecord, 0, len(classes))
	for _, c := range classes {
		if c.CMID == cmID {
			managed = append(managed, c)
		}
	}
	return managed, nil
}

// ============================================================================
// internal/gateway/handlers/attendance_handler.go
// /attendance and /comments endpoints, stats, CSV export
// ============================================================================

package handlers

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"

	"classflow/internal/attendance"
	"classflow/internal/classdetail"
	"classflow/internal/gateway/util"
	"classflow/internal/permissions"
	"classflow/internal/store"
)

// AttendanceHandler serves per-session attendance, comments, and the
// aggregated statistics endpoints.
type AttendanceHandler struct {
	DA    store.DataAccess
	Audit *Auditor
}

// GetAttendance handles GET /attendance/{classId}/{session}
func (h *AttendanceHandler) GetAttendance(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classId")
	session, err := strconv.Atoi(chi.URLParam(r, "session"))
	if err != nil || session < 1 {
		util.WriteJSONError(w, http.StatusBadRequest, "session must be a positive integer")
		return
	}

	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), classID); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	records, err := o.SelectSession(r.Context(), session)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, records)
}

// SaveAttendance handles POST /attendance: the full roster for one session.
// Rows submitted without a status are stored as on-time.
func (h *AttendanceHandler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTAttendanceSaveRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), reqBody.ClassID); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	saved, err := o.SaveAttendance(r.Context(), reqBody.Session, reqBody.Records)
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "save", "attendance", map[string]string{
		"classId": reqBody.ClassID,
		"session": strconv.Itoa(reqBody.Session),
	})
	util.WriteJSON(w, http.StatusOK, saved)
}

// classStatsResponse augments the raw aggregation with the derived rates the
// dashboard cards display.
type classStatsResponse struct {
	PerStudent     map[string]statusCountsView `json:"perStudent"`
	PerSession     map[int]statusCountsView    `json:"perSession"`
	Overall        statusCountsView            `json:"overall"`
	CompletedCount int                         `json:"completedSessions"`
	TotalSessions  int                         `json:"totalSessions"`
	CompletionRate float64                     `json:"completionRate"`
}

type statusCountsView struct {
	OnTime  int     `json:"onTime"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Absent  int     `json:"absent"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"`
}

// GetClassStats handles GET /attendance/class/{classId}/stats
func (h *AttendanceHandler) GetClassStats(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classId")

	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), classID); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	stats, err := o.LoadClassStats(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	class := o.Class()
	resp := classStatsResponse{
		PerStudent:     make(map[string]statusCountsView, len(stats.PerStudent)),
		PerSession:     make(map[int]statusCountsView, len(stats.PerSession)),
		Overall:        countsView(stats.Overall),
		CompletedCount: stats.CompletedSessions,
		TotalSessions:  class.TotalSessions,
		CompletionRate: stats.CompletionRate(class.TotalSessions),
	}
	for id, counts := range stats.PerStudent {
		resp.PerStudent[id] = countsView(counts)
	}
	for session, counts := range stats.PerSession {
		resp.PerSession[session] = countsView(counts)
	}
	util.WriteJSON(w, http.StatusOK, resp)
}

// GetStudentStats handles GET /attendance/student/{studentId}/class/{classId}/stats
func (h *AttendanceHandler) GetStudentStats(w http.ResponseWriter, r *http.Request) {
	classID := chi.URLParam(r, "classId")
	studentID := chi.URLParam(r, "studentId")

	if _, err := h.DA.GetStudent(r.Context(), studentID); err != nil {
		util.HandleStoreError(w, err)
		return
	}

	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), classID); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	stats, err := o.LoadClassStats(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, countsView(stats.StudentCounts(studentID)))
}

func countsView(c attendance.StatusCounts) statusCountsView {
	return statusCountsView{
		OnTime:  c.OnTime,
		Late:    c.Late,
		Excused: c.Excused,
		Absent:  c.Absent,
		Total:   c.Total(),
		Rate:    c.AttendanceRate(),
	}
}

// GetComments handles GET /comments/class/{classId}
func (h *AttendanceHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), chi.URLParam(r, "classId")); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	comments, err := o.Comments(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}
	util.WriteJSON(w, http.StatusOK, comments)
}

// SaveComments handles POST /comments
func (h *AttendanceHandler) SaveComments(w http.ResponseWriter, r *http.Request) {
	var reqBody RESTCommentsSaveRequest
	if !decodeAndValidate(w, r, &reqBody) {
		return
	}

	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), reqBody.ClassID); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	if err := o.SaveComments(r.Context(), reqBody.Comments); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	h.Audit.Log(r.Context(), "save", "comments", map[string]string{"classId": reqBody.ClassID})
	util.WriteJSON(w, http.StatusOK, map[string]string{"message": "comments saved"})
}

// ExportAttendance handles GET /attendance/class/{classId}/export: the full
// per-student tally as CSV. Export is its own permission flag, checked here
// because it has no operation dimension for the route middleware.
func (h *AttendanceHandler) ExportAttendance(w http.ResponseWriter, r *http.Request) {
	user := util.UserFromContext(r.Context())
	if user == nil || !permissions.CanExport(user.Role) {
		util.WriteJSONError(w, http.StatusForbidden, "permission denied")
		return
	}

	classID := chi.URLParam(r, "classId")
	o := classdetail.New(h.DA)
	if err := o.Open(r.Context(), classID); err != nil {
		util.HandleStoreError(w, err)
		return
	}
	if !requireClassAccess(w, r, o.Class()) {
		return
	}
	stats, err := o.LoadClassStats(r.Context())
	if err != nil {
		util.HandleStoreError(w, err)
		return
	}

	students := o.Students()
	sort.Slice(students, func(i, j int) bool { return students[i].Code < students[j].Code })

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=attendance_%s.csv", classID))

	cw := csv.NewWriter(w)
	cw.Write([]string{"code", "name", "on_time", "late", "excused", "absent", "rate"})
	for _, s := range students {
		counts := stats.StudentCounts(s.ID)
		cw.Write([]string{
			s.Code,
			s.Name,
			strconv.Itoa(counts.OnTime),
			strconv.Itoa(counts.Late),
			strconv.Itoa(counts.Excused),
			strconv.Itoa(counts.Absent),
			strconv.FormatFloat(counts.AttendanceRate(), 'f', 1, 64),
		})
	}
	cw.Flush()
	// Write errors are sticky; one check after Flush covers every row.
	if err := cw.Error(); err != nil {
		log.Printf("Error writing attendance export for class %s: %v", classID, err)
	}
}

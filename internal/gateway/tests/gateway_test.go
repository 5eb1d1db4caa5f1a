package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"classflow/internal/auth"
	"classflow/internal/gateway"
	"classflow/internal/shared"
	"classflow/internal/store"
)

type gatewayTestEnv struct {
	Router  *chi.Mux
	Backend *store.Memory
}

func setupGatewayTestEnv(t *testing.T) *gatewayTestEnv {
	t.Helper()

	backend := store.NewMemory()
	if err := store.SeedDemo(context.Background(), backend, bcrypt.MinCost); err != nil {
		t.Fatalf("SeedDemo: %v", err)
	}

	authService := auth.NewService(backend, shared.SecurityConfig{
		JWTSecret:          "gateway-test-secret",
		JWTExpirationHours: 1,
		BCryptCost:         bcrypt.MinCost,
	})

	router := gateway.SetupRoutes(store.NewCMCache(backend), authService, shared.CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	})

	return &gatewayTestEnv{Router: router, Backend: backend}
}

func (env *gatewayTestEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, _ := http.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	env.Router.ServeHTTP(rr, req)
	return rr
}

// decodeData unwraps the {success, data} envelope into dst.
func decodeData(t *testing.T, rr *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (body %s)", err, rr.Body.String())
	}
	if !envelope.Success {
		t.Fatalf("response not successful: %s", rr.Body.String())
	}
	if dst != nil {
		if err := json.Unmarshal(envelope.Data, dst); err != nil {
			t.Fatalf("decode data: %v (body %s)", err, rr.Body.String())
		}
	}
}

func (env *gatewayTestEnv) login(t *testing.T, email, password string) string {
	t.Helper()

	rr := env.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login %s: status %d, body %s", email, rr.Code, rr.Body.String())
	}
	var result struct {
		Token string `json:"token"`
	}
	decodeData(t, rr, &result)
	return result.Token
}

func TestGateway_Auth(t *testing.T) {
	env := setupGatewayTestEnv(t)

	t.Run("login succeeds for seeded admin", func(t *testing.T) {
		token := env.login(t, store.DemoAdminEmail, store.DemoAdminPassword)
		if token == "" {
			t.Fatal("empty token")
		}

		rr := env.do(t, "GET", "/api/auth/validate", token, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("validate: status %d", rr.Code)
		}
	})

	t.Run("login rejects wrong password", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/auth/login", "", map[string]string{
			"email": store.DemoAdminEmail, "password": "wrong",
		})
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("protected route rejects missing token", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/classes", "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rr.Code)
		}
	})

	t.Run("logout revokes token", func(t *testing.T) {
		token := env.login(t, store.DemoAdminEmail, store.DemoAdminPassword)
		rr := env.do(t, "POST", "/api/auth/logout", token, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("logout: status %d", rr.Code)
		}
		rr = env.do(t, "GET", "/api/classes", token, nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status = %d after logout, want 401", rr.Code)
		}
	})
}

func TestGateway_PermissionMatrix(t *testing.T) {
	env := setupGatewayTestEnv(t)

	adminToken := env.login(t, store.DemoAdminEmail, store.DemoAdminPassword)
	teacherToken := env.login(t, store.DemoTeacherEmail, store.DemoTeacherPassword)
	cmToken := env.login(t, store.DemoCMEmail, store.DemoCMPassword)

	newClass := map[string]interface{}{
		"code": "CHEM101", "name": "Hóa 10", "startDate": "2024-02-05", "weekDay": 1,
	}

	t.Run("teacher may not create classes", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/classes", teacherToken, newClass)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("cm may create classes", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/classes", cmToken, newClass)
		if rr.Code != http.StatusCreated {
			t.Errorf("status = %d, want 201. Body: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("teacher may not view teachers", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/teachers", teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("cm may view but not edit teachers", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/teachers", cmToken, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("view: status = %d, want 200", rr.Code)
		}
		rr = env.do(t, "POST", "/api/teachers", cmToken, map[string]string{"code": "GV99", "name": "X"})
		if rr.Code != http.StatusForbidden {
			t.Errorf("create: status = %d, want 403", rr.Code)
		}
	})

	t.Run("cm may not save attendance", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/attendance", cmToken, map[string]interface{}{
			"classId": "CLS_x", "session": 1, "records": []interface{}{},
		})
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("admin may delete classes", func(t *testing.T) {
		var classes []shared.ClassRecord
		rr := env.do(t, "GET", "/api/classes", adminToken, nil)
		decodeData(t, rr, &classes)
		if len(classes) == 0 {
			t.Fatal("no seeded classes")
		}
		rr = env.do(t, "DELETE", "/api/classes/"+classes[0].ID, adminToken, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200. Body: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestGateway_RowLevelScoping(t *testing.T) {
	env := setupGatewayTestEnv(t)

	adminToken := env.login(t, store.DemoAdminEmail, store.DemoAdminPassword)
	teacherToken := env.login(t, store.DemoTeacherEmail, store.DemoTeacherPassword)

	var all []shared.ClassRecord
	decodeData(t, env.do(t, "GET", "/api/classes", adminToken, nil), &all)
	if len(all) != 2 {
		t.Fatalf("admin classes = %d, want 2", len(all))
	}

	var scoped []shared.ClassRecord
	decodeData(t, env.do(t, "GET", "/api/classes", teacherToken, nil), &scoped)
	if len(scoped) != 1 || scoped[0].Code != "ENG201" {
		t.Errorf("teacher classes = %+v, want just ENG201", scoped)
	}

	// The seeded teacher owns ENG201; MATH101 belongs to another teacher.
	var foreign, own string
	for _, c := range all {
		switch c.Code {
		case "MATH101":
			foreign = c.ID
		case "ENG201":
			own = c.ID
		}
	}
	if foreign == "" || own == "" {
		t.Fatalf("seeded classes missing: %+v", all)
	}

	t.Run("foreign class detail denied", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/classes/"+foreign+"/details", teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("foreign class attendance read denied", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/attendance/"+foreign+"/1", teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("own class attendance readable", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/attendance/"+own+"/1", teacherToken, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("status = %d, want 200. Body: %s", rr.Code, rr.Body.String())
		}
	})

	t.Run("foreign class attendance write denied and not persisted", func(t *testing.T) {
		var students []shared.StudentRecord
		decodeData(t, env.do(t, "GET", "/api/students?classId="+foreign, adminToken, nil), &students)
		if len(students) == 0 {
			t.Fatal("no students in foreign class")
		}

		rr := env.do(t, "POST", "/api/attendance", teacherToken, map[string]interface{}{
			"classId": foreign, "session": 1,
			"records": []map[string]string{{"studentId": students[0].ID, "status": "late"}},
		})
		if rr.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rr.Code)
		}

		var saved []shared.AttendanceRecord
		decodeData(t, env.do(t, "GET", "/api/attendance/"+foreign+"/1", adminToken, nil), &saved)
		if len(saved) != 0 {
			t.Errorf("records persisted past the denial: %+v", saved)
		}
	})

	t.Run("foreign class stats and export denied", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/attendance/class/"+foreign+"/stats", teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("stats: status = %d, want 403", rr.Code)
		}
		rr = env.do(t, "GET", "/api/attendance/class/"+foreign+"/export", teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("export: status = %d, want 403", rr.Code)
		}
	})

	t.Run("foreign class comments denied", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/comments/class/"+foreign, teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("read: status = %d, want 403", rr.Code)
		}
		rr = env.do(t, "POST", "/api/comments", teacherToken, map[string]interface{}{
			"classId": foreign, "comments": map[string]string{"STU_x": "note"},
		})
		if rr.Code != http.StatusForbidden {
			t.Errorf("write: status = %d, want 403", rr.Code)
		}
	})

	t.Run("foreign class schedule denied", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/sessions/"+foreign, teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rr.Code)
		}
	})

	t.Run("student lookup follows class scope", func(t *testing.T) {
		var foreignRoster, ownRoster []shared.StudentRecord
		decodeData(t, env.do(t, "GET", "/api/students?classId="+foreign, adminToken, nil), &foreignRoster)
		decodeData(t, env.do(t, "GET", "/api/students?classId="+own, adminToken, nil), &ownRoster)
		if len(foreignRoster) == 0 || len(ownRoster) == 0 {
			t.Fatal("seeded rosters missing")
		}

		rr := env.do(t, "GET", "/api/students/"+foreignRoster[0].ID, teacherToken, nil)
		if rr.Code != http.StatusForbidden {
			t.Errorf("foreign student: status = %d, want 403", rr.Code)
		}
		rr = env.do(t, "GET", "/api/students/"+ownRoster[0].ID, teacherToken, nil)
		if rr.Code != http.StatusOK {
			t.Errorf("own student: status = %d, want 200. Body: %s", rr.Code, rr.Body.String())
		}
	})
}

func TestGateway_AttendanceFlow(t *testing.T) {
	env := setupGatewayTestEnv(t)

	adminToken := env.login(t, store.DemoAdminEmail, store.DemoAdminPassword)

	var classes []shared.ClassRecord
	decodeData(t, env.do(t, "GET", "/api/classes", adminToken, nil), &classes)
	var math shared.ClassRecord
	for _, c := range classes {
		if c.Code == "MATH101" {
			math = c
		}
	}

	var students []shared.StudentRecord
	decodeData(t, env.do(t, "GET", "/api/students?classId="+math.ID, adminToken, nil), &students)
	if len(students) != 3 {
		t.Fatalf("roster = %d, want 3", len(students))
	}

	t.Run("schedule generated on first load", func(t *testing.T) {
		var sessions []shared.SessionDescriptor
		decodeData(t, env.do(t, "GET", "/api/sessions/"+math.ID, adminToken, nil), &sessions)
		if len(sessions) != shared.DefaultTotalSessions {
			t.Errorf("sessions = %d, want %d", len(sessions), shared.DefaultTotalSessions)
		}
	})

	t.Run("save applies default status and round-trips", func(t *testing.T) {
		records := []map[string]string{
			{"studentId": students[0].ID, "status": "late"},
			{"studentId": students[1].ID}, // unmarked row
		}
		rr := env.do(t, "POST", "/api/attendance", adminToken, map[string]interface{}{
			"classId": math.ID, "session": 1, "records": records,
		})
		if rr.Code != http.StatusOK {
			t.Fatalf("save: status %d. Body: %s", rr.Code, rr.Body.String())
		}

		var saved []shared.AttendanceRecord
		decodeData(t, env.do(t, "GET", "/api/attendance/"+math.ID+"/1", adminToken, nil), &saved)
		if len(saved) != 2 {
			t.Fatalf("records = %d, want 2", len(saved))
		}
		if saved[1].Status != shared.DefaultStatus {
			t.Errorf("unmarked status = %q, want %q", saved[1].Status, shared.DefaultStatus)
		}
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		rr := env.do(t, "POST", "/api/attendance", adminToken, map[string]interface{}{
			"classId": math.ID, "session": 2,
			"records": []map[string]string{{"studentId": students[0].ID, "status": "present"}},
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rr.Code)
		}
	})

	t.Run("class stats reflect saved records", func(t *testing.T) {
		var stats struct {
			Overall struct {
				OnTime int     `json:"onTime"`
				Late   int     `json:"late"`
				Total  int     `json:"total"`
				Rate   float64 `json:"rate"`
			} `json:"overall"`
			CompletedSessions int `json:"completedSessions"`
		}
		decodeData(t, env.do(t, "GET", "/api/attendance/class/"+math.ID+"/stats", adminToken, nil), &stats)
		if stats.Overall.Total != 2 || stats.Overall.Late != 1 || stats.Overall.OnTime != 1 {
			t.Errorf("overall = %+v, want onTime=1 late=1 total=2", stats.Overall)
		}
		if stats.Overall.Rate != 100.0 {
			t.Errorf("rate = %v, want 100.0 (late counts toward attendance)", stats.Overall.Rate)
		}
		if stats.CompletedSessions != 1 {
			t.Errorf("completedSessions = %d, want 1", stats.CompletedSessions)
		}
	})

	t.Run("csv export", func(t *testing.T) {
		rr := env.do(t, "GET", "/api/attendance/class/"+math.ID+"/export", adminToken, nil)
		if rr.Code != http.StatusOK {
			t.Fatalf("export: status %d", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
			t.Errorf("Content-Type = %q, want text/csv", ct)
		}
	})

	t.Run("mutations audited", func(t *testing.T) {
		entries := env.Backend.AuditEntries()
		if len(entries) == 0 {
			t.Fatal("no audit entries recorded")
		}
		found := false
		for _, e := range entries {
			if e.Resource == "attendance" && e.Action == "save" && e.UserID != "" {
				found = true
			}
		}
		if !found {
			t.Error("attendance save not audited")
		}
	})
}

func TestGateway_CMViews(t *testing.T) {
	env := setupGatewayTestEnv(t)
	adminToken := env.login(t, store.DemoAdminEmail, store.DemoAdminPassword)

	var cms []shared.CMRecord
	decodeData(t, env.do(t, "GET", "/api/cms", adminToken, nil), &cms)
	if len(cms) != 2 {
		t.Fatalf("cms = %d, want 2", len(cms))
	}

	t.Run("active filter", func(t *testing.T) {
		var active []shared.CMRecord
		decodeData(t, env.do(t, "GET", "/api/cms/active", adminToken, nil), &active)
		if len(active) != 2 {
			t.Errorf("active cms = %d, want 2", len(active))
		}
	})

	t.Run("search by name", func(t *testing.T) {
		var matched []shared.CMRecord
		decodeData(t, env.do(t, "GET", "/api/cms/search?q=ho%C3%A0ng", adminToken, nil), &matched)
		if len(matched) != 1 {
			t.Errorf("matched = %d, want 1", len(matched))
		}
	})

	t.Run("details composes managed classes", func(t *testing.T) {
		var target string
		for _, cm := range cms {
			if cm.Email == store.DemoCMEmail {
				target = cm.ID
			}
		}
		var details struct {
			Classes []struct {
				Class        shared.ClassRecord `json:"class"`
				StudentCount int                `json:"studentCount"`
			} `json:"classes"`
			TotalStudents int `json:"totalStudents"`
		}
		decodeData(t, env.do(t, "GET", "/api/cms/"+target+"/details", adminToken, nil), &details)
		if len(details.Classes) != 1 || details.Classes[0].Class.Code != "ENG201" {
			t.Errorf("details classes = %+v, want ENG201", details.Classes)
		}
		if details.TotalStudents != 2 {
			t.Errorf("totalStudents = %d, want 2", details.TotalStudents)
		}
	})

	t.Run("statistics rollup", func(t *testing.T) {
		var target string
		for _, cm := range cms {
			if cm.Email == store.DemoCMEmail {
				target = cm.ID
			}
		}
		var summary struct {
			TotalClasses  int     `json:"totalClasses"`
			TotalStudents int     `json:"totalStudents"`
			TotalSessions int     `json:"totalSessions"`
			AvgClassSize  float64 `json:"averageClassSize"`
		}
		decodeData(t, env.do(t, "GET", "/api/cms/"+target+"/statistics", adminToken, nil), &summary)
		if summary.TotalClasses != 1 || summary.TotalStudents != 2 {
			t.Errorf("summary = %+v, want 1 class / 2 students", summary)
		}
		if summary.TotalSessions != shared.DefaultTotalSessions {
			t.Errorf("totalSessions = %d, want %d", summary.TotalSessions, shared.DefaultTotalSessions)
		}
	})
}

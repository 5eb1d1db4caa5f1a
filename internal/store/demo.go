// ============================================================================
// internal/store/demo.go
// Demo dataset for in-memory mode and local development
// ============================================================================

package store

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"classflow/internal/shared"
)

// Demo credentials. These exist for demo mode and the seeder only; a
// production deployment creates its own users.
const (
	DemoAdminEmail   = "admin@classflow.com"
	DemoTeacherEmail = "teacher@classflow.com"
	DemoCMEmail      = "cm@classflow.com"

	DemoAdminPassword   = "admin123"
	DemoTeacherPassword = "teacher123"
	DemoCMPassword      = "cm123"
)

// SeedDemo populates da with the demo dataset: three sign-in accounts (one
// per role), a handful of teachers, class managers, classes, and students.
// bcryptCost controls password hashing; tests pass bcrypt.MinCost.
func SeedDemo(ctx context.Context, da DataAccess, bcryptCost int) error {
	teacherA, err := da.CreateTeacher(ctx, shared.TeacherRecord{
		Code:    "GV01",
		Name:    "Nguyễn Văn A",
		Email:   "nguyenvana@classflow.com",
		Subject: "Toán",
		Active:  true,
	})
	if err != nil {
		return fmt.Errorf("seed teachers: %w", err)
	}
	teacherB, err := da.CreateTeacher(ctx, shared.TeacherRecord{
		Code:    "GV02",
		Name:    "Trần Thị B",
		Email:   DemoTeacherEmail,
		Subject: "Tiếng Anh",
		Active:  true,
	})
	if err != nil {
		return fmt.Errorf("seed teachers: %w", err)
	}

	cmE, err := da.CreateCM(ctx, shared.CMRecord{
		Code:   "CM01",
		Name:   "Hoàng Văn E",
		Email:  DemoCMEmail,
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("seed cms: %w", err)
	}
	cmB, err := da.CreateCM(ctx, shared.CMRecord{
		Code:   "CM02",
		Name:   "Lê Thị B",
		Active: true,
	})
	if err != nil {
		return fmt.Errorf("seed cms: %w", err)
	}

	math, err := da.CreateClass(ctx, shared.ClassRecord{
		Code:      "MATH101",
		Name:      "Toán 10A1",
		TeacherID: teacherA.ID,
		CMID:      cmB.ID,
		StartDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		WeekDay:   2,
		TimeSlot:  "08:00-10:00",
		Color:     "blue",
	})
	if err != nil {
		return fmt.Errorf("seed classes: %w", err)
	}
	english, err := da.CreateClass(ctx, shared.ClassRecord{
		Code:      "ENG201",
		Name:      "Tiếng Anh 11B2",
		TeacherID: teacherB.ID,
		CMID:      cmE.ID,
		StartDate: time.Date(2024, 1, 18, 0, 0, 0, 0, time.UTC),
		WeekDay:   5,
		TimeSlot:  "14:00-16:00",
		Color:     "green",
	})
	if err != nil {
		return fmt.Errorf("seed classes: %w", err)
	}

	students := []shared.StudentRecord{
		{Code: "HS001", Name: "Phạm Minh C", ClassID: math.ID},
		{Code: "HS002", Name: "Vũ Thu D", ClassID: math.ID},
		{Code: "HS003", Name: "Đỗ Quang F", ClassID: math.ID},
		{Code: "HS004", Name: "Bùi Lan G", ClassID: english.ID},
		{Code: "HS005", Name: "Ngô Đức H", ClassID: english.ID},
	}
	for _, s := range students {
		if _, err := da.CreateStudent(ctx, s); err != nil {
			return fmt.Errorf("seed students: %w", err)
		}
	}

	users := []struct {
		email, password, name, avatar string
		role                          shared.Role
		teacherID, cmID               string
	}{
		{DemoAdminEmail, DemoAdminPassword, "Admin User", "AD", shared.RoleAdmin, "", ""},
		{DemoTeacherEmail, DemoTeacherPassword, "Trần Thị B", "TB", shared.RoleTeacher, teacherB.ID, ""},
		{DemoCMEmail, DemoCMPassword, "Hoàng Văn E", "HE", shared.RoleCM, "", cmE.ID},
	}
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcryptCost)
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
		_, err = da.CreateUser(ctx, shared.User{
			Email:        u.email,
			PasswordHash: string(hash),
			Role:         u.role,
			Name:         u.name,
			Avatar:       u.avatar,
			TeacherID:    u.teacherID,
			CMID:         u.cmID,
			IsActive:     true,
		})
		if err != nil {
			return fmt.Errorf("seed users: %w", err)
		}
	}

	return nil
}

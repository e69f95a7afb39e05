package school

import (
	"context"
	"time"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/gormstore"
	"github.com/edukit/registrar/schema"
)

// Students manages enrollment records. Deleting a student trashes the
// row (soft delete); Restore and Erase work on trashed rows.
type Students struct {
	*gormstore.Repository[schema.Student]
}

// ByStudentNumber finds a student by the unique student number
func (s *Students) ByStudentNumber(ctx context.Context, number string) (*schema.Student, error) {
	return s.FindOne(ctx, registrar.Where("student_number", registrar.OpEqual, number))
}

// ByUser finds the student profile linked to a user account
func (s *Students) ByUser(ctx context.Context, userID string) (*schema.Student, error) {
	return s.FindOne(ctx, registrar.Where("user_id", registrar.OpEqual, userID))
}

// InClass lists a class roster, soft-deleted students excluded
func (s *Students) InClass(ctx context.Context, classID string) ([]*schema.Student, error) {
	return s.FindAll(ctx,
		registrar.Where("class_id", registrar.OpEqual, classID),
		registrar.OrderBy("last_name", registrar.OrderAsc))
}

// WithStatus lists students in one enrollment state
func (s *Students) WithStatus(ctx context.Context, status schema.EnrollmentStatus) ([]*schema.Student, error) {
	return s.FindAll(ctx, registrar.Where("status", registrar.OpEqual, status))
}

// Restore untrashes a soft-deleted student
func (s *Students) Restore(ctx context.Context, id string) error {
	count, err := s.UpdateMany(ctx, map[string]interface{}{"deleted_at": nil},
		registrar.Where("id", registrar.OpEqual, id),
		registrar.Unscoped())
	if err != nil {
		return err
	}
	if count == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

// Erase permanently removes a student row, trashed or not
func (s *Students) Erase(ctx context.Context, id string) error {
	count, err := s.DeleteMany(ctx,
		registrar.Where("id", registrar.OpEqual, id),
		registrar.Unscoped())
	if err != nil {
		return err
	}
	if count == 0 {
		return registrar.NewError(registrar.KindNotFound, "record not found")
	}
	return nil
}

// Attendances manages attendance records
type Attendances struct {
	*gormstore.Repository[schema.Attendance]
}

// OnDate finds a student's attendance record for one calendar date
func (a *Attendances) OnDate(ctx context.Context, studentID string, date time.Time) (*schema.Attendance, error) {
	return a.FindOne(ctx,
		registrar.Where("student_id", registrar.OpEqual, studentID),
		registrar.Where("date", registrar.OpEqual, date))
}

// ForStudent lists a student's attendance history, newest first
func (a *Attendances) ForStudent(ctx context.Context, studentID string, opts ...registrar.QueryOption) ([]*schema.Attendance, error) {
	opts = append(opts,
		registrar.Where("student_id", registrar.OpEqual, studentID),
		registrar.OrderBy("date", registrar.OrderDesc))
	return a.FindAll(ctx, opts...)
}

// CountByStatus tallies attendance outcomes over the matching records
func (a *Attendances) CountByStatus(ctx context.Context, opts ...registrar.QueryOption) (map[schema.AttendanceStatus]int64, error) {
	rows, err := a.GroupBy(ctx, []string{"status"},
		[]registrar.Aggregation{registrar.Count()}, opts...)
	if err != nil {
		return nil, err
	}

	tally := make(map[schema.AttendanceStatus]int64, len(rows))
	for _, row := range rows {
		status, _ := row["status"].(string)
		tally[schema.AttendanceStatus(status)] = toInt64(row["count"])
	}
	return tally, nil
}

// Grades manages term scores
type Grades struct {
	*gormstore.Repository[schema.Grade]
}

// RecordScore writes a grade, overwriting the score if the student
// already has one for that course and term.
func (g *Grades) RecordScore(ctx context.Context, grade *schema.Grade) error {
	return g.Upsert(ctx, grade,
		[]string{"student_id", "course_id", "semester", "year"},
		[]string{"score"})
}

// ForTerm lists a student's grades for one term
func (g *Grades) ForTerm(ctx context.Context, studentID string, semester schema.Semester, year int) ([]*schema.Grade, error) {
	return g.FindAll(ctx,
		registrar.Where("student_id", registrar.OpEqual, studentID),
		registrar.Where("semester", registrar.OpEqual, semester),
		registrar.Where("year", registrar.OpEqual, year))
}

// AverageScore computes a student's mean score across the matching grades
func (g *Grades) AverageScore(ctx context.Context, studentID string, opts ...registrar.QueryOption) (float64, error) {
	opts = append(opts, registrar.Where("student_id", registrar.OpEqual, studentID))
	row, err := g.Aggregate(ctx, []registrar.Aggregation{registrar.Avg("score")}, opts...)
	if err != nil {
		return 0, err
	}
	return toFloat64(row["avg_score"]), nil
}

// Documents manages uploaded files
type Documents struct {
	*gormstore.Repository[schema.Document]
}

// ForStudent lists a student's documents, newest upload first
func (d *Documents) ForStudent(ctx context.Context, studentID string) ([]*schema.Document, error) {
	return d.FindAll(ctx,
		registrar.Where("student_id", registrar.OpEqual, studentID),
		registrar.OrderBy("uploaded_at", registrar.OrderDesc))
}

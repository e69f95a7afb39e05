package school

import (
	"context"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/gormstore"
	"github.com/edukit/registrar/schema"
)

// Departments manages departments
type Departments struct {
	*gormstore.Repository[schema.Department]
}

// ByCode finds a department by its unique code
func (d *Departments) ByCode(ctx context.Context, code string) (*schema.Department, error) {
	return d.FindOne(ctx, registrar.Where("code", registrar.OpEqual, code))
}

// ByName finds a department by its unique name
func (d *Departments) ByName(ctx context.Context, name string) (*schema.Department, error) {
	return d.FindOne(ctx, registrar.Where("name", registrar.OpEqual, name))
}

// SetHead appoints a teacher as department head, or clears the post
// with nil. A teacher heading another department trips the unique index
// on head_id and surfaces as a duplicate error.
func (d *Departments) SetHead(ctx context.Context, departmentID string, teacherID *string) error {
	return d.UpdateFields(ctx, departmentID, map[string]interface{}{"head_id": teacherID})
}

// AddCourse places courses in the department's catalogue
func (d *Departments) AddCourse(ctx context.Context, dept *schema.Department, courses ...*schema.Course) error {
	values := make([]interface{}, len(courses))
	for i, c := range courses {
		values[i] = c
	}
	return d.Association(ctx, dept, "Courses").Append(values...)
}

// Teachers manages staff records
type Teachers struct {
	*gormstore.Repository[schema.Teacher]
}

// ByEmployeeID finds a teacher by the unique employee number
func (t *Teachers) ByEmployeeID(ctx context.Context, employeeID string) (*schema.Teacher, error) {
	return t.FindOne(ctx, registrar.Where("employee_id", registrar.OpEqual, employeeID))
}

// ByUser finds the teacher profile linked to a user account
func (t *Teachers) ByUser(ctx context.Context, userID string) (*schema.Teacher, error) {
	return t.FindOne(ctx, registrar.Where("user_id", registrar.OpEqual, userID))
}

// InDepartment lists a department's teaching staff
func (t *Teachers) InDepartment(ctx context.Context, departmentID string) ([]*schema.Teacher, error) {
	return t.FindAll(ctx,
		registrar.Where("department_id", registrar.OpEqual, departmentID),
		registrar.OrderBy("last_name", registrar.OrderAsc))
}

// Courses manages the course catalogue
type Courses struct {
	*gormstore.Repository[schema.Course]
}

// ByCode finds a course by its unique code
func (c *Courses) ByCode(ctx context.Context, code string) (*schema.Course, error) {
	return c.FindOne(ctx, registrar.Where("code", registrar.OpEqual, code))
}

// AssignTeacher links teachers to a course
func (c *Courses) AssignTeacher(ctx context.Context, course *schema.Course, teachers ...*schema.Teacher) error {
	values := make([]interface{}, len(teachers))
	for i, t := range teachers {
		values[i] = t
	}
	return c.Association(ctx, course, "Teachers").Append(values...)
}

// Classes manages class cohorts
type Classes struct {
	*gormstore.Repository[schema.Class]
}

// ByCode finds a class by its unique code
func (c *Classes) ByCode(ctx context.Context, code string) (*schema.Class, error) {
	return c.FindOne(ctx, registrar.Where("code", registrar.OpEqual, code))
}

// AtLevel lists every class at one year level
func (c *Classes) AtLevel(ctx context.Context, level schema.Level) ([]*schema.Class, error) {
	return c.FindAll(ctx,
		registrar.Where("level", registrar.OpEqual, level),
		registrar.OrderBy("name", registrar.OrderAsc))
}

// AssignTeacher links teachers to a class
func (c *Classes) AssignTeacher(ctx context.Context, class *schema.Class, teachers ...*schema.Teacher) error {
	values := make([]interface{}, len(teachers))
	for i, t := range teachers {
		values[i] = t
	}
	return c.Association(ctx, class, "Teachers").Append(values...)
}

// AddCourse places courses on the class timetable
func (c *Classes) AddCourse(ctx context.Context, class *schema.Class, courses ...*schema.Course) error {
	values := make([]interface{}, len(courses))
	for i, co := range courses {
		values[i] = co
	}
	return c.Association(ctx, class, "Courses").Append(values...)
}

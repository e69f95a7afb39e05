package schema

import (
	"time"

	"github.com/uptrace/bun"
)

// Department groups classes, students and teachers. HeadID is unique:
// one head per department, and a teacher heads at most one department.
// Heading a department is independent of membership, so a teacher may
// belong to one department while heading another.
type Department struct {
	bun.BaseModel `bun:"table:departments,alias:d" gorm:"-"`

	ID          string  `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Name        string  `gorm:"uniqueIndex;size:150;not null" bun:"name" json:"name"`
	Code        string  `gorm:"uniqueIndex;size:30;not null" bun:"code" json:"code"`
	Description *string `gorm:"size:512" bun:"description" json:"description"`
	HeadID      *string `gorm:"size:36;uniqueIndex" bun:"head_id" json:"head_id"`

	Head     *Teacher  `gorm:"foreignKey:HeadID" bun:"rel:belongs-to,join:head_id=id" json:"head,omitempty"`
	Classes  []Class   `gorm:"foreignKey:DepartmentID" bun:"rel:has-many,join:id=department_id" json:"classes,omitempty"`
	Students []Student `gorm:"foreignKey:DepartmentID" bun:"rel:has-many,join:id=department_id" json:"students,omitempty"`
	Teachers []Teacher `gorm:"foreignKey:DepartmentID" bun:"rel:has-many,join:id=department_id" json:"teachers,omitempty"`
	Courses  []Course  `gorm:"many2many:department_courses" bun:"-" json:"courses,omitempty"`
}

// Teacher is a staff record, optionally linked to a user account
type Teacher struct {
	bun.BaseModel `bun:"table:teachers,alias:t" gorm:"-"`

	ID                     string     `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	EmployeeID             string     `gorm:"uniqueIndex;size:50;not null" bun:"employee_id" json:"employee_id"`
	UserID                 *string    `gorm:"size:36;uniqueIndex" bun:"user_id" json:"user_id"`
	DepartmentID           *string    `gorm:"size:36;index" bun:"department_id" json:"department_id"`
	FirstName              string     `gorm:"size:100;not null" bun:"first_name" json:"first_name"`
	LastName               string     `gorm:"size:100;not null" bun:"last_name" json:"last_name"`
	MiddleName             *string    `gorm:"size:100" bun:"middle_name" json:"middle_name"`
	BirthDate              time.Time  `gorm:"not null" bun:"birth_date" json:"birth_date"`
	DateOfFirstAppointment *time.Time `bun:"date_of_first_appointment" json:"date_of_first_appointment"`
	Gender                 string     `gorm:"size:20;not null" bun:"gender" json:"gender"`
	MaritalStatus          string     `gorm:"size:30;not null" bun:"marital_status" json:"marital_status"`
	RgNumber               *string    `gorm:"size:50" bun:"rg_number" json:"rg_number"`
	Rank                   *string    `gorm:"size:100" bun:"rank" json:"rank"`
	AcademicQual           *string    `gorm:"size:255" bun:"academic_qual" json:"academic_qual"`
	SsnitNumber            *string    `gorm:"size:50" bun:"ssnit_number" json:"ssnit_number"`
	GhcardNumber           *string    `gorm:"size:50" bun:"ghcard_number" json:"ghcard_number"`
	Phone                  string     `gorm:"size:30;not null" bun:"phone" json:"phone"`
	LicencedNumber         *string    `gorm:"size:50" bun:"licenced_number" json:"licenced_number"`

	User       *User       `gorm:"foreignKey:UserID" bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Department *Department `gorm:"foreignKey:DepartmentID" bun:"rel:belongs-to,join:department_id=id" json:"department,omitempty"`
	// Heads is the department this teacher heads, distinct from membership.
	Heads   *Department `gorm:"foreignKey:HeadID" bun:"rel:has-one,join:id=head_id" json:"heads,omitempty"`
	Classes []Class     `gorm:"many2many:class_teachers" bun:"-" json:"classes,omitempty"`
	Courses []Course    `gorm:"many2many:course_teachers" bun:"-" json:"courses,omitempty"`
}

// Course is a subject of study
type Course struct {
	bun.BaseModel `bun:"table:courses,alias:c" gorm:"-"`

	ID          string  `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Code        string  `gorm:"uniqueIndex;size:30;not null" bun:"code" json:"code"`
	Title       string  `gorm:"uniqueIndex;size:200;not null" bun:"title" json:"title"`
	Description *string `gorm:"size:512" bun:"description" json:"description"`
	Credits     *int    `bun:"credits" json:"credits"`

	Classes     []Class      `gorm:"many2many:class_courses" bun:"-" json:"classes,omitempty"`
	Departments []Department `gorm:"many2many:department_courses" bun:"-" json:"departments,omitempty"`
	Teachers    []Teacher    `gorm:"many2many:course_teachers" bun:"-" json:"teachers,omitempty"`
	Grades      []Grade      `gorm:"foreignKey:CourseID" bun:"rel:has-many,join:id=course_id" json:"grades,omitempty"`
}

// Class is a cohort of students at one level.
//
// TeacherID is carried over from the source data as a plain column with
// no foreign key declared and no inverse relation; treat it as an
// unvalidated reference. The validated teaching assignments live in
// Teachers.
type Class struct {
	bun.BaseModel `bun:"table:classes,alias:cl" gorm:"-"`

	ID           string  `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Name         string  `gorm:"uniqueIndex;size:100;not null" bun:"name" json:"name"`
	Code         string  `gorm:"uniqueIndex;size:30;not null" bun:"code" json:"code"`
	Level        Level   `gorm:"size:20;not null" bun:"level" json:"level"`
	TeacherID    string  `gorm:"size:36" bun:"teacher_id" json:"teacher_id"`
	DepartmentID *string `gorm:"size:36;index" bun:"department_id" json:"department_id"`

	Department  *Department  `gorm:"foreignKey:DepartmentID" bun:"rel:belongs-to,join:department_id=id" json:"department,omitempty"`
	Attendances []Attendance `gorm:"foreignKey:ClassID" bun:"rel:has-many,join:id=class_id" json:"attendances,omitempty"`
	Students    []Student    `gorm:"foreignKey:ClassID" bun:"rel:has-many,join:id=class_id" json:"students,omitempty"`
	Courses     []Course     `gorm:"many2many:class_courses" bun:"-" json:"courses,omitempty"`
	Teachers    []Teacher    `gorm:"many2many:class_teachers" bun:"-" json:"teachers,omitempty"`
}

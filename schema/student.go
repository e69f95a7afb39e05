package schema

import (
	"time"

	"github.com/uptrace/bun"
	"gorm.io/gorm"
)

// Student is an enrollment record. DeletedAt makes student removal a
// soft delete: repository queries exclude trashed rows unless the
// caller asks for them with Unscoped.
type Student struct {
	bun.BaseModel `bun:"table:students,alias:st" gorm:"-"`

	ID               string           `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	FirstName        string           `gorm:"size:100;not null" bun:"first_name" json:"first_name"`
	LastName         string           `gorm:"size:100;not null" bun:"last_name" json:"last_name"`
	MiddleName       *string          `gorm:"size:100" bun:"middle_name" json:"middle_name"`
	StudentNumber    string           `gorm:"uniqueIndex;size:50;not null" bun:"student_number" json:"student_number"`
	BirthDate        time.Time        `gorm:"not null" bun:"birth_date" json:"birth_date"`
	Gender           string           `gorm:"size:20;not null" bun:"gender" json:"gender"`
	DepartmentID     *string          `gorm:"size:36;index" bun:"department_id" json:"department_id"`
	UserID           *string          `gorm:"size:36;uniqueIndex" bun:"user_id" json:"user_id"`
	ClassID          *string          `gorm:"size:36;index" bun:"class_id" json:"class_id"`
	DateEnrolled     time.Time        `gorm:"not null" bun:"date_enrolled" json:"date_enrolled"`
	GraduationDate   *time.Time       `bun:"graduation_date" json:"graduation_date"`
	CurrentLevel     Level            `gorm:"size:20;not null" bun:"current_level" json:"current_level"`
	Status           EnrollmentStatus `gorm:"size:20;not null;default:'Active'" bun:"status" json:"status"`
	Phone            *string          `gorm:"size:30" bun:"phone" json:"phone"`
	Address          *string          `gorm:"size:255" bun:"address" json:"address"`
	Nationality      *string          `gorm:"size:100" bun:"nationality" json:"nationality"`
	Religion         *string          `gorm:"size:100" bun:"religion" json:"religion"`
	GuardianName     string           `gorm:"size:150;not null" bun:"guardian_name" json:"guardian_name"`
	GuardianPhone    string           `gorm:"size:30;not null" bun:"guardian_phone" json:"guardian_phone"`
	GuardianRelation string           `gorm:"size:50;not null" bun:"guardian_relation" json:"guardian_relation"`
	GuardianEmail    *string          `gorm:"size:255" bun:"guardian_email" json:"guardian_email"`
	GuardianAddress  *string          `gorm:"size:255" bun:"guardian_address" json:"guardian_address"`
	PreviousSchool   *string          `gorm:"size:200" bun:"previous_school" json:"previous_school"`
	AdmissionDate    time.Time        `gorm:"not null" bun:"admission_date" json:"admission_date"`
	CreatedAt        time.Time        `bun:"created_at" json:"created_at"`
	UpdatedAt        time.Time        `bun:"updated_at" json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" bun:"deleted_at" json:"deleted_at,omitempty"`

	Department  *Department  `gorm:"foreignKey:DepartmentID" bun:"rel:belongs-to,join:department_id=id" json:"department,omitempty"`
	User        *User        `gorm:"foreignKey:UserID" bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
	Class       *Class       `gorm:"foreignKey:ClassID" bun:"rel:belongs-to,join:class_id=id" json:"class,omitempty"`
	Attendances []Attendance `gorm:"foreignKey:StudentID" bun:"rel:has-many,join:id=student_id" json:"attendances,omitempty"`
	Documents   []Document   `gorm:"foreignKey:StudentID" bun:"rel:has-many,join:id=student_id" json:"documents,omitempty"`
	Grades      []Grade      `gorm:"foreignKey:StudentID" bun:"rel:has-many,join:id=student_id" json:"grades,omitempty"`
}

// Attendance is one student's attendance on one date. A student gets at
// most one record per calendar date regardless of class; the wider
// per-class unique index is declared as well to mirror the source
// schema, though the narrower one subsumes it.
type Attendance struct {
	bun.BaseModel `bun:"table:attendances,alias:a" gorm:"-"`

	ID string `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	// Date must be normalized to midnight UTC by the caller; the unique
	// index compares full timestamps, not calendar dates.
	Date time.Time `gorm:"not null;uniqueIndex:uq_attendance_student_date,priority:2;uniqueIndex:uq_attendance_student_date_class,priority:2" bun:"date" json:"date"`
	Status       AttendanceStatus `gorm:"size:20;not null" bun:"status" json:"status"`
	Semester     *Semester        `gorm:"size:10" bun:"semester" json:"semester"`
	AcademicYear *string          `gorm:"size:20" bun:"academic_year" json:"academic_year"`
	StudentID    string           `gorm:"size:36;not null;uniqueIndex:uq_attendance_student_date,priority:1;uniqueIndex:uq_attendance_student_date_class,priority:1" bun:"student_id" json:"student_id"`
	ClassID      string           `gorm:"size:36;not null;uniqueIndex:uq_attendance_student_date_class,priority:3" bun:"class_id" json:"class_id"`

	Student *Student `gorm:"foreignKey:StudentID" bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
	Class   *Class   `gorm:"foreignKey:ClassID" bun:"rel:belongs-to,join:class_id=id" json:"class,omitempty"`
}

// Grade is one student's score in one course for one term: unique per
// (student, course, semester, year).
type Grade struct {
	bun.BaseModel `bun:"table:grades,alias:g" gorm:"-"`

	ID        string   `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	CourseID  *string  `gorm:"size:36;uniqueIndex:uq_grade_term,priority:2" bun:"course_id" json:"course_id"`
	StudentID *string  `gorm:"size:36;uniqueIndex:uq_grade_term,priority:1" bun:"student_id" json:"student_id"`
	Score     float64  `gorm:"not null" bun:"score" json:"score"`
	Semester  Semester `gorm:"size:10;not null;uniqueIndex:uq_grade_term,priority:3" bun:"semester" json:"semester"`
	Year      int      `gorm:"not null;uniqueIndex:uq_grade_term,priority:4" bun:"year" json:"year"`

	Course  *Course  `gorm:"foreignKey:CourseID" bun:"rel:belongs-to,join:course_id=id" json:"course,omitempty"`
	Student *Student `gorm:"foreignKey:StudentID" bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
}

// Document is an uploaded file attached to a student record
type Document struct {
	bun.BaseModel `bun:"table:documents,alias:doc" gorm:"-"`

	ID         string    `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Name       string    `gorm:"size:255;not null" bun:"name" json:"name"`
	Type       string    `gorm:"size:50;not null" bun:"type" json:"type"`
	URL        string    `gorm:"size:512;not null" bun:"url" json:"url"`
	StudentID  *string   `gorm:"size:36;index" bun:"student_id" json:"student_id"`
	UploadedAt time.Time `gorm:"autoCreateTime" bun:"uploaded_at" json:"uploaded_at"`

	Student *Student `gorm:"foreignKey:StudentID" bun:"rel:belongs-to,join:student_id=id" json:"student,omitempty"`
}

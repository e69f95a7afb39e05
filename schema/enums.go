package schema

// Level is a class/student year level
type Level string

const (
	LevelYearOne   Level = "Year_One"
	LevelYearTwo   Level = "Year_Two"
	LevelYearThree Level = "Year_Three"
)

// Valid reports whether the level is one of the known values
func (l Level) Valid() bool {
	switch l {
	case LevelYearOne, LevelYearTwo, LevelYearThree:
		return true
	}
	return false
}

// EnrollmentStatus is a student's enrollment state
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "Active"
	EnrollmentInactive  EnrollmentStatus = "Inactive"
	EnrollmentSuspended EnrollmentStatus = "Suspended"
	EnrollmentGraduated EnrollmentStatus = "Graduated"
	EnrollmentWithdrawn EnrollmentStatus = "Withdrawn"
)

// Valid reports whether the status is one of the known values
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentInactive, EnrollmentSuspended,
		EnrollmentGraduated, EnrollmentWithdrawn:
		return true
	}
	return false
}

// AttendanceStatus is the outcome of one attendance record
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "Present"
	AttendanceAbsent  AttendanceStatus = "Absent"
	AttendanceLate    AttendanceStatus = "Late"
	AttendanceExcused AttendanceStatus = "Excused"
)

// Valid reports whether the status is one of the known values
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	}
	return false
}

// Semester is an academic term
type Semester string

const (
	SemesterFirst  Semester = "First"
	SemesterSecond Semester = "Second"
)

// Valid reports whether the semester is one of the known values
func (s Semester) Valid() bool {
	return s == SemesterFirst || s == SemesterSecond
}

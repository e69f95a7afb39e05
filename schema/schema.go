// Package schema defines the relational model of the school-management
// system: twelve entities, their relations, unique indexes and enums.
// Structs carry tags for both supported adapters.
package schema

// All returns every model in dependency order, suitable for migration.
func All() []interface{} {
	return []interface{}{
		&Role{},
		&Permission{},
		&User{},
		&Session{},
		&Department{},
		&Teacher{},
		&Course{},
		&Class{},
		&Student{},
		&Attendance{},
		&Grade{},
		&Document{},
	}
}

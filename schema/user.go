package schema

import (
	"time"

	"github.com/uptrace/bun"
)

// User is an account that can sign in. A user optionally links to one
// Student or one Teacher profile. Permissions granted here directly are
// additive to whatever the user's role grants.
type User struct {
	bun.BaseModel `bun:"table:users,alias:u" gorm:"-"`

	ID                    string  `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Email                 string  `gorm:"uniqueIndex;size:255;not null" bun:"email" json:"email"`
	Username              string  `gorm:"uniqueIndex;size:100;not null" bun:"username" json:"username"`
	Password              *string `gorm:"size:255" bun:"password" json:"-"` // null when auth is external
	RoleID                *string `gorm:"size:36;index" bun:"role_id" json:"role_id"`
	ResetPasswordRequired bool    `gorm:"not null;default:false" bun:"reset_password_required" json:"reset_password_required"`
	Picture               *string `gorm:"size:512" bun:"picture" json:"picture"`

	Role        *Role        `gorm:"foreignKey:RoleID" bun:"rel:belongs-to,join:role_id=id" json:"role,omitempty"`
	Sessions    []Session    `gorm:"foreignKey:UserID" bun:"rel:has-many,join:id=user_id" json:"sessions,omitempty"`
	Student     *Student     `gorm:"foreignKey:UserID" bun:"rel:has-one,join:id=user_id" json:"student,omitempty"`
	Teacher     *Teacher     `gorm:"foreignKey:UserID" bun:"rel:has-one,join:id=user_id" json:"teacher,omitempty"`
	Permissions []Permission `gorm:"many2many:user_permissions" bun:"-" json:"permissions,omitempty"`
}

// Session is one login. Created at login, removed at logout or expiry;
// there is no renewal.
type Session struct {
	bun.BaseModel `bun:"table:sessions,alias:s" gorm:"-"`

	ID        string    `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	UserID    string    `gorm:"size:36;not null;index" bun:"user_id" json:"user_id"`
	ExpiresAt time.Time `gorm:"not null;index" bun:"expires_at" json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" bun:"rel:belongs-to,join:user_id=id" json:"user,omitempty"`
}

// Role names a bundle of permissions assignable to users
type Role struct {
	bun.BaseModel `bun:"table:roles,alias:r" gorm:"-"`

	ID   string `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Name string `gorm:"uniqueIndex;size:100;not null" bun:"name" json:"name"`

	Users       []User       `gorm:"foreignKey:RoleID" bun:"rel:has-many,join:id=role_id" json:"users,omitempty"`
	Permissions []Permission `gorm:"many2many:role_permissions" bun:"-" json:"permissions,omitempty"`
}

// Permission is a named capability, grantable through roles or directly
// to users.
type Permission struct {
	bun.BaseModel `bun:"table:permissions,alias:p" gorm:"-"`

	ID          string  `gorm:"primaryKey;size:36" bun:"id,pk" json:"id"`
	Name        string  `gorm:"uniqueIndex;size:100;not null" bun:"name" json:"name"`
	Description *string `gorm:"size:255" bun:"description" json:"description"`

	Roles []Role `gorm:"many2many:role_permissions" bun:"-" json:"roles,omitempty"`
	Users []User `gorm:"many2many:user_permissions" bun:"-" json:"users,omitempty"`
}

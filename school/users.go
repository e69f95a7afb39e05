package school

import (
	"context"
	"time"

	"github.com/edukit/registrar"
	"github.com/edukit/registrar/gormstore"
	"github.com/edukit/registrar/schema"
)

// Users manages user accounts
type Users struct {
	*gormstore.Repository[schema.User]
}

// ByEmail finds the account registered under email
func (u *Users) ByEmail(ctx context.Context, email string) (*schema.User, error) {
	return u.FindOne(ctx, registrar.Where("email", registrar.OpEqual, email))
}

// ByUsername finds the account registered under username
func (u *Users) ByUsername(ctx context.Context, username string) (*schema.User, error) {
	return u.FindOne(ctx, registrar.Where("username", registrar.OpEqual, username))
}

// WithRole lists every account holding the given role
func (u *Users) WithRole(ctx context.Context, roleID string) ([]*schema.User, error) {
	return u.FindAll(ctx, registrar.Where("role_id", registrar.OpEqual, roleID))
}

// AssignRole sets or clears (nil) the account's role
func (u *Users) AssignRole(ctx context.Context, userID string, roleID *string) error {
	return u.UpdateFields(ctx, userID, map[string]interface{}{"role_id": roleID})
}

// GrantPermission attaches direct permissions to the account, on top of
// whatever its role grants.
func (u *Users) GrantPermission(ctx context.Context, user *schema.User, perms ...*schema.Permission) error {
	values := make([]interface{}, len(perms))
	for i, p := range perms {
		values[i] = p
	}
	return u.Association(ctx, user, "Permissions").Append(values...)
}

// RevokePermission detaches direct permissions from the account
func (u *Users) RevokePermission(ctx context.Context, user *schema.User, perms ...*schema.Permission) error {
	values := make([]interface{}, len(perms))
	for i, p := range perms {
		values[i] = p
	}
	return u.Association(ctx, user, "Permissions").Remove(values...)
}

// Sessions manages login sessions
type Sessions struct {
	*gormstore.Repository[schema.Session]
}

// ForUser lists the user's sessions, newest first
func (s *Sessions) ForUser(ctx context.Context, userID string) ([]*schema.Session, error) {
	return s.FindAll(ctx,
		registrar.Where("user_id", registrar.OpEqual, userID),
		registrar.OrderBy("expires_at", registrar.OrderDesc))
}

// DeleteExpired removes every session that expired before now and
// reports how many were dropped.
func (s *Sessions) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return s.DeleteMany(ctx, registrar.Where("expires_at", registrar.OpLessThan, now))
}

// Roles manages roles
type Roles struct {
	*gormstore.Repository[schema.Role]
}

// ByName finds a role by its unique name
func (r *Roles) ByName(ctx context.Context, name string) (*schema.Role, error) {
	return r.FindOne(ctx, registrar.Where("name", registrar.OpEqual, name))
}

// GrantPermission attaches permissions to the role
func (r *Roles) GrantPermission(ctx context.Context, role *schema.Role, perms ...*schema.Permission) error {
	values := make([]interface{}, len(perms))
	for i, p := range perms {
		values[i] = p
	}
	return r.Association(ctx, role, "Permissions").Append(values...)
}

// RevokePermission detaches permissions from the role
func (r *Roles) RevokePermission(ctx context.Context, role *schema.Role, perms ...*schema.Permission) error {
	values := make([]interface{}, len(perms))
	for i, p := range perms {
		values[i] = p
	}
	return r.Association(ctx, role, "Permissions").Remove(values...)
}

// Permissions manages the permission catalogue
type Permissions struct {
	*gormstore.Repository[schema.Permission]
}

// ByName finds a permission by its unique name
func (p *Permissions) ByName(ctx context.Context, name string) (*schema.Permission, error) {
	return p.FindOne(ctx, registrar.Where("name", registrar.OpEqual, name))
}

// Ensure creates the named permission if it does not exist yet and
// returns it either way.
func (p *Permissions) Ensure(ctx context.Context, name, description string) (*schema.Permission, error) {
	perm := &schema.Permission{Name: name, Description: &description}
	if err := p.Upsert(ctx, perm, []string{"name"}, []string{"description"}); err != nil {
		return nil, err
	}
	return p.ByName(ctx, name)
}

package gormstore

import (
	"context"

	"gorm.io/gorm"

	"github.com/edukit/registrar"
)

// Association manipulates one declared relation of one entity: the
// many-to-many links (role permissions, class teachers, course
// assignments) and the has-many collections.
type Association struct {
	assoc *gorm.Association
}

// Association returns a handle on the named relation of entity
func (r *Repository[T]) Association(ctx context.Context, entity *T, relation string) *Association {
	return &Association{assoc: r.db(ctx).Model(entity).Association(relation)}
}

// Find loads the related rows into dest
func (a *Association) Find(dest interface{}) error {
	return translate(a.assoc.Find(dest))
}

// Append links the given rows without touching existing links
func (a *Association) Append(values ...interface{}) error {
	if len(values) == 0 {
		return registrar.NewError(registrar.KindValidation, "no values to append")
	}
	return translate(a.assoc.Append(values...))
}

// Replace swaps the full link set for the given rows
func (a *Association) Replace(values ...interface{}) error {
	return translate(a.assoc.Replace(values...))
}

// Remove unlinks the given rows, leaving the rows themselves intact
func (a *Association) Remove(values ...interface{}) error {
	if len(values) == 0 {
		return registrar.NewError(registrar.KindValidation, "no values to remove")
	}
	return translate(a.assoc.Delete(values...))
}

// Clear unlinks every related row
func (a *Association) Clear() error {
	return translate(a.assoc.Clear())
}

// Count returns the number of linked rows
func (a *Association) Count() int64 {
	return a.assoc.Count()
}

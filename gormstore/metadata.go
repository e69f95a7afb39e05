package gormstore

import (
	"sync"

	"gorm.io/gorm/schema"

	"github.com/edukit/registrar"
)

// EntityInfo describes how a model maps onto its table
type EntityInfo struct {
	Name       string
	Table      string
	PrimaryKey []string
	Fields     []FieldInfo
	Relations  []string
}

// FieldInfo describes one mapped column
type FieldInfo struct {
	Name       string
	Column     string
	DataType   string
	PrimaryKey bool
	Unique     bool
	Nullable   bool
	AutoCreate bool
}

var schemaCache sync.Map

// EntityInfo parses the model's schema and reports its table mapping
func (s *Store) EntityInfo(model interface{}) (*EntityInfo, error) {
	parsed, err := schema.Parse(model, &schemaCache, s.db.NamingStrategy)
	if err != nil {
		return nil, registrar.NewErrorWithCause(registrar.KindValidation,
			"failed to parse model schema", err)
	}

	info := &EntityInfo{
		Name:  parsed.Name,
		Table: parsed.Table,
	}
	for _, f := range parsed.PrimaryFields {
		info.PrimaryKey = append(info.PrimaryKey, f.DBName)
	}

	// The unique tag sets Field.Unique, but uniqueIndex only shows up in
	// the parsed indexes.
	uniqueCols := map[string]bool{}
	for _, idx := range parsed.ParseIndexes() {
		if idx.Class == "UNIQUE" && len(idx.Fields) == 1 {
			uniqueCols[idx.Fields[0].DBName] = true
		}
	}

	for _, f := range parsed.Fields {
		if f.DBName == "" {
			continue
		}
		info.Fields = append(info.Fields, FieldInfo{
			Name:       f.Name,
			Column:     f.DBName,
			DataType:   string(f.DataType),
			PrimaryKey: f.PrimaryKey,
			Unique:     f.Unique || uniqueCols[f.DBName],
			Nullable:   !f.NotNull && !f.PrimaryKey,
			AutoCreate: f.AutoCreateTime > 0,
		})
	}
	for name := range parsed.Relationships.Relations {
		info.Relations = append(info.Relations, name)
	}

	return info, nil
}

package schema

import (
	"proverka/internal/dsl"
	"proverka/internal/reference"
)

// Build превращает описания из файлов в реестр. Все проблемы всех таблиц
// собираются в один *LintError, чтобы старт падал с полным списком.
func Build(defs []*dsl.Table, catalogs map[string]reference.EnumDirectory) (*Registry, error) {
	var issues []Issue
	specs := make([]TableSpec, 0, len(defs))

	for _, d := range defs {
		spec := TableSpec{Name: d.Name, Key: d.Key, Display: d.Display}
		for _, df := range d.Fields {
			fs := FieldSpec{
				Name:      df.Name,
				JSONName:  df.JSONName,
				Required:  df.Required,
				Generated: df.Generated,
			}
			kind, err := ParseKind(df.Type)
			if err != nil {
				issues = append(issues, Issue{Table: d.Name, Field: df.Name, Code: "kind_unknown", Message: err.Error()})
			}
			fs.Kind = kind

			switch {
			case df.Catalog != "" && len(df.Enum) > 0:
				issues = append(issues, Issue{Table: d.Name, Field: df.Name, Code: "catalog_conflict",
					Message: "both catalog and inline enum values are set"})
			case df.Catalog != "":
				dir, ok := catalogs[df.Catalog]
				if !ok {
					issues = append(issues, Issue{Table: d.Name, Field: df.Name, Code: "catalog_unknown",
						Message: "enum catalog " + df.Catalog + " is not loaded"})
					break
				}
				fs.Catalog = df.Catalog
				fs.Allowed = dir.Values()
			case len(df.Enum) > 0:
				// inline enum[...] — анонимный справочник
				fs.Catalog = d.Name + "." + df.Name
				fs.Allowed = append([]uint32(nil), df.Enum...)
			}
			spec.Fields = append(spec.Fields, fs)
		}
		issues = append(issues, spec.Lint()...)
		specs = append(specs, spec)
	}
	if len(issues) > 0 {
		return nil, &LintError{Issues: issues}
	}

	tables := make([]*Table, 0, len(specs))
	for _, spec := range specs {
		t, err := NewTable(spec)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return NewRegistry(tables...)
}

package pg

import (
	"fmt"
	"sort"
	"strings"

	"proverka/internal/schema"
)

// DefaultSchema — схема БД для таблиц журнала, если не задана в конфиге.
const DefaultSchema = "journal"

var reserved = map[string]struct{}{
	"user": {}, "select": {}, "table": {}, "insert": {}, "update": {}, "delete": {},
	"where": {}, "join": {}, "group": {}, "order": {}, "limit": {}, "offset": {},
	"primary": {}, "foreign": {}, "key": {}, "constraint": {}, "default": {},
	"from": {}, "into": {}, "values": {}, "unique": {}, "index": {}, "create": {},
	"drop": {}, "alter": {}, "schema": {}, "grant": {}, "revoke": {},
}

func isReserved(s string) bool { _, ok := reserved[strings.ToLower(s)]; return ok }

// элементарная плюрализация (users, devices, ...)
func plural(s string) string {
	s = strings.ToLower(s)
	if strings.HasSuffix(s, "s") {
		return s
	}
	return s + "s"
}

func safeSchema(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return DefaultSchema
	}
	return name
}

// safeTable: имя таблицы журнала = plural(имя ресурса), keyword'ы с префиксом.
func safeTable(name string) string {
	t := plural(name)
	if isReserved(t) {
		t = "e_" + t
	}
	return t
}

func sqlIdent(s string) string {
	return `"` + strings.ReplaceAll(strings.ToLower(s), `"`, `""`) + `"`
}

// системные колонки журнала
var systemColumns = []string{"entry_id", "op", "key", "recorded_at"}

func mapType(k schema.Kind) (string, error) {
	switch k {
	case schema.KindString:
		return "text", nil
	case schema.KindUint32, schema.KindEnum:
		// u32 не влезает в integer
		return "bigint", nil
	case schema.KindByte:
		return "smallint", nil
	default:
		return "", fmt.Errorf("unknown type: %s", k)
	}
}

// dataFields — поля таблицы, которые получают свою колонку (идентификатор живёт в "key").
func dataFields(t *schema.Table) []*schema.Field {
	var out []*schema.Field
	for _, f := range t.Fields() {
		if f.Name() == t.Key() {
			continue
		}
		out = append(out, f)
	}
	return out
}

// GenerateDDL возвращает карту шаг -> SQL: схема, затем по таблице журнала на ресурс.
// Все поля nullable: update пишет только присланные поля.
func GenerateDDL(dbSchema string, tables []*schema.Table) (map[string]string, error) {
	mod := safeSchema(dbSchema)
	out := make(map[string]string, len(tables)+1)
	out["000_schema"] = fmt.Sprintf("create schema if not exists %s;", sqlIdent(mod))

	sorted := append([]*schema.Table(nil), tables...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name() < sorted[j].Name() })

	owners := make(map[string]string, len(sorted))
	for _, t := range sorted {
		tbl := safeTable(t.Name())
		// user и users дают одну таблицу журнала
		if prev, exists := owners[tbl]; exists {
			return nil, fmt.Errorf("tables %q and %q map to the same journal table %q", prev, t.Name(), tbl)
		}
		owners[tbl] = t.Name()
		cols := []string{
			`"entry_id" text primary key`,
			`"op" text not null`,
			`"key" bigint null`,
			`"recorded_at" timestamp with time zone not null`,
		}
		seen := map[string]struct{}{}
		for _, c := range systemColumns {
			seen[c] = struct{}{}
		}
		for _, f := range dataFields(t) {
			nameLower := strings.ToLower(f.Name())
			if _, exists := seen[nameLower]; exists {
				return nil, fmt.Errorf("%s: field %q duplicates a system or duplicate column", t.Name(), f.Name())
			}
			seen[nameLower] = struct{}{}

			typ, err := mapType(f.Kind())
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", t.Name(), f.Name(), err)
			}
			cols = append(cols, fmt.Sprintf("%s %s null", sqlIdent(f.Name()), typ))
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "create table if not exists %s.%s (\n  %s\n);\n",
			sqlIdent(mod), sqlIdent(tbl), strings.Join(cols, ",\n  "))
		fmt.Fprintf(&sb, "create index if not exists %s on %s.%s(%s);\n",
			sqlIdent(tbl+"_key_idx"), sqlIdent(mod), sqlIdent(tbl), sqlIdent("key"))
		out["100_"+mod+"."+tbl] = sb.String()
	}
	return out, nil
}

package pg

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"proverka/internal/journal"
	"proverka/internal/schema"
)

// Journal пишет записи журнала в таблицы, созданные GenerateDDL.
type Journal struct {
	db     *sql.DB
	schema string
}

func NewJournal(db *sql.DB, dbSchema string) *Journal {
	return &Journal{db: db, schema: safeSchema(dbSchema)}
}

var _ journal.Recorder = (*Journal)(nil)

func (j *Journal) Record(ctx context.Context, t *schema.Table, e journal.Entry) error {
	query, args := insertStatement(j.schema, t, e)
	if _, err := j.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert journal entry %s: %w", e.ID, err)
	}
	return nil
}

// insertStatement собирает insert только по присланным полям, в порядке объявления.
func insertStatement(dbSchema string, t *schema.Table, e journal.Entry) (string, []any) {
	cols := []string{`"entry_id"`, `"op"`, `"key"`, `"recorded_at"`}
	args := []any{e.ID, string(e.Op), nil, e.RecordedAt}
	if e.Key != nil {
		args[2] = int64(*e.Key)
	}
	for _, f := range dataFields(t) {
		v, ok := e.Fields[f.Name()]
		if !ok {
			continue
		}
		cols = append(cols, sqlIdent(f.Name()))
		args = append(args, sqlArg(v))
	}

	ph := make([]string, len(args))
	for i := range args {
		ph[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("insert into %s.%s (%s) values (%s)",
		sqlIdent(dbSchema), sqlIdent(safeTable(t.Name())), strings.Join(cols, ", "), strings.Join(ph, ", "))
	return query, args
}

func sqlArg(v schema.Value) any {
	switch n := v.Native().(type) {
	case uint32:
		return int64(n)
	case uint8:
		return int16(n)
	default:
		return n
	}
}

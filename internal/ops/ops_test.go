package ops

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proverka/internal/apperr"
	"proverka/internal/journal"
	"proverka/internal/schema"
)

type captureRecorder struct {
	entries []journal.Entry
	err     error
}

func (c *captureRecorder) Record(_ context.Context, _ *schema.Table, e journal.Entry) error {
	if c.err != nil {
		return c.err
	}
	c.entries = append(c.entries, e)
	return nil
}

func newTestService(rec journal.Recorder) *Service {
	return NewService(rec, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func table(t *testing.T, name, display string) *schema.Table {
	t.Helper()
	tbl, err := schema.NewTable(schema.TableSpec{
		Name:    name,
		Display: display,
		Fields: []schema.FieldSpec{
			{Name: "id", Kind: schema.KindUint32, Required: true, Generated: true},
			{Name: "name", Kind: schema.KindString, Required: true},
			{Name: "type", Kind: schema.KindEnum},
		},
	})
	require.NoError(t, err)
	return tbl
}

func TestService_Create(t *testing.T) {
	rec := &captureRecorder{}
	svc := newTestService(rec)
	user := table(t, "user", "name")

	fields := schema.Fields{"name": schema.StringValue("Alice"), "type": schema.EnumValue(2)}
	res, err := svc.Create(context.Background(), user, fields)
	require.NoError(t, err)
	assert.Equal(t, "Welcome, Alice! If this was hooked up to a database, you would be added.", res.Message)

	require.Len(t, rec.entries, 1)
	e := rec.entries[0]
	assert.Equal(t, journal.OpCreate, e.Op)
	assert.Equal(t, "user", e.Table)
	assert.Nil(t, e.Key)
	assert.Equal(t, fields, e.Fields)
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, e, res.Entry)
}

func TestService_CreateWithoutDisplay(t *testing.T) {
	svc := newTestService(&captureRecorder{})
	res, err := svc.Create(context.Background(), table(t, "access_group", ""), schema.Fields{"name": schema.StringValue("x")})
	require.NoError(t, err)
	assert.Equal(t, "Welcome, new Access Group! If this was hooked up to a database, you would be added.", res.Message)
}

func TestService_CreateDisplayWrongKind(t *testing.T) {
	rec := &captureRecorder{}
	svc := newTestService(rec)
	_, err := svc.Create(context.Background(), table(t, "user", "name"), schema.Fields{"name": schema.EnumValue(1)})
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.Empty(t, rec.entries)
}

func TestService_KeyedOps(t *testing.T) {
	user := table(t, "user", "name")
	for _, tc := range []struct {
		op   journal.Op
		call func(*Service) (Result, error)
		want string
	}{
		{journal.OpRead, func(s *Service) (Result, error) { return s.Read(context.Background(), user, 5) },
			"Welcome, User #5! If this was hooked up to a database, your information would be retrieved."},
		{journal.OpUpdate, func(s *Service) (Result, error) {
			return s.Update(context.Background(), user, 5, schema.Fields{"name": schema.StringValue("Bob")})
		}, "Welcome, User #5! If this was hooked up to a database, your information would be changed."},
		{journal.OpDelete, func(s *Service) (Result, error) { return s.Delete(context.Background(), user, 7) },
			"Goodbye, User #7. If this was hooked up to a database, your information would be deleted."},
	} {
		t.Run(string(tc.op), func(t *testing.T) {
			rec := &captureRecorder{}
			res, err := tc.call(newTestService(rec))
			require.NoError(t, err)
			assert.Equal(t, tc.want, res.Message)
			require.Len(t, rec.entries, 1)
			assert.Equal(t, tc.op, rec.entries[0].Op)
			require.NotNil(t, rec.entries[0].Key)
		})
	}
}

func TestService_RecorderFailure(t *testing.T) {
	cause := errors.New("connection reset")
	svc := newTestService(&captureRecorder{err: cause})
	_, err := svc.Delete(context.Background(), table(t, "user", ""), 1)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInternal))
	assert.ErrorIs(t, err, cause)
}

func TestService_CancelledContext(t *testing.T) {
	rec := &captureRecorder{}
	svc := newTestService(rec)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Read(ctx, table(t, "user", ""), 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.entries)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"proverka/internal/journal"
	"proverka/internal/ops"
	"proverka/internal/schema"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type memRecorder struct {
	mu      sync.Mutex
	entries []journal.Entry
	err     error
	panics  bool
}

func (r *memRecorder) Record(_ context.Context, _ *schema.Table, e journal.Entry) error {
	if r.panics {
		panic("recorder exploded")
	}
	if r.err != nil {
		return r.err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, e)
	return nil
}

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	user, err := schema.NewTable(schema.TableSpec{
		Name:    "user",
		Display: "name",
		Fields: []schema.FieldSpec{
			{Name: "id", Kind: schema.KindUint32, Required: true, Generated: true},
			{Name: "name", Kind: schema.KindString, Required: true},
			{Name: "email", Kind: schema.KindString, Required: true},
			{Name: "registered", Kind: schema.KindString},
			{Name: "type", Kind: schema.KindEnum, Required: true, Catalog: "user_type", Allowed: []uint32{0, 1, 2}},
		},
	})
	require.NoError(t, err)
	device, err := schema.NewTable(schema.TableSpec{
		Name: "device",
		Key:  "serial",
		Fields: []schema.FieldSpec{
			{Name: "serial", Kind: schema.KindUint32, Required: true},
			{Name: "slot", Kind: schema.KindByte, Required: true},
		},
	})
	require.NoError(t, err)
	reg, err := schema.NewRegistry(user, device)
	require.NoError(t, err)
	return reg
}

func newTestRouter(t *testing.T, rec journal.Recorder) *gin.Engine {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	r, err := NewRouter(&App{
		Schemas:      testRegistry(t),
		Ops:          ops.NewService(rec, log),
		Log:          log,
		DefaultTable: "user",
		BodyLimit:    256,
	})
	require.NoError(t, err)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func requireError(t *testing.T, w *httptest.ResponseRecorder, status int) string {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	out := decode(t, w)
	assert.EqualValues(t, status, out["code"])
	msg, _ := out["message"].(string)
	assert.NotEmpty(t, msg)
	return msg
}

const alice = `{"name":"Alice","email":"a@x.com","type":2}`

func TestCreate(t *testing.T) {
	for _, path := range []string{"/api", "/api/register", "/api/user", "/api/User"} {
		t.Run(path, func(t *testing.T) {
			rec := &memRecorder{}
			w := do(newTestRouter(t, rec), http.MethodPost, path, alice)
			require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
			assert.Equal(t, map[string]any{
				"message": "Welcome, Alice! If this was hooked up to a database, you would be added.",
			}, decode(t, w))

			require.Len(t, rec.entries, 1)
			e := rec.entries[0]
			assert.Equal(t, journal.OpCreate, e.Op)
			assert.Equal(t, schema.Fields{
				"name":  schema.StringValue("Alice"),
				"email": schema.StringValue("a@x.com"),
				"type":  schema.EnumValue(2),
			}, e.Fields)
		})
	}
}

func TestCreate_OtherTable(t *testing.T) {
	w := do(newTestRouter(t, &memRecorder{}), http.MethodPost, "/api/device", `{"serial":9,"slot":3}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Welcome, new Device! If this was hooked up to a database, you would be added.", decode(t, w)["message"])
}

func TestCreate_Rejected(t *testing.T) {
	for name, tc := range map[string]struct {
		body string
		want string
	}{
		"missing name":   {`{"email":"a@x.com","type":2}`, "field name is listed as required"},
		"wrong type":     {`{"name":"A","email":"e","type":"admin"}`, "field type is not formatted properly"},
		"not in catalog": {`{"name":"A","email":"e","type":7}`, "not in catalog"},
		"null":           {`{"name":null,"email":"e","type":1}`, "found null"},
		"array body":     {`[1,2]`, "malformed body"},
		"invalid json":   {`{"name":`, "Invalid Body"},
		"empty body":     {``, "Invalid Body"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := &memRecorder{}
			w := do(newTestRouter(t, rec), http.MethodPost, "/api", tc.body)
			msg := requireError(t, w, http.StatusBadRequest)
			assert.Contains(t, msg, tc.want)
			assert.Empty(t, rec.entries)
		})
	}
}

func TestBodyLimit(t *testing.T) {
	r := newTestRouter(t, &memRecorder{})
	big := `{"name":"` + strings.Repeat("a", 400) + `","email":"e","type":1}`

	w := do(r, http.MethodPost, "/api", big)
	requireError(t, w, http.StatusRequestEntityTooLarge)

	// без Content-Length лимит срабатывает при чтении
	req := httptest.NewRequest(http.MethodPost, "/api", strings.NewReader(big))
	req.ContentLength = -1
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	requireError(t, w, http.StatusRequestEntityTooLarge)
}

func TestRead(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRouter(t, rec)

	w := do(r, http.MethodGet, "/api/user/5", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Welcome, User #5! If this was hooked up to a database, your information would be retrieved.", decode(t, w)["message"])

	w = do(r, http.MethodGet, "/api/login", `{"id":5}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, decode(t, w)["message"], "User #5")

	require.Len(t, rec.entries, 2)
	for _, e := range rec.entries {
		require.NotNil(t, e.Key)
		assert.EqualValues(t, 5, *e.Key)
	}

	w = do(r, http.MethodGet, "/api/device/4294967295", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, decode(t, w)["message"], "Device #4294967295")
}

func TestRead_BadIdentifier(t *testing.T) {
	r := newTestRouter(t, &memRecorder{})
	for _, path := range []string{"/api/user/abc", "/api/user/-1", "/api/user/4294967296"} {
		requireError(t, do(r, http.MethodGet, path, ""), http.StatusBadRequest)
	}
	msg := requireError(t, do(r, http.MethodGet, "/api/login", `{"name":"x"}`), http.StatusBadRequest)
	assert.Contains(t, msg, "identifier field id is required")
}

func TestUpdate(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRouter(t, rec)

	w := do(r, http.MethodPatch, "/api/user/5", `{"name":"Bob"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Welcome, User #5! If this was hooked up to a database, your information would be changed.", decode(t, w)["message"])

	// id в теле на маршруте с :id игнорируется
	w = do(r, http.MethodPatch, "/api/user/6", `{"id":"garbage"}`)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = do(r, http.MethodPatch, "/api/update", `{"id":7,"email":"new@x.com"}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, decode(t, w)["message"], "User #7")

	require.Len(t, rec.entries, 3)
	assert.Equal(t, schema.Fields{"name": schema.StringValue("Bob")}, rec.entries[0].Fields)
	assert.Empty(t, rec.entries[1].Fields)
	assert.EqualValues(t, 7, *rec.entries[2].Key)
	assert.Equal(t, schema.Fields{"email": schema.StringValue("new@x.com")}, rec.entries[2].Fields)

	requireError(t, do(r, http.MethodPatch, "/api/user/5", `{"type":"x"}`), http.StatusBadRequest)
	requireError(t, do(r, http.MethodPatch, "/api/update", `{"email":"x"}`), http.StatusBadRequest)
}

func TestDelete(t *testing.T) {
	rec := &memRecorder{}
	r := newTestRouter(t, rec)

	w := do(r, http.MethodDelete, "/api/user/7", "")
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "Goodbye, User #7. If this was hooked up to a database, your information would be deleted.", decode(t, w)["message"])

	w = do(r, http.MethodDelete, "/api/unsubscribe", `{"id":8}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, decode(t, w)["message"], "User #8")

	require.Len(t, rec.entries, 2)
	assert.Equal(t, journal.OpDelete, rec.entries[1].Op)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	r := newTestRouter(t, &memRecorder{})

	msg := requireError(t, do(r, http.MethodPost, "/api/ghost", alice), http.StatusNotFound)
	assert.Contains(t, msg, "table ghost not found")
	requireError(t, do(r, http.MethodGet, "/api/ghost/1", ""), http.StatusNotFound)
	requireError(t, do(r, http.MethodGet, "/nowhere", ""), http.StatusNotFound)

	requireError(t, do(r, http.MethodPut, "/api/user/5", alice), http.StatusMethodNotAllowed)
	requireError(t, do(r, http.MethodGet, "/api/register", ""), http.StatusMethodNotAllowed)
}

func TestCORSPreflight(t *testing.T) {
	r := newTestRouter(t, &memRecorder{})
	req := httptest.NewRequest(http.MethodOptions, "/api/user/5", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestRecorderFailure(t *testing.T) {
	w := do(newTestRouter(t, &memRecorder{err: errors.New("disk full")}), http.MethodDelete, "/api/user/1", "")
	msg := requireError(t, w, http.StatusInternalServerError)
	assert.Equal(t, "failed to record delete of user", msg)
	assert.NotContains(t, msg, "disk full")
}

func TestPanicRecovered(t *testing.T) {
	w := do(newTestRouter(t, &memRecorder{panics: true}), http.MethodGet, "/api/user/1", "")
	assert.Equal(t, "internal server error", requireError(t, w, http.StatusInternalServerError))
}

func TestRequestID(t *testing.T) {
	w := do(newTestRouter(t, &memRecorder{}), http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, w.Header().Get("X-Request-ID"), 26)
	assert.Equal(t, map[string]any{"status": "ok", "tables": float64(2)}, decode(t, w))
}

func TestMeta(t *testing.T) {
	r := newTestRouter(t, &memRecorder{})

	w := do(r, http.MethodGet, "/api/meta", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode(t, w)
	assert.Equal(t, "user", list["default"])
	assert.Len(t, list["tables"], 2)

	w = do(r, http.MethodGet, "/api/meta/user", "")
	require.Equal(t, http.StatusOK, w.Code)
	var meta metaTable
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &meta))
	assert.Equal(t, "id", meta.Key)
	assert.Equal(t, "name", meta.Display)
	require.Len(t, meta.Fields, 5)
	assert.Equal(t, metaField{
		Name: "type", JSON: "type", Type: "enum", Required: true, Catalog: "user_type", Allowed: []uint32{0, 1, 2},
	}, meta.Fields[4])

	requireError(t, do(r, http.MethodGet, "/api/meta/ghost", ""), http.StatusNotFound)
}

func TestNewRouter_UnknownDefaultTable(t *testing.T) {
	_, err := NewRouter(&App{Schemas: testRegistry(t), DefaultTable: "admin", BodyLimit: 1})
	assert.ErrorContains(t, err, `default table "admin"`)
}

func TestNewRouter_TableShadowedByFixedRoute(t *testing.T) {
	for _, name := range []string{"register", "Meta", "login", "update", "unsubscribe"} {
		t.Run(name, func(t *testing.T) {
			user, err := schema.NewTable(schema.TableSpec{
				Name:   "user",
				Fields: []schema.FieldSpec{{Name: "id", Kind: schema.KindUint32}},
			})
			require.NoError(t, err)
			clash, err := schema.NewTable(schema.TableSpec{
				Name:   name,
				Fields: []schema.FieldSpec{{Name: "id", Kind: schema.KindUint32}},
			})
			require.NoError(t, err)
			reg, err := schema.NewRegistry(user, clash)
			require.NoError(t, err)

			_, err = NewRouter(&App{Schemas: reg, DefaultTable: "user", BodyLimit: 1})
			assert.ErrorContains(t, err, "clashes with the fixed route")
		})
	}
}

package reference

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadEnumCatalog(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "user_type.yaml", `
items:
  - {value: 0, code: guest}
  - {value: 1, code: member, name: Member}
  - {value: 2, code: admin}
`)
	writeFile(t, dir, "modes.yml", "name: device_mode\nitems:\n  - {value: 7, code: fast}\n")
	writeFile(t, dir, "notes.txt", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	cat, err := LoadEnumCatalog(dir)
	require.NoError(t, err)
	require.Len(t, cat, 2)

	ut := cat["user_type"]
	assert.Equal(t, []uint32{0, 1, 2}, ut.Values())
	it, ok := ut.Lookup(1)
	require.True(t, ok)
	assert.Equal(t, EnumItem{Value: 1, Code: "member", Name: "Member"}, it)
	_, ok = ut.Lookup(3)
	assert.False(t, ok)

	assert.Equal(t, []uint32{7}, cat["device_mode"].Values())
}

func TestLoadEnumCatalog_Errors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "items:\n  - {value: 1, code: x}\n  - {value: 1, code: y}\n")
	_, err := LoadEnumCatalog(dir)
	assert.ErrorContains(t, err, "value 1 is listed twice")

	dir = t.TempDir()
	writeFile(t, dir, "a.yaml", "name: same\nitems: []\n")
	writeFile(t, dir, "b.yaml", "name: same\nitems: []\n")
	_, err = LoadEnumCatalog(dir)
	assert.ErrorContains(t, err, `duplicate enum catalog "same"`)

	dir = t.TempDir()
	writeFile(t, dir, "a.yaml", "items: {oops")
	_, err = LoadEnumCatalog(dir)
	assert.ErrorContains(t, err, "parse")

	_, err = LoadEnumCatalog(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

package dsl

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userDSL = `
# пользователи
table user:
  id: u32 required generated key
  name: string required display
  email: string required json="e_mail"
  type: enum required catalog=user_type
  level: enum[0, 1, 2]   # inline
  flags: byte unique

table device:
  serial: u32 key
  label: string note='two words'
`

func TestParseText(t *testing.T) {
	tables, err := ParseText(strings.NewReader(userDSL))
	require.NoError(t, err)
	require.Len(t, tables, 2)

	user := tables[0]
	assert.Equal(t, "user", user.Name)
	assert.Equal(t, "id", user.Key)
	assert.Equal(t, "name", user.Display)
	require.Len(t, user.Fields, 6)

	assert.Equal(t, Field{Name: "id", Type: "u32", Required: true, Generated: true}, user.Fields[0])
	assert.Equal(t, Field{Name: "email", JSONName: "e_mail", Type: "string", Required: true}, user.Fields[2])
	assert.Equal(t, Field{Name: "type", Type: "enum", Required: true, Catalog: "user_type"}, user.Fields[3])
	assert.Equal(t, Field{Name: "level", Type: "enum", Enum: []uint32{0, 1, 2}}, user.Fields[4])
	assert.Equal(t, map[string]string{"unique": "true"}, user.Fields[5].Options)

	device := tables[1]
	assert.Equal(t, "serial", device.Key)
	assert.Empty(t, device.Display)
	assert.Equal(t, "two words", device.Fields[1].Options["note"])
}

func TestParseText_Errors(t *testing.T) {
	for name, src := range map[string]string{
		"garbage line": "table a:\n  ???\n",
		"bad enum":     "table a:\n  x: enum[1,-2]\n",
		"two keys":     "table a:\n  x: u32 key\n  y: u32 key\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(src))
			assert.ErrorContains(t, err, "line ")
		})
	}
}

func TestSplitOptionTokens(t *testing.T) {
	assert.Equal(t,
		[]string{"required", `json="full name"`, "x=[a b]"},
		splitOptionTokens(`required  json="full name"	x=[a b]`))
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFile_Formats(t *testing.T) {
	dir := t.TempDir()
	want := &Table{
		Name:    "device",
		Key:     "serial",
		Display: "label",
		Fields: []Field{
			{Name: "serial", Type: "u32", Required: true},
			{Name: "label", JSONName: "display_label", Type: "string"},
			{Name: "mode", Type: "enum", Enum: []uint32{1, 2}},
		},
	}

	files := map[string]string{
		"device.yaml": `
tables:
  - name: device
    key: serial
    display: label
    fields:
      - {name: serial, type: u32, required: true}
      - {name: label, json_name: display_label, type: string}
      - {name: mode, type: enum, enum: [1, 2]}
`,
		"device.json": `{"tables":[{"name":"device","key":"serial","display":"label","fields":[
  {"name":"serial","type":"u32","required":true},
  {"name":"label","json_name":"display_label","type":"string"},
  {"name":"mode","type":"enum","enum":[1,2]}]}]}`,
		"device.toml": `
[[tables]]
name = "device"
key = "serial"
display = "label"

[[tables.fields]]
name = "serial"
type = "u32"
required = true

[[tables.fields]]
name = "label"
json_name = "display_label"
type = "string"

[[tables.fields]]
name = "mode"
type = "enum"
enum = [1, 2]
`,
		"device.dsl": `
table device:
  serial: u32 required key
  label: string display json=display_label
  mode: enum[1,2]
`,
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			path := write(t, dir, name, content)
			tables, err := LoadFile(path)
			require.NoError(t, err)
			require.Len(t, tables, 1)
			got := *tables[0]
			assert.Equal(t, path, got.Source)
			got.Source = ""
			assert.Equal(t, *want, got)
		})
	}
}

func TestLoadFile_UnknownKeys(t *testing.T) {
	dir := t.TempDir()
	for name, content := range map[string]string{
		"a.yaml": "tables:\n  - name: a\n    colour: red\n",
		"a.json": `{"tables":[{"name":"a","colour":"red"}]}`,
		"a.toml": "[[tables]]\nname = \"a\"\ncolour = \"red\"\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := LoadFile(write(t, dir, name, content))
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(write(t, dir, "a.txt", "x"))
	assert.ErrorContains(t, err, "unsupported schema format")
}

func TestLoad_Directory(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "user.dsl", "table user:\n  id: u32\n")
	write(t, dir, "nested/device.yaml", "tables:\n  - name: device\n    fields: [{name: id, type: u32}]\n")
	write(t, dir, "README.md", "not a schema")

	tables, err := Load(dir)
	require.NoError(t, err)
	names := []string{}
	for _, tb := range tables {
		names = append(names, tb.Name)
	}
	assert.ElementsMatch(t, []string{"user", "device"}, names)

	write(t, dir, "dup.json", `{"tables":[{"name":"User","fields":[{"name":"id","type":"u32"}]}]}`)
	_, err = Load(dir)
	assert.ErrorContains(t, err, "duplicate table")
}

func TestLoad_EmptyDirectory(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.ErrorContains(t, err, "no schema files found")

	_, err = Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

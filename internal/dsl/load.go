package dsl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Supported возвращает true, если расширение файла понимает LoadFile.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dsl", ".yaml", ".yml", ".json", ".toml":
		return true
	}
	return false
}

// LoadFile читает описание таблиц; формат выбирается по расширению.
func LoadFile(path string) ([]*Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".dsl" {
		return LoadText(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc File
	switch ext {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&doc)
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&doc)
	case ".toml":
		var md toml.MetaData
		md, err = toml.Decode(string(data), &doc)
		if err == nil {
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				err = fmt.Errorf("unknown keys: %v", undecoded)
			}
		}
	default:
		return nil, fmt.Errorf("%s: unsupported schema format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	for _, t := range doc.Tables {
		if t == nil {
			return nil, fmt.Errorf("%s: empty table entry", path)
		}
		t.Source = path
	}
	return doc.Tables, nil
}

// Load читает один файл или все поддерживаемые файлы каталога (рекурсивно).
// Одинаковые имена таблиц в разных файлах — ошибка.
func Load(root string) ([]*Table, error) {
	st, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !st.IsDir() {
		tables, err := LoadFile(root)
		if err != nil {
			return nil, err
		}
		return tables, checkDuplicates(tables)
	}

	var result []*Table
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !Supported(d.Name()) {
			return nil
		}
		tables, err := LoadFile(path)
		if err != nil {
			return err
		}
		result = append(result, tables...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("no schema files found in %s", root)
	}
	return result, checkDuplicates(result)
}

func checkDuplicates(tables []*Table) error {
	seen := make(map[string]string, len(tables))
	for _, t := range tables {
		if t.Name == "" {
			return fmt.Errorf("empty table name in %s", t.Source)
		}
		k := strings.ToLower(t.Name)
		if prev, ok := seen[k]; ok {
			return fmt.Errorf("duplicate table %q (files: %s, %s)", t.Name, prev, t.Source)
		}
		seen[k] = t.Source
	}
	return nil
}

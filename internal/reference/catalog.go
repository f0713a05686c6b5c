package reference

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadEnumCatalog читает все enum-справочники (*.yaml, *.yml) из каталога dir.
func LoadEnumCatalog(dir string) (map[string]EnumDirectory, error) {
	result := make(map[string]EnumDirectory)
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(file.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var enumDir EnumDirectory
		if err := yaml.Unmarshal(data, &enumDir); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		// Имя справочника — из enumDir.Name или из имени файла
		if enumDir.Name == "" {
			enumDir.Name = strings.TrimSuffix(file.Name(), filepath.Ext(file.Name()))
		}
		if _, dup := result[enumDir.Name]; dup {
			return nil, fmt.Errorf("duplicate enum catalog %q (%s)", enumDir.Name, path)
		}
		seen := make(map[uint32]struct{}, len(enumDir.Items))
		for _, it := range enumDir.Items {
			if _, dup := seen[it.Value]; dup {
				return nil, fmt.Errorf("%s: value %d is listed twice", path, it.Value)
			}
			seen[it.Value] = struct{}{}
		}
		result[enumDir.Name] = enumDir
	}
	return result, nil
}

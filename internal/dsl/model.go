package dsl

// File — корень описания схемы в YAML/JSON/TOML.
type File struct {
	Tables []*Table `yaml:"tables" json:"tables" toml:"tables"`
}

// Table описывает таблицу (ресурс) так, как она записана в файле схемы.
type Table struct {
	Name    string  `yaml:"name" json:"name" toml:"name"`
	Key     string  `yaml:"key,omitempty" json:"key,omitempty" toml:"key,omitempty"`             // поле-идентификатор, по умолчанию id
	Display string  `yaml:"display,omitempty" json:"display,omitempty" toml:"display,omitempty"` // поле для приветствия
	Fields  []Field `yaml:"fields" json:"fields" toml:"fields"`

	Source string `yaml:"-" json:"-" toml:"-"` // файл, из которого прочитано
}

// Field описывает поле таблицы
type Field struct {
	Name      string            `yaml:"name" json:"name" toml:"name"`
	JSONName  string            `yaml:"json_name,omitempty" json:"json_name,omitempty" toml:"json_name,omitempty"`
	Type      string            `yaml:"type" json:"type" toml:"type"` // string, u32, enum, byte
	Required  bool              `yaml:"required,omitempty" json:"required,omitempty" toml:"required,omitempty"`
	Generated bool              `yaml:"generated,omitempty" json:"generated,omitempty" toml:"generated,omitempty"`
	Catalog   string            `yaml:"catalog,omitempty" json:"catalog,omitempty" toml:"catalog,omitempty"` // имя enum-справочника
	Enum      []uint32          `yaml:"enum,omitempty" json:"enum,omitempty" toml:"enum,omitempty"`          // допустимые значения inline
	Options   map[string]string `yaml:"options,omitempty" json:"options,omitempty" toml:"options,omitempty"` // прочие опции
}

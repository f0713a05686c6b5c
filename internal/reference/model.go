package reference

// EnumDirectory описывает один справочник допустимых значений enum-поля
type EnumDirectory struct {
	Name  string     `yaml:"name"`
	Items []EnumItem `yaml:"items"`
}

type EnumItem struct {
	Value uint32 `yaml:"value"` // дискриминант, который приходит в JSON
	Code  string `yaml:"code"`
	Name  string `yaml:"name,omitempty"`
}

// Values возвращает дискриминанты справочника в порядке объявления.
func (d EnumDirectory) Values() []uint32 {
	out := make([]uint32, 0, len(d.Items))
	for _, it := range d.Items {
		out = append(out, it.Value)
	}
	return out
}

// Lookup ищет элемент по дискриминанту.
func (d EnumDirectory) Lookup(v uint32) (EnumItem, bool) {
	for _, it := range d.Items {
		if it.Value == v {
			return it, true
		}
	}
	return EnumItem{}, false
}

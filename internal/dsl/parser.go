package dsl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var (
	tableRe = regexp.MustCompile(`^table\s+(\w+)\s*:$`)
	fieldRe = regexp.MustCompile(`^\s*([\w_]+):\s*([^\s#]+)(.*)$`)
	enumRe  = regexp.MustCompile(`^enum\[(.*)\]$`)
)

// parse: options tokenizer — делит "required catalog=user_type json='full name'" на токены,
// не рвёт по пробелам внутри кавычек/скобок
func splitOptionTokens(s string) []string {
	var out []string
	var buf []rune
	inSingle, inDouble := false, false
	bracketDepth := 0

	flush := func() {
		if len(buf) > 0 {
			out = append(out, string(buf))
			buf = buf[:0]
		}
	}

	for _, r := range s {
		switch r {
		case '\'':
			if !inDouble && bracketDepth == 0 {
				inSingle = !inSingle
			}
			buf = append(buf, r)
		case '"':
			if !inSingle && bracketDepth == 0 {
				inDouble = !inDouble
			}
			buf = append(buf, r)
		case '[':
			if !inSingle && !inDouble {
				bracketDepth++
			}
			buf = append(buf, r)
		case ']':
			if !inSingle && !inDouble && bracketDepth > 0 {
				bracketDepth--
			}
			buf = append(buf, r)
		default:
			// разделитель — пробел И ТОЛЬКО если мы не в кавычках и не внутри [...]
			if (r == ' ' || r == '\t') && !inSingle && !inDouble && bracketDepth == 0 {
				flush()
				continue
			}
			buf = append(buf, r)
		}
	}
	flush()
	return out
}

// LoadText читает .dsl файл со схемой таблиц.
func LoadText(path string) ([]*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	tables, err := ParseText(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for _, t := range tables {
		t.Source = path
	}
	return tables, nil
}

// ParseText разбирает текстовый формат:
//
//	table user:
//	  id: u32 required generated key
//	  name: string required display
//	  type: enum required catalog=user_type
//	  flags: byte
//	  level: enum[0,1,2]
func ParseText(r io.Reader) ([]*Table, error) {
	var tables []*Table
	var current *Table

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// table <name>:
		if m := tableRe.FindStringSubmatch(line); m != nil {
			if current != nil {
				tables = append(tables, current)
			}
			current = &Table{Name: m[1]}
			continue
		}
		if current == nil {
			// всё, что до первой таблицы, игнорируем
			continue
		}

		m := fieldRe.FindStringSubmatch(line)
		if m == nil {
			return nil, fmt.Errorf("line %d: cannot parse %q", lineNo, line)
		}
		f, flags, err := parseField(m[1], m[2], m[3])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if flags.key {
			if current.Key != "" && current.Key != f.Name {
				return nil, fmt.Errorf("line %d: table %s already has key %q", lineNo, current.Name, current.Key)
			}
			current.Key = f.Name
		}
		if flags.display {
			current.Display = f.Name
		}
		current.Fields = append(current.Fields, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if current != nil {
		tables = append(tables, current)
	}
	return tables, nil
}

type tableFlags struct {
	key, display bool
}

func parseField(name, rawType, tail string) (Field, tableFlags, error) {
	var flags tableFlags

	// склейка оборванного enum[0, 1, 2]
	if strings.HasPrefix(rawType, "enum[") && !strings.Contains(rawType, "]") {
		if idx := strings.Index(tail, "]"); idx >= 0 {
			rawType = rawType + tail[:idx+1]
			tail = tail[idx+1:]
		}
	}

	optsRaw := strings.TrimSpace(tail)
	// срезать комментарий
	if i := strings.IndexByte(optsRaw, '#'); i >= 0 {
		optsRaw = strings.TrimSpace(optsRaw[:i])
	}
	// запятые считаем разделителями
	optsRaw = strings.ReplaceAll(optsRaw, ",", " ")

	f := Field{Name: name, Type: rawType}

	if mm := enumRe.FindStringSubmatch(rawType); mm != nil {
		f.Type = "enum"
		for _, p := range strings.Split(mm[1], ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			n, err := strconv.ParseUint(p, 10, 32)
			if err != nil {
				return Field{}, flags, fmt.Errorf("field %s: bad enum value %q", name, p)
			}
			f.Enum = append(f.Enum, uint32(n))
		}
	}

	for _, tok := range splitOptionTokens(optsRaw) {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		// флаг без значения
		if !strings.Contains(tok, "=") {
			switch strings.ToLower(tok) {
			case "required":
				f.Required = true
			case "generated":
				f.Generated = true
			case "key":
				flags.key = true
			case "display":
				flags.display = true
			default:
				f.setOption(strings.ToLower(tok), "true")
			}
			continue
		}
		kv := strings.SplitN(tok, "=", 2)
		k := strings.ToLower(strings.TrimSpace(kv[0]))
		v := unquote(strings.TrimSpace(kv[1]))
		switch k {
		case "catalog":
			f.Catalog = v
		case "json":
			f.JSONName = v
		case "":
		default:
			f.setOption(k, v)
		}
	}
	return f, flags, nil
}

func (f *Field) setOption(k, v string) {
	if f.Options == nil {
		f.Options = map[string]string{}
	}
	f.Options[k] = v
}

// снять кавычки, если есть
func unquote(v string) string {
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			return v[1 : len(v)-1]
		}
	}
	return v
}

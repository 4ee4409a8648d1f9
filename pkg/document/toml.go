package document

import (
	"errors"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/better-releases/brel/pkg/brelerrors"
)

// ParseTOML 将 TOML 解码为普通值，不含表的书写形式；修改时引擎另建语法树
func ParseTOML(relPath string, data []byte) (*Document, error) {
	root := map[string]any{}
	if err := toml.Unmarshal(data, &root); err != nil {
		fileErr := &brelerrors.FileError{
			Path:    relPath,
			Kind:    brelerrors.ErrDocumentParse,
			Message: "invalid TOML",
			Cause:   err,
		}
		var de *toml.DecodeError
		if errors.As(err, &de) {
			fileErr.Line, fileErr.Column = de.Position()
		}
		return nil, fileErr
	}
	return &Document{Format: FormatTOML, Root: root}, nil
}

type tomlNode struct {
	v any
}

func (n tomlNode) Kind() Kind { return kindOf(n.v) }

func (n tomlNode) Lookup(key string) (Node, bool) {
	child, ok := lookup(n.v, key)
	if !ok {
		return nil, false
	}
	return tomlNode{v: child}, true
}

func (n tomlNode) At(i int) (Node, bool) {
	child, ok := at(n.v, i)
	if !ok {
		return nil, false
	}
	return tomlNode{v: child}, true
}

func (n tomlNode) Len() int { return length(n.v) }

func (n tomlNode) Str() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

func (n tomlNode) TypeName() string {
	switch n.v.(type) {
	case string:
		return "string"
	case bool:
		return "boolean"
	case int64:
		return "integer"
	case float64:
		return "float"
	case time.Time, toml.LocalDateTime:
		return "datetime"
	case toml.LocalDate:
		return "date"
	case toml.LocalTime:
		return "time"
	case map[string]any:
		return "table"
	case []any:
		return "array"
	default:
		return "value"
	}
}

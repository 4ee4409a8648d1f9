package document

import (
	"errors"

	"github.com/ohler55/ojg/oj"

	"github.com/better-releases/brel/pkg/brelerrors"
)

// ParseJSON 解码 JSON 文档，relPath 仅用于错误信息
func ParseJSON(relPath string, data []byte) (*Document, error) {
	root, err := oj.ParseString(string(data))
	if err != nil {
		fileErr := &brelerrors.FileError{
			Path:    relPath,
			Kind:    brelerrors.ErrDocumentParse,
			Message: "invalid JSON",
			Cause:   err,
		}
		var pe *oj.ParseError
		if errors.As(err, &pe) {
			fileErr.Line = pe.Line
			fileErr.Column = pe.Column
		}
		return nil, fileErr
	}
	return &Document{Format: FormatJSON, Root: root}, nil
}

type jsonNode struct {
	v any
}

func (n jsonNode) Kind() Kind { return kindOf(n.v) }

func (n jsonNode) Lookup(key string) (Node, bool) {
	child, ok := lookup(n.v, key)
	if !ok {
		return nil, false
	}
	return jsonNode{v: child}, true
}

func (n jsonNode) At(i int) (Node, bool) {
	child, ok := at(n.v, i)
	if !ok {
		return nil, false
	}
	return jsonNode{v: child}, true
}

func (n jsonNode) Len() int { return length(n.v) }

func (n jsonNode) Str() (string, bool) {
	s, ok := n.v.(string)
	return s, ok
}

func (n jsonNode) TypeName() string {
	switch n.v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return "number"
	}
}

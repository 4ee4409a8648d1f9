package engine

import (
	"fmt"
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
	"github.com/better-releases/brel/pkg/path"
)

// jsonEditor 直接修改解码后的 JSON 树并重新序列化整个文档，不保留原格式
type jsonEditor struct {
	relPath string
	doc     *document.Document
}

func newJSONEditor(relPath string, content []byte) (*jsonEditor, error) {
	doc, err := document.ParseJSON(relPath, content)
	if err != nil {
		return nil, err
	}
	return &jsonEditor{relPath: relPath, doc: doc}, nil
}

func (e *jsonEditor) Root() document.Node {
	return e.doc.Node()
}

func (e *jsonEditor) SetString(p path.Concrete, value string) (bool, error) {
	current, err := currentString(e.relPath, e.Root(), p)
	if err != nil {
		return false, err
	}
	if current == value {
		return false, nil
	}
	if err := setPlain(e.relPath, e.doc.Root, p, value); err != nil {
		return false, err
	}
	return true, nil
}

// Bytes 以两空格缩进、键排序输出，末尾恰好一个换行
func (e *jsonEditor) Bytes() ([]byte, error) {
	opts := oj.DefaultOptions
	opts.Indent = 2
	opts.Sort = true
	opts.HTMLUnsafe = true

	out := strings.TrimRight(oj.JSON(e.doc.Root, &opts), "\n")
	return []byte(out + "\n"), nil
}

// currentString 从普通树读取 p 处的字符串
func currentString(relPath string, root document.Node, p path.Concrete) (string, error) {
	node, ok := path.Walk(root, p)
	if !ok {
		return "", &brelerrors.InvariantError{
			Path:     relPath,
			Location: p.String(),
			Message:  "resolved path does not exist in the document",
		}
	}
	current, ok := node.Str()
	if !ok {
		return "", &path.LeafError{Location: p.String(), TypeName: node.TypeName()}
	}
	return current, nil
}

// setPlain 将 value 写入解码后的 map[string]any / []any 树
func setPlain(relPath string, root any, p path.Concrete, value string) error {
	if err := jsonPath(p).Set(root, value); err != nil {
		return &brelerrors.InvariantError{
			Path:     relPath,
			Location: p.String(),
			Message:  fmt.Sprintf("set value: %v", err),
		}
	}
	return nil
}

// jsonPath 将具体路径转为 JSONPath 表达式，如 $.packages[1].version
func jsonPath(p path.Concrete) jp.Expr {
	x := jp.R()
	for _, step := range p {
		switch s := step.(type) {
		case path.Key:
			x = x.C(string(s))
		case path.Idx:
			x = x.N(int(s))
		}
	}
	return x
}

package engine

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
	"github.com/better-releases/brel/pkg/path"
)

// tomlEditor 在普通 TOML 树上解析，通过记录字符串位置的语法树写回
// 只修改被编辑 token 的字节
type tomlEditor struct {
	relPath string
	doc     *document.Document
	src     []byte
	syntax  *tomlSyntax
	edits   []tomlEdit
}

type tomlEdit struct {
	offset int
	length int
	text   string
}

func newTOMLEditor(relPath string, content []byte) (*tomlEditor, error) {
	doc, err := document.ParseTOML(relPath, content)
	if err != nil {
		return nil, err
	}
	syntax, err := parseTOMLSyntax(content)
	if err != nil {
		return nil, &brelerrors.FileError{
			Path:    relPath,
			Kind:    brelerrors.ErrDocumentParse,
			Message: "invalid TOML",
			Cause:   err,
		}
	}
	return &tomlEditor{relPath: relPath, doc: doc, src: content, syntax: syntax}, nil
}

func (e *tomlEditor) Root() document.Node {
	return e.doc.Node()
}

func (e *tomlEditor) SetString(p path.Concrete, value string) (bool, error) {
	if _, err := currentString(e.relPath, e.Root(), p); err != nil {
		return false, err
	}

	node, err := e.syntax.walk(p)
	if err != nil {
		return false, &brelerrors.InvariantError{Path: e.relPath, Location: p.String(), Message: err.Error()}
	}
	if node.kind != tomlValue || node.valueKind != unstable.String {
		return false, &brelerrors.InvariantError{
			Path:     e.relPath,
			Location: p.String(),
			Message:  fmt.Sprintf("syntax tree holds %s where a string was resolved", node.describe()),
		}
	}
	if node.value == value {
		return false, nil
	}

	end := node.offset + node.length
	if node.length < 2 || end > len(e.src) {
		return false, &brelerrors.InvariantError{
			Path:     e.relPath,
			Location: p.String(),
			Message:  fmt.Sprintf("string token range [%d:%d] is outside the source", node.offset, end),
		}
	}

	e.edits = append(e.edits, tomlEdit{
		offset: node.offset,
		length: node.length,
		text:   encodeTOMLString(e.src[node.offset:end], value),
	})
	node.value = value

	if err := setPlain(e.relPath, e.doc.Root, p, value); err != nil {
		return false, err
	}
	return true, nil
}

// Bytes 将修改的 token 拼接回源文本，源文本缺少末尾换行时才补上
func (e *tomlEditor) Bytes() ([]byte, error) {
	edits := slices.Clone(e.edits)
	slices.SortFunc(edits, func(a, b tomlEdit) int { return a.offset - b.offset })

	var out bytes.Buffer
	out.Grow(len(e.src) + 64)
	last := 0
	for _, ed := range edits {
		if ed.offset < last {
			return nil, &brelerrors.InvariantError{
				Path:    e.relPath,
				Message: fmt.Sprintf("overlapping edits at byte %d", ed.offset),
			}
		}
		out.Write(e.src[last:ed.offset])
		out.WriteString(ed.text)
		last = ed.offset + ed.length
	}
	out.Write(e.src[last:])

	if out.Len() > 0 && !bytes.HasSuffix(out.Bytes(), []byte("\n")) {
		out.WriteByte('\n')
	}
	return out.Bytes(), nil
}

// encodeTOMLString 将 value 编码为 TOML 字符串 token
// 单行字面量字符串在可表示时保持字面量形式
func encodeTOMLString(original []byte, value string) string {
	if original[0] == '\'' && !bytes.HasPrefix(original, []byte("'''")) && literalSafe(value) {
		return "'" + value + "'"
	}
	return basicString(value)
}

func literalSafe(s string) bool {
	for _, r := range s {
		if r == '\'' || r == 0x7f || (r < 0x20 && r != '\t') {
			return false
		}
	}
	return true
}

func basicString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\b':
			b.WriteString(`\b`)
		case '\t':
			b.WriteString(`\t`)
		case '\n':
			b.WriteString(`\n`)
		case '\f':
			b.WriteString(`\f`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if r < 0x20 || r == 0x7f {
				fmt.Fprintf(&b, `\u%04X`, r)
				continue
			}
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

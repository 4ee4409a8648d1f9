package engine

import (
	"fmt"

	"github.com/pelletier/go-toml/v2/unstable"

	"github.com/better-releases/brel/pkg/path"
)

type tomlKind int

const (
	tomlTable         tomlKind = iota // 根、[header] 或点号键隐含的表
	tomlInlineTable                   // { ... }
	tomlArray                         // [ ... ]
	tomlArrayOfTables                 // [[header]]
	tomlValue
)

// tomlSyntax 是 TOML 语法树节点，只有字符串值记录源位置
type tomlSyntax struct {
	kind    tomlKind
	entries map[string]*tomlSyntax
	elems   []*tomlSyntax

	valueKind unstable.Kind
	value     string
	offset    int
	length    int
}

func newTOMLTable(kind tomlKind) *tomlSyntax {
	return &tomlSyntax{kind: kind, entries: map[string]*tomlSyntax{}}
}

func (n *tomlSyntax) describe() string {
	switch n.kind {
	case tomlTable:
		return "a table"
	case tomlInlineTable:
		return "an inline table"
	case tomlArray:
		return "an array"
	case tomlArrayOfTables:
		return "an array of tables"
	default:
		return "a " + n.valueKind.String() + " value"
	}
}

// parseTOMLSyntax 由解析器的表达式流构建语法树
// 源文本应已通过普通解码校验
func parseTOMLSyntax(src []byte) (*tomlSyntax, error) {
	root := newTOMLTable(tomlTable)
	current := root

	var p unstable.Parser
	p.Reset(src)
	for p.NextExpression() {
		expr := p.Expression()
		switch expr.Kind {
		case unstable.KeyValue:
			if err := assignKeyValue(current, expr); err != nil {
				return nil, err
			}
		case unstable.Table:
			table, err := openTable(root, keyParts(expr.Key()))
			if err != nil {
				return nil, err
			}
			current = table
		case unstable.ArrayTable:
			table, err := appendArrayTable(root, keyParts(expr.Key()))
			if err != nil {
				return nil, err
			}
			current = table
		}
	}
	if err := p.Error(); err != nil {
		return nil, err
	}
	return root, nil
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// descend 返回 key 对应的表，必要时创建隐式表；表数组取最后一个元素
func (n *tomlSyntax) descend(key string) (*tomlSyntax, error) {
	child, ok := n.entries[key]
	if !ok {
		child = newTOMLTable(tomlTable)
		n.entries[key] = child
		return child, nil
	}
	switch child.kind {
	case tomlTable, tomlInlineTable:
		return child, nil
	case tomlArrayOfTables:
		if len(child.elems) == 0 {
			return nil, fmt.Errorf("array of tables `%s` is empty", key)
		}
		return child.elems[len(child.elems)-1], nil
	default:
		return nil, fmt.Errorf("key `%s` is %s, not a table", key, child.describe())
	}
}

func descendAll(n *tomlSyntax, keys []string) (*tomlSyntax, error) {
	var err error
	for _, key := range keys {
		if n, err = n.descend(key); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func openTable(root *tomlSyntax, keys []string) (*tomlSyntax, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("table header without a key")
	}
	parent, err := descendAll(root, keys[:len(keys)-1])
	if err != nil {
		return nil, err
	}
	last := keys[len(keys)-1]
	existing, ok := parent.entries[last]
	if !ok {
		table := newTOMLTable(tomlTable)
		parent.entries[last] = table
		return table, nil
	}
	if existing.kind != tomlTable {
		return nil, fmt.Errorf("table `%s` redefines %s", last, existing.describe())
	}
	return existing, nil
}

func appendArrayTable(root *tomlSyntax, keys []string) (*tomlSyntax, error) {
	if len(keys) == 0 {
		return nil, fmt.Errorf("array table header without a key")
	}
	parent, err := descendAll(root, keys[:len(keys)-1])
	if err != nil {
		return nil, err
	}
	last := keys[len(keys)-1]
	array, ok := parent.entries[last]
	if !ok {
		array = &tomlSyntax{kind: tomlArrayOfTables}
		parent.entries[last] = array
	}
	if array.kind != tomlArrayOfTables {
		return nil, fmt.Errorf("array table `%s` redefines %s", last, array.describe())
	}
	table := newTOMLTable(tomlTable)
	array.elems = append(array.elems, table)
	return table, nil
}

// assignKeyValue 将键值表达式（含点号键）加入 table
func assignKeyValue(table *tomlSyntax, kv *unstable.Node) error {
	keys := keyParts(kv.Key())
	if len(keys) == 0 {
		return fmt.Errorf("key/value without a key")
	}
	parent, err := descendAll(table, keys[:len(keys)-1])
	if err != nil {
		return err
	}
	last := keys[len(keys)-1]
	if _, exists := parent.entries[last]; exists {
		return fmt.Errorf("key `%s` is defined twice", last)
	}
	value, err := buildValue(kv.Value())
	if err != nil {
		return err
	}
	parent.entries[last] = value
	return nil
}

func buildValue(v *unstable.Node) (*tomlSyntax, error) {
	switch v.Kind {
	case unstable.String:
		return &tomlSyntax{
			kind:      tomlValue,
			valueKind: unstable.String,
			value:     string(v.Data),
			offset:    int(v.Raw.Offset),
			length:    int(v.Raw.Length),
		}, nil

	case unstable.Array:
		array := &tomlSyntax{kind: tomlArray}
		it := v.Children()
		for it.Next() {
			elem, err := buildValue(it.Node())
			if err != nil {
				return nil, err
			}
			array.elems = append(array.elems, elem)
		}
		return array, nil

	case unstable.InlineTable:
		table := newTOMLTable(tomlInlineTable)
		it := v.Children()
		for it.Next() {
			if err := assignKeyValue(table, it.Node()); err != nil {
				return nil, err
			}
		}
		return table, nil

	default:
		return &tomlSyntax{kind: tomlValue, valueKind: v.Kind}, nil
	}
}

// walk 沿 p 遍历语法树，与普通树上的 path.Walk 对应，不一致时返回错误
func (n *tomlSyntax) walk(p path.Concrete) (*tomlSyntax, error) {
	node := n
	for i, step := range p {
		switch s := step.(type) {
		case path.Key:
			if node.kind != tomlTable && node.kind != tomlInlineTable {
				return nil, fmt.Errorf("expected a table at `%s`, syntax tree has %s", p[:i], node.describe())
			}
			child, ok := node.entries[string(s)]
			if !ok {
				return nil, fmt.Errorf("key `%s` is missing from the syntax tree", p[:i+1])
			}
			node = child
		case path.Idx:
			if node.kind != tomlArray && node.kind != tomlArrayOfTables {
				return nil, fmt.Errorf("expected an array at `%s`, syntax tree has %s", p[:i], node.describe())
			}
			if int(s) < 0 || int(s) >= len(node.elems) {
				return nil, fmt.Errorf("index %d is out of range in the syntax tree at `%s`", int(s), p[:i])
			}
			node = node.elems[s]
		}
	}
	return node, nil
}

// Package document 为路径解析提供 JSON 和 TOML 文档的只读视图
//
// 两种格式都解码为 map[string]any、[]any 和标量；
// 各自的适配器让错误信息中的类型名使用该格式的术语
package document

// Kind 节点的结构类型
type Kind int

const (
	KindScalar Kind = iota
	KindSequence
	KindMapping
)

func (k Kind) String() string {
	switch k {
	case KindSequence:
		return "sequence"
	case KindMapping:
		return "mapping"
	default:
		return "scalar"
	}
}

// Node 文档中一个值的只读视图
//
// Lookup 和 At 在不存在或类型不符时返回 false；需要区分时先检查 Kind
type Node interface {
	Kind() Kind
	// Lookup 映射节点下 key 对应的子节点
	Lookup(key string) (Node, bool)
	// At 序列节点的第 i 个元素
	At(i int) (Node, bool)
	// Len 元素或条目数，标量为 0
	Len() int
	// Str 字符串标量的值
	Str() (string, bool)
	// TypeName 以文档格式的术语表示类型名
	TypeName() string
}

// Document 表示解析后的文件
type Document struct {
	Format Format
	// 解码后的值树，编辑器直接修改
	Root any
}

// Node 返回根节点视图
func (d *Document) Node() Node {
	if d.Format == FormatTOML {
		return tomlNode{v: d.Root}
	}
	return jsonNode{v: d.Root}
}

func lookup(v any, key string) (any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	child, ok := m[key]
	return child, ok
}

func at(v any, i int) (any, bool) {
	s, ok := v.([]any)
	if !ok || i < 0 || i >= len(s) {
		return nil, false
	}
	return s[i], true
}

func kindOf(v any) Kind {
	switch v.(type) {
	case map[string]any:
		return KindMapping
	case []any:
		return KindSequence
	default:
		return KindScalar
	}
}

func length(v any) int {
	switch tv := v.(type) {
	case map[string]any:
		return len(tv)
	case []any:
		return len(tv)
	default:
		return 0
	}
}

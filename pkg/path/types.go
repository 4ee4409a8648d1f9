package path

import (
	"strconv"
	"strings"
)

// Selector 表示解析后的选择器，如 "package[name=brel].version"
// 至少包含一个片段
type Selector struct {
	Segments []Segment
}

// String 输出规范形式
func (s *Selector) String() string {
	var b strings.Builder
	for i, seg := range s.Segments {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg.String())
	}
	return b.String()
}

// Segment 表示以 . 分隔的一个片段：键加可选限定符
type Segment struct {
	Key       string
	Qualifier Qualifier // 没有 [...] 时为 nil
}

func (s Segment) String() string {
	if s.Qualifier == nil {
		return s.Key
	}
	return s.Key + "[" + s.Qualifier.String() + "]"
}

// Qualifier 是片段中方括号部分，只能是 Index 或 Filter
type Qualifier interface {
	isQualifier()
	String() string
}

// Index 选取单个数组元素，如 packages[1]
type Index struct {
	N int
}

func (Index) isQualifier() {}

func (q Index) String() string { return strconv.Itoa(q.N) }

// Filter 选取 Field 等于 Value 的所有数组元素，如 package[name=brel]
type Filter struct {
	Field string
	Value string
}

func (Filter) isQualifier() {}

func (q Filter) String() string { return q.Field + "=" + q.Value }

// Step 是具体路径的一步，只能是 Key 或 Idx
type Step interface {
	isStep()
}

// Key 进入映射
type Key string

func (Key) isStep() {}

// Idx 进入序列
type Idx int

func (Idx) isStep() {}

// Concrete 在具体文档中唯一定位一个值
type Concrete []Step

// String 输出如 "packages[1].version"
func (p Concrete) String() string {
	var b strings.Builder
	for _, step := range p {
		switch s := step.(type) {
		case Key:
			if b.Len() > 0 {
				b.WriteByte('.')
			}
			b.WriteString(string(s))
		case Idx:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(int(s)))
			b.WriteByte(']')
		}
	}
	return b.String()
}

// Extend 返回追加 steps 后的副本，不修改 p
func (p Concrete) Extend(steps ...Step) Concrete {
	out := make(Concrete, 0, len(p)+len(steps))
	out = append(out, p...)
	return append(out, steps...)
}

// Compare 逐步比较具体路径：键按字符串、索引按数值比较，
// 同一层级键排在索引之前，前缀路径排在更长路径之前
func Compare(a, b Concrete) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareStep(a[i], b[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

func compareStep(a, b Step) int {
	switch x := a.(type) {
	case Key:
		y, ok := b.(Key)
		if !ok {
			return -1
		}
		return strings.Compare(string(x), string(y))
	case Idx:
		y, ok := b.(Idx)
		if !ok {
			return 1
		}
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

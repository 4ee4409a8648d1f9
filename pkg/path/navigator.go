package path

import (
	"fmt"
	"slices"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
)

// TypeError 表示限定符与文档结构不符，如对对象使用索引
type TypeError struct {
	Segment string
	Message string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("segment `%s`: %s", e.Segment, e.Message)
}

// Is 匹配 brelerrors.ErrSelectorTypeMismatch
func (e *TypeError) Is(target error) bool {
	return target == brelerrors.ErrSelectorTypeMismatch
}

// LeafError 表示解析到的值不是字符串
type LeafError struct {
	Location string
	TypeName string
}

func (e *LeafError) Error() string {
	return fmt.Sprintf("`%s` holds a non-string value (%s)", e.Location, e.TypeName)
}

// Is 匹配 brelerrors.ErrNonStringTarget
func (e *LeafError) Is(target error) bool {
	return target == brelerrors.ErrNonStringTarget
}

// Resolve 在 root 上展开 sel，返回所有匹配的具体路径
//
// 键不存在、父节点不是映射、索引越界、元素缺少过滤字段时静默丢弃该分支；
// 限定符作用于非数组、被过滤元素不是映射、过滤字段不是字符串时整个选择器失败。
// 结果已排序、去重且不为空
func Resolve(root document.Node, sel *Selector) ([]Concrete, error) {
	frontier := []Concrete{{}}

	for _, seg := range sel.Segments {
		var next []Concrete

		for _, p := range frontier {
			parent, ok := Walk(root, p)
			if !ok || parent.Kind() != document.KindMapping {
				continue
			}
			child, ok := parent.Lookup(seg.Key)
			if !ok {
				continue
			}
			base := p.Extend(Key(seg.Key))

			switch q := seg.Qualifier.(type) {
			case nil:
				next = append(next, base)

			case Index:
				if child.Kind() != document.KindSequence {
					return nil, expectedArray(seg, child)
				}
				if _, ok := child.At(q.N); ok {
					next = append(next, base.Extend(Idx(q.N)))
				}

			case Filter:
				if child.Kind() != document.KindSequence {
					return nil, expectedArray(seg, child)
				}
				matched, err := filterElements(seg, q, child)
				if err != nil {
					return nil, err
				}
				for _, i := range matched {
					next = append(next, base.Extend(Idx(i)))
				}
			}
		}

		frontier = normalize(next)
	}

	if len(frontier) == 0 {
		return nil, brelerrors.ErrSelectorNoMatch
	}

	for _, p := range frontier {
		leaf, ok := Walk(root, p)
		if !ok {
			continue
		}
		if _, ok := leaf.Str(); !ok {
			return nil, &LeafError{Location: p.String(), TypeName: leaf.TypeName()}
		}
	}

	return frontier, nil
}

// filterElements 返回字段值等于过滤值的元素下标
func filterElements(seg Segment, f Filter, seq document.Node) ([]int, error) {
	var matched []int
	for i := 0; i < seq.Len(); i++ {
		elem, _ := seq.At(i)
		if elem.Kind() != document.KindMapping {
			return nil, &TypeError{
				Segment: seg.Key,
				Message: fmt.Sprintf("element [%d] is %s, expected an object to filter on `%s`", i, elem.TypeName(), f.Field),
			}
		}
		field, ok := elem.Lookup(f.Field)
		if !ok {
			continue
		}
		value, ok := field.Str()
		if !ok {
			return nil, &TypeError{
				Segment: seg.Key,
				Message: fmt.Sprintf("field `%s` of element [%d] is %s, expected a string", f.Field, i, field.TypeName()),
			}
		}
		if value == f.Value {
			matched = append(matched, i)
		}
	}
	return matched, nil
}

func expectedArray(seg Segment, found document.Node) error {
	return &TypeError{
		Segment: seg.Key,
		Message: fmt.Sprintf("qualifier `[%s]` expects an array, found %s", seg.Qualifier, found.TypeName()),
	}
}

// Walk 从 root 沿 p 查找节点
func Walk(root document.Node, p Concrete) (document.Node, bool) {
	node := root
	for _, step := range p {
		var ok bool
		switch s := step.(type) {
		case Key:
			node, ok = node.Lookup(string(s))
		case Idx:
			node, ok = node.At(int(s))
		}
		if !ok {
			return nil, false
		}
	}
	return node, true
}

// normalize 排序并去重
func normalize(paths []Concrete) []Concrete {
	slices.SortFunc(paths, Compare)
	return slices.CompactFunc(paths, func(a, b Concrete) bool {
		return Compare(a, b) == 0
	})
}

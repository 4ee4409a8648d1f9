package path

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/better-releases/brel/pkg/brelerrors"
)

// SyntaxError 表示选择器语法错误
type SyntaxError struct {
	Selector string
	Message  string
}

func (e *SyntaxError) Error() string {
	if e.Selector == "" {
		return e.Message
	}
	return fmt.Sprintf("invalid version selector `%s`: %s", e.Selector, e.Message)
}

// Is 匹配 brelerrors.ErrSelectorSyntax
func (e *SyntaxError) Is(target error) bool {
	return target == brelerrors.ErrSelectorSyntax
}

// Parse 解析选择器字符串
// 支持的语法：
//   - version
//   - package.version
//   - packages[0].version
//   - package[name=brel].version
//   - package[name="brel"].version
func Parse(text string) (*Selector, error) {
	selector := strings.TrimSpace(text)
	if selector == "" {
		return nil, &SyntaxError{Message: "version selector cannot be empty"}
	}

	parts, err := splitPath(selector)
	if err != nil {
		return nil, err
	}

	segments := make([]Segment, 0, len(parts))
	for _, part := range parts {
		seg, err := parseSegment(part, selector)
		if err != nil {
			return nil, err
		}
		segments = append(segments, seg)
	}

	return &Selector{Segments: segments}, nil
}

// MustParse 同 Parse，出错时 panic，用于测试和常量
func MustParse(text string) *Selector {
	sel, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return sel
}

// splitPath 按方括号外的 . 分割
// "package[name=a.b].version" -> ["package[name=a.b]", "version"]
func splitPath(selector string) ([]string, error) {
	var parts []string
	start := 0
	inBracket := false

	for i, ch := range selector {
		switch ch {
		case '[':
			if inBracket {
				return nil, &SyntaxError{Selector: selector, Message: "nested `[` is not supported"}
			}
			inBracket = true
		case ']':
			if !inBracket {
				return nil, &SyntaxError{Selector: selector, Message: "unmatched `]`"}
			}
			inBracket = false
		case '.':
			if !inBracket {
				parts = append(parts, selector[start:i])
				start = i + 1
			}
		}
	}

	if inBracket {
		return nil, &SyntaxError{Selector: selector, Message: "unmatched `[`"}
	}

	return append(parts, selector[start:]), nil
}

func parseSegment(raw, selector string) (Segment, error) {
	part := strings.TrimSpace(raw)
	if part == "" {
		return Segment{}, &SyntaxError{Selector: selector, Message: "empty path segment"}
	}

	open := strings.IndexByte(part, '[')
	if open == -1 {
		key, err := parseToken(part, "segment key", selector)
		if err != nil {
			return Segment{}, err
		}
		return Segment{Key: key}, nil
	}

	if !strings.HasSuffix(part, "]") {
		return Segment{}, &SyntaxError{
			Selector: selector,
			Message:  fmt.Sprintf("segment `%s` must end with `]` when using a qualifier", part),
		}
	}

	key, err := parseToken(part[:open], "segment key", selector)
	if err != nil {
		return Segment{}, err
	}

	qualifier, err := parseQualifier(part[open+1:len(part)-1], selector)
	if err != nil {
		return Segment{}, err
	}

	return Segment{Key: key, Qualifier: qualifier}, nil
}

// parseQualifier 解析 [...] 内部：数组索引或 field=value
func parseQualifier(raw, selector string) (Qualifier, error) {
	qualifier := strings.TrimSpace(raw)
	if qualifier == "" {
		return nil, &SyntaxError{Selector: selector, Message: "empty segment qualifier"}
	}

	if isDigits(qualifier) {
		n, err := strconv.Atoi(qualifier)
		if err != nil {
			return nil, &SyntaxError{Selector: selector, Message: "invalid array index"}
		}
		return Index{N: n}, nil
	}

	fieldRaw, valueRaw, ok := strings.Cut(qualifier, "=")
	if !ok {
		return nil, &SyntaxError{
			Selector: selector,
			Message:  fmt.Sprintf("qualifier `%s` must be either an array index or `field=value`", qualifier),
		}
	}

	field, err := parseToken(fieldRaw, "filter field", selector)
	if err != nil {
		return nil, err
	}

	value, err := parseFilterValue(valueRaw, selector)
	if err != nil {
		return nil, err
	}

	return Filter{Field: field, Value: value}, nil
}

func parseToken(raw, label, selector string) (string, error) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", &SyntaxError{Selector: selector, Message: "empty " + label}
	}
	if strings.ContainsAny(token, ".[]") {
		return "", &SyntaxError{
			Selector: selector,
			Message:  fmt.Sprintf("%s `%s` contains an unsupported character", label, token),
		}
	}
	return token, nil
}

func parseFilterValue(raw, selector string) (string, error) {
	value := stripWrappingQuotes(strings.TrimSpace(raw))
	if value == "" {
		return "", &SyntaxError{Selector: selector, Message: "empty filter value"}
	}
	if strings.ContainsAny(value, "[]") {
		return "", &SyntaxError{
			Selector: selector,
			Message:  fmt.Sprintf("filter value `%s` contains an unsupported character", value),
		}
	}
	return value, nil
}

func stripWrappingQuotes(value string) string {
	if len(value) >= 2 {
		first, last := value[0], value[len(value)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return value[1 : len(value)-1]
		}
	}
	return value
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

package engine

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
	"github.com/better-releases/brel/pkg/path"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Engine 将版本选择器应用到文件内容
type Engine struct {
	logger *slog.Logger
}

// NewEngine 创建引擎，logger 为 nil 时丢弃日志
func NewEngine(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Engine{logger: logger}
}

// NewEditor 按指定格式解析内容
func NewEditor(relPath string, format document.Format, content []byte) (Editor, error) {
	switch format {
	case document.FormatJSON:
		return newJSONEditor(relPath, content)
	case document.FormatTOML:
		return newTOMLEditor(relPath, content)
	default:
		return nil, &brelerrors.FileError{
			Path:    relPath,
			Kind:    brelerrors.ErrFormatUndetected,
			Message: fmt.Sprintf("unsupported format `%s`", format),
		}
	}
}

// Update 按顺序将 target 写入每个选择器匹配的值
// 所有值已等于 target 时原样返回内容，Changed 为 false
// 保留开头的 UTF-8 BOM
func (e *Engine) Update(relPath string, format document.Format, content []byte, selectors []string, target string) (*Result, error) {
	body, hasBOM := bytes.CutPrefix(content, utf8BOM)
	editor, err := NewEditor(relPath, format, body)
	if err != nil {
		return nil, err
	}

	changed := false
	for _, raw := range selectors {
		sel, err := path.Parse(raw)
		if err != nil {
			return nil, &brelerrors.SelectorError{Path: relPath, Selector: raw, Cause: err}
		}

		paths, err := path.Resolve(editor.Root(), sel)
		if err != nil {
			return nil, &brelerrors.SelectorError{Path: relPath, Selector: raw, Cause: err}
		}

		for _, p := range paths {
			c, err := editor.SetString(p, target)
			if err != nil {
				var invErr *brelerrors.InvariantError
				if errors.As(err, &invErr) {
					return nil, invErr
				}
				return nil, &brelerrors.SelectorError{Path: relPath, Selector: raw, Cause: err}
			}
			e.logger.Debug("resolved version value",
				"file", relPath, "selector", raw, "path", p.String(), "changed", c)
			changed = changed || c
		}
	}

	if !changed {
		return &Result{Content: content, Changed: false}, nil
	}

	out, err := editor.Bytes()
	if err != nil {
		return nil, err
	}
	if hasBOM {
		out = append(slices.Clone(utf8BOM), out...)
	}
	return &Result{Content: out, Changed: true}, nil
}

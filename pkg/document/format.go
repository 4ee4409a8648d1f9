package document

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/better-releases/brel/pkg/brelerrors"
)

// Format 支持的文档格式
type Format string

const (
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// ParseFormat 解析 "json" 或 "toml"，忽略大小写和首尾空白
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "toml":
		return FormatTOML, nil
	default:
		return "", fmt.Errorf("unsupported format `%s`, expected `json` or `toml`", strings.TrimSpace(s))
	}
}

// Detect 优先使用 override，否则根据扩展名推断格式
func Detect(relPath string, override Format) (Format, error) {
	if override != "" {
		return override, nil
	}

	switch strings.ToLower(filepath.Ext(relPath)) {
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}

	return "", &brelerrors.FileError{
		Path:    relPath,
		Kind:    brelerrors.ErrFormatUndetected,
		Message: "use `release_pr.format_overrides` with `json` or `toml`",
	}
}

// Parse 按指定格式解码
func Parse(relPath string, format Format, data []byte) (*Document, error) {
	switch format {
	case FormatJSON:
		return ParseJSON(relPath, data)
	case FormatTOML:
		return ParseTOML(relPath, data)
	default:
		return nil, &brelerrors.FileError{
			Path:    relPath,
			Kind:    brelerrors.ErrFormatUndetected,
			Message: fmt.Sprintf("unsupported format `%s`", format),
		}
	}
}

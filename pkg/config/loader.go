package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
	"github.com/better-releases/brel/pkg/path"
)

// Candidates 未指定路径时按顺序查找的配置文件名
var Candidates = []string{"brel.toml", ".brel.toml", "brel.yaml", "brel.yml"}

// Config 表示与版本更新相关的配置
type Config struct {
	// 配置来源文件，使用默认值时为空
	Source string
	// 相对路径 -> 选择器
	VersionUpdates map[string][]string
	// 扩展名不是 .json/.toml 的文件的格式
	FormatOverrides map[string]document.Format
	// 被忽略的配置项
	Warnings []string
}

// rawConfig 对应配置文件，其他命令使用的键也列出，避免被当作未知键
type rawConfig struct {
	Provider      *string       `toml:"provider" yaml:"provider"`
	DefaultBranch *string       `toml:"default_branch" yaml:"default_branch"`
	WorkflowFile  *string       `toml:"workflow_file" yaml:"workflow_file"`
	ReleasePR     *rawReleasePR `toml:"release_pr" yaml:"release_pr"`
}

type rawReleasePR struct {
	VersionUpdates       map[string][]string `toml:"version_updates" yaml:"version_updates"`
	FormatOverrides      map[string]string   `toml:"format_overrides" yaml:"format_overrides"`
	ReleaseBranchPattern *string             `toml:"release_branch_pattern" yaml:"release_branch_pattern"`
	PRTemplateFile       *string             `toml:"pr_template_file" yaml:"pr_template_file"`
	CommitAuthor         map[string]any      `toml:"commit_author" yaml:"commit_author"`
	Changelog            map[string]any      `toml:"changelog" yaml:"changelog"`
}

// Load 读取配置。指定 explicitPath 时优先使用且必须存在，
// 否则在 dir 中查找 Candidates；找不到配置文件时返回空配置
func Load(explicitPath, dir string) (*Config, error) {
	file, err := locate(explicitPath, dir)
	if err != nil {
		return nil, err
	}
	if file == "" {
		return &Config{
			VersionUpdates:  map[string][]string{},
			FormatOverrides: map[string]document.Format{},
		}, nil
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, &brelerrors.ConfigError{File: file, Message: "could not be read", Cause: err}
	}

	raw, warnings, err := decode(file, data)
	if err != nil {
		return nil, err
	}

	cfg, err := resolve(file, raw)
	if err != nil {
		return nil, err
	}
	cfg.Source = file
	cfg.Warnings = warnings
	return cfg, nil
}

func locate(explicitPath, dir string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", &brelerrors.ConfigError{
				File:    explicitPath,
				Message: "was not found, pass a valid path with `--config`",
				Cause:   err,
			}
		}
		return explicitPath, nil
	}

	for _, name := range Candidates {
		candidate := filepath.Join(dir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", nil
}

func decode(file string, data []byte) (*rawConfig, []string, error) {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		return decodeYAML(file, data)
	default:
		return decodeTOML(file, data)
	}
}

// decodeTOML 先严格解码收集未知键作为警告，再宽松解码
func decodeTOML(file string, data []byte) (*rawConfig, []string, error) {
	var raw rawConfig
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	err := dec.Decode(&raw)
	if err == nil {
		return &raw, nil, nil
	}

	var strict *toml.StrictMissingError
	if !errors.As(err, &strict) {
		return nil, nil, &brelerrors.ConfigError{File: file, Message: "is not valid TOML", Cause: err}
	}

	warnings := make([]string, 0, len(strict.Errors))
	for _, missing := range strict.Errors {
		warnings = append(warnings, fmt.Sprintf("unknown config key `%s` was ignored", strings.Join(missing.Key(), ".")))
	}

	raw = rawConfig{}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return nil, nil, &brelerrors.ConfigError{File: file, Message: "has unsupported value types", Cause: err}
	}
	return &raw, warnings, nil
}

// decodeYAML 与 decodeTOML 相同：先严格后宽松
func decodeYAML(file string, data []byte) (*rawConfig, []string, error) {
	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	err := dec.Decode(&raw)
	if err == nil || errors.Is(err, io.EOF) {
		return &raw, nil, nil
	}

	var typeErr *yaml.TypeError
	if !errors.As(err, &typeErr) {
		return nil, nil, &brelerrors.ConfigError{File: file, Message: "is not valid YAML", Cause: err}
	}

	var warnings []string
	for _, msg := range typeErr.Errors {
		if !strings.Contains(msg, "not found in type") {
			return nil, nil, &brelerrors.ConfigError{File: file, Message: "has unsupported value types", Cause: err}
		}
		warnings = append(warnings, "unknown config key was ignored: "+msg)
	}

	raw = rawConfig{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, nil, &brelerrors.ConfigError{File: file, Message: "has unsupported value types", Cause: err}
	}
	return &raw, warnings, nil
}

// resolve 校验 release_pr 配置
func resolve(file string, raw *rawConfig) (*Config, error) {
	cfg := &Config{
		VersionUpdates:  map[string][]string{},
		FormatOverrides: map[string]document.Format{},
	}
	if raw.ReleasePR == nil {
		return cfg, nil
	}

	for rawPath, selectors := range raw.ReleasePR.VersionUpdates {
		field := "release_pr.version_updates"
		relPath, err := normalizeRepoPath(file, field, rawPath)
		if err != nil {
			return nil, err
		}
		if len(selectors) == 0 {
			return nil, &brelerrors.ConfigError{File: file, Field: fmt.Sprintf("%s[%q]", field, relPath), Message: "cannot be empty"}
		}

		normalized := make([]string, 0, len(selectors))
		for _, selector := range selectors {
			if _, err := path.Parse(selector); err != nil {
				return nil, &brelerrors.ConfigError{File: file, Field: fmt.Sprintf("%s[%q]", field, relPath), Message: "has an invalid selector", Cause: err}
			}
			normalized = append(normalized, strings.TrimSpace(selector))
		}

		if _, dup := cfg.VersionUpdates[relPath]; dup {
			return nil, &brelerrors.ConfigError{File: file, Field: field, Message: fmt.Sprintf("has duplicate path `%s`", relPath)}
		}
		cfg.VersionUpdates[relPath] = normalized
	}

	for rawPath, value := range raw.ReleasePR.FormatOverrides {
		field := "release_pr.format_overrides"
		relPath, err := normalizeRepoPath(file, field, rawPath)
		if err != nil {
			return nil, err
		}
		if _, ok := cfg.VersionUpdates[relPath]; !ok {
			return nil, &brelerrors.ConfigError{
				File:    file,
				Field:   field,
				Message: fmt.Sprintf("includes `%s`, but no matching `release_pr.version_updates` entry exists", relPath),
			}
		}
		format, err := document.ParseFormat(value)
		if err != nil {
			return nil, &brelerrors.ConfigError{File: file, Field: fmt.Sprintf("%s[%q]", field, relPath), Message: "is invalid", Cause: err}
		}
		if _, dup := cfg.FormatOverrides[relPath]; dup {
			return nil, &brelerrors.ConfigError{File: file, Field: field, Message: fmt.Sprintf("has duplicate path `%s`", relPath)}
		}
		cfg.FormatOverrides[relPath] = format
	}

	return cfg, nil
}

// normalizeRepoPath 校验仓库内相对路径，返回清理后的 / 分隔路径
func normalizeRepoPath(file, field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", &brelerrors.ConfigError{File: file, Field: field, Message: "contains an empty path"}
	}
	slashed := filepath.ToSlash(trimmed)
	if filepath.IsAbs(trimmed) || strings.HasPrefix(slashed, "/") || filepath.VolumeName(trimmed) != "" {
		return "", &brelerrors.ConfigError{File: file, Field: field, Message: fmt.Sprintf("path `%s` must be repository-relative", trimmed)}
	}
	for _, part := range strings.Split(slashed, "/") {
		if part == ".." {
			return "", &brelerrors.ConfigError{File: file, Field: field, Message: fmt.Sprintf("path `%s` cannot contain `..`", trimmed)}
		}
	}
	return filepath.ToSlash(filepath.Clean(trimmed)), nil
}

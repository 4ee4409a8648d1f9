package processor

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"slices"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	"github.com/better-releases/brel/pkg/brelerrors"
	"github.com/better-releases/brel/pkg/document"
	"github.com/better-releases/brel/pkg/engine"
)

// Processor 批量更新仓库中的版本号
// 按路径顺序逐个处理，遇到第一个错误即停止，之前已写入的文件保留
type Processor struct {
	fs     billy.Filesystem
	engine *engine.Engine
	logger *slog.Logger
	dryRun bool
}

// Option 配置 Processor
type Option func(*Processor)

// WithLogger 设置日志，默认丢弃
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDryRun 只计算变更，不写文件
func WithDryRun(dryRun bool) Option {
	return func(p *Processor) {
		p.dryRun = dryRun
	}
}

// NewProcessor 创建处理器，fs 的根目录即仓库根目录
func NewProcessor(fs billy.Filesystem, opts ...Option) *Processor {
	p := &Processor{
		fs:     fs,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.engine = engine.NewEngine(p.logger)
	return p
}

// ApplyVersionUpdates 在本地磁盘 rootDir 上运行处理器
func ApplyVersionUpdates(rootDir, target string, updates map[string][]string, overrides map[string]document.Format, opts ...Option) (*Report, error) {
	return NewProcessor(osfs.New(rootDir), opts...).Apply(target, updates, overrides)
}

// Apply 将 target 写入每个配置文件中被选中的值
// updates: 相对路径 -> 选择器；overrides: 可选的格式覆盖
func (p *Processor) Apply(target string, updates map[string][]string, overrides map[string]document.Format) (*Report, error) {
	paths := make([]string, 0, len(updates))
	for relPath := range updates {
		paths = append(paths, relPath)
	}
	slices.Sort(paths)

	report := &Report{}
	for _, relPath := range paths {
		change, err := p.processFile(relPath, target, updates[relPath], overrides[relPath])
		if err != nil {
			p.logger.Debug("version update failed", "file", relPath, "error", err)
			return nil, err
		}
		if change == nil {
			continue
		}
		report.ChangedFiles = append(report.ChangedFiles, relPath)
		report.Changes = append(report.Changes, *change)
	}

	p.logger.Info("version updates applied",
		"version", target, "files", len(paths), "changed", len(report.ChangedFiles), "dry_run", p.dryRun)
	return report, nil
}

// processFile 更新单个文件，无变化时返回 nil
func (p *Processor) processFile(relPath, target string, selectors []string, override document.Format) (*FileChange, error) {
	info, err := p.fs.Stat(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &brelerrors.FileError{
				Path:    relPath,
				Kind:    brelerrors.ErrFileNotFound,
				Message: "configured version update file was not found",
			}
		}
		return nil, &brelerrors.FileError{Path: relPath, Message: "stat file", Cause: err}
	}
	if info.IsDir() {
		return nil, &brelerrors.FileError{Path: relPath, Message: "configured version update path is a directory"}
	}

	format, err := document.Detect(relPath, override)
	if err != nil {
		return nil, err
	}

	content, err := util.ReadFile(p.fs, relPath)
	if err != nil {
		return nil, &brelerrors.FileError{Path: relPath, Message: "read file", Cause: err}
	}

	res, err := p.engine.Update(relPath, format, content, selectors, target)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		p.logger.Debug("file already up to date", "file", relPath)
		return nil, nil
	}

	if !p.dryRun {
		if err := util.WriteFile(p.fs, relPath, res.Content, info.Mode().Perm()); err != nil {
			return nil, &brelerrors.FileError{Path: relPath, Message: "write file", Cause: err}
		}
	}
	p.logger.Info("updated version", "file", relPath, "format", string(format), "dry_run", p.dryRun)

	return &FileChange{Path: relPath, Format: format, Before: content, After: res.Content}, nil
}

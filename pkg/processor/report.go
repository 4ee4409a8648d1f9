package processor

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/better-releases/brel/pkg/document"
)

// Report 列出 Apply 修改（dry-run 时将修改）的文件，按路径排序
type Report struct {
	ChangedFiles []string
	Changes      []FileChange
}

// String 用于日志摘要
func (r *Report) String() string {
	return fmt.Sprintf("%d file(s) changed", len(r.ChangedFiles))
}

// FileChange 保存单个文件修改前后的内容
type FileChange struct {
	Path   string
	Format document.Format
	Before []byte
	After  []byte
}

// Diff 输出按行差异：删除行以 "-" 开头，新增行以 "+" 开头，未变行以空格开头
func (c FileChange) Diff() string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(c.Before), string(c.After))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	red := color.New(color.FgRed).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()

	var out strings.Builder
	out.WriteString("--- " + c.Path + "\n+++ " + c.Path + "\n")
	for _, d := range diffs {
		for _, line := range splitLines(d.Text) {
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				out.WriteString(red("-"+line) + "\n")
			case diffmatchpatch.DiffInsert:
				out.WriteString(green("+"+line) + "\n")
			default:
				out.WriteString(" " + line + "\n")
			}
		}
	}
	return out.String()
}

func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(text, "\n"), "\n")
}

package engine

import (
	"github.com/better-releases/brel/pkg/document"
	"github.com/better-releases/brel/pkg/path"
)

// Editor 针对单个文件解析选择器并写回字符串值
type Editor interface {
	// Root 返回供解析使用的视图，包含已做的所有 SetString
	Root() document.Node
	// SetString 在 p 处写入 value，返回原值是否不同
	SetString(p path.Concrete, value string) (bool, error)
	// Bytes 输出修改后的文件内容
	Bytes() ([]byte, error)
}

// Result 表示单个文件的更新结果
type Result struct {
	Content []byte
	Changed bool
}

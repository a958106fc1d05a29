package scan

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/John-Robertt/dirbatch/internal/domain"
)

// 通过可替换的函数指针，让测试能稳定模拟单个条目 stat 失败（权限/竞态）
// 以及目录句柄无法读取。
var (
	statFunc    = os.Stat
	readDirFunc = readDir
)

// NotDirError 表示给定的源路径不存在或不是目录（配置错误，必须在任何写入之前失败）。
type NotDirError struct {
	Path string
	Err  error
}

func (e *NotDirError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%q 不是目录：%v", e.Path, e.Err)
	}
	return fmt.Sprintf("%q 不是目录", e.Path)
}

func (e *NotDirError) Unwrap() error { return e.Err }

// IsNotDir 判断 err 是否为 NotDirError。
func IsNotDir(err error) bool {
	var e *NotDirError
	return errors.As(err, &e)
}

// ListFiles 列举 dir 下一层的普通文件（不递归）。
//
// 规则：
// - dir 不是目录：返回 *NotDirError
// - 目录句柄无法读取：返回错误（调用方中止整个运行）
// - 单个条目 stat 失败：静默跳过，视为“不是文件”（best-effort，而不是中止整个列举）
// - 符号链接按目标判断：指向普通文件的链接算作文件
// - 子目录与其他非普通文件一律跳过
func ListFiles(dir string) ([]domain.FileEntry, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	abs = filepath.Clean(abs)

	fi, err := os.Stat(abs)
	if err != nil {
		return nil, &NotDirError{Path: abs, Err: err}
	}
	if !fi.IsDir() {
		return nil, &NotDirError{Path: abs}
	}

	entries, err := readDirFunc(abs)
	if err != nil {
		return nil, fmt.Errorf("读取目录 %q 失败：%w", abs, err)
	}

	files := make([]domain.FileEntry, 0, len(entries))
	for _, e := range entries {
		path := filepath.Join(abs, e.Name())
		info, err := statFunc(path)
		if err != nil {
			// 无法读取的条目：忽略并继续。
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}
		files = append(files, domain.FileEntry{
			AbsPath: path,
			Name:    e.Name(),
			Size:    info.Size(),
			ModUnix: info.ModTime().Unix(),
		})
	}

	// 文件系统枚举顺序因平台而异；这里强制按名称排序，保证同一目录多次运行的分批一致。
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

func readDir(dir string) ([]fs.DirEntry, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.ReadDir(-1)
}

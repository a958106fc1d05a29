package scan

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListFiles_OnlyTopLevelRegularFiles(t *testing.T) {
	root := t.TempDir()

	touch(t, filepath.Join(root, "b.txt"))
	touch(t, filepath.Join(root, "a.txt"))
	// 子目录及其内容都不应出现。
	touch(t, filepath.Join(root, "sub", "nested.txt"))

	got, err := ListFiles(root)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "a.txt", got[0].Name)
	assert.Equal(t, "b.txt", got[1].Name)
	assert.Equal(t, filepath.Join(root, "a.txt"), got[0].AbsPath)
	assert.Equal(t, int64(1), got[0].Size)
	for _, f := range got {
		assert.NotEqual(t, "sub", f.Name)
	}
}

func TestListFiles_EmptyDir(t *testing.T) {
	got, err := ListFiles(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestListFiles_NotDir(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "plain.txt")
	touch(t, file)

	_, err := ListFiles(file)
	require.Error(t, err)
	assert.True(t, IsNotDir(err), "期望 NotDirError，实际：%T %v", err, err)

	_, err = ListFiles(filepath.Join(root, "missing"))
	require.Error(t, err)
	assert.True(t, IsNotDir(err), "期望 NotDirError，实际：%T %v", err, err)
}

func TestListFiles_SkipUnreadableEntry(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "ok.txt"))
	touch(t, filepath.Join(root, "gone.txt"))

	old := statFunc
	statFunc = func(name string) (os.FileInfo, error) {
		if filepath.Base(name) == "gone.txt" {
			return nil, fmt.Errorf("stat %s: %w", name, os.ErrPermission)
		}
		return old(name)
	}
	defer func() { statFunc = old }()

	got, err := ListFiles(root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ok.txt", got[0].Name)
}

func TestListFiles_ReadDirError(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.txt"))

	old := readDirFunc
	readDirFunc = func(dir string) ([]fs.DirEntry, error) {
		return nil, &os.PathError{Op: "open", Path: dir, Err: os.ErrPermission}
	}
	defer func() { readDirFunc = old }()

	got, err := ListFiles(root)
	require.Error(t, err)
	assert.Nil(t, got)
	assert.False(t, IsNotDir(err), "目录存在但无法读取，不应视为 NotDirError")
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestListFiles_SymlinkToFileCounts(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlink 需要额外权限")
	}
	root := t.TempDir()
	target := filepath.Join(t.TempDir(), "target.txt")
	touch(t, target)
	require.NoError(t, os.Symlink(target, filepath.Join(root, "link.txt")))
	// 悬空链接：stat 失败，应被静默跳过。
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "dangling")))

	got, err := ListFiles(root)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "link.txt", got[0].Name)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

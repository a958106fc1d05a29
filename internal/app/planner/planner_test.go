package planner

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/dirbatch/internal/domain"
)

func TestDestDir_ColocatedWithSourceParent(t *testing.T) {
	src := filepath.Join(sep(), "data", "in", "a.txt")

	got, err := DestDir(src, "out", 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sep(), "data", "in", "out_3"), got)
}

func TestDestDir_DefaultOutputDot(t *testing.T) {
	src := filepath.Join(sep(), "data", "a.txt")

	// 默认 output="." 时，目录名为 "._0"（原样拼接，不做 Clean）。
	got, err := DestDir(src, ".", 0)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sep(), "data", "._0"), got)
}

func TestDestDir_NestedRelativeOutput(t *testing.T) {
	src := filepath.Join(sep(), "data", "a.txt")

	got, err := DestDir(src, filepath.Join("x", "y"), 1)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sep(), "data", "x", "y_1"), got)
}

func TestDestDir_AbsoluteOutputReplacesParent(t *testing.T) {
	src := filepath.Join(sep(), "data", "a.txt")
	out := filepath.Join(sep(), "backup", "set")

	got, err := DestDir(src, out, 2)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(sep(), "backup", "set_2"), got)
}

func TestDestDir_MissingComponents(t *testing.T) {
	_, err := DestDir(sep(), "out", 0)
	require.Error(t, err)
	assert.True(t, IsPathComponent(err))

	_, err = DestDir("", "out", 0)
	require.Error(t, err)
	assert.True(t, IsPathComponent(err))
}

func TestPlanBatch_OrderAndNames(t *testing.T) {
	dir := filepath.Join(sep(), "data")
	b := domain.Batch{Index: 1, Files: []domain.FileEntry{
		{AbsPath: filepath.Join(dir, "b.txt"), Name: "b.txt"},
		{AbsPath: filepath.Join(dir, "a.txt"), Name: "a.txt"},
	}}

	p, err := PlanBatch(b, "out")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Index)
	require.Len(t, p.Copies, 2)

	want := filepath.Join(dir, "out_1")
	assert.Equal(t, domain.CopyPlan{SrcAbs: filepath.Join(dir, "b.txt"), DstDir: want, DstAbs: filepath.Join(want, "b.txt")}, p.Copies[0])
	assert.Equal(t, domain.CopyPlan{SrcAbs: filepath.Join(dir, "a.txt"), DstDir: want, DstAbs: filepath.Join(want, "a.txt")}, p.Copies[1])
	assert.Equal(t, []string{want}, p.Dirs())
}

func TestPlanAll_FirstErrorAborts(t *testing.T) {
	dir := filepath.Join(sep(), "data")
	batches := []domain.Batch{
		{Index: 0, Files: []domain.FileEntry{{AbsPath: filepath.Join(dir, "a.txt")}}},
		{Index: 1, Files: []domain.FileEntry{{AbsPath: sep()}}},
	}

	_, err := PlanAll(batches, "out")
	require.Error(t, err)
	assert.True(t, IsPathComponent(err))
	assert.Contains(t, err.Error(), "batch 1")
}

func sep() string { return string(filepath.Separator) }

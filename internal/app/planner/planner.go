package planner

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/John-Robertt/dirbatch/internal/domain"
)

// PathComponentError 表示源路径缺少必要的组成部分（父目录或文件名），无法推导目标路径。
type PathComponentError struct {
	Path      string
	Component string // "parent" | "name"
}

func (e *PathComponentError) Error() string {
	return fmt.Sprintf("源路径 %q 缺少 %s 部分，无法推导目标路径", e.Path, e.Component)
}

// IsPathComponent 判断 err 是否为 PathComponentError。
func IsPathComponent(err error) bool {
	var e *PathComponentError
	return errors.As(err, &e)
}

// DirName 返回第 index 个 batch 的目录名：<output>_<index>（output 原样保留，不做 Clean）。
func DirName(output string, index int) string {
	return output + "_" + strconv.Itoa(index)
}

// DestDir 推导 src 在第 index 个 batch 中的目标目录。
//
// 规则（沿用原工具的路径拼接语义）：
// - output 为相对路径：<src 的父目录>/<output>_<index>，即与源文件同处一个目录树，而不是相对 cwd
// - output 为绝对路径：直接使用 <output>_<index>（父目录不再参与拼接）
func DestDir(src, output string, index int) (string, error) {
	parent, _, err := split(src)
	if err != nil {
		return "", err
	}
	name := DirName(output, index)
	if filepath.IsAbs(output) {
		return filepath.Clean(name), nil
	}
	return filepath.Join(parent, name), nil
}

// PlanBatch 为一个 batch 生成确定性的复制计划（不做任何写入）。
// Copies 与 b.Files 顺序一一对应；任一文件无法推导目标路径则整个 batch 规划失败。
func PlanBatch(b domain.Batch, output string) (domain.BatchPlan, error) {
	copies := make([]domain.CopyPlan, 0, len(b.Files))
	for _, f := range b.Files {
		dir, err := DestDir(f.AbsPath, output, b.Index)
		if err != nil {
			return domain.BatchPlan{}, err
		}
		_, name, err := split(f.AbsPath)
		if err != nil {
			return domain.BatchPlan{}, err
		}
		copies = append(copies, domain.CopyPlan{
			SrcAbs: f.AbsPath,
			DstDir: dir,
			DstAbs: filepath.Join(dir, name),
		})
	}
	return domain.BatchPlan{Index: b.Index, Copies: copies}, nil
}

// PlanAll 依次规划所有 batch；遇到第一个错误即返回。
func PlanAll(batches []domain.Batch, output string) ([]domain.BatchPlan, error) {
	plans := make([]domain.BatchPlan, 0, len(batches))
	for _, b := range batches {
		p, err := PlanBatch(b, output)
		if err != nil {
			return nil, fmt.Errorf("规划 batch %d 失败：%w", b.Index, err)
		}
		plans = append(plans, p)
	}
	return plans, nil
}

// split 把 src 拆成父目录与文件名。
// 根目录（例如 "/"）没有父目录；以 "." / ".." 结尾的路径没有文件名。
func split(src string) (parent, name string, err error) {
	if src == "" {
		return "", "", &PathComponentError{Path: src, Component: "parent"}
	}
	clean := filepath.Clean(src)
	parent = filepath.Dir(clean)
	if parent == clean {
		return "", "", &PathComponentError{Path: src, Component: "parent"}
	}
	name = filepath.Base(clean)
	if name == "." || name == ".." || name == string(filepath.Separator) {
		return "", "", &PathComponentError{Path: src, Component: "name"}
	}
	return parent, name, nil
}

package app

import (
	"errors"
	"fmt"

	"github.com/John-Robertt/dirbatch/internal/domain"
)

// DefaultBatchSize 是每个 batch 的默认文件数。
const DefaultBatchSize = 100

// ErrInvalidBatchSize 表示 batch size < 1（配置错误，必须在任何写入之前失败）。
var ErrInvalidBatchSize = errors.New("batch size 必须 >= 1")

// Split 把 items 切成连续的若干组，每组恰好 size 个，最后一组为余数（1..size 个）。
//
// - items 为空：返回空结果（不是 nil 组）
// - 每组都是独立拷贝，修改组内元素不影响 items
// - 所有组按顺序拼接后与 items 完全一致
func Split[S ~[]E, E any](items S, size int) ([][]E, error) {
	if size < 1 {
		return nil, fmt.Errorf("%w：实际 %d", ErrInvalidBatchSize, size)
	}

	// 不用 (len+size-1)/size：size 接近 MaxInt 时会溢出成负容量。
	nb := len(items) / size
	if len(items)%size != 0 {
		nb++
	}
	out := make([][]E, 0, nb)
	for len(items) > 0 {
		n := size
		if len(items) < n {
			n = len(items)
		}
		chunk := make([]E, n)
		copy(chunk, items[:n])
		out = append(out, chunk)
		items = items[n:]
	}
	return out, nil
}

// Batches 把列举得到的文件按 size 分批，并为每个 batch 分配从 0 开始的 Index。
func Batches(files []domain.FileEntry, size int) ([]domain.Batch, error) {
	chunks, err := Split(files, size)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Batch, 0, len(chunks))
	for i, c := range chunks {
		out = append(out, domain.Batch{Index: i, Files: c})
	}
	return out, nil
}

package run

import (
	"time"

	"github.com/John-Robertt/dirbatch/internal/config"
	"github.com/John-Robertt/dirbatch/internal/domain"
)

// Observer 用于把“运行进度/阶段/batch 结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何 stdout 输出（stdout 的格式由 CLI 决定）。
// - 事件严格按顺序、在同一个 goroutine 中发出。
type Observer interface {
	// OnStart 在 Execute 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在 list/split/plan 阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnBatchPlanned 在任何复制开始之前，按顺序对每个 batch 调用一次。
	OnBatchPlanned(idx, total, count int)
	// OnBatchDone 在某个 batch 的所有文件复制完成后调用；中止的 batch 不会触发。
	OnBatchDone(idx, total int, res domain.BatchResult, dur time.Duration)
}

type nopObserver struct{}

func (nopObserver) OnStart(config.EffectiveConfig) {}
func (nopObserver) OnPhaseDone(string, map[string]any, time.Duration) {}
func (nopObserver) OnBatchPlanned(int, int, int) {}
func (nopObserver) OnBatchDone(int, int, domain.BatchResult, time.Duration) {}

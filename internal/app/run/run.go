package run

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/dirbatch/internal/app"
	"github.com/John-Robertt/dirbatch/internal/app/planner"
	"github.com/John-Robertt/dirbatch/internal/config"
	"github.com/John-Robertt/dirbatch/internal/domain"
	"github.com/John-Robertt/dirbatch/internal/infra/fsx"
	"github.com/John-Robertt/dirbatch/internal/logging"
	"github.com/John-Robertt/dirbatch/internal/scan"
)

// 列举入口可替换，测试用它模拟目录句柄无法读取。
var listFiles = scan.ListFiles

// Error 是中止整个运行的终态错误（带 error_code）。
// Batch 为 -1 表示错误发生在复制阶段之前。
type Error struct {
	Code  string
	Batch int
	Src   string
	Dst   string
	Err   error
}

func (e *Error) Error() string {
	if e.Batch < 0 {
		return fmt.Sprintf("%s：%v", e.Code, e.Err)
	}
	return fmt.Sprintf("%s：batch %d：%q -> %q：%v", e.Code, e.Batch, e.Src, e.Dst, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Execute 执行一次运行：列举 → 分批 → 规划 → 复制，并返回 RunReport。
//
// 语义（固定）：
// - 所有 batch 先通过 OnBatchPlanned 宣告，然后才开始复制
// - 复制严格串行：batch 按 index 顺序，batch 内按文件顺序
// - 第一个错误即中止剩余工作；已复制的文件保留在磁盘上（不回滚）
// - ctx 在每个文件复制前检查；取消与复制失败同样处理
//
// 返回的 RunReport 总是有效（中止时包含部分结果与 error_code）；error 非 nil 表示运行被中止。
func Execute(ctx context.Context, eff config.EffectiveConfig, obs Observer) (domain.RunReport, error) {
	if obs == nil {
		obs = nopObserver{}
	}
	log := logging.Component(*zerolog.Ctx(ctx), "run")

	rr := domain.RunReport{
		RunID:     ulid.Make().String(),
		Dir:       eff.Dir,
		Output:    eff.Output,
		BatchSize: eff.BatchSize,
		StartedAt: time.Now().UTC(),
		Batches:   []domain.BatchResult{},
	}
	log = log.With().Str("run_id", rr.RunID).Logger()

	obs.OnStart(eff)

	abort := func(err *Error) (domain.RunReport, error) {
		rr.ErrorCode = err.Code
		rr.ErrorMsg = err.Error()
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		log.Error().Err(err.Err).Str("code", err.Code).Int("batch", err.Batch).Msg("run aborted")
		return rr, err
	}

	listStarted := time.Now()
	files, err := listFiles(eff.Dir)
	if err != nil {
		code := domain.ErrCodeListFailed
		if scan.IsNotDir(err) {
			code = domain.ErrCodeConfigNotDir
		}
		return abort(&Error{Code: code, Batch: -1, Err: err})
	}
	obs.OnPhaseDone("list", map[string]any{"files": len(files)}, time.Since(listStarted))
	log.Debug().Str("dir", eff.Dir).Int("files", len(files)).Msg("listed")

	splitStarted := time.Now()
	batches, err := app.Batches(files, eff.BatchSize)
	if err != nil {
		return abort(&Error{Code: domain.ErrCodeConfigInvalid, Batch: -1, Err: err})
	}
	obs.OnPhaseDone("split", map[string]any{"batches": len(batches), "batch_size": eff.BatchSize}, time.Since(splitStarted))

	planStarted := time.Now()
	plans, err := planner.PlanAll(batches, eff.Output)
	if err != nil {
		return abort(&Error{Code: domain.ErrCodePlanFailed, Batch: -1, Err: err})
	}
	dirs := 0
	for i := range plans {
		dirs += len(plans[i].Dirs())
	}
	obs.OnPhaseDone("plan", map[string]any{"batches": len(plans), "dirs": dirs}, time.Since(planStarted))

	rr.Batches = make([]domain.BatchResult, 0, len(plans))
	for i := range plans {
		rr.Batches = append(rr.Batches, plannedResult(plans[i]))
	}
	for i := range plans {
		obs.OnBatchPlanned(plans[i].Index, len(plans), len(plans[i].Copies))
	}

	for i := range plans {
		p := plans[i]
		res := &rr.Batches[i]
		batchStarted := time.Now()

		for j, c := range p.Copies {
			if err := ctx.Err(); err != nil {
				return abort(&Error{Code: domain.ErrCodeCanceled, Batch: p.Index, Src: c.SrcAbs, Dst: c.DstAbs, Err: err})
			}

			n, err := copyOne(c)
			if err != nil {
				res.Files[j].Status = domain.FileStatusFailed
				code := domain.ErrCodeCopyFailed
				if fsx.IsPathTypeConflict(err) {
					code = domain.ErrCodeTargetConflict
				}
				return abort(&Error{Code: code, Batch: p.Index, Src: c.SrcAbs, Dst: c.DstAbs, Err: err})
			}

			res.Files[j].Status = domain.FileStatusCopied
			res.Files[j].Bytes = n
			log.Debug().Int("batch", p.Index).Str("src", c.SrcAbs).Str("dst", c.DstAbs).Int64("bytes", n).Msg("copied")
		}

		obs.OnBatchDone(p.Index, len(plans), *res, time.Since(batchStarted))
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	log.Info().Int("batches", rr.Summary.Batches).Int("copied", rr.Summary.Copied).Int64("bytes", rr.Summary.Bytes).Msg("run finished")
	return rr, nil
}

// copyOne 创建目标目录（含父目录）并以覆盖语义复制单个文件。
func copyOne(c domain.CopyPlan) (int64, error) {
	if err := fsx.EnsureDir(c.DstDir); err != nil {
		return 0, fmt.Errorf("创建目录 %q 失败：%w", c.DstDir, err)
	}
	return fsx.CopyFileReplace(c.SrcAbs, c.DstAbs)
}

func plannedResult(p domain.BatchPlan) domain.BatchResult {
	out := domain.BatchResult{
		Index: p.Index,
		Files: make([]domain.FileResult, 0, len(p.Copies)),
	}
	for _, c := range p.Copies {
		out.Files = append(out.Files, domain.FileResult{
			Src:    c.SrcAbs,
			Dst:    c.DstAbs,
			Status: domain.FileStatusPlanned,
		})
	}
	return out
}

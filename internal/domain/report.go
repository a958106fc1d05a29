package domain

import (
	"sort"
	"time"

	json "github.com/goccy/go-json"
)

const (
	FileStatusPlanned = "planned"
	FileStatusCopied  = "copied"
	FileStatusFailed  = "failed"
)

const (
	ErrCodeConfigInvalid  = "config_invalid"
	ErrCodeConfigNotDir   = "config_not_dir"
	ErrCodeListFailed     = "list_failed"
	ErrCodePlanFailed     = "plan_failed"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeCopyFailed     = "copy_failed"
	ErrCodeCanceled       = "canceled"
)

// RunReport 是对外稳定输出（--report 文件）的结构。
type RunReport struct {
	RunID     string `json:"run_id"`
	Dir       string `json:"dir"`
	Output    string `json:"output"`
	BatchSize int    `json:"batch_size"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Batches []BatchResult `json:"batches"`

	// 运行被中止时填写；成功运行两者均为空串。
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

type ReportSummary struct {
	Batches int   `json:"batches"`
	Files   int   `json:"files"`
	Copied  int   `json:"copied"`
	Failed  int   `json:"failed"`
	Bytes   int64 `json:"bytes"`
}

type BatchResult struct {
	Index int          `json:"index"`
	Files []FileResult `json:"files"`
}

type FileResult struct {
	Src    string `json:"src"`
	Dst    string `json:"dst"`
	Status string `json:"status"`
	Bytes  int64  `json:"bytes"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) batches 按 index 稳定排序；batch 内文件顺序保持不变
// 3) summary 由 batches 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Batches, func(i, j int) bool { return r.Batches[i].Index < r.Batches[j].Index })

	s := ReportSummary{Batches: len(r.Batches)}
	for _, b := range r.Batches {
		s.Files += len(b.Files)
		for _, f := range b.Files {
			switch f.Status {
			case FileStatusCopied:
				s.Copied++
				s.Bytes += f.Bytes
			case FileStatusFailed:
				s.Failed++
			}
		}
	}
	r.Summary = s
}

// Aborted 表示运行是否因错误提前终止。
func (r RunReport) Aborted() bool { return r.ErrorCode != "" }

// MarshalJSON 集中约束输出的稳定性：nil 切片统一输出为 []。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	a := Alias(r)
	if a.Batches == nil {
		a.Batches = []BatchResult{}
	}
	for i := range a.Batches {
		if a.Batches[i].Files == nil {
			a.Batches[i].Files = []FileResult{}
		}
	}
	return json.Marshal(a)
}

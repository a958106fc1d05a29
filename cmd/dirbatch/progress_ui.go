package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/John-Robertt/dirbatch/internal/app/run"
	"github.com/John-Robertt/dirbatch/internal/config"
	"github.com/John-Robertt/dirbatch/internal/domain"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 把 run 层事件渲染为终端输出。
//
// 输出契约：
// - stdout：每个 batch 一行 "Processing <n> files"，不输出任何其他内容
// - stderr：阶段/batch 进度与成功摘要（仅交互终端）；中止时的摘要与错误行总是输出
type progressUI struct {
	out io.Writer
	err io.Writer

	interactive bool

	ok   lipgloss.Style
	fail lipgloss.Style
	dim  lipgloss.Style
}

func newProgressUI(out, errw io.Writer, interactive bool) *progressUI {
	// renderer 绑定 stderr：非 TTY 时 lipgloss 自动退化为纯文本。
	r := lipgloss.NewRenderer(errw)
	return &progressUI{
		out:         out,
		err:         errw,
		interactive: interactive,
		ok:          r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		fail:        r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		dim:         r.NewStyle().Faint(true),
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	if !p.interactive {
		return
	}
	fmt.Fprintf(p.err, "%s dir=%s output=%s len=%d\n",
		p.dim.Render("["+time.Now().Format("15:04:05")+"]"), eff.Dir, eff.Output, eff.BatchSize,
	)
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	if !p.interactive {
		return
	}
	switch name {
	case "list":
		fmt.Fprintf(p.err, "list: files=%d (%s)\n", intField(fields, "files"), formatShortDuration(dur))
	case "split":
		fmt.Fprintf(p.err, "split: batches=%d len=%d (%s)\n",
			intField(fields, "batches"), intField(fields, "batch_size"), formatShortDuration(dur),
		)
	case "plan":
		fmt.Fprintf(p.err, "plan: batches=%d dirs=%d (%s)\n",
			intField(fields, "batches"), intField(fields, "dirs"), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.err, "%s (%s)\n", name, formatShortDuration(dur))
	}
}

func (p *progressUI) OnBatchPlanned(idx, total, count int) {
	fmt.Fprintf(p.out, "Processing %d files\n", count)
}

func (p *progressUI) OnBatchDone(idx, total int, res domain.BatchResult, dur time.Duration) {
	if !p.interactive {
		return
	}
	var bytes int64
	for _, f := range res.Files {
		bytes += f.Bytes
	}
	fmt.Fprintf(p.err, "[%d/%d] %s files=%d %s (%s)\n",
		idx+1, total, p.ok.Render("OK"), len(res.Files), humanize.Bytes(uint64(bytes)), formatShortDuration(dur),
	)
}

// Summary 在运行结束后向 stderr 输出一行摘要；中止时额外输出错误行。
// 非交互终端下成功的运行保持静默。
func (p *progressUI) Summary(rr domain.RunReport) {
	if !rr.Aborted() && !p.interactive {
		return
	}
	s := rr.Summary
	line := fmt.Sprintf("done: batches=%d files=%d copied=%d (%s)",
		s.Batches, s.Files, s.Copied, humanize.Bytes(uint64(s.Bytes)),
	)
	if rr.Aborted() {
		fmt.Fprintln(p.err, p.fail.Render(line))
		fmt.Fprintf(p.err, "%s %s\n", p.fail.Render(rr.ErrorCode), rr.ErrorMsg)
		return
	}
	fmt.Fprintln(p.err, p.ok.Render(line))
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	default:
		return 0
	}
}

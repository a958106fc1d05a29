package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/John-Robertt/dirbatch/internal/app"
	"github.com/John-Robertt/dirbatch/internal/app/run"
	"github.com/John-Robertt/dirbatch/internal/config"
	"github.com/John-Robertt/dirbatch/internal/domain"
	"github.com/John-Robertt/dirbatch/internal/infra/fsx"
	"github.com/John-Robertt/dirbatch/internal/logging"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// usageError 表示参数错误（退出码 2）。
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

// reportedError 表示错误已经随摘要输出到 stderr，无需再次打印。
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// execute 解析参数并执行一次运行，返回进程退出码：
// 0 成功；2 参数/配置错误；1 列举/复制/写报告失败。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var re *reportedError
	if !errors.As(err, &re) {
		fmt.Fprintf(stderr, "错误：%v\n", err)
	}
	code := exitCode(err)
	if code == 2 {
		fmt.Fprintf(stderr, "\n使用 \"%s --help\" 查看详细说明。\n", cmd.Name())
	}
	return code
}

func newRootCmd() *cobra.Command {
	var cli config.CLIArgs

	cmd := &cobra.Command{
		Use:   "dirbatch",
		Short: "把目录中的文件按固定数量分批复制到 <output>_<index> 目录",
		Long: `dirbatch 列举 --dir 下一层的普通文件（不递归，跳过子目录与无法读取的条目），
按 --len 个一组分批，并把第 i 个 batch 复制到 <文件所在目录>/<output>_<i>/ 下
（--output 为绝对路径时直接使用 <output>_<i>/）。
同名文件会被覆盖；中途失败不回滚已复制的文件。`,
		Example: `  # 当前目录，每 100 个文件一批，复制到 ./._0 ./._1 ...
  dirbatch

  # 每 50 个一批，复制到 photos/set_0 photos/set_1 ...
  dirbatch -d photos -o set -l 50

  # 同时写出 JSON 报告
  dirbatch -d photos -o set --report report.json`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return &usageError{err: fmt.Errorf("不接受位置参数：%q", args)}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			f := cmd.Flags()
			cli.DirSet = f.Changed("dir")
			cli.OutputSet = f.Changed("output")
			cli.BatchSizeSet = f.Changed("len")
			cli.ReportSet = f.Changed("report")
			cli.LogLevelSet = f.Changed("log-level")
			return runCmd(cmd, cli)
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	f := cmd.Flags()
	f.StringVarP(&cli.Dir, "dir", "d", config.DefaultDir, "要扫描的目录（不递归）")
	f.StringVarP(&cli.Output, "output", "o", config.DefaultOutput, "目标目录名前缀：第 i 批复制到 <文件所在目录>/<output>_<i>")
	f.IntVarP(&cli.BatchSize, "len", "l", app.DefaultBatchSize, "每批文件数（必须 >= 1）")
	f.StringVar(&cli.ConfigPath, "config", "", "配置文件（.toml/.yaml）；默认尝试 ./"+config.DefaultFileName)
	f.StringVar(&cli.Report, "report", "", "把 JSON 运行报告写入该路径")
	f.StringVar(&cli.LogLevel, "log-level", logging.DefaultLevel, "日志级别：debug|info|warn|error")
	f.BoolVar(&cli.Debug, "debug", false, "等价于 --log-level=debug")
	f.SortFlags = false

	return cmd
}

func runCmd(cmd *cobra.Command, cli config.CLIArgs) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("读取当前目录失败：%w", err)
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		return err
	}

	logger := logging.New(logging.Config{
		Level:  eff.LogLevel,
		Format: eff.LogFormat,
		Out:    cmd.ErrOrStderr(),
	})
	if eff.ConfigFile != "" {
		logger.Debug().Str("config", eff.ConfigFile).Msg("config loaded")
	}
	ctx := logger.WithContext(cmd.Context())

	ui := newProgressUI(cmd.OutOrStdout(), cmd.ErrOrStderr(), isTerminal(cmd.ErrOrStderr()))
	rr, runErr := run.Execute(ctx, eff, ui)

	if eff.Report != "" {
		if err := writeReport(eff.Report, rr); err != nil {
			ui.Summary(rr)
			werr := fmt.Errorf("写入报告 %q 失败：%w", eff.Report, err)
			if runErr != nil {
				// 摘要只覆盖运行错误，报告失败需要单独告知。
				fmt.Fprintf(cmd.ErrOrStderr(), "错误：%v\n", werr)
				return &reportedError{err: errors.Join(runErr, werr)}
			}
			return werr
		}
		logger.Debug().Str("report", eff.Report).Msg("report written")
	}

	ui.Summary(rr)
	if runErr != nil {
		return &reportedError{err: runErr}
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var ue *usageError
	if errors.As(err, &ue) || config.Code(err) != "" {
		return 2
	}
	switch run.Code(err) {
	case domain.ErrCodeConfigInvalid, domain.ErrCodeConfigNotDir:
		return 2
	}
	return 1
}

func writeReport(path string, rr domain.RunReport) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFileAtomicReplace(filepath.Dir(path), filepath.Base(path), b)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

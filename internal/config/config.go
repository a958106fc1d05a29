package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/dirbatch/internal/app"
	"github.com/John-Robertt/dirbatch/internal/domain"
	"github.com/John-Robertt/dirbatch/internal/logging"
)

const (
	// ErrCodeNotFound 表示通过 --config 显式指定的配置文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法（例如 batch size < 1）。
	ErrCodeInvalid = domain.ErrCodeConfigInvalid
	// ErrCodeNotDir 表示源路径不存在或不是目录。
	ErrCodeNotDir = domain.ErrCodeConfigNotDir
)

const (
	// DefaultFileName 是未指定 --config 时在 cwd 下查找的配置文件名（可选）。
	DefaultFileName = "dirbatch.toml"
	// DefaultDir 与 DefaultOutput 与原工具的默认值一致。
	DefaultDir    = "."
	DefaultOutput = "."
)

// CLIArgs 是命令行入口，保留“是否显式指定”的信息，以实现 CLI > 配置文件 > 默认值 的覆盖优先级。
type CLIArgs struct {
	Dir    string
	DirSet bool

	Output    string
	OutputSet bool

	BatchSize    int
	BatchSizeSet bool

	Report    string
	ReportSet bool

	LogLevel    string
	LogLevelSet bool
	Debug       bool

	// ConfigPath 非空时该文件必须存在；为空则尝试 <cwd>/dirbatch.toml（不存在不报错）。
	ConfigPath string
}

// FileConfig 对应 dirbatch.toml / dirbatch.yaml 的解析结构。
type FileConfig struct {
	Dir       string    `toml:"dir" yaml:"dir"`
	Output    string    `toml:"output" yaml:"output"`
	BatchSize *int      `toml:"batch_size" yaml:"batch_size"`
	Report    string    `toml:"report" yaml:"report"`
	Log       LogConfig `toml:"log" yaml:"log"`
}

type LogConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Format string `toml:"format" yaml:"format"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（运行期间不可变）。
type EffectiveConfig struct {
	// Dir 是 clean + absolute 的源目录。
	Dir string
	// Output 原样保留：它是目录名前缀，而不是相对 cwd 的路径。
	Output    string
	BatchSize int

	// Report 为空表示不写报告文件。
	Report string

	LogLevel  string
	LogFormat string

	// ConfigFile 是实际读取到的配置文件（未读取则为空）。
	ConfigFile string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeNotDir:
		return fmt.Sprintf("%s：%q 不是目录", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			if e.Path != "" {
				return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
			}
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
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

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：
// - dir/output/batch_size/report/log.level：CLI（显式指定时）> 配置文件 > 默认值
// - log.format：仅由配置文件控制
// - --debug 强制 log level=debug
//
// 路径基准：CLI 中的相对路径相对 cwd；配置文件中的相对路径相对配置文件所在目录。
// 校验在任何写入之前完成：batch size < 1、源路径不是目录都在这里失败。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, DefaultFileName)
	required := false
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		required = true
	}

	fc, exists, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	if !exists {
		if required {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
		cfgPath = ""
	}

	return merge(cwdAbs, cli, fc, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	cfgDir := cwdAbs
	if cfgPath != "" {
		cfgDir = filepath.Dir(cfgPath)
	}

	dir := absCleanFrom(cwdAbs, DefaultDir)
	if cli.DirSet {
		dir = absCleanFrom(cwdAbs, cli.Dir)
	} else if strings.TrimSpace(fc.Dir) != "" {
		dir = absCleanFrom(cfgDir, fc.Dir)
	}

	output := DefaultOutput
	if cli.OutputSet {
		output = cli.Output
	} else if strings.TrimSpace(fc.Output) != "" {
		output = fc.Output
	}
	if strings.TrimSpace(output) == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("output 不能为空")}
	}

	batchSize := app.DefaultBatchSize
	if cli.BatchSizeSet {
		batchSize = cli.BatchSize
	} else if fc.BatchSize != nil {
		batchSize = *fc.BatchSize
	}
	if batchSize < 1 {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("%w：实际 %d", app.ErrInvalidBatchSize, batchSize)}
	}

	report := ""
	if cli.ReportSet && strings.TrimSpace(cli.Report) != "" {
		report = absCleanFrom(cwdAbs, cli.Report)
	} else if !cli.ReportSet && strings.TrimSpace(fc.Report) != "" {
		report = absCleanFrom(cfgDir, fc.Report)
	}

	level := logging.DefaultLevel
	if cli.LogLevelSet {
		level = cli.LogLevel
	} else if strings.TrimSpace(fc.Log.Level) != "" {
		level = fc.Log.Level
	}
	if cli.Debug {
		level = "debug"
	}
	format := strings.ToLower(strings.TrimSpace(fc.Log.Format))
	if !logging.ValidFormat(format) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("log.format 只能是 console 或 json，实际是 %q", fc.Log.Format)}
	}
	if format == "" {
		format = logging.FormatConsole
	}

	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return EffectiveConfig{}, &Error{Code: ErrCodeNotDir, Path: dir, Err: err}
	}

	return EffectiveConfig{
		Dir:        dir,
		Output:     output,
		BatchSize:  batchSize,
		Report:     report,
		LogLevel:   level,
		LogFormat:  format,
		ConfigFile: cfgPath,
	}, nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析配置文件；格式由扩展名决定（.yaml/.yml 为 YAML，其余按 TOML）。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。未知字段视为错误，避免拼写错误被静默忽略。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(b))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return FileConfig{}, true, err
		}
	default:
		md, err := toml.Decode(string(b), &fc)
		if err != nil {
			return FileConfig{}, true, err
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return FileConfig{}, true, fmt.Errorf("未知字段：%v", undecoded)
		}
	}
	return fc, true, nil
}

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultURL 是内置示例图片（带完整 EXIF），CLI 与配置都未指定时使用。
	DefaultURL = "https://raw.githubusercontent.com/ianare/exif-samples/master/jpg/Canon_40D.jpg"
	// DefaultOutput 是输出文件的默认相对路径（相对 cwd）。
	DefaultOutput = "output_with_metadata.jpg"
	// DefaultTimeoutSeconds 是抓取阶段的默认时限（秒）。
	DefaultTimeoutSeconds = 30
	// maxTimeoutSeconds 防止配置把时限抬到不合理的量级；超出截断。
	maxTimeoutSeconds = 300
)

// CLIArgs 只包含 CLI 暴露的三项入口（url/out/font），并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：CLI 显式给出的值必须能覆盖配置文件。
type CLIArgs struct {
	URL    string
	URLSet bool

	Output    string
	OutputSet bool

	FontPath    string
	FontPathSet bool
}

// FileConfig 对应 pmo.json 的解析结构（文件可选，位于 cwd）。
type FileConfig struct {
	URL       string   `json:"url"`
	Output    string   `json:"output"`
	FontPaths []string `json:"font_paths"`

	// TimeoutSeconds 属于高级能力，仅通过 pmo.json 配置，不暴露 CLI 参数。
	TimeoutSeconds int `json:"timeout_seconds"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置
// （实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	URL    string
	Output string // 绝对路径

	// FontPaths 追加在平台候选列表之前（最先尝试）。
	FontPaths []string

	Timeout time.Duration
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：配置 %q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：配置 %q 无效", e.Code, e.Path)
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

// LoadEffective 读取可选的 <cwd>/pmo.json 并与 CLI 参数合并为最终配置。
//
// 覆盖优先级（固定）：
// - url：CLI > config > 内置示例 URL
// - output：CLI > config > 默认文件名（相对 cwd 解析为绝对路径）
// - 字体：CLI --font 排在 config font_paths 之前，两者都排在平台候选之前
// - timeout_seconds：仅由 config 控制（CLI 不暴露）
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, "pmo.json")
	fc, _, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// url：CLI > config > 默认
	rawURL := DefaultURL
	if cli.URLSet {
		rawURL = cli.URL
	} else if strings.TrimSpace(fc.URL) != "" {
		rawURL = fc.URL
	}
	if err := validateURL(rawURL); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	// output：CLI > config > 默认
	out := DefaultOutput
	if cli.OutputSet {
		out = cli.Output
	} else if strings.TrimSpace(fc.Output) != "" {
		out = fc.Output
	}
	outAbs := absCleanFrom(cwdAbs, out)
	if outAbs == "" {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: fmt.Errorf("output 不能为空")}
	}

	fontPaths := make([]string, 0, 1+len(fc.FontPaths))
	if cli.FontPathSet && strings.TrimSpace(cli.FontPath) != "" {
		fontPaths = append(fontPaths, cli.FontPath)
	}
	fontPaths = append(fontPaths, fc.FontPaths...)

	sec := fc.TimeoutSeconds
	if sec <= 0 {
		sec = DefaultTimeoutSeconds
	}
	if sec > maxTimeoutSeconds {
		sec = maxTimeoutSeconds
	}

	return EffectiveConfig{
		URL:       rawURL,
		Output:    outAbs,
		FontPaths: fontPaths,
		Timeout:   time.Duration(sec) * time.Second,
	}, nil
}

func validateURL(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("url 不能为空")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("url 无效：%w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url 必须是 http/https：%q", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("url 缺少主机名：%q", raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if p == "" || p == "." {
		return ""
	}
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 JSON 配置文件；文件不存在不算错误（配置可选）。
func readFileConfig(path string) (FileConfig, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}

	var fc FileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, true, fmt.Errorf("JSON 解析失败：%w", err)
	}
	return fc, true, nil
}

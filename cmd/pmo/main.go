package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/John-Robertt/PMO/internal/app/run"
	"github.com/John-Robertt/PMO/internal/config"
	"github.com/John-Robertt/PMO/internal/domain"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	switch args[0] {
	case "run":
		if code := runCmd(args[1:]); code != 0 {
			os.Exit(code)
		}
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		os.Exit(2)
	}
}

func runCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printRunUsage()
			return 0
		}
	}

	ra, err := parseRunArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printRunUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		URL:         ra.URL,
		URLSet:      ra.URLSet,
		Output:      ra.Output,
		OutputSet:   ra.OutputSet,
		FontPath:    ra.FontPath,
		FontPathSet: ra.FontPathSet,
	})
	if err != nil {
		rr := reportForConfigError(ra, err)
		emitReport(rr)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs run.Observer
	if interactive {
		obs = newStageUI(progressW)
	}

	rr := run.ExecuteWithObserver(context.Background(), eff, obs)
	emitReport(rr)
	if rr.Status == domain.StatusOK {
		return 0
	}
	return 1
}

type runArgs struct {
	URL    string
	URLSet bool

	Output    string
	OutputSet bool

	FontPath    string
	FontPathSet bool
}

func parseRunArgs(args []string) (runArgs, error) {
	ra := runArgs{}

	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--out":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--out 需要一个值")
			}
			i++
			ra.Output = args[i]
			ra.OutputSet = true
		case strings.HasPrefix(a, "--out="):
			ra.Output = strings.TrimPrefix(a, "--out=")
			ra.OutputSet = true
		case a == "--font":
			if i+1 >= len(args) {
				return runArgs{}, fmt.Errorf("--font 需要一个值")
			}
			i++
			ra.FontPath = args[i]
			ra.FontPathSet = true
		case strings.HasPrefix(a, "--font="):
			ra.FontPath = strings.TrimPrefix(a, "--font=")
			ra.FontPathSet = true
		case strings.HasPrefix(a, "-"):
			return runArgs{}, fmt.Errorf("未知参数 %q", a)
		default:
			if ra.URLSet {
				return runArgs{}, fmt.Errorf("重复的 url：%q 与 %q", ra.URL, a)
			}
			ra.URL = a
			ra.URLSet = true
		}
	}

	if ra.OutputSet && strings.TrimSpace(ra.Output) == "" {
		return runArgs{}, fmt.Errorf("--out 不能为空")
	}
	if ra.FontPathSet && strings.TrimSpace(ra.FontPath) == "" {
		return runArgs{}, fmt.Errorf("--font 不能为空")
	}

	return ra, nil
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pmo run [url] [--out 路径] [--font 路径]

命令：
  run    抓取图片、读取 EXIF 并把元数据烧入图片后保存

使用 "pmo run --help" 查看详细说明。
`)
}

func printRunUsage() {
	fmt.Fprint(os.Stdout, `用法：
  pmo run [url] [--out 路径] [--font 路径]

参数：
  url         源图片地址（未指定则读 pmo.json；最终默认内置示例图）
  --out       输出 JPEG 路径（默认 output_with_metadata.jpg，已存在则覆盖）
  --font      优先使用的字体文件（失败时按平台候选列表降级，最终内置字体兜底）
  -h, --help  显示帮助
`)
}

func emitReport(rr domain.RunReport) {
	if isTTY(os.Stdout) {
		if rr.Status == domain.StatusOK {
			fmt.Fprintf(os.Stdout, "完成：%s（%dx%d，字体 %s）\n", rr.Output, rr.Width, rr.Height, rr.Font)
			fmt.Fprintf(os.Stdout, "  camera:   %s\n", rr.Meta.Camera)
			fmt.Fprintf(os.Stdout, "  lens:     %s\n", rr.Meta.Lens)
			fmt.Fprintf(os.Stdout, "  exposure: %s %s %s\n", rr.Meta.Aperture, rr.Meta.Shutter, rr.Meta.ISO)
			fmt.Fprintf(os.Stdout, "  datetime: %s\n", rr.Meta.DateTime)
			return
		}
		fmt.Fprintf(os.Stderr, "失败：%s %s\n", rr.ErrorCode, rr.ErrorMsg)
		return
	}

	// stdout 非 TTY：stdout 必须且仅输出一个 RunReport JSON（摘要走 stderr）。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rr)
	if rr.Status == domain.StatusOK {
		fmt.Fprintf(os.Stderr, "完成：%s（%dx%d）\n", rr.Output, rr.Width, rr.Height)
	} else {
		fmt.Fprintf(os.Stderr, "失败：%s %s\n", rr.ErrorCode, rr.ErrorMsg)
	}
}

func reportForConfigError(ra runArgs, err error) domain.RunReport {
	rr := domain.RunReport{
		URL:       ra.URL,
		Output:    ra.Output,
		ErrorCode: config.Code(err),
		ErrorMsg:  err.Error(),
	}
	if rr.ErrorCode == "" {
		rr.ErrorCode = domain.ErrCodeConfigInvalid
	}
	rr.Finalize()
	return rr
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	// 某些环境（例如仅重定向 stderr）下，stdout 仍是 TTY：退化输出到 stdout。
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

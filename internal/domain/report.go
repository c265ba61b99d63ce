package domain

import "time"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

const (
	ErrCodeFetchFailed   = "fetch_failed"
	ErrCodeFetchTimeout  = "fetch_timeout"
	ErrCodeDecodeFailed  = "decode_failed"
	ErrCodeFormatInvalid = "format_invalid"
	ErrCodeIOFailed      = "io_failed"
	ErrCodeConfigInvalid = "config_invalid"
)

// RunReport 是对外稳定输出（stdout JSON）的结构。
//
// 契约：
// - 成功：status=ok，meta 六字段全部填充，width/height 为输出图片尺寸
// - 失败：status=failed，error_code 为上面的稳定枚举，error_msg 面向人读
// - 不存在部分成功：失败的 run 不会留下输出文件
type RunReport struct {
	URL    string `json:"url"`
	Output string `json:"output"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Width  int    `json:"width"`
	Height int    `json:"height"`
	Font   string `json:"font"` // 最终生效的字体（候选路径或 "builtin"）

	Meta PhotoMeta `json:"meta"`
}

// Finalize 做两件事：
// 1) 时间统一为 UTC（确保 JSON 为 RFC3339 且后缀 Z）
// 2) status 由 error_code 推导（error_code 为空即成功）
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()
	if r.ErrorCode == "" {
		r.Status = StatusOK
	} else {
		r.Status = StatusFailed
	}
}

package main

import (
	"fmt"
	"io"
	"time"

	"github.com/John-Robertt/PMO/internal/app/run"
	"github.com/John-Robertt/PMO/internal/config"
	"github.com/John-Robertt/PMO/internal/domain"
)

var _ run.Observer = (*stageUI)(nil)

// stageUI 是交互终端的阶段进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 事件驱动：run 层只发事件，CLI 决定如何展示
type stageUI struct {
	w io.Writer
}

func newStageUI(w io.Writer) *stageUI {
	return &stageUI{w: w}
}

func (u *stageUI) OnStart(eff config.EffectiveConfig) {
	fmt.Fprintf(u.w, "[%s] pmo run\n", time.Now().Format("15:04:05"))
	fmt.Fprintf(u.w, "  源：%s\n", eff.URL)
	fmt.Fprintf(u.w, "  出：%s\n", eff.Output)
}

func (u *stageUI) OnStage(name string, dur time.Duration) {
	var hint string
	switch name {
	case run.StageFetch:
		hint = "下载完成"
	case run.StageExtract:
		hint = "EXIF 解析完成"
	case run.StageRender:
		hint = "叠加渲染完成"
	case run.StageWrite:
		hint = "写入完成"
	default:
		hint = name
	}
	fmt.Fprintf(u.w, "  %-8s %s（%s）\n", name, hint, dur.Round(time.Millisecond))
}

func (u *stageUI) OnDone(rr domain.RunReport) {
	if rr.Status == domain.StatusOK {
		fmt.Fprintf(u.w, "  用时 %s\n", rr.FinishedAt.Sub(rr.StartedAt).Round(time.Millisecond))
	}
}

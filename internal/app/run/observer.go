package run

import (
	"time"

	"github.com/John-Robertt/PMO/internal/config"
	"github.com/John-Robertt/PMO/internal/domain"
)

// 流水线阶段名（Observer 事件里使用的稳定标识）。
const (
	StageFetch   = "fetch"
	StageExtract = "extract"
	StageRender  = "render"
	StageWrite   = "write"
)

// Observer 用于把“运行进度/阶段结果”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）
// - 流水线是单线程顺序执行，事件按阶段顺序到达，不会并发
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用（应尽量早，保证用户 1 秒内看到输出）。
	OnStart(eff config.EffectiveConfig)
	// OnStage 在某个阶段成功完成时调用。
	OnStage(name string, dur time.Duration)
	// OnDone 在整个 run 结束时调用（成功或失败都会触发）。
	OnDone(rr domain.RunReport)
}

package run

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	"github.com/John-Robertt/PMO/internal/config"
	"github.com/John-Robertt/PMO/internal/domain"
	"github.com/John-Robertt/PMO/internal/exifx"
	"github.com/John-Robertt/PMO/internal/infra/fontx"
	"github.com/John-Robertt/PMO/internal/infra/fsx"
	"github.com/John-Robertt/PMO/internal/infra/httpx"
	"github.com/John-Robertt/PMO/internal/infra/imgx"
)

// fontSize 是叠加文字的字号（点；内置回退字体会忽略它）。
const fontSize = 24

// Execute 执行一次完整流水线（抓取 → 解标签 → 渲染 → 落盘），返回对外稳定的 RunReport。
//
// 语义：
// - 只抓取一次：像素与 EXIF 都从同一份字节缓冲解码
// - 全有或全无：任何失败都不会留下输出文件
// - 字体解析失败不算失败（降级为内置字体，report 标注生效字体）
func Execute(ctx context.Context, eff config.EffectiveConfig) domain.RunReport {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 输出阶段进度（由上层决定是否启用）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) domain.RunReport {
	started := time.Now().UTC()

	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		URL:       eff.URL,
		Output:    eff.Output,
		StartedAt: started,
	}

	fail := func(code string, err error) domain.RunReport {
		rr.ErrorCode = code
		rr.ErrorMsg = err.Error()
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		if obs != nil {
			obs.OnDone(rr)
		}
		return rr
	}

	stageStart := time.Now()
	stage := func(name string) {
		if obs != nil {
			obs.OnStage(name, time.Since(stageStart))
		}
		stageStart = time.Now()
	}

	client := httpx.NewClient(eff.Timeout)
	raw, err := httpx.Fetch(ctx, client, eff.URL)
	if err != nil {
		return fail(classifyFetch(err), err)
	}
	stage(StageFetch)

	img, err := imgx.Decode(raw)
	if err != nil {
		return fail(domain.ErrCodeDecodeFailed, err)
	}

	tags, err := exifx.DecodeTags(raw)
	if err != nil {
		return fail(domain.ErrCodeDecodeFailed, err)
	}
	meta, err := exifx.Normalize(tags)
	if err != nil {
		return fail(domain.ErrCodeFormatInvalid, err)
	}
	stage(StageExtract)

	face, fontName := fontx.DefaultFace(fontSize, eff.FontPaths...)
	out := imgx.Overlay(img, meta, face)
	stage(StageRender)

	enc, err := imgx.EncodeJPEG(out)
	if err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	if err := fsx.WriteFileAtomicReplace(filepath.Dir(eff.Output), filepath.Base(eff.Output), enc); err != nil {
		return fail(domain.ErrCodeIOFailed, err)
	}
	stage(StageWrite)

	rr.Meta = meta
	rr.Font = fontName
	rr.Width = out.Bounds().Dx()
	rr.Height = out.Bounds().Dy()
	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()
	if obs != nil {
		obs.OnDone(rr)
	}
	return rr
}

// classifyFetch 把抓取阶段的错误归入稳定 error_code。
func classifyFetch(err error) string {
	var te *httpx.TimeoutError
	if errors.As(err, &te) {
		return domain.ErrCodeFetchTimeout
	}
	return domain.ErrCodeFetchFailed
}

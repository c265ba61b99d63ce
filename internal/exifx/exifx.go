package exifx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"

	goexif "github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	_ "image/jpeg" // 注册 JPEG 解码器（容器识别用）
	_ "image/png"  // 注册 PNG 解码器

	_ "golang.org/x/image/webp" // 注册 WebP 解码器

	"github.com/John-Robertt/PMO/internal/domain"
)

// 缺失标签的回退字面量。对外契约的一部分：不要改动。
const (
	FallbackCamera   = "Unknown Camera"
	FallbackLens     = "Unknown Lens"
	FallbackAperture = "f/?"
	FallbackShutter  = "?s"
	FallbackISO      = "ISO ?"
	FallbackDateTime = "Unknown Date"
)

// DecodeError 表示字节流不是可识别的图片容器。
// 注意区分：EXIF 块缺失不是错误（走回退），只有容器整体不可解码才是。
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("无法识别的图片数据：%v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// FormatError 表示某个标签存在但值的格式不符合约定（目前只有拍摄时间会触发）。
type FormatError struct {
	Tag   string
	Value string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("标签 %s 的值格式非法：%q", e.Tag, e.Value)
}

// wantFields 是归一化需要的全部标签；其余标签一律忽略（不报错）。
var wantFields = []goexif.FieldName{
	goexif.Make,
	goexif.Model,
	goexif.LensModel,
	goexif.FNumber,
	goexif.ExposureTime,
	goexif.ISOSpeedRatings,
	goexif.DateTimeOriginal,
}

// DecodeTags 从原始图片字节中解出需要的 EXIF 标签。
//
// - 字节流不是可识别的图片容器：返回 DecodeError
// - 容器可识别但没有 EXIF 块（或块损坏）：返回空集，由归一化走回退
func DecodeTags(raw []byte) (domain.TagSet, error) {
	if len(raw) == 0 {
		return nil, &DecodeError{Err: errors.New("输入为空")}
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, &DecodeError{Err: err}
	}

	x, err := goexif.Decode(bytes.NewReader(raw))
	if err != nil {
		return domain.TagSet{}, nil
	}

	ts := make(domain.TagSet, len(wantFields))
	for _, f := range wantFields {
		tag, err := x.Get(f)
		if err != nil || tag == nil {
			continue
		}
		if v, ok := tagValue(tag); ok {
			ts[string(f)] = v
		}
	}
	return ts, nil
}

// tagValue 把一个 TIFF 标签的首个值转成字符串。
// 有理数保持 "num/denom" 原样，由 Normalize 决定展示格式。
func tagValue(t *tiff.Tag) (string, bool) {
	switch t.Format() {
	case tiff.StringVal:
		s, err := t.StringVal()
		if err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case tiff.RatVal:
		num, den, err := t.Rat2(0)
		if err != nil {
			return "", false
		}
		return fmt.Sprintf("%d/%d", num, den), true
	case tiff.IntVal:
		v, err := t.Int(0)
		if err != nil {
			return "", false
		}
		return strconv.Itoa(v), true
	case tiff.FloatVal:
		v, err := t.Float(0)
		if err != nil {
			return "", false
		}
		return strconv.FormatFloat(v, 'g', -1, 64), true
	default:
		return "", false
	}
}

// Normalize 把标签集确定性地映射为 PhotoMeta。
//
// 纯函数：只依赖输入；六个字段保证全部填充（缺失用回退字面量）。
// 唯一的失败路径是拍摄时间格式非法（FormatError）。
func Normalize(ts domain.TagSet) (domain.PhotoMeta, error) {
	m := domain.PhotoMeta{
		Camera:   FallbackCamera,
		Lens:     FallbackLens,
		Aperture: FallbackAperture,
		Shutter:  FallbackShutter,
		ISO:      FallbackISO,
		DateTime: FallbackDateTime,
	}

	mk := strings.TrimSpace(ts["Make"])
	md := strings.TrimSpace(ts["Model"])
	switch {
	case mk != "" && md != "":
		m.Camera = strings.TrimSpace(mk + " " + md)
	case md != "":
		m.Camera = md
	}

	if v := strings.TrimSpace(ts["LensModel"]); v != "" {
		m.Lens = v
	}

	if v := strings.TrimSpace(ts["FNumber"]); v != "" {
		m.Aperture = formatAperture(v)
	}

	if v := strings.TrimSpace(ts["ExposureTime"]); v != "" {
		m.Shutter = v + "s"
	}

	if v := strings.TrimSpace(ts["ISOSpeedRatings"]); v != "" {
		m.ISO = "ISO " + v
	}

	if v := strings.TrimSpace(ts["DateTimeOriginal"]); v != "" {
		dt, err := formatDateTime(v)
		if err != nil {
			return domain.PhotoMeta{}, err
		}
		m.DateTime = dt
	}

	return m, nil
}

// formatAperture 把 FNumber 原始值转为展示格式。
//
// - "num/denom"：计算商并保留一位小数，例如 "8/1" -> "f/8.0"
// - 普通数字：原样拼接，例如 "4" -> "f/4"
// - 分数不可解析（含除零）：退化为 "f/?"
func formatAperture(raw string) string {
	if !strings.Contains(raw, "/") {
		return "f/" + raw
	}
	parts := strings.SplitN(raw, "/", 2)
	num, err1 := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	den, err2 := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err1 != nil || err2 != nil || den == 0 {
		return FallbackAperture
	}
	return fmt.Sprintf("f/%.1f", num/den)
}

// formatDateTime 把 EXIF 的 "YYYY:MM:DD HH:MM:SS" 转为 "YYYY-MM-DD HH:MM:SS"。
// 日期与时间之间必须恰好一个空格，否则视为格式非法。
func formatDateTime(raw string) (string, error) {
	parts := strings.Split(raw, " ")
	if len(parts) != 2 {
		return "", &FormatError{Tag: "DateTimeOriginal", Value: raw}
	}
	return strings.ReplaceAll(parts[0], ":", "-") + " " + parts[1], nil
}

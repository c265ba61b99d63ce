package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	_ "image/png" // 注册 PNG 解码器（输入不一定总是 jpeg）

	_ "golang.org/x/image/webp" // 注册 WebP 解码器

	"github.com/John-Robertt/PMO/internal/domain"
)

const (
	// 版式常量：左下三行相机信息，右下一行拍摄时间。
	margin     = 20
	lineHeight = 30

	// 阴影半径 2：每行 24 个黑色偏移副本 + 1 次白色正文。
	shadowRadius = 2

	jpegQuality = 95
)

// Decode 把原始字节解码为像素图（JPEG/PNG/WebP，见解码器注册）。
func Decode(raw []byte) (image.Image, error) {
	if len(raw) == 0 {
		return nil, errors.New("图片数据为空")
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, errors.New("图片尺寸无效")
	}
	return img, nil
}

// textLine 是一条已定位的待绘制文本；坐标是该行的左上角（基线在绘制时换算）。
type textLine struct {
	text string
	x, y int
}

// layoutLines 把元数据映射为全部待绘制行及其坐标。
//
// 纯函数：版式只依赖元数据与图片宽高；右对齐额外依赖注入的 measure。
// measure 不可用（nil 或测宽 <=0）时右下行退化为左边距对齐，而不是失败。
func layoutLines(meta domain.PhotoMeta, width, height int, measure func(string) int) []textLine {
	left := []string{
		meta.Camera,
		meta.Lens,
		meta.Aperture + " " + meta.Shutter + " " + meta.ISO,
	}

	lines := make([]textLine, 0, len(left)+1)
	y := height - margin - len(left)*lineHeight
	for _, s := range left {
		lines = append(lines, textLine{text: s, x: margin, y: y})
		y += lineHeight
	}

	x := margin
	if measure != nil {
		if w := measure(meta.DateTime); w > 0 {
			x = width - margin - w
		}
	}
	lines = append(lines, textLine{text: meta.DateTime, x: x, y: height - margin - lineHeight})
	return lines
}

// Overlay 在 src 的副本上烧入元数据文本，返回新缓冲。
//
// 不修改 src；调用方拥有返回值（不要假设任何就地修改对外可见）。
func Overlay(src image.Image, meta domain.PhotoMeta, face font.Face) *image.RGBA {
	if face == nil {
		face = basicfont.Face7x13
	}

	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	measure := func(s string) int {
		return font.MeasureString(face, s).Ceil()
	}
	ascent := face.Metrics().Ascent.Ceil()

	for _, ln := range layoutLines(meta, b.Dx(), b.Dy(), measure) {
		drawHalo(dst, face, ln.x, ln.y+ascent, ln.text)
	}
	return dst
}

// drawHalo 先画 (dx,dy)∈[-r,r]² 去掉 (0,0) 的黑色阴影副本，再画白色正文。
// 暴力晕圈：保证任意背景上可读。(x,y) 是基线坐标。
func drawHalo(dst draw.Image, face font.Face, x, y int, s string) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
	}
	for dy := -shadowRadius; dy <= shadowRadius; dy++ {
		for dx := -shadowRadius; dx <= shadowRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			d.Dot = fixed.P(x+dx, y+dy)
			d.DrawString(s)
		}
	}

	d.Src = image.NewUniform(color.White)
	d.Dot = fixed.P(x, y)
	d.DrawString(s)
}

// EncodeJPEG 把最终图片编码为 JPEG（固定质量 95）。
func EncodeJPEG(img image.Image) ([]byte, error) {
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
